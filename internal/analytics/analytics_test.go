package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tp(t time.Time) *time.Time { return &t }

func TestStatusBreakdown(t *testing.T) {
	t.Run("orders known statuses and computes percents", func(t *testing.T) {
		rows := StatusBreakdown([]string{"done", "todo", "todo", "in_progress"}, TaskStatusOrder)

		require.Len(t, rows, 4)
		assert.Equal(t, "todo", rows[0].Status)
		assert.Equal(t, 2, rows[0].Count)
		assert.Equal(t, 50.0, rows[0].Percent)
		assert.Equal(t, "in_progress", rows[1].Status)
		assert.Equal(t, "blocked", rows[2].Status)
		assert.Equal(t, 0, rows[2].Count)
		assert.Equal(t, "done", rows[3].Status)
		assert.Equal(t, 25.0, rows[3].Percent)
	})

	t.Run("unknown statuses sort after the canonical ones", func(t *testing.T) {
		rows := StatusBreakdown([]string{"open", "zz_legacy", "aa_legacy"}, RFIStatusOrder)

		require.Len(t, rows, 5)
		assert.Equal(t, "open", rows[0].Status)
		assert.Equal(t, "aa_legacy", rows[3].Status)
		assert.Equal(t, "zz_legacy", rows[4].Status)
	})

	t.Run("empty input yields zero percents, not NaN", func(t *testing.T) {
		rows := StatusBreakdown(nil, ProjectStatusOrder)

		require.Len(t, rows, len(ProjectStatusOrder))
		for _, row := range rows {
			assert.Equal(t, 0, row.Count)
			assert.Equal(t, 0.0, row.Percent)
		}
	})
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.Equal(t, 0.0, Rate(5, -1))
	assert.Equal(t, 50.0, Rate(1, 2))
	assert.Equal(t, 33.3, Rate(1, 3))
	assert.Equal(t, 66.7, Rate(2, 3))
	assert.Equal(t, 100.0, Rate(3, 3))
}

func TestTaskStats(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	t.Run("overdue counts open tasks past due only", func(t *testing.T) {
		facts := []TaskFacts{
			{Status: "todo", DueDate: tp(yesterday)},
			{Status: "in_progress", DueDate: tp(tomorrow)},
			{Status: "done", DueDate: tp(yesterday), CompletedAt: tp(now)},
			{Status: "blocked"},
		}

		s := TaskStats(now, facts)
		assert.Equal(t, 4, s.Total)
		assert.Equal(t, 1, s.Overdue, "a finished task past its due date is not overdue")
		assert.Equal(t, 25.0, s.CompletionRate)
	})

	t.Run("empty slice", func(t *testing.T) {
		s := TaskStats(now, nil)
		assert.Equal(t, 0, s.Total)
		assert.Equal(t, 0, s.Overdue)
		assert.Equal(t, 0.0, s.CompletionRate)
	})
}

func TestRFIStats(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("response average uses answered RFIs only", func(t *testing.T) {
		created := now.AddDate(0, 0, -10)
		facts := []RFIFacts{
			{Status: "answered", CreatedAt: created, AnsweredAt: tp(created.AddDate(0, 0, 2))},
			{Status: "closed", CreatedAt: created, AnsweredAt: tp(created.AddDate(0, 0, 4))},
			{Status: "open", CreatedAt: created},
		}

		s := RFIStats(now, facts)
		assert.Equal(t, 3, s.Total)
		assert.Equal(t, 3.0, s.AvgResponseDays)
		assert.Equal(t, 66.7, s.ResponseRate)
	})

	t.Run("overdue counts open RFIs past due", func(t *testing.T) {
		facts := []RFIFacts{
			{Status: "open", CreatedAt: now, DueDate: tp(now.AddDate(0, 0, -1))},
			{Status: "answered", CreatedAt: now, DueDate: tp(now.AddDate(0, 0, -1)), AnsweredAt: tp(now)},
			{Status: "open", CreatedAt: now, DueDate: tp(now.AddDate(0, 0, 1))},
		}

		s := RFIStats(now, facts)
		assert.Equal(t, 1, s.OverdueOpen)
	})
}

func TestSubmittalStats(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("approval rate is approved over reviewed", func(t *testing.T) {
		facts := []SubmittalFacts{
			{Status: "approved", SubmittedAt: tp(base), ReviewedAt: tp(base.AddDate(0, 0, 4))},
			{Status: "approved_as_noted", SubmittedAt: tp(base), ReviewedAt: tp(base.AddDate(0, 0, 6))},
			{Status: "rejected", SubmittedAt: tp(base), ReviewedAt: tp(base.AddDate(0, 0, 2))},
			{Status: "submitted", SubmittedAt: tp(base)},
			{Status: "draft"},
		}

		s := SubmittalStats(facts)
		assert.Equal(t, 5, s.Total)
		assert.Equal(t, 1, s.PendingReview)
		assert.Equal(t, 66.7, s.ApprovalRate)
		assert.Equal(t, 4.0, s.AvgReviewDays)
	})

	t.Run("nothing reviewed yields zero approval rate", func(t *testing.T) {
		s := SubmittalStats([]SubmittalFacts{{Status: "draft"}, {Status: "submitted"}})
		assert.Equal(t, 0.0, s.ApprovalRate)
		assert.Equal(t, 0.0, s.AvgReviewDays)
	})
}

func TestProjectStats(t *testing.T) {
	t.Run("archived projects are excluded from the average", func(t *testing.T) {
		facts := []ProjectFacts{
			{Status: "active", PercentComplete: 40},
			{Status: "active", PercentComplete: 60},
			{Status: "completed", PercentComplete: 100},
			{Status: "archived", PercentComplete: 5},
		}

		s := ProjectStats(facts)
		assert.Equal(t, 4, s.Total)
		assert.Equal(t, 2, s.Active)
		assert.Equal(t, 66.7, s.AvgPercentComplete)
	})

	t.Run("all archived", func(t *testing.T) {
		s := ProjectStats([]ProjectFacts{{Status: "archived", PercentComplete: 80}})
		assert.Equal(t, 0.0, s.AvgPercentComplete)
	})
}

func TestFactoryLoads(t *testing.T) {
	facts := []FactoryFacts{
		{PublicID: "fac-1", Name: "Tulsa", Capacity: 10, ActiveProjects: 5},
		{PublicID: "fac-2", Name: "Boise", Capacity: 4, ActiveProjects: 5},
		{PublicID: "fac-3", Name: "Reno", Capacity: 0, ActiveProjects: 3},
		{PublicID: "fac-4", Name: "Austin", Capacity: 10, ActiveProjects: 5},
	}

	loads := FactoryLoads(facts)
	require.Len(t, loads, 4)

	// Overbooked factories report more than 100 and sort first.
	assert.Equal(t, "Boise", loads[0].Name)
	assert.Equal(t, 125.0, loads[0].UtilizationPct)

	// Ties break on name.
	assert.Equal(t, "Austin", loads[1].Name)
	assert.Equal(t, "Tulsa", loads[2].Name)
	assert.Equal(t, 50.0, loads[1].UtilizationPct)

	// Zero capacity never divides.
	assert.Equal(t, "Reno", loads[3].Name)
	assert.Equal(t, 0.0, loads[3].UtilizationPct)
}
