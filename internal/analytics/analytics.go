// Package analytics holds the pure aggregation arithmetic behind the
// dashboard tiles and executive reports: status breakdowns, overdue
// counts, averages, and rates over already-fetched fact slices. No I/O
// happens here; repositories produce the fact slices.
package analytics

import (
	"math"
	"sort"
	"time"
)

// StatusCount is one row of a status breakdown tile.
type StatusCount struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Canonical tile ordering per entity. Unknown statuses sort after these,
// alphabetically, so a bad row never breaks a report.
var (
	TaskStatusOrder      = []string{"todo", "in_progress", "blocked", "done"}
	RFIStatusOrder       = []string{"open", "answered", "closed"}
	SubmittalStatusOrder = []string{"draft", "submitted", "under_review", "approved", "approved_as_noted", "revise_resubmit", "rejected"}
	ProjectStatusOrder   = []string{"planning", "active", "on_hold", "completed", "archived"}
)

// StatusBreakdown counts statuses and returns ordered rows with percent
// shares. A zero total yields zero percentages, never NaN.
func StatusBreakdown(statuses []string, order []string) []StatusCount {
	counts := make(map[string]int, len(order))
	for _, s := range statuses {
		counts[s]++
	}

	rows := make([]StatusCount, 0, len(counts))
	seen := make(map[string]bool, len(order))
	for _, s := range order {
		seen[s] = true
		rows = append(rows, StatusCount{Status: s, Count: counts[s]})
	}

	extra := make([]string, 0)
	for s := range counts {
		if !seen[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	for _, s := range extra {
		rows = append(rows, StatusCount{Status: s, Count: counts[s]})
	}

	total := len(statuses)
	for i := range rows {
		rows[i].Percent = Rate(rows[i].Count, total)
	}
	return rows
}

// Rate returns part/total as a percentage rounded to one decimal place.
// A zero total yields 0.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// avgDays averages the given durations in days, one decimal place.
func avgDays(ds []time.Duration) float64 {
	if len(ds) == 0 {
		return 0
	}
	var sum float64
	for _, d := range ds {
		sum += d.Hours() / 24
	}
	return round1(sum / float64(len(ds)))
}

// TaskFacts is the slice of a task row the aggregates need.
type TaskFacts struct {
	Status      string
	DueDate     *time.Time
	CompletedAt *time.Time
}

type TaskSummary struct {
	Total          int           `json:"total"`
	ByStatus       []StatusCount `json:"by_status"`
	Overdue        int           `json:"overdue"`
	CompletionRate float64       `json:"completion_rate"`
}

// TaskStats computes the task tiles. Overdue means due before now and
// not done; it is derived here at read time, never stored.
func TaskStats(now time.Time, facts []TaskFacts) TaskSummary {
	statuses := make([]string, len(facts))
	done := 0
	overdue := 0
	for i, f := range facts {
		statuses[i] = f.Status
		if f.Status == "done" {
			done++
			continue
		}
		if f.DueDate != nil && f.DueDate.Before(now) {
			overdue++
		}
	}
	return TaskSummary{
		Total:          len(facts),
		ByStatus:       StatusBreakdown(statuses, TaskStatusOrder),
		Overdue:        overdue,
		CompletionRate: Rate(done, len(facts)),
	}
}

// RFIFacts is the slice of an RFI row the aggregates need.
type RFIFacts struct {
	Status     string
	CreatedAt  time.Time
	DueDate    *time.Time
	AnsweredAt *time.Time
}

type RFISummary struct {
	Total           int           `json:"total"`
	ByStatus        []StatusCount `json:"by_status"`
	OverdueOpen     int           `json:"overdue_open"`
	AvgResponseDays float64       `json:"avg_response_days"`
	ResponseRate    float64       `json:"response_rate"`
}

// RFIStats computes the RFI tiles. Response time is answered_at minus
// created_at; only answered RFIs contribute to the average.
func RFIStats(now time.Time, facts []RFIFacts) RFISummary {
	statuses := make([]string, len(facts))
	answered := 0
	overdueOpen := 0
	var responses []time.Duration
	for i, f := range facts {
		statuses[i] = f.Status
		if f.AnsweredAt != nil {
			answered++
			responses = append(responses, f.AnsweredAt.Sub(f.CreatedAt))
		}
		if f.Status == "open" && f.DueDate != nil && f.DueDate.Before(now) {
			overdueOpen++
		}
	}
	return RFISummary{
		Total:           len(facts),
		ByStatus:        StatusBreakdown(statuses, RFIStatusOrder),
		OverdueOpen:     overdueOpen,
		AvgResponseDays: avgDays(responses),
		ResponseRate:    Rate(answered, len(facts)),
	}
}

// SubmittalFacts is the slice of a submittal row the aggregates need.
type SubmittalFacts struct {
	Status      string
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
}

type SubmittalSummary struct {
	Total         int           `json:"total"`
	ByStatus      []StatusCount `json:"by_status"`
	PendingReview int           `json:"pending_review"`
	ApprovalRate  float64       `json:"approval_rate"`
	AvgReviewDays float64       `json:"avg_review_days"`
}

// SubmittalStats computes the submittal tiles. The approval rate is
// approved (including approved-as-noted) over all reviewed submittals.
func SubmittalStats(facts []SubmittalFacts) SubmittalSummary {
	statuses := make([]string, len(facts))
	pending := 0
	approved := 0
	reviewed := 0
	var reviews []time.Duration
	for i, f := range facts {
		statuses[i] = f.Status
		switch f.Status {
		case "submitted", "under_review":
			pending++
		case "approved", "approved_as_noted":
			approved++
			reviewed++
		case "revise_resubmit", "rejected":
			reviewed++
		}
		if f.SubmittedAt != nil && f.ReviewedAt != nil {
			reviews = append(reviews, f.ReviewedAt.Sub(*f.SubmittedAt))
		}
	}
	return SubmittalSummary{
		Total:         len(facts),
		ByStatus:      StatusBreakdown(statuses, SubmittalStatusOrder),
		PendingReview: pending,
		ApprovalRate:  Rate(approved, reviewed),
		AvgReviewDays: avgDays(reviews),
	}
}

// ProjectFacts is the slice of a project row the aggregates need.
type ProjectFacts struct {
	Status          string
	PercentComplete int
}

type ProjectSummary struct {
	Total              int           `json:"total"`
	ByStatus           []StatusCount `json:"by_status"`
	Active             int           `json:"active"`
	AvgPercentComplete float64       `json:"avg_percent_complete"`
}

// ProjectStats computes the project tiles. Archived projects are
// excluded from the percent-complete average.
func ProjectStats(facts []ProjectFacts) ProjectSummary {
	statuses := make([]string, len(facts))
	active := 0
	var pctSum, pctN int
	for i, f := range facts {
		statuses[i] = f.Status
		if f.Status == "active" {
			active++
		}
		if f.Status != "archived" {
			pctSum += f.PercentComplete
			pctN++
		}
	}
	avg := 0.0
	if pctN > 0 {
		avg = round1(float64(pctSum) / float64(pctN))
	}
	return ProjectSummary{
		Total:              len(facts),
		ByStatus:           StatusBreakdown(statuses, ProjectStatusOrder),
		Active:             active,
		AvgPercentComplete: avg,
	}
}

// FactoryFacts is the slice of a factory row the aggregates need;
// ActiveProjects is precounted by the repository.
type FactoryFacts struct {
	PublicID       string
	Name           string
	Status         string
	Capacity       int
	ActiveProjects int
}

type FactoryLoad struct {
	PublicID       string  `json:"public_id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Capacity       int     `json:"capacity"`
	ActiveProjects int     `json:"active_projects"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// FactoryLoads computes per-factory utilization, most loaded first.
// Zero or negative capacity yields 0 rather than dividing by zero; an
// overbooked factory legitimately reports more than 100.
func FactoryLoads(facts []FactoryFacts) []FactoryLoad {
	out := make([]FactoryLoad, len(facts))
	for i, f := range facts {
		pct := 0.0
		if f.Capacity > 0 {
			pct = round1(float64(f.ActiveProjects) / float64(f.Capacity) * 100)
		}
		out[i] = FactoryLoad{
			PublicID:       f.PublicID,
			Name:           f.Name,
			Status:         f.Status,
			Capacity:       f.Capacity,
			ActiveProjects: f.ActiveProjects,
			UtilizationPct: pct,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UtilizationPct != out[j].UtilizationPct {
			return out[i].UtilizationPct > out[j].UtilizationPct
		}
		return out[i].Name < out[j].Name
	})
	return out
}
