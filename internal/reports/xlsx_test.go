package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
)

func TestBuildExecutiveXLSX(t *testing.T) {
	report := &ExecutiveReport{
		GeneratedAt: time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC),
		Projects:    analytics.ProjectSummary{Total: 3, Active: 2, AvgPercentComplete: 41.5},
		FactoryLoads: []analytics.FactoryLoad{
			{Name: "Tulsa", Status: "active", Capacity: 10, ActiveProjects: 8, UtilizationPct: 80},
		},
		ProjectRollups: []ProjectRollup{
			{Number: "24-101", Name: "Lakeside Clinic", Status: "active", PercentComplete: 40, OpenTasks: 2},
		},
		Clients: []ClientActivity{
			{Name: "Summit Dev", Status: "active", ProjectCount: 4},
		},
	}

	f, err := BuildExecutiveXLSX(report)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	// Reopen the bytes the way a client would.
	reopened, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer reopened.Close()

	assert.ElementsMatch(t,
		[]string{"Summary", "Factory Loads", "Projects", "Clients"},
		reopened.GetSheetList())

	title, err := reopened.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sunbelt Executive Report", title)

	generated, err := reopened.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15 08:30", generated)

	factory, err := reopened.GetCellValue("Factory Loads", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Tulsa", factory)

	projectName, err := reopened.GetCellValue("Projects", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Lakeside Clinic", projectName)

	clientRow, err := reopened.GetCellValue("Clients", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Summit Dev", clientRow)
}

func TestBuildExecutiveXLSX_EmptyReport(t *testing.T) {
	f, err := BuildExecutiveXLSX(&ExecutiveReport{GeneratedAt: time.Now()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	assert.Greater(t, buf.Len(), 0)
}
