package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
)

// BuildExecutiveXLSX renders the report as a workbook, one sheet per
// section.
func BuildExecutiveXLSX(r *ExecutiveReport) (*excelize.File, error) {
	f := excelize.NewFile()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	writeSummarySheet(f, summary, r)

	sections := []struct {
		name  string
		write func(*excelize.File, string, *ExecutiveReport)
	}{
		{"Factory Loads", writeFactorySheet},
		{"Projects", writeProjectsSheet},
		{"Clients", writeClientsSheet},
	}
	for _, s := range sections {
		if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		s.write(f, s.name, r)
	}

	f.SetActiveSheet(0)
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values)
}

func writeSummarySheet(f *excelize.File, sheet string, r *ExecutiveReport) {
	f.SetColWidth(sheet, "A", "A", 24)

	row := 1
	setRow(f, sheet, row, "Sunbelt Executive Report")
	row++
	setRow(f, sheet, row, "Generated", r.GeneratedAt.Format("2006-01-02 15:04"))
	row += 2

	setRow(f, sheet, row, "Projects")
	row++
	setRow(f, sheet, row, "Total", r.Projects.Total)
	row++
	setRow(f, sheet, row, "Active", r.Projects.Active)
	row++
	setRow(f, sheet, row, "Avg % Complete", r.Projects.AvgPercentComplete)
	row++
	row = writeBreakdown(f, sheet, row, r.Projects.ByStatus) + 1

	setRow(f, sheet, row, "Tasks")
	row++
	setRow(f, sheet, row, "Total", r.Tasks.Total)
	row++
	setRow(f, sheet, row, "Overdue", r.Tasks.Overdue)
	row++
	setRow(f, sheet, row, "Completion Rate %", r.Tasks.CompletionRate)
	row++
	row = writeBreakdown(f, sheet, row, r.Tasks.ByStatus) + 1

	setRow(f, sheet, row, "RFIs")
	row++
	setRow(f, sheet, row, "Total", r.RFIs.Total)
	row++
	setRow(f, sheet, row, "Overdue Open", r.RFIs.OverdueOpen)
	row++
	setRow(f, sheet, row, "Avg Response Days", r.RFIs.AvgResponseDays)
	row++
	setRow(f, sheet, row, "Response Rate %", r.RFIs.ResponseRate)
	row++
	row = writeBreakdown(f, sheet, row, r.RFIs.ByStatus) + 1

	setRow(f, sheet, row, "Submittals")
	row++
	setRow(f, sheet, row, "Total", r.Submittals.Total)
	row++
	setRow(f, sheet, row, "Pending Review", r.Submittals.PendingReview)
	row++
	setRow(f, sheet, row, "Approval Rate %", r.Submittals.ApprovalRate)
	row++
	setRow(f, sheet, row, "Avg Review Days", r.Submittals.AvgReviewDays)
	row++
	writeBreakdown(f, sheet, row, r.Submittals.ByStatus)
}

func writeBreakdown(f *excelize.File, sheet string, row int, counts []analytics.StatusCount) int {
	setRow(f, sheet, row, "Status", "Count", "Percent")
	row++
	for _, sc := range counts {
		setRow(f, sheet, row, sc.Status, sc.Count, sc.Percent)
		row++
	}
	return row
}

func writeFactorySheet(f *excelize.File, sheet string, r *ExecutiveReport) {
	f.SetColWidth(sheet, "A", "A", 28)

	setRow(f, sheet, 1, "Factory", "Status", "Capacity", "Active Projects", "Utilization %")
	for i, fl := range r.FactoryLoads {
		setRow(f, sheet, i+2, fl.Name, fl.Status, fl.Capacity, fl.ActiveProjects, fl.UtilizationPct)
	}
}

func writeProjectsSheet(f *excelize.File, sheet string, r *ExecutiveReport) {
	f.SetColWidth(sheet, "B", "B", 36)

	setRow(f, sheet, 1, "Number", "Name", "Status", "% Complete", "Open Tasks", "Overdue Tasks", "Open RFIs", "Pending Submittals")
	for i, p := range r.ProjectRollups {
		setRow(f, sheet, i+2, p.Number, p.Name, p.Status, p.PercentComplete, p.OpenTasks, p.OverdueTasks, p.OpenRFIs, p.PendingSubmittals)
	}
}

func writeClientsSheet(f *excelize.File, sheet string, r *ExecutiveReport) {
	f.SetColWidth(sheet, "A", "A", 32)

	setRow(f, sheet, 1, "Client", "Status", "Projects")
	for i, cl := range r.Clients {
		setRow(f, sheet, i+2, cl.Name, cl.Status, cl.ProjectCount)
	}
}
