// Package report renders meal adherence as a PDF document.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/starford/mealtime/internal/models"
)

// maxDays caps the daily table so the report stays on a page or two.
const maxDays = 30

// Source is the read model a report is built from. *diet.Store satisfies it.
type Source interface {
	ActivePlan() *models.DietPlan
	Adherence(days int, now time.Time) int
	DailyProgress() []models.DayProgress
}

// Report is the data printed in an adherence report.
type Report struct {
	GeneratedAt time.Time
	PlanName    string
	Objective   models.Objective
	Adherence7  int
	Adherence30 int
	Days        []models.DayProgress // newest first
}

// Build collects a report from src as of now.
func Build(src Source, now time.Time) Report {
	r := Report{
		GeneratedAt: now,
		Adherence7:  src.Adherence(7, now),
		Adherence30: src.Adherence(30, now),
		Days:        src.DailyProgress(),
	}
	if p := src.ActivePlan(); p != nil {
		r.PlanName = p.Name
		r.Objective = p.Objective
	}
	if len(r.Days) > maxDays {
		r.Days = r.Days[:maxDays]
	}
	return r
}

// WritePDF renders r as an A4 PDF to w.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Meal adherence report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Meal adherence report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(6)
	plan := "No active plan"
	if r.PlanName != "" {
		plan = fmt.Sprintf("Active plan: %s (%s)", r.PlanName, r.Objective)
	}
	pdf.Cell(0, 6, tr(plan))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Last 7 days: %d%%", r.Adherence7))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Last 30 days: %d%%", r.Adherence30))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Daily progress")
	pdf.Ln(8)
	drawDays(pdf, r.Days)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: write pdf: %w", err)
	}
	return nil
}

func drawDays(pdf *gofpdf.Fpdf, days []models.DayProgress) {
	pdf.SetFont("Helvetica", "", 10)
	if len(days) == 0 {
		pdf.Cell(0, 6, "No meals recorded yet.")
		pdf.Ln(6)
		return
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(35, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Done", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Percent", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, d := range days {
		pdf.CellFormat(35, 6, d.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprint(d.Done), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprint(d.Total), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d%%", d.Percent), "1", 0, "C", false, 0, "")

		// Bar proportional to the day's percentage.
		x, y := pdf.GetX(), pdf.GetY()
		pdf.CellFormat(60, 6, "", "1", 1, "", false, 0, "")
		if d.Percent > 0 {
			pdf.SetFillColor(76, 175, 80)
			pdf.Rect(x+1, y+1.5, 58*float64(d.Percent)/100, 3, "F")
		}
	}
}
