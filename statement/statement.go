/*
Package statement renders a recorded wage calculation as a PDF.

PURPOSE:
  Contract documents attach a one-page wage statement showing how the
  monthly figure was reached: the shift, weekly hours, whether weekly
  holiday pay applies and the monthly base/holiday/total split.

FONTS:
  Uses the built-in Helvetica core font, so labels are ASCII. Amounts are
  formatted with thousands separators and a KRW suffix.

SEE ALSO:
  - contract/types.go: Record rendered here
*/
package statement

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/wage-engine/contract"
	"github.com/warp/wage-engine/wage"
)

// Render writes a wage statement PDF for rec to w.
func Render(w io.Writer, rec contract.Record) error {
	in, est := rec.Input, rec.Result

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Wage statement "+rec.ID, false)
	pdf.SetCreationDate(rec.CreatedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Wage Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	line(pdf, "Contract", rec.ContractID)
	line(pdf, "Calculation", rec.ID)
	line(pdf, "Policy", fmt.Sprintf("%s (v%d)", rec.PolicyID, rec.PolicyVersion))
	line(pdf, "Issued", rec.CreatedAt.UTC().Format(time.DateOnly))
	pdf.Ln(4)

	section(pdf, "Working schedule")
	line(pdf, "Shift", fmt.Sprintf("%s - %s, break %d min", in.StartTime, in.EndTime, in.BreakMinutes))
	line(pdf, "Daily work hours", hours(est.DailyWorkHours))
	line(pdf, "Work days per week", hours(in.WorkDaysPerWeek))
	line(pdf, "Weekly work hours", hours(est.WeeklyHolidayPay.WeeklyWorkHours))
	line(pdf, "Hourly wage", won(in.HourlyWage))
	pdf.Ln(4)

	section(pdf, "Weekly holiday pay")
	if est.WeeklyHolidayPay.IsEligible {
		line(pdf, "Eligible", "yes")
		line(pdf, "Paid rest hours per week", hours(est.WeeklyHolidayPay.WeeklyHolidayHours))
		line(pdf, "Per week", won(est.WeeklyHolidayPay.WeeklyHolidayPayPerWeek))
		line(pdf, "Per worked hour", won(est.WeeklyHolidayPay.WeeklyHolidayPayPerHour))
	} else {
		line(pdf, "Eligible", "no (under the weekly hours threshold)")
	}
	pdf.Ln(4)

	section(pdf, "Monthly wage")
	line(pdf, "Weeks per month", hours(est.Monthly.WeeksPerMonth))
	line(pdf, "Base wage", won(est.Monthly.BaseWage))
	line(pdf, "Weekly holiday pay", won(est.Monthly.WeeklyHolidayPay))
	pdf.SetFont("Helvetica", "B", 11)
	line(pdf, "Total", won(est.Monthly.TotalWage))
	pdf.SetFont("Helvetica", "", 10)

	if mw := est.MinimumWage; mw.Enforced && !mw.Compliant {
		pdf.Ln(4)
		pdf.SetTextColor(180, 0, 0)
		pdf.MultiCell(0, 6, fmt.Sprintf("Hourly wage is %s below the minimum wage of %s.",
			won(mw.ShortfallPerHour), won(mw.MinimumWage)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.Cell(70, 6, label)
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}

func won(w wage.Won) string { return w.String() + " KRW" }

func hours(h float64) string { return strconv.FormatFloat(h, 'f', -1, 64) }
