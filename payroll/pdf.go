package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/payroll-engine/generic"
)

// WritePayslipPDF renders a committed payslip as a one-page A4 document.
// The document is a view; it is never stored.
func WritePayslipPDF(w io.Writer, p Payslip) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", p.EmployeeID, p.PayPeriod), true)
	pdf.SetCreator(ServiceName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	header := []string{
		fmt.Sprintf("Employee: %s", p.EmployeeID),
		fmt.Sprintf("Designation: %s", p.Designation),
		fmt.Sprintf("Pay period: %s (%s)", p.PayPeriod, p.PayPeriod.Period()),
		fmt.Sprintf("Payslip: %s", p.ID),
	}
	for _, line := range header {
		pdf.Cell(0, 8, line)
		pdf.Ln(7)
	}
	pdf.Ln(5)

	rows := [][2]string{
		{"Base salary", generic.FormatMoney(p.BaseSalary)},
		{"Bonuses", generic.FormatMoney(p.TotalBonuses)},
		{fmt.Sprintf("Unpaid leave (%d days)", p.UnpaidLeaveDays), "-" + generic.FormatMoney(p.UnpaidLeaveDeduction)},
		{fmt.Sprintf("Tax (%s%%)", p.TaxPercentage.String()), "-" + generic.FormatMoney(p.TaxAmount)},
	}
	for _, row := range rows {
		pdf.CellFormat(100, 8, row[0], "B", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, row[1], "B", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(100, 10, "Net salary", "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 10, generic.FormatMoney(p.NetSalary), "", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s by %s", p.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), p.GeneratedBy))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering payslip pdf: %w", err)
	}
	return nil
}
