package invoicing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"garagebill/internal/models"
	"garagebill/pkg/money"
)

const registerSheet = "GST Register"

var registerHeaders = []string{
	"Invoice No", "Date", "Customer", "Customer GSTIN", "Bill Type",
	"Taxable Value", "CGST", "SGST", "IGST", "Total GST",
	"Discount", "Total", "Round Off", "Grand Total",
}

// GSTRegister writes the invoices of a period into an xlsx workbook, one
// row per invoice plus a totals row.
func GSTRegister(invoices []*models.Invoice, from, to time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	amountFormat := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &amountFormat})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(registerSheet, "A1", fmt.Sprintf("GST Register %s to %s", from.Format("02-Jan-2006"), to.Format("02-Jan-2006")))
	f.SetCellStyle(registerSheet, "A1", "A1", titleStyle)

	const headerRow = 3
	for i, header := range registerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(registerSheet, cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(registerHeaders), headerRow)
	f.SetCellStyle(registerSheet, first, last, headerStyle)

	sums := make([]money.Money, len(registerHeaders))
	row := headerRow + 1
	for _, inv := range invoices {
		taxes := taxByLabel(inv.TaxRows)
		amounts := map[int]money.Money{
			6:  inv.Summary.Subtotal,
			7:  taxes["CGST"],
			8:  taxes["SGST"],
			9:  taxes["IGST"],
			10: inv.Summary.GSTAmount,
			11: inv.Summary.Discount,
			12: inv.Summary.TotalAmount,
			13: inv.RoundOff,
			14: inv.GrandTotal,
		}

		values := []interface{}{
			inv.InvoiceNumber,
			inv.BillingDate.Format("2006-01-02"),
			inv.BillTo.Name,
			gstinOf(inv.BillTo),
			string(inv.BillType),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(registerSheet, cell, v)
		}
		for col, amount := range amounts {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(registerSheet, cell, amount.Decimal().InexactFloat64())
			f.SetCellStyle(registerSheet, cell, cell, amountStyle)
			sums[col-1] = sums[col-1].Add(amount)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(1, row)
	f.SetCellValue(registerSheet, totalLabel, "Total")
	f.SetCellStyle(registerSheet, totalLabel, totalLabel, totalStyle)
	for col := 6; col <= len(registerHeaders); col++ {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(registerSheet, cell, sums[col-1].Decimal().InexactFloat64())
		f.SetCellStyle(registerSheet, cell, cell, totalStyle)
	}

	f.SetColWidth(registerSheet, "A", "A", 28)
	f.SetColWidth(registerSheet, "C", "D", 22)
	f.SetColWidth(registerSheet, "F", "N", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write GST register: %w", err)
	}
	return buf, nil
}

func taxByLabel(rows []models.TaxRow) map[string]money.Money {
	out := make(map[string]money.Money, len(rows))
	for _, r := range rows {
		out[r.Label] = out[r.Label].Add(r.Amount)
	}
	return out
}

func gstinOf(p models.Party) string {
	if p.GSTIN == nil {
		return ""
	}
	return *p.GSTIN
}
