package invoicing

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"garagebill/internal/models"
)

// PDFOptions tunes the rendered document.
type PDFOptions struct {
	ShowUPIQR bool
	Footer    string
}

var (
	colWidths  = []float64{10, 62, 20, 12, 22, 14, 20, 30}
	colHeaders = []string{"#", "Description", "HSN/SAC", "Qty", "Rate", "Tax %", "Tax", "Amount"}
)

// RenderPDF renders an invoice to PDF bytes. The layout is plain; every
// number comes from the invoice as stored.
func RenderPDF(inv *models.Invoice, opts PDFOptions) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(inv.InvoiceNumber, false)
	pdf.SetAuthor(inv.Seller.Name, false)
	pdf.AddPage()

	marginX := 10.0
	marginY := 12.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	// Seller
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.CellFormat(0, 8, tr(inv.Seller.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range partyLines(inv.Seller) {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	title := "TAX INVOICE"
	if inv.BillType == models.BillTypeNonGST {
		title = "BILL OF SUPPLY"
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "1", 1, "C", true, 0, "")
	pdf.Ln(2)

	// Invoice meta
	pdf.SetFont("Arial", "", 9)
	meta := [][2]string{
		{"Invoice No", inv.InvoiceNumber},
		{"Date", inv.BillingDate.Format("02-Jan-2006")},
		{"Job No", inv.JobNumber},
		{"Vehicle", vehicleLine(inv.Vehicle)},
	}
	for _, kv := range meta {
		if kv[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(28, 5, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// Bill to / shift to
	y := pdf.GetY()
	writePartyBlock(pdf, tr, marginX, y, "BILL TO", inv.BillTo)
	endLeft := pdf.GetY()
	writePartyBlock(pdf, tr, marginX+95, y, "SHIFT TO", inv.ShiftTo)
	if endLeft > pdf.GetY() {
		pdf.SetY(endLeft)
	}
	pdf.Ln(4)

	// Items
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, header := range colHeaders {
		pdf.CellFormat(colWidths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for _, item := range inv.Items {
		desc := item.Description
		if item.Detail != "" {
			desc = fmt.Sprintf("%s (%s)", desc, item.Detail)
		}
		hsn := ""
		if item.HSNSAC != nil {
			hsn = *item.HSNSAC
		}
		taxPct := ""
		if item.Kind == models.InvoiceLinePart {
			taxPct = item.TaxPercentage.String()
		}
		cells := []struct {
			text  string
			align string
		}{
			{fmt.Sprintf("%d", item.SlNo), "C"},
			{truncate(desc, 40), "L"},
			{hsn, "C"},
			{fmt.Sprintf("%d", item.Quantity), "C"},
			{item.Rate.String(), "R"},
			{taxPct, "R"},
			{item.TaxAmount.String(), "R"},
			{item.Amount.String(), "R"},
		}
		for i, c := range cells {
			pdf.CellFormat(colWidths[i], 7, tr(c.text), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(7)
	}
	pdf.Ln(4)

	// Totals
	totals := [][2]string{
		{"Parts", inv.Summary.TotalPartsCost.String()},
		{"Labour", inv.Summary.TotalLaborCost.String()},
		{"Subtotal", inv.Summary.Subtotal.String()},
	}
	for _, row := range inv.TaxRows {
		label := row.Label
		if row.Percentage != nil {
			label = fmt.Sprintf("%s (%s%%)", row.Label, row.Percentage.String())
		}
		totals = append(totals, [2]string{label, row.Amount.String()})
	}
	if !inv.Summary.Discount.IsZero() {
		totals = append(totals, [2]string{"Discount", "-" + inv.Summary.Discount.String()})
	}
	totals = append(totals, [2]string{"Total", inv.Summary.TotalAmount.String()})
	if inv.ShowRoundOff {
		totals = append(totals, [2]string{"Round Off", inv.RoundOff.String()})
	}

	pdf.SetFont("Arial", "", 9)
	for _, row := range totals {
		pdf.CellFormat(150, 6, row[0]+":", "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(220, 20, 60)
	pdf.CellFormat(150, 8, "GRAND TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Rs. "+inv.GrandTotal.String(), "", 1, "R", false, 0, "")
	pdf.SetTextColor(33, 37, 41)

	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, tr(inv.AmountInWords), "", "L", false)
	pdf.Ln(4)

	// Bank and payment
	bankTop := pdf.GetY()
	if lines := bankLines(inv.Bank); len(lines) > 0 {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, "BANK DETAILS", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, line := range lines {
			pdf.CellFormat(120, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}

	if opts.ShowUPIQR && inv.Bank.UPIID != "" {
		png, err := qrcode.Encode(UPIPaymentURI(inv), qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate payment QR code: %w", err)
		}
		imageName := "upi-" + inv.InvoiceNumber
		imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imageName, imageOpts, bytes.NewReader(png))
		pdf.ImageOptions(imageName, 160, bankTop, 35, 35, false, imageOpts, 0, "")
		pdf.SetXY(160, bankTop+35)
		pdf.SetFont("Arial", "", 7)
		pdf.CellFormat(35, 4, "Scan to pay", "", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	footer := opts.Footer
	if footer == "" {
		footer = "This is a computer generated invoice."
	}
	pdf.MultiCell(0, 4, tr(footer), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// UPIPaymentURI is the upi://pay link encoded in the invoice QR code.
func UPIPaymentURI(inv *models.Invoice) string {
	payee := inv.Bank.AccountName
	if payee == "" {
		payee = inv.Seller.Name
	}
	q := url.Values{}
	q.Set("pa", inv.Bank.UPIID)
	q.Set("pn", payee)
	q.Set("am", inv.GrandTotal.String())
	q.Set("cu", "INR")
	q.Set("tn", inv.InvoiceNumber)
	return "upi://pay?" + q.Encode()
}

func writePartyBlock(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64, title string, p models.Party) {
	pdf.SetXY(x, y)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(90, 5, title, "", 2, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(90, 5, tr(p.Name), "", 2, "L", false, 0, "")
	for _, line := range partyLines(p) {
		pdf.CellFormat(90, 5, tr(truncate(line, 55)), "", 2, "L", false, 0, "")
	}
}

func partyLines(p models.Party) []string {
	var lines []string
	if p.Address != "" {
		lines = append(lines, p.Address)
	}
	if p.Phone != "" {
		lines = append(lines, "Phone: "+p.Phone)
	}
	if p.Email != "" {
		lines = append(lines, "Email: "+p.Email)
	}
	if p.GSTIN != nil && *p.GSTIN != "" {
		lines = append(lines, "GSTIN: "+*p.GSTIN)
	}
	if p.State != "" {
		state := "State: " + p.State
		if p.StateCode != "" {
			state += " (" + p.StateCode + ")"
		}
		lines = append(lines, state)
	}
	return lines
}

func bankLines(b models.BankDetails) []string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Account Name", b.AccountName)
	add("Bank", b.BankName)
	add("Account No", b.AccountNumber)
	add("IFSC", b.IFSC)
	add("Branch", b.Branch)
	add("UPI", b.UPIID)
	return lines
}

func vehicleLine(v models.Vehicle) string {
	parts := []string{}
	if v.Number != "" {
		parts = append(parts, v.Number)
	}
	if v.Model != nil && *v.Model != "" {
		parts = append(parts, *v.Model)
	}
	if v.Odometer != nil {
		parts = append(parts, fmt.Sprintf("%d km", *v.Odometer))
	}
	return strings.Join(parts, " / ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
