// Package invoicing assembles the frozen invoice document for a job and
// renders it for the export channels: PDF, mail, share message and the
// GST register workbook.
package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"garagebill/internal/billing"
	"garagebill/internal/models"
	"garagebill/pkg/money"
)

// Builder turns a parsed bill into an Invoice. Seller and Bank come from
// configuration.
type Builder struct {
	Seller models.Party
	Bank   models.BankDetails
	Now    func() time.Time
}

func NewBuilder(seller models.Party, bank models.BankDetails) *Builder {
	return &Builder{Seller: seller, Bank: bank, Now: time.Now}
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// Build computes the summary for in and freezes it together with party,
// vehicle and payment details under invoiceNumber.
func (b *Builder) Build(invoiceNumber string, job *models.Job, in billing.Input, billTo models.Party, shiftTo *models.Party) (*models.Invoice, error) {
	summary, err := billing.ComputeSummary(in)
	if err != nil {
		return nil, err
	}
	rounding := billing.RoundTotal(summary.TotalAmount)
	now := b.now()

	billType := models.BillTypeNonGST
	if in.GST.IncludeGST {
		billType = models.BillTypeGST
	}
	if strings.TrimSpace(billTo.Name) == "" {
		billTo.Name = job.CustomerName
	}
	if billTo.Phone == "" && job.CustomerPhone != nil {
		billTo.Phone = *job.CustomerPhone
	}
	if billTo.Email == "" && job.CustomerEmail != nil {
		billTo.Email = *job.CustomerEmail
	}
	shipTo := billTo
	if shiftTo != nil && strings.TrimSpace(shiftTo.Name) != "" {
		shipTo = *shiftTo
	}

	inv := &models.Invoice{
		OwnerID:       job.OwnerID,
		JobID:         job.ID,
		JobNumber:     job.JobNumber,
		InvoiceNumber: invoiceNumber,
		BillingDate:   now,
		BillType:      billType,
		Seller:        b.Seller,
		BillTo:        billTo,
		ShiftTo:       shipTo,
		Vehicle: models.Vehicle{
			Number:   job.VehicleNumber,
			Model:    job.VehicleModel,
			Odometer: job.Odometer,
		},
		Items:         lineItems(in),
		Summary:       summary,
		IsInterState:  in.GST.IsInterState,
		TaxRows:       TaxRows(summary.GSTAmount, in.GST),
		RoundOff:      rounding.RoundOff,
		ShowRoundOff:  rounding.Show,
		GrandTotal:    rounding.GrandTotal,
		AmountInWords: billing.AmountInWords(rounding.GrandTotal),
		Bank:          b.Bank,
		GeneratedAt:   now,
	}
	if in.GST.IncludeGST {
		inv.GSTMode = in.GST.Mode
	}
	return inv, nil
}

func lineItems(in billing.Input) []models.InvoiceLine {
	items := make([]models.InvoiceLine, 0, len(in.Parts)+len(in.Services))
	for _, p := range in.Parts {
		line := models.InvoiceLine{
			SlNo:          len(items) + 1,
			Kind:          models.InvoiceLinePart,
			Description:   p.Name,
			HSNSAC:        p.HSNCode,
			Quantity:      p.Quantity,
			Rate:          p.PricePerUnit,
			TaxPercentage: p.TaxPercentage,
			TaxAmount:     p.LineTax,
			Amount:        p.Total,
		}
		if p.PartNumber != nil {
			line.Detail = *p.PartNumber
		}
		items = append(items, line)
	}
	for _, s := range in.Services {
		items = append(items, models.InvoiceLine{
			SlNo:        len(items) + 1,
			Kind:        models.InvoiceLineService,
			Description: s.Name,
			Detail:      s.EngineerName,
			HSNSAC:      s.SACCode,
			Quantity:    1,
			Rate:        s.LaborCost,
			TaxAmount:   money.Zero(),
			Amount:      s.LaborCost,
		})
	}
	return items
}

// TaxRows is one IGST row for inter-state supply, otherwise a CGST and an
// SGST row. Both rows derive from the single gst amount.
func TaxRows(gst money.Money, profile models.GSTProfile) []models.TaxRow {
	if !profile.IncludeGST {
		return nil
	}
	split := billing.SplitGST(gst, profile.IsInterState)

	var pct func(decimal.Decimal) *decimal.Decimal
	if profile.Mode != models.GSTModeFixedAmount {
		pct = func(d decimal.Decimal) *decimal.Decimal { return &d }
	} else {
		pct = func(decimal.Decimal) *decimal.Decimal { return nil }
	}

	if profile.IsInterState {
		return []models.TaxRow{{Label: "IGST", Percentage: pct(profile.Percentage()), Amount: split.IGST}}
	}
	return []models.TaxRow{
		{Label: "CGST", Percentage: pct(profile.CGSTPercentage()), Amount: split.CGST},
		{Label: "SGST", Percentage: pct(profile.SGSTPercentage()), Amount: split.SGST},
	}
}

// Verify checks that a (possibly re-parsed) invoice still adds up.
func Verify(inv *models.Invoice) error {
	s := inv.Summary
	if !s.Subtotal.Equal(s.TotalPartsCost.Add(s.TotalLaborCost)) {
		return fmt.Errorf("invoice %s: subtotal %s does not match parts and labor", inv.InvoiceNumber, s.Subtotal)
	}
	if !s.TotalAmount.Equal(s.Subtotal.Add(s.GSTAmount).Sub(s.Discount)) {
		return fmt.Errorf("invoice %s: total %s does not reconcile", inv.InvoiceNumber, s.TotalAmount)
	}
	taxes := money.Zero()
	for _, row := range inv.TaxRows {
		taxes = taxes.Add(row.Amount)
	}
	if len(inv.TaxRows) > 0 && !taxes.Equal(s.GSTAmount) {
		return fmt.Errorf("invoice %s: tax rows sum to %s, gst is %s", inv.InvoiceNumber, taxes, s.GSTAmount)
	}
	if !inv.GrandTotal.Equal(s.TotalAmount.Add(inv.RoundOff)) {
		return fmt.Errorf("invoice %s: grand total %s does not match round-off", inv.InvoiceNumber, inv.GrandTotal)
	}
	return nil
}
