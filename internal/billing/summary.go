package billing

import (
	"fmt"

	"garagebill/internal/common"
	"garagebill/internal/models"
	"garagebill/pkg/money"
)

// Input is everything a bill summary depends on.
type Input struct {
	Parts    []models.PartLine
	Services []models.ServiceLine
	Discount money.Money
	GST      models.GSTProfile
}

// ComputeSummary aggregates parts and labor into a bill summary. GST is
// charged on the undiscounted subtotal and the discount comes off the
// final total. A discount larger than the subtotal is rejected.
func ComputeSummary(in Input) (models.BillSummary, error) {
	partsCost := money.Zero()
	for i, p := range in.Parts {
		if p.Total.IsNegative() {
			return models.BillSummary{}, common.NewValidationError(fmt.Sprintf("parts[%d].total", i), "cannot be negative")
		}
		partsCost = partsCost.Add(p.Total)
	}

	laborCost := money.Zero()
	for i, s := range in.Services {
		if s.LaborCost.IsNegative() {
			return models.BillSummary{}, common.NewValidationError(fmt.Sprintf("services[%d].labor_cost", i), "cannot be negative")
		}
		laborCost = laborCost.Add(s.LaborCost)
	}

	subtotal := partsCost.Add(laborCost)

	if in.Discount.IsNegative() {
		return models.BillSummary{}, common.NewValidationError("discount", "cannot be negative")
	}
	if in.Discount.GreaterThan(subtotal) {
		return models.BillSummary{}, common.NewValidationError("discount", fmt.Sprintf("cannot exceed subtotal %s", subtotal))
	}
	if in.GST.IncludeGST && in.GST.Mode == models.GSTModeFixedAmount && in.GST.FixedAmount.IsNegative() {
		return models.BillSummary{}, common.NewValidationError("fixed_gst_amount", "cannot be negative")
	}

	gst := BillGST(subtotal, in.GST)

	return models.BillSummary{
		TotalPartsCost: partsCost,
		TotalLaborCost: laborCost,
		Subtotal:       subtotal,
		Discount:       in.Discount,
		GSTAmount:      gst,
		TotalAmount:    subtotal.Add(gst).Sub(in.Discount),
	}, nil
}

var roundOffEpsilon = money.MustParse("0.01")

// Rounding is the round-off row and the rupee-rounded grand total.
type Rounding struct {
	RoundOff   money.Money
	GrandTotal money.Money
	Show       bool
}

func RoundTotal(total money.Money) Rounding {
	grand := total.RoundRupee()
	off := grand.Sub(total)
	return Rounding{
		RoundOff:   off,
		GrandTotal: grand,
		Show:       !off.Abs().LessThan(roundOffEpsilon),
	}
}
