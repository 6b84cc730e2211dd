package billing

import (
	"fmt"
	"strings"

	"garagebill/internal/common"
	"garagebill/internal/models"
)

// ParseRequest turns a submitted bill into an aggregator Input. Part lines
// are re-priced from rate, quantity and tax percentage; any totals the
// client sent are ignored. sellerGSTIN decides inter-state supply when the
// request does not say.
func ParseRequest(req models.BillRequest, sellerGSTIN string) (Input, error) {
	in := Input{Discount: req.Discount}

	for i, p := range req.Parts {
		field := fmt.Sprintf("parts[%d]", i)
		if err := common.ValidateRequiredString(p.Name, field+".name"); err != nil {
			return Input{}, err
		}
		if p.Quantity < 1 {
			return Input{}, common.NewValidationError(field+".quantity", "must be at least 1")
		}
		if p.PricePerUnit.IsNegative() {
			return Input{}, common.NewValidationError(field+".price_per_unit", "cannot be negative")
		}
		line := p
		line.Name = strings.TrimSpace(p.Name)
		line.TaxPercentage = models.ClampPercent(p.TaxPercentage)
		sgst, cgst := SplitLinePercentage(line.TaxPercentage)
		line.LineTax = CombinedLineTax(p.PricePerUnit, p.Quantity, sgst, cgst)
		line.Total = p.PricePerUnit.Times(p.Quantity).Add(line.LineTax)
		in.Parts = append(in.Parts, line)
	}

	for i, s := range req.Services {
		field := fmt.Sprintf("services[%d]", i)
		if err := common.ValidateRequiredString(s.Name, field+".name"); err != nil {
			return Input{}, err
		}
		if s.LaborCost.IsNegative() {
			return Input{}, common.NewValidationError(field+".labor_cost", "cannot be negative")
		}
		line := s
		line.Name = strings.TrimSpace(s.Name)
		in.Services = append(in.Services, line)
	}

	if len(in.Parts) == 0 && len(in.Services) == 0 {
		return Input{}, common.NewValidationError("parts", "a bill needs at least one part or service")
	}

	billType := req.BillType
	if billType == "" {
		billType = models.BillTypeNonGST
		if req.GSTPercentage.IsPositive() || req.GSTMode == models.GSTModeFixedAmount {
			billType = models.BillTypeGST
		}
	}
	if billType != models.BillTypeGST && billType != models.BillTypeNonGST {
		return Input{}, common.NewValidationError("bill_type", "must be either 'gst' or 'non-gst'")
	}

	mode := req.GSTMode
	if mode == "" {
		mode = models.GSTModePercentage
	}
	if mode != models.GSTModePercentage && mode != models.GSTModeFixedAmount {
		return Input{}, common.NewValidationError("gst_mode", "must be either 'percentage' or 'fixed_amount'")
	}

	customerGSTIN := common.SafeString(req.BillToParty.GSTIN)
	if err := common.ValidateGSTIN(customerGSTIN, "bill_to_party.gstin"); err != nil {
		return Input{}, err
	}

	in.GST = models.GSTProfile{
		IncludeGST:   billType == models.BillTypeGST,
		Mode:         mode,
		FixedAmount:  req.FixedGSTAmount,
		IsInterState: isInterState(req.IsInterState, sellerGSTIN, customerGSTIN),
	}
	if customerGSTIN != "" {
		in.GST.CustomerGSTIN = &customerGSTIN
	}
	// out-of-range rates clamp to [0, 100], as line rates do
	in.GST.SetPercentage(req.GSTPercentage)

	return in, nil
}

func isInterState(explicit *bool, sellerGSTIN, customerGSTIN string) bool {
	if explicit != nil {
		return *explicit
	}
	seller := common.GSTINStateCode(sellerGSTIN)
	customer := common.GSTINStateCode(customerGSTIN)
	return seller != "" && customer != "" && seller != customer
}
