// Package billing holds the pure tax and bill arithmetic. Nothing here
// performs I/O; every function returns the same output for the same input.
package billing

import (
	"github.com/shopspring/decimal"

	"garagebill/internal/models"
	"garagebill/pkg/money"
)

// LineTax returns round(price * qty * pct / 100).
func LineTax(price money.Money, qty int, pct decimal.Decimal) money.Money {
	return price.Times(qty).Percent(models.ClampPercent(pct))
}

// CombinedLineTax adds the enabled SGST and CGST components of one line.
func CombinedLineTax(price money.Money, qty int, sgst, cgst models.LineTax) money.Money {
	total := money.Zero()
	if sgst.Enabled {
		total = total.Add(LineTax(price, qty, sgst.Percentage))
	}
	if cgst.Enabled {
		total = total.Add(LineTax(price, qty, cgst.Percentage))
	}
	return total
}

func LineTotal(price money.Money, qty int, sgst, cgst models.LineTax) money.Money {
	return price.Times(qty).Add(CombinedLineTax(price, qty, sgst, cgst))
}

// EffectiveLinePercentage is the sum of the enabled component rates.
func EffectiveLinePercentage(sgst, cgst models.LineTax) decimal.Decimal {
	pct := decimal.Zero
	if sgst.Enabled {
		pct = pct.Add(models.ClampPercent(sgst.Percentage))
	}
	if cgst.Enabled {
		pct = pct.Add(models.ClampPercent(cgst.Percentage))
	}
	return pct
}

// SplitLinePercentage turns one combined line rate into equal SGST and
// CGST components, both enabled when the rate is non-zero.
func SplitLinePercentage(pct decimal.Decimal) (sgst, cgst models.LineTax) {
	pct = models.ClampPercent(pct)
	if pct.IsZero() {
		return models.LineTax{}, models.LineTax{}
	}
	half := pct.Div(decimal.NewFromInt(2))
	return models.LineTax{Enabled: true, Percentage: pct.Sub(half)},
		models.LineTax{Enabled: true, Percentage: half}
}

// BillGST is the single authoritative GST amount for a bill.
func BillGST(subtotal money.Money, profile models.GSTProfile) money.Money {
	if !profile.IncludeGST {
		return money.Zero()
	}
	if profile.Mode == models.GSTModeFixedAmount {
		return profile.FixedAmount
	}
	return subtotal.Percent(profile.Percentage())
}

// GSTSplit is the display breakdown of one GST amount.
type GSTSplit struct {
	CGST money.Money `json:"cgst"`
	SGST money.Money `json:"sgst"`
	IGST money.Money `json:"igst"`
}

// SplitGST derives the printed halves from gst. SGST takes whatever CGST
// rounding left over, so CGST+SGST is always exactly gst.
func SplitGST(gst money.Money, interState bool) GSTSplit {
	if interState {
		return GSTSplit{IGST: gst}
	}
	cgst := gst.Half()
	return GSTSplit{CGST: cgst, SGST: gst.Sub(cgst)}
}
