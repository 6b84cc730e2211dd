package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"garagebill/pkg/money"
)

type GSTMode string

const (
	GSTModePercentage  GSTMode = "percentage"
	GSTModeFixedAmount GSTMode = "fixed_amount"
)

var (
	percentFloor   = decimal.Zero
	percentCeiling = decimal.NewFromInt(100)
)

// ClampPercent pins a tax percentage into [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(percentFloor) {
		return percentFloor
	}
	if p.GreaterThan(percentCeiling) {
		return percentCeiling
	}
	return p
}

// GSTProfile holds the bill-level GST settings. The percentage is only
// reachable through SetPercentage so the CGST/SGST halves always add up
// to it.
type GSTProfile struct {
	IncludeGST    bool
	Mode          GSTMode
	FixedAmount   money.Money
	IsInterState  bool
	CustomerGSTIN *string

	percentage     decimal.Decimal
	cgstPercentage decimal.Decimal
	sgstPercentage decimal.Decimal
}

// NewPercentageProfile is a convenience for the common "GST at x%" bill.
func NewPercentageProfile(pct decimal.Decimal, interState bool) GSTProfile {
	p := GSTProfile{IncludeGST: true, Mode: GSTModePercentage, IsInterState: interState}
	p.SetPercentage(pct)
	return p
}

func (g *GSTProfile) SetPercentage(pct decimal.Decimal) {
	pct = ClampPercent(pct)
	g.percentage = pct
	g.cgstPercentage = pct.Div(decimal.NewFromInt(2))
	g.sgstPercentage = pct.Sub(g.cgstPercentage)
}

func (g GSTProfile) Percentage() decimal.Decimal { return g.percentage }

func (g GSTProfile) CGSTPercentage() decimal.Decimal { return g.cgstPercentage }

func (g GSTProfile) SGSTPercentage() decimal.Decimal { return g.sgstPercentage }

type gstProfileJSON struct {
	IncludeGST     bool            `json:"include_gst"`
	Mode           GSTMode         `json:"mode"`
	Percentage     decimal.Decimal `json:"percentage"`
	CGSTPercentage decimal.Decimal `json:"cgst_percentage"`
	SGSTPercentage decimal.Decimal `json:"sgst_percentage"`
	FixedAmount    money.Money     `json:"fixed_amount"`
	IsInterState   bool            `json:"is_inter_state"`
	CustomerGSTIN  *string         `json:"customer_gstin,omitempty"`
}

func (g GSTProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(gstProfileJSON{
		IncludeGST:     g.IncludeGST,
		Mode:           g.Mode,
		Percentage:     g.percentage,
		CGSTPercentage: g.cgstPercentage,
		SGSTPercentage: g.sgstPercentage,
		FixedAmount:    g.FixedAmount,
		IsInterState:   g.IsInterState,
		CustomerGSTIN:  g.CustomerGSTIN,
	})
}

// UnmarshalJSON ignores any incoming cgst/sgst split and re-derives it.
func (g *GSTProfile) UnmarshalJSON(data []byte) error {
	var raw gstProfileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = GSTProfile{
		IncludeGST:    raw.IncludeGST,
		Mode:          raw.Mode,
		FixedAmount:   raw.FixedAmount,
		IsInterState:  raw.IsInterState,
		CustomerGSTIN: raw.CustomerGSTIN,
	}
	if g.Mode == "" {
		g.Mode = GSTModePercentage
	}
	g.SetPercentage(raw.Percentage)
	return nil
}

// LineTax is one independently toggled tax component on a part line.
type LineTax struct {
	Enabled    bool            `json:"enabled"`
	Percentage decimal.Decimal `json:"percentage"`
}
