package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garagebill/pkg/money"
)

type BillType string

const (
	BillTypeGST    BillType = "gst"
	BillTypeNonGST BillType = "non-gst"
)

// PartLine is a part as it appears on a bill.
type PartLine struct {
	PartID        *uuid.UUID      `json:"part_id,omitempty"`
	Name          string          `json:"name"`
	PartNumber    *string         `json:"part_number,omitempty"`
	HSNCode       *string         `json:"hsn_code,omitempty"`
	Quantity      int             `json:"quantity"`
	PricePerUnit  money.Money     `json:"price_per_unit"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	LineTax       money.Money     `json:"line_tax"`
	Total         money.Money     `json:"total"`
}

type ServiceLine struct {
	Name         string      `json:"name"`
	EngineerName string      `json:"engineer_name"`
	LaborCost    money.Money `json:"labor_cost"`
	SACCode      *string     `json:"sac_code,omitempty"`
}

// BillSummary is always derived from its inputs and never stored alone.
type BillSummary struct {
	TotalPartsCost money.Money `json:"total_parts_cost"`
	TotalLaborCost money.Money `json:"total_labor_cost"`
	Subtotal       money.Money `json:"subtotal"`
	Discount       money.Money `json:"discount"`
	GSTAmount      money.Money `json:"gst_amount"`
	TotalAmount    money.Money `json:"total_amount"`
}

// Equal compares every amount numerically.
func (s BillSummary) Equal(o BillSummary) bool {
	return s.TotalPartsCost.Equal(o.TotalPartsCost) &&
		s.TotalLaborCost.Equal(o.TotalLaborCost) &&
		s.Subtotal.Equal(o.Subtotal) &&
		s.Discount.Equal(o.Discount) &&
		s.GSTAmount.Equal(o.GSTAmount) &&
		s.TotalAmount.Equal(o.TotalAmount)
}

type Party struct {
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Email     string  `json:"email,omitempty"`
	GSTIN     *string `json:"gstin,omitempty"`
	State     string  `json:"state,omitempty"`
	StateCode string  `json:"state_code,omitempty"`
}

// BillRequest is what the billing screen submits on generate.
type BillRequest struct {
	Parts          []PartLine      `json:"parts"`
	Services       []ServiceLine   `json:"services"`
	Discount       money.Money     `json:"discount"`
	GSTPercentage  decimal.Decimal `json:"gst_percentage"`
	GSTMode        GSTMode         `json:"gst_mode,omitempty"`
	FixedGSTAmount money.Money     `json:"fixed_gst_amount"`
	IsInterState   *bool           `json:"is_inter_state,omitempty"`
	BillType       BillType        `json:"bill_type"`
	BillToParty    Party           `json:"bill_to_party"`
	ShiftToParty   *Party          `json:"shift_to_party,omitempty"`
}

type InvoiceResult struct {
	InvoiceNumber    string      `json:"invoice_number"`
	TotalAmount      money.Money `json:"total_amount"`
	GSTAmount        money.Money `json:"gst_amount"`
	GrandTotal       money.Money `json:"grand_total"`
	GeneratedAt      time.Time   `json:"generated_at"`
	AlreadyGenerated bool        `json:"already_generated"`
}
