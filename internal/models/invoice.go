package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garagebill/pkg/money"
)

type InvoiceLineKind string

const (
	InvoiceLinePart    InvoiceLineKind = "part"
	InvoiceLineService InvoiceLineKind = "service"
)

type InvoiceLine struct {
	SlNo          int             `json:"sl_no"`
	Kind          InvoiceLineKind `json:"kind"`
	Description   string          `json:"description"`
	Detail        string          `json:"detail,omitempty"` // part number or engineer
	HSNSAC        *string         `json:"hsn_sac,omitempty"`
	Quantity      int             `json:"quantity"`
	Rate          money.Money     `json:"rate"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	TaxAmount     money.Money     `json:"tax_amount"`
	Amount        money.Money     `json:"amount"`
}

// TaxRow is one printed GST row: CGST and SGST, or a single IGST.
type TaxRow struct {
	Label      string           `json:"label"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Amount     money.Money      `json:"amount"`
}

type Vehicle struct {
	Number   string  `json:"number"`
	Model    *string `json:"model,omitempty"`
	Odometer *int    `json:"odometer,omitempty"`
}

type BankDetails struct {
	AccountName   string `json:"account_name,omitempty" toml:"account_name"`
	BankName      string `json:"bank_name,omitempty" toml:"bank_name"`
	AccountNumber string `json:"account_number,omitempty" toml:"account_number"`
	IFSC          string `json:"ifsc,omitempty" toml:"ifsc"`
	Branch        string `json:"branch,omitempty" toml:"branch"`
	UPIID         string `json:"upi_id,omitempty" toml:"upi_id"`
}

// Invoice is the frozen document generated once per job. Every number a
// renderer prints is already in here.
type Invoice struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	OwnerID       uuid.UUID     `json:"owner_id" db:"owner_id"`
	JobID         uuid.UUID     `json:"job_id" db:"job_id"`
	JobNumber     string        `json:"job_number"`
	InvoiceNumber string        `json:"invoice_number" db:"invoice_number"`
	BillingDate   time.Time     `json:"billing_date" db:"billing_date"`
	BillType      BillType      `json:"bill_type"`
	Seller        Party         `json:"seller"`
	BillTo        Party         `json:"bill_to_party"`
	ShiftTo       Party         `json:"shift_to_party"`
	Vehicle       Vehicle       `json:"vehicle"`
	Items         []InvoiceLine `json:"items"`
	Summary       BillSummary   `json:"summary"`
	GSTMode       GSTMode       `json:"gst_mode,omitempty"`
	IsInterState  bool          `json:"is_inter_state"`
	TaxRows       []TaxRow      `json:"tax_rows,omitempty"`
	RoundOff      money.Money   `json:"round_off"`
	ShowRoundOff  bool          `json:"show_round_off"`
	GrandTotal    money.Money   `json:"grand_total"`
	AmountInWords string        `json:"amount_in_words"`
	Bank          BankDetails   `json:"bank"`
	GeneratedAt   time.Time     `json:"generated_at" db:"created_at"`
}

func (inv *Invoice) Result(alreadyGenerated bool) InvoiceResult {
	return InvoiceResult{
		InvoiceNumber:    inv.InvoiceNumber,
		TotalAmount:      inv.Summary.TotalAmount,
		GSTAmount:        inv.Summary.GSTAmount,
		GrandTotal:       inv.GrandTotal,
		GeneratedAt:      inv.GeneratedAt,
		AlreadyGenerated: alreadyGenerated,
	}
}

// InvoiceShare is what the share endpoint hands back: a download link
// plus pre-composed mail and message payloads.
type InvoiceShare struct {
	InvoiceNumber string    `json:"invoice_number"`
	FileName      string    `json:"file_name"`
	DownloadURL   string    `json:"download_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	MailtoURI     string    `json:"mailto_uri"`
	ShareMessage  string    `json:"share_message"`
	WhatsAppURL   string    `json:"whatsapp_url,omitempty"`
}
