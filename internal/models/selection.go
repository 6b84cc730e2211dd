package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garagebill/pkg/money"
)

type ListScope string

const (
	ListScopeJob        ListScope = "job"
	ListScopeAssignment ListScope = "assignment"
)

// SelectionEntry references a part by id; the part itself stays in the
// inventory snapshot.
type SelectionEntry struct {
	PartID   uuid.UUID `json:"part_id"`
	Quantity int       `json:"quantity"`
	// Baseline is the quantity already deducted from stock when the entry
	// was loaded from a saved job. Only Quantity-Baseline is a pending
	// reservation.
	Baseline int     `json:"baseline,omitempty"`
	SGST     LineTax `json:"sgst"`
	CGST     LineTax `json:"cgst"`
}

// Reserved is the part of the entry not yet deducted from stock.
func (e SelectionEntry) Reserved() int {
	if e.Quantity > e.Baseline {
		return e.Quantity - e.Baseline
	}
	return 0
}

type SelectionList struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	JobID     *uuid.UUID       `json:"job_id,omitempty"`
	Scope     ListScope        `json:"scope"`
	Label     string           `json:"label,omitempty"`
	Entries   []SelectionEntry `json:"entries"`
	CreatedAt time.Time        `json:"created_at"`
}

// SelectionLine is the rendered form of an entry: part details, taxes and
// how far its quantity can still move.
type SelectionLine struct {
	PartID         uuid.UUID   `json:"part_id"`
	Name           string      `json:"name"`
	PartNumber     *string     `json:"part_number,omitempty"`
	Quantity       int         `json:"quantity"`
	Baseline       int         `json:"baseline,omitempty"`
	PricePerUnit   money.Money `json:"price_per_unit"`
	SGST           LineTax     `json:"sgst"`
	CGST           LineTax     `json:"cgst"`
	LineTax        money.Money `json:"line_tax"`
	LineTotal      money.Money `json:"line_total"`
	QuantityOnHand int         `json:"quantity_on_hand"`
	MaxSelectable  int         `json:"max_selectable"`
	CanIncrease    bool        `json:"can_increase"`
}

type SelectionView struct {
	SelectionList
	Lines      []SelectionLine `json:"lines"`
	PartsTotal money.Money     `json:"parts_total"`
}

// Candidate is a part offered by an "add part" picker.
type Candidate struct {
	PartID         uuid.UUID   `json:"part_id"`
	Name           string      `json:"name"`
	PartNumber     *string     `json:"part_number,omitempty"`
	PricePerUnit   money.Money `json:"price_per_unit"`
	QuantityOnHand int         `json:"quantity_on_hand"`
	Available      int         `json:"available"`
}

// CommittedPart is the per-entry record handed back after a successful
// commit, shaped for the job's parts list.
type CommittedPart struct {
	PartID        uuid.UUID       `json:"part_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PricePerUnit  money.Money     `json:"price_per_unit"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	LineTotal     money.Money     `json:"line_total"`
}

// StockMovement records one quantity write issued during a commit.
type StockMovement struct {
	PartID uuid.UUID `json:"part_id"`
	Delta  int       `json:"delta"` // positive consumes stock
	Before int       `json:"before"`
	After  int       `json:"after"`
}

type CommitResult struct {
	ListID    uuid.UUID       `json:"list_id"`
	Parts     []CommittedPart `json:"parts"`
	Movements []StockMovement `json:"movements"`
}
