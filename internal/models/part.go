package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garagebill/pkg/money"
)

// Part is one inventory item as the inventory store last reported it.
type Part struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OwnerID        uuid.UUID        `json:"owner_id" db:"owner_id"`
	Name           string           `json:"name" db:"name"`
	PartNumber     *string          `json:"part_number,omitempty" db:"part_number"` // unique per owner when present
	HSNCode        *string          `json:"hsn_code,omitempty" db:"hsn_code"`
	QuantityOnHand int              `json:"quantity_on_hand" db:"quantity_on_hand"`
	PricePerUnit   money.Money      `json:"price_per_unit" db:"price_per_unit"`
	TaxPercentage  *decimal.Decimal `json:"tax_percentage,omitempty" db:"tax_percentage"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// PartAvailability is a Part together with what is still free to select
// after every open selection list has been accounted for.
type PartAvailability struct {
	Part
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// LowStockAlert is raised by the periodic stock check.
type LowStockAlert struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	PartID         uuid.UUID `json:"part_id"`
	PartName       string    `json:"part_name"`
	QuantityOnHand int       `json:"quantity_on_hand"`
	Threshold      int       `json:"threshold"`
}
