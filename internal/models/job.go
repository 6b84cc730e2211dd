package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is the job card a bill is generated for. Job CRUD lives with the
// job service; billing only reads it and flips BillGenerated.
type Job struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	OwnerID       uuid.UUID  `json:"owner_id" db:"owner_id"`
	JobNumber     string     `json:"job_number" db:"job_number"`
	CustomerName  string     `json:"customer_name" db:"customer_name"`
	CustomerPhone *string    `json:"customer_phone,omitempty" db:"customer_phone"`
	CustomerEmail *string    `json:"customer_email,omitempty" db:"customer_email"`
	VehicleNumber string     `json:"vehicle_number" db:"vehicle_number"`
	VehicleModel  *string    `json:"vehicle_model,omitempty" db:"vehicle_model"`
	Odometer      *int       `json:"odometer,omitempty" db:"odometer"`
	Status        string     `json:"status" db:"status"`
	BillGenerated bool       `json:"bill_generated" db:"bill_generated"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty" db:"invoice_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
