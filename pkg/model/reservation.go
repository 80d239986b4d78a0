package model

import "time"

// Reservation statuses. Ledger rows only ever move booked -> cancelled or
// booked -> completed; every other field is immutable once appended.
const (
	ReservationBooked    = "booked"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// Holder is the opaque customer data a reservation is held for. The engine
// stores it verbatim apart from whitespace/phone normalization.
type Holder struct {
	Name    string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Contact string `json:"contact" bson:"contact" validate:"omitempty,min=5,max=32"`
}

type Reservation struct {
	ID          string     `json:"id" bson:"_id" validate:"omitempty,uuid4"`
	ResourceID  string     `json:"resource_id" bson:"resource_id" validate:"required,min=1,max=64"`
	Holder      Holder     `json:"holder" bson:"holder" validate:"required"`
	StartAt     time.Time  `json:"start_at,omitempty" bson:"start_at,omitempty"`
	EndAt       time.Time  `json:"end_at,omitempty" bson:"end_at,omitempty"`
	Units       int        `json:"units" bson:"units" validate:"required,min=1"`
	CostCents   int64      `json:"cost_cents" bson:"cost_cents" validate:"min=0"`
	Status      string     `json:"status" bson:"status" validate:"required,oneof=booked cancelled completed"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}
