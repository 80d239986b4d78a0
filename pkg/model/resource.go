package model

import "time"

// Resource statuses. A resource is never deleted while reservations reference
// it; retirement is the terminal state instead.
const (
	ResourceAvailable = "available"
	ResourceReserved  = "reserved"
	ResourceOccupied  = "occupied"
	ResourceRetired   = "retired"
)

// Pricing modes supported by the engine. Date-ranged resources (rooms,
// properties) price per night; unit-count resources (seats, vehicles, tables)
// price per reserved unit.
const (
	PricingNightly = "nightly"
	PricingPerUnit = "per_unit"
)

type Resource struct {
	ID             string    `json:"id" bson:"_id" validate:"required,min=1,max=64"`
	Name           string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Kind           string    `json:"kind" bson:"kind" validate:"required,oneof=room seat vehicle table property"`
	TotalUnits     int       `json:"total_units" bson:"total_units" validate:"required,min=1,max=100000"`
	CapacityUnits  int       `json:"capacity_units" bson:"capacity_units" validate:"min=0"`
	Status         string    `json:"status" bson:"status" validate:"required,oneof=available reserved occupied retired"`
	UnitPriceCents int64     `json:"unit_price_cents" bson:"unit_price_cents" validate:"min=0"`
	PricingMode    string    `json:"pricing_mode" bson:"pricing_mode" validate:"required,oneof=nightly per_unit"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// StatusForCapacity derives the stored status from remaining capacity.
// Retired is sticky and never recomputed.
func StatusForCapacity(capacity, total int) string {
	switch {
	case capacity <= 0:
		return ResourceOccupied
	case capacity < total:
		return ResourceReserved
	default:
		return ResourceAvailable
	}
}
