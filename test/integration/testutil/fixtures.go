package testutil

import (
	"time"

	"reserva/pkg/model"
)

type ResourceBuilder struct {
	r model.Resource
}

func NewResourceBuilder() *ResourceBuilder {
	return &ResourceBuilder{
		r: model.Resource{
			ID:             "room-101",
			Name:           "Sea View Suite",
			Kind:           "room",
			TotalUnits:     1,
			UnitPriceCents: 12000,
			PricingMode:    model.PricingNightly,
		},
	}
}

func (b *ResourceBuilder) WithID(id string) *ResourceBuilder {
	b.r.ID = id
	return b
}

func (b *ResourceBuilder) WithKind(kind string) *ResourceBuilder {
	b.r.Kind = kind
	return b
}

func (b *ResourceBuilder) WithTotalUnits(units int) *ResourceBuilder {
	b.r.TotalUnits = units
	return b
}

func (b *ResourceBuilder) WithUnitPrice(cents int64) *ResourceBuilder {
	b.r.UnitPriceCents = cents
	return b
}

func (b *ResourceBuilder) WithPricingMode(mode string) *ResourceBuilder {
	b.r.PricingMode = mode
	return b
}

func (b *ResourceBuilder) Build() model.Resource {
	return b.r
}

func ValidRoom() model.Resource {
	return NewResourceBuilder().Build()
}

func MultiUnitTable() model.Resource {
	return NewResourceBuilder().
		WithID("table-7").
		WithKind("table").
		WithTotalUnits(5).
		WithUnitPrice(2500).
		WithPricingMode(model.PricingPerUnit).
		Build()
}

// ReserveRequest mirrors the booking endpoint payload.
type ReserveRequest struct {
	ResourceID string       `json:"resource_id"`
	Holder     model.Holder `json:"holder"`
	StartAt    time.Time    `json:"start_at"`
	EndAt      time.Time    `json:"end_at"`
	Units      *int         `json:"units,omitempty"`
}

func NightlyReservation(resourceID string, nights int) ReserveRequest {
	start := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	return ReserveRequest{
		ResourceID: resourceID,
		Holder:     model.Holder{Name: "Dana Rivera", Contact: "+14155552671"},
		StartAt:    start,
		EndAt:      start.AddDate(0, 0, nights),
	}
}

func PerUnitReservation(resourceID string, units int) ReserveRequest {
	return ReserveRequest{
		ResourceID: resourceID,
		Holder:     model.Holder{Name: "Sam Okafor"},
		Units:      &units,
	}
}
