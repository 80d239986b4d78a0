package pricing

import (
	"errors"
	"fmt"
	"time"

	"reserva/pkg/model"
)

var (
	ErrInvalidDuration = errors.New("stay must cover at least one whole day")

	ErrInvalidUnits = errors.New("units must be a positive integer")

	ErrUnknownMode = errors.New("unknown pricing mode")
)

// Policy computes the charge for a reservation. Implementations are pure:
// no I/O, no clock reads, same inputs always produce the same cost.
type Policy interface {
	Cost(resource *model.Resource, startAt, endAt time.Time, units int) (int64, error)
}

// ForMode returns the policy matching a resource's pricing mode.
func ForMode(mode string) (Policy, error) {
	switch mode {
	case model.PricingNightly:
		return NightlyPolicy{}, nil
	case model.PricingPerUnit:
		return PerUnitPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// NightlyPolicy prices date-ranged resources: whole days between start and
// end, floor semantics, times at most one unit of capacity per night.
type NightlyPolicy struct{}

func (NightlyPolicy) Cost(resource *model.Resource, startAt, endAt time.Time, units int) (int64, error) {
	if units <= 0 {
		return 0, ErrInvalidUnits
	}

	days := int64(endAt.Sub(startAt) / (24 * time.Hour))
	if days < 1 {
		return 0, ErrInvalidDuration
	}

	return days * resource.UnitPriceCents * int64(units), nil
}

// PerUnitPolicy prices unit-count resources (seats, vehicles, tables): a
// flat charge per reserved unit, independent of any time range.
type PerUnitPolicy struct{}

func (PerUnitPolicy) Cost(resource *model.Resource, _, _ time.Time, units int) (int64, error) {
	if units <= 0 {
		return 0, ErrInvalidUnits
	}

	return resource.UnitPriceCents * int64(units), nil
}
