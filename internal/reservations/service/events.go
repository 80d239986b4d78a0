package service

import (
	"context"
	"time"
)

// Reservation lifecycle event types.
const (
	EventReservationBooked    = "reservation.booked"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
)

// Alert reasons. Alerts are the operator-visible channel for states the
// engine cannot repair on its own.
const (
	AlertCompensationFailed = "compensation_failed"
)

type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	ResourceID    string    `json:"resource_id"`
	Units         int       `json:"units"`
	CostCents     int64     `json:"cost_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type OpsAlert struct {
	Reason        string    `json:"reason"`
	ReservationID string    `json:"reservation_id,omitempty"`
	ResourceID    string    `json:"resource_id"`
	Units         int       `json:"units"`
	Detail        string    `json:"detail"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher fans reservation events and operator alerts out to the
// message bus. Event publishing is best-effort; alert publishing failures
// are logged loudly but also never fail the originating operation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event ReservationEvent) error
	PublishAlert(ctx context.Context, alert OpsAlert) error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, ReservationEvent) error { return nil }
func (NopPublisher) PublishAlert(context.Context, OpsAlert) error         { return nil }
