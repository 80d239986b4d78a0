package service

import (
	"context"

	"reserva/pkg/kafka"
)

// KafkaPublisher routes reservation events and ops alerts to their topics.
// Messages are keyed by resource id so per-resource ordering survives
// partitioning.
type KafkaPublisher struct {
	events *kafka.Producer
	alerts *kafka.Producer
	source string
}

func NewKafkaPublisher(events, alerts *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{
		events: events,
		alerts: alerts,
		source: source,
	}
}

func (p *KafkaPublisher) PublishEvent(ctx context.Context, event ReservationEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.ResourceID).
		WithValue(event).
		WithEventType(event.Type, p.source).
		Build()
	if err != nil {
		return err
	}

	return p.events.Publish(ctx, msg)
}

func (p *KafkaPublisher) PublishAlert(ctx context.Context, alert OpsAlert) error {
	msg, err := kafka.NewMessage().
		WithKey(alert.ResourceID).
		WithValue(alert).
		WithEventType(alert.Reason, p.source).
		Build()
	if err != nil {
		return err
	}

	return p.alerts.Publish(ctx, msg)
}
