package config

import "time"

const (
	DefaultEventsTopic = "reserva.reservation.events"
	DefaultAlertsTopic = "reserva.ops.alerts"
	DefaultDLQTopic    = "reserva.dlq"

	DefaultProducerCompression  = "snappy"
	DefaultProducerRequireAcks  = -1
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerAsync        = false
)
