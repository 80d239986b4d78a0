package kafka

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMessageBuilder(t *testing.T) {
	payload := map[string]any{"reservation_id": "res-1", "units": 2}

	msg, err := NewMessage().
		WithKey("room-1").
		WithValue(payload).
		WithEventType("reservation.booked", "reservations").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Key != "room-1" {
		t.Errorf("expected key room-1, got %q", msg.Key)
	}
	if msg.Headers[HeaderEventType] != "reservation.booked" {
		t.Errorf("expected event-type header, got %q", msg.Headers[HeaderEventType])
	}
	if msg.Headers[HeaderEventID] == "" {
		t.Error("expected a generated event id")
	}
	if msg.Headers[HeaderSource] != "reservations" {
		t.Errorf("expected source header, got %q", msg.Headers[HeaderSource])
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not valid JSON: %v", err)
	}
	if decoded["reservation_id"] != "res-1" {
		t.Errorf("unexpected payload %v", decoded)
	}
}

func TestMessageBuilder_MissingKey(t *testing.T) {
	_, err := NewMessage().WithValue("payload").Build()
	if !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestMessageBuilder_MissingValue(t *testing.T) {
	_, err := NewMessage().WithKey("room-1").Build()
	if !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("room-1").WithValue(make(chan int)).Build()
	if err == nil {
		t.Error("expected an encoding error")
	}
}
