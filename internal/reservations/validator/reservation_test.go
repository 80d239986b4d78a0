package validator

import (
	"strings"
	"testing"
	"time"

	"reserva/pkg/logger"
	"reserva/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validReservation() *model.Reservation {
	start := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	return &model.Reservation{
		ResourceID: "room-1",
		Holder:     model.Holder{Name: "Dana Rivera", Contact: "+14155552671"},
		StartAt:    start,
		EndAt:      start.AddDate(0, 0, 2),
		Units:      1,
		Status:     model.ReservationBooked,
	}
}

func TestValidate_ValidReservation(t *testing.T) {
	rv := NewReservationValidator(testLogger())

	if err := rv.Validate(validReservation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	rv := NewReservationValidator(testLogger())

	tests := []struct {
		name     string
		mutate   func(r *model.Reservation)
		wantText string
	}{
		{
			name:     "missing resource id",
			mutate:   func(r *model.Reservation) { r.ResourceID = "" },
			wantText: "resourceid",
		},
		{
			name:     "missing holder name",
			mutate:   func(r *model.Reservation) { r.Holder.Name = "" },
			wantText: "name",
		},
		{
			name:     "holder name too short",
			mutate:   func(r *model.Reservation) { r.Holder.Name = "A" },
			wantText: "name",
		},
		{
			name:     "zero units",
			mutate:   func(r *model.Reservation) { r.Units = 0 },
			wantText: "units",
		},
		{
			name:     "negative units",
			mutate:   func(r *model.Reservation) { r.Units = -3 },
			wantText: "units",
		},
		{
			name:     "bad status",
			mutate:   func(r *model.Reservation) { r.Status = "pending" },
			wantText: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReservation()
			tt.mutate(r)

			err := rv.Validate(r)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.wantText) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantText, err.Error())
			}
		})
	}
}

func TestValidate_EndBeforeStart(t *testing.T) {
	rv := NewReservationValidator(testLogger())

	r := validReservation()
	r.EndAt = r.StartAt.AddDate(0, 0, -1)

	err := rv.Validate(r)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "end_at") {
		t.Errorf("expected error on end_at, got %q", err.Error())
	}
}

func TestValidate_ZeroTimesAllowed(t *testing.T) {
	rv := NewReservationValidator(testLogger())

	// Unit-count resources carry no time range at all.
	r := validReservation()
	r.StartAt = time.Time{}
	r.EndAt = time.Time{}

	if err := rv.Validate(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
