package pricing

import (
	"errors"
	"testing"
	"time"

	"reserva/pkg/model"
)

func TestForMode(t *testing.T) {
	if _, err := ForMode(model.PricingNightly); err != nil {
		t.Fatalf("unexpected error for nightly mode: %v", err)
	}
	if _, err := ForMode(model.PricingPerUnit); err != nil {
		t.Fatalf("unexpected error for per_unit mode: %v", err)
	}
	if _, err := ForMode("hourly"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode for unknown mode, got %v", err)
	}
}

func TestNightlyPolicy_Cost(t *testing.T) {
	base := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	resource := &model.Resource{
		ID:             "room-1",
		UnitPriceCents: 100,
		PricingMode:    model.PricingNightly,
	}

	tests := []struct {
		name    string
		startAt time.Time
		endAt   time.Time
		units   int
		want    int64
		wantErr error
	}{
		{
			name:    "three whole days",
			startAt: base,
			endAt:   base.AddDate(0, 0, 3),
			units:   1,
			want:    300,
		},
		{
			name:    "partial day floors down",
			startAt: base,
			endAt:   base.AddDate(0, 0, 2).Add(23 * time.Hour),
			units:   1,
			want:    200,
		},
		{
			name:    "multiple units multiply",
			startAt: base,
			endAt:   base.AddDate(0, 0, 2),
			units:   3,
			want:    600,
		},
		{
			name:    "less than one day rejected",
			startAt: base,
			endAt:   base.Add(6 * time.Hour),
			units:   1,
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "end before start rejected",
			startAt: base,
			endAt:   base.AddDate(0, 0, -1),
			units:   1,
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "zero units rejected",
			startAt: base,
			endAt:   base.AddDate(0, 0, 1),
			units:   0,
			wantErr: ErrInvalidUnits,
		},
	}

	policy := NightlyPolicy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Cost(resource, tt.startAt, tt.endAt, tt.units)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected cost %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPerUnitPolicy_Cost(t *testing.T) {
	resource := &model.Resource{
		ID:             "table-1",
		UnitPriceCents: 2500,
		PricingMode:    model.PricingPerUnit,
	}

	policy := PerUnitPolicy{}

	got, err := policy.Cost(resource, time.Time{}, time.Time{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10000 {
		t.Errorf("expected cost 10000, got %d", got)
	}

	if _, err := policy.Cost(resource, time.Time{}, time.Time{}, 0); !errors.Is(err, ErrInvalidUnits) {
		t.Errorf("expected ErrInvalidUnits for zero units, got %v", err)
	}
	if _, err := policy.Cost(resource, time.Time{}, time.Time{}, -2); !errors.Is(err, ErrInvalidUnits) {
		t.Errorf("expected ErrInvalidUnits for negative units, got %v", err)
	}
}

// Policies must not depend on anything but their inputs: the same call
// repeated yields the same cost.
func TestNightlyPolicy_Deterministic(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	resource := &model.Resource{UnitPriceCents: 4200}
	policy := NightlyPolicy{}

	first, err := policy.Cost(resource, base, base.AddDate(0, 0, 5), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 10; i++ {
		got, err := policy.Cost(resource, base, base.AddDate(0, 0, 5), 2)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if got != first {
			t.Fatalf("iteration %d: expected %d, got %d", i, first, got)
		}
	}
}
