package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reservationerrors "reserva/internal/reservations/errors"
	"reserva/internal/reservations/guard"
	"reserva/internal/reservations/validator"
	resourceerrors "reserva/internal/resources/errors"
	"reserva/pkg/config"
	mongotx "reserva/pkg/db/mongo"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/logger"
	"reserva/pkg/model"
)

// Mock resource repository for testing
type mockResourceRepository struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.Resource, error)
	tryDecrementFunc func(ctx context.Context, id string, units int) (*model.Resource, error)
	incrementFunc    func(ctx context.Context, id string, units int) (*model.Resource, error)
}

func (m *mockResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return nil
}

func (m *mockResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, resourceerrors.ErrNotFound
}

func (m *mockResourceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	return []*model.Resource{}, nil
}

func (m *mockResourceRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockResourceRepository) TryDecrement(ctx context.Context, id string, units int) (*model.Resource, error) {
	if m.tryDecrementFunc != nil {
		return m.tryDecrementFunc(ctx, id, units)
	}
	return nil, resourceerrors.ErrNotFound
}

func (m *mockResourceRepository) Increment(ctx context.Context, id string, units int) (*model.Resource, error) {
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, id, units)
	}
	return nil, resourceerrors.ErrNotFound
}

func (m *mockResourceRepository) Retire(ctx context.Context, id string) error {
	return nil
}

func (m *mockResourceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return nil
}

// Mock reservation ledger for testing
type mockReservationRepository struct {
	appendFunc        func(ctx context.Context, reservation *model.Reservation) error
	findByIDFunc      func(ctx context.Context, id string) (*model.Reservation, error)
	markCancelledFunc func(ctx context.Context, id string, at time.Time) error
	markCompletedFunc func(ctx context.Context, id string, at time.Time) error
}

func (m *mockReservationRepository) Append(ctx context.Context, reservation *model.Reservation) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, reservation)
	}
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationerrors.ErrNotFound
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindByResource(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	if m.markCancelledFunc != nil {
		return m.markCancelledFunc(ctx, id, at)
	}
	return nil
}

func (m *mockReservationRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	if m.markCompletedFunc != nil {
		return m.markCompletedFunc(ctx, id, at)
	}
	return nil
}

// capturePublisher records everything published.
type capturePublisher struct {
	mu     sync.Mutex
	events []ReservationEvent
	alerts []OpsAlert
}

func (p *capturePublisher) PublishEvent(ctx context.Context, event ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) PublishAlert(ctx context.Context, alert OpsAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
	}
}

func newTestService(resources *mockResourceRepository, ledger *mockReservationRepository, publisher EventPublisher) ReservationService {
	cfg := testConfig()
	return NewReservationService(
		ledger,
		resources,
		[]guard.ResourceGuard{guard.NewKeyedMutex()},
		validator.NewReservationValidator(cfg.Log),
		publisher,
		cfg,
	)
}

func nightlyRoom(capacity int) *model.Resource {
	return &model.Resource{
		ID:             "room-1",
		Name:           "Sea View",
		Kind:           "room",
		TotalUnits:     capacity,
		CapacityUnits:  capacity,
		Status:         model.StatusForCapacity(capacity, capacity),
		UnitPriceCents: 100,
		PricingMode:    model.PricingNightly,
	}
}

func bookingRequest(units int) *model.Reservation {
	start := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	return &model.Reservation{
		ResourceID: "room-1",
		Holder:     model.Holder{Name: "Dana Rivera", Contact: "+14155552671"},
		StartAt:    start,
		EndAt:      start.AddDate(0, 0, 3),
		Units:      units,
	}
}

func TestReserve_Success(t *testing.T) {
	room := nightlyRoom(2)
	var decremented int
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return room, nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			decremented = units
			updated := *room
			updated.CapacityUnits -= units
			updated.Status = model.StatusForCapacity(updated.CapacityUnits, updated.TotalUnits)
			return &updated, nil
		},
	}
	var appended *model.Reservation
	ledger := &mockReservationRepository{
		appendFunc: func(ctx context.Context, reservation *model.Reservation) error {
			appended = reservation
			return nil
		},
	}
	publisher := &capturePublisher{}
	svc := newTestService(resources, ledger, publisher)

	req := bookingRequest(1)
	if err := svc.Reserve(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.ID == "" {
		t.Error("expected a generated reservation id")
	}
	if req.Status != model.ReservationBooked {
		t.Errorf("expected status booked, got %s", req.Status)
	}
	// Three whole days at 100 cents per day.
	if req.CostCents != 300 {
		t.Errorf("expected cost 300, got %d", req.CostCents)
	}
	if decremented != 1 {
		t.Errorf("expected decrement of 1 unit, got %d", decremented)
	}
	if appended == nil || appended.ID != req.ID {
		t.Error("expected the reservation to be appended to the ledger")
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != EventReservationBooked {
		t.Errorf("expected one booked event, got %+v", publisher.events)
	}
}

func TestReserve_UnknownResource(t *testing.T) {
	var decrementCalled bool
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return nil, resourceerrors.ErrNotFound
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			decrementCalled = true
			return nil, nil
		},
	}
	svc := newTestService(resources, &mockReservationRepository{}, nil)

	err := svc.Reserve(context.Background(), bookingRequest(1))
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if decrementCalled {
		t.Error("expected no capacity mutation for an unknown resource")
	}
}

func TestReserve_RetiredResource(t *testing.T) {
	room := nightlyRoom(2)
	room.Status = model.ResourceRetired
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return room, nil
		},
	}
	svc := newTestService(resources, &mockReservationRepository{}, nil)

	err := svc.Reserve(context.Background(), bookingRequest(1))
	if !apperrors.HasCode(err, apperrors.CodeResourceRetired) {
		t.Fatalf("expected RESOURCE_RETIRED, got %v", err)
	}
}

func TestReserve_ZeroUnits(t *testing.T) {
	var lookedUp bool
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			lookedUp = true
			return nightlyRoom(2), nil
		},
	}
	svc := newTestService(resources, &mockReservationRepository{}, nil)

	err := svc.Reserve(context.Background(), bookingRequest(0))
	if !apperrors.HasCode(err, apperrors.CodeInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
	if lookedUp {
		t.Error("expected rejection before any storage access")
	}
}

func TestReserve_InvalidDuration(t *testing.T) {
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return nightlyRoom(2), nil
		},
	}
	svc := newTestService(resources, &mockReservationRepository{}, nil)

	req := bookingRequest(1)
	req.EndAt = req.StartAt.Add(2 * time.Hour)

	err := svc.Reserve(context.Background(), req)
	if !apperrors.HasCode(err, apperrors.CodeInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestReserve_InsufficientCapacity(t *testing.T) {
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return nightlyRoom(1), nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return nil, resourceerrors.ErrInsufficientCapacity
		},
	}
	svc := newTestService(resources, &mockReservationRepository{}, nil)

	err := svc.Reserve(context.Background(), bookingRequest(1))
	if !apperrors.HasCode(err, apperrors.CodeInsufficientCapacity) {
		t.Fatalf("expected INSUFFICIENT_CAPACITY, got %v", err)
	}
}

func TestReserve_AppendFailureRollsBack(t *testing.T) {
	room := nightlyRoom(2)
	var incremented int
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return room, nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return room, nil
		},
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			incremented = units
			return room, nil
		},
	}
	ledger := &mockReservationRepository{
		appendFunc: func(ctx context.Context, reservation *model.Reservation) error {
			return errors.New("write concern error")
		},
	}
	svc := newTestService(resources, ledger, nil)

	err := svc.Reserve(context.Background(), bookingRequest(1))
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if incremented != 1 {
		t.Errorf("expected rollback increment of 1 unit, got %d", incremented)
	}
}

func TestReserve_RollbackFailurePublishesAlert(t *testing.T) {
	room := nightlyRoom(2)
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return room, nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return room, nil
		},
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return nil, resourceerrors.ErrStorageTimeout
		},
	}
	ledger := &mockReservationRepository{
		appendFunc: func(ctx context.Context, reservation *model.Reservation) error {
			return errors.New("write concern error")
		},
	}
	publisher := &capturePublisher{}
	svc := newTestService(resources, ledger, publisher)

	_ = svc.Reserve(context.Background(), bookingRequest(1))

	if len(publisher.alerts) != 1 {
		t.Fatalf("expected one ops alert, got %d", len(publisher.alerts))
	}
	if publisher.alerts[0].Reason != AlertCompensationFailed {
		t.Errorf("expected reason %s, got %s", AlertCompensationFailed, publisher.alerts[0].Reason)
	}
}

func bookedRow(units int) *model.Reservation {
	return &model.Reservation{
		ID:         "aa7b2f9e-41c3-4b58-9f2d-8a1c6e3d5b70",
		ResourceID: "room-1",
		Holder:     model.Holder{Name: "Dana Rivera"},
		Units:      units,
		CostCents:  300,
		Status:     model.ReservationBooked,
	}
}

func TestCancel_RestoresCapacity(t *testing.T) {
	row := bookedRow(2)
	var incremented int
	resources := &mockResourceRepository{
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			incremented = units
			return nightlyRoom(2), nil
		},
	}
	var marked bool
	ledger := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return row, nil
		},
		markCancelledFunc: func(ctx context.Context, id string, at time.Time) error {
			marked = true
			return nil
		},
	}
	publisher := &capturePublisher{}
	svc := newTestService(resources, ledger, publisher)

	cancelled, err := svc.Cancel(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if incremented != 2 {
		t.Errorf("expected capacity restore of 2 units, got %d", incremented)
	}
	if !marked {
		t.Error("expected the ledger row to be marked cancelled")
	}
	if cancelled.Status != model.ReservationCancelled || cancelled.CancelledAt == nil {
		t.Errorf("expected a cancelled row with timestamp, got %+v", cancelled)
	}
	if cancelled.CostCents != 300 {
		t.Errorf("cost must survive cancellation, got %d", cancelled.CostCents)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != EventReservationCancelled {
		t.Errorf("expected one cancelled event, got %+v", publisher.events)
	}
}

func TestCancel_NotFound(t *testing.T) {
	svc := newTestService(&mockResourceRepository{}, &mockReservationRepository{}, nil)

	_, err := svc.Cancel(context.Background(), "missing-id")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	row := bookedRow(1)
	row.Status = model.ReservationCancelled
	var incrementCalled bool
	resources := &mockResourceRepository{
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			incrementCalled = true
			return nil, nil
		},
	}
	ledger := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return row, nil
		},
	}
	svc := newTestService(resources, ledger, nil)

	_, err := svc.Cancel(context.Background(), row.ID)
	if !apperrors.HasCode(err, apperrors.CodeAlreadyCancelled) {
		t.Fatalf("expected ALREADY_CANCELLED, got %v", err)
	}
	if incrementCalled {
		t.Error("a second cancel must not restore capacity again")
	}
}

func TestCancel_ConcurrentCancelDetectedUnderGuard(t *testing.T) {
	// The row is still booked on the pre-guard read but a concurrent cancel
	// flips it before the guard is held. The losing cancel must back off
	// without touching capacity in either direction.
	var loads int
	var incrementCalled, decrementCalled bool
	resources := &mockResourceRepository{
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			incrementCalled = true
			return nightlyRoom(1), nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			decrementCalled = true
			return nightlyRoom(1), nil
		},
	}
	ledger := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			loads++
			row := bookedRow(1)
			if loads > 1 {
				row.Status = model.ReservationCancelled
			}
			return row, nil
		},
	}
	publisher := &capturePublisher{}
	svc := newTestService(resources, ledger, publisher)

	_, err := svc.Cancel(context.Background(), bookedRow(1).ID)
	if !apperrors.HasCode(err, apperrors.CodeAlreadyCancelled) {
		t.Fatalf("expected ALREADY_CANCELLED, got %v", err)
	}
	if loads != 2 {
		t.Errorf("expected a second read under the guard, got %d reads", loads)
	}
	if incrementCalled {
		t.Error("capacity must not be restored for a row cancelled concurrently")
	}
	if decrementCalled {
		t.Error("no compensation must run when capacity was never restored")
	}
	if len(publisher.alerts) != 0 {
		t.Errorf("expected no ops alerts, got %+v", publisher.alerts)
	}
}

func TestCancel_CompensatesFailedTransition(t *testing.T) {
	row := bookedRow(1)
	var compensated int
	resources := &mockResourceRepository{
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return nightlyRoom(1), nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			compensated = units
			return nightlyRoom(1), nil
		},
	}
	ledger := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return row, nil
		},
		markCancelledFunc: func(ctx context.Context, id string, at time.Time) error {
			return errors.New("connection reset")
		},
	}
	svc := newTestService(resources, ledger, nil)

	_, err := svc.Cancel(context.Background(), row.ID)
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if compensated != 1 {
		t.Errorf("expected compensating decrement of 1 unit, got %d", compensated)
	}
}

func TestCancel_PartialFailurePublishesAlert(t *testing.T) {
	row := bookedRow(1)
	resources := &mockResourceRepository{
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return nightlyRoom(1), nil
		},
		tryDecrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return nil, resourceerrors.ErrStorageTimeout
		},
	}
	ledger := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return row, nil
		},
		markCancelledFunc: func(ctx context.Context, id string, at time.Time) error {
			return errors.New("connection reset")
		},
	}
	publisher := &capturePublisher{}
	svc := newTestService(resources, ledger, publisher)

	_, err := svc.Cancel(context.Background(), row.ID)
	if !apperrors.HasCode(err, apperrors.CodePartialFailure) {
		t.Fatalf("expected PARTIAL_FAILURE, got %v", err)
	}
	if len(publisher.alerts) != 1 {
		t.Fatalf("expected one ops alert, got %d", len(publisher.alerts))
	}
}

func TestComplete_MarksCompleted(t *testing.T) {
	row := bookedRow(1)
	resources := &mockResourceRepository{
		incrementFunc: func(ctx context.Context, id string, units int) (*model.Resource, error) {
			return nightlyRoom(1), nil
		},
	}
	var marked bool
	ledger := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return row, nil
		},
		markCompletedFunc: func(ctx context.Context, id string, at time.Time) error {
			marked = true
			return nil
		},
	}
	svc := newTestService(resources, ledger, nil)

	completed, err := svc.Complete(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !marked {
		t.Error("expected the ledger row to be marked completed")
	}
	if completed.Status != model.ReservationCompleted || completed.CompletedAt == nil {
		t.Errorf("expected a completed row with timestamp, got %+v", completed)
	}
}

func TestDescribe(t *testing.T) {
	room := nightlyRoom(3)
	room.CapacityUnits = 1
	room.Status = model.StatusForCapacity(1, 3)
	resources := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return room, nil
		},
	}
	svc := newTestService(resources, &mockReservationRepository{}, nil)

	desc, err := svc.Describe(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.CapacityUnits != 1 || desc.TotalUnits != 3 {
		t.Errorf("expected capacity 1/3, got %d/%d", desc.CapacityUnits, desc.TotalUnits)
	}
	if desc.Status != model.ResourceReserved {
		t.Errorf("expected status reserved, got %s", desc.Status)
	}
}
