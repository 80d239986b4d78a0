package service

import (
	"context"
	"errors"
	"sync"
	"time"

	reservationerrors "reserva/internal/reservations/errors"
	"reserva/internal/reservations/guard"
	"reserva/internal/reservations/pricing"
	"reserva/internal/reservations/repository"
	"reserva/internal/reservations/validator"
	resourceerrors "reserva/internal/resources/errors"
	resourcerepo "reserva/internal/resources/repository"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"
	"reserva/pkg/sanitizer"

	"github.com/google/uuid"
)

// ResourceDescription is the read-only view handed to front ends.
type ResourceDescription struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	TotalUnits     int    `json:"total_units"`
	CapacityUnits  int    `json:"capacity_units"`
	Status         string `json:"status"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	PricingMode    string `json:"pricing_mode"`
}

// ReservationService is the reservation engine: the one component allowed to
// mutate resource capacity. Every mutation happens under the per-resource
// guard, and every multi-step write either completes or is compensated.
type ReservationService interface {
	Reserve(ctx context.Context, reservation *model.Reservation) error
	Cancel(ctx context.Context, id string) (*model.Reservation, error)
	Complete(ctx context.Context, id string) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	GetByResource(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.Reservation, error)
	Describe(ctx context.Context, resourceID string) (*ResourceDescription, error)
}

type reservationService struct {
	ledger    repository.ReservationRepository
	resources resourcerepo.ResourceRepository
	guards    []guard.ResourceGuard
	validator *validator.ReservationValidator
	publisher EventPublisher
	cfg       *config.Config
}

func NewReservationService(
	ledger repository.ReservationRepository,
	resources resourcerepo.ResourceRepository,
	guards []guard.ResourceGuard,
	reservationValidator *validator.ReservationValidator,
	publisher EventPublisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &reservationService{
		ledger:    ledger,
		resources: resources,
		guards:    guards,
		validator: reservationValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *reservationService) Reserve(ctx context.Context, reservation *model.Reservation) error {
	if reservation.Units <= 0 {
		return apperrors.InvalidRequest("units must be a positive integer")
	}
	s.sanitize(reservation)

	reservation.ID = uuid.New().String()
	reservation.Status = model.ReservationBooked

	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	release, err := s.acquire(ctx, reservation.ResourceID)
	if err != nil {
		return err
	}
	defer release()

	resource, err := s.loadResource(ctx, reservation.ResourceID)
	if err != nil {
		return err
	}

	policy, err := pricing.ForMode(resource.PricingMode)
	if err != nil {
		return apperrors.Internal("Resource has unknown pricing mode", err)
	}
	cost, err := policy.Cost(resource, reservation.StartAt, reservation.EndAt, reservation.Units)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidDuration) || errors.Is(err, pricing.ErrInvalidUnits) {
			return apperrors.InvalidRequest(err.Error())
		}
		return apperrors.Internal("Failed to compute reservation cost", err)
	}
	reservation.CostCents = cost

	updated, err := s.resources.TryDecrement(ctx, reservation.ResourceID, reservation.Units)
	if err != nil {
		return s.mapResourceErr(err, reservation.ResourceID, reservation.Units)
	}

	if err := s.ledger.Append(ctx, reservation); err != nil {
		// Capacity is already taken; the ledger insert failing means the
		// decrement must be reversed before the error surfaces. A ledger
		// row and its decrement exist together or not at all.
		s.rollbackDecrement(ctx, reservation)
		if errors.Is(err, reservationerrors.ErrConflict) {
			return apperrors.Conflict("Reservation id collided, please retry")
		}
		if errors.Is(err, reservationerrors.ErrStorageTimeout) {
			return apperrors.StorageTimeout("ledger append", err)
		}
		return apperrors.Internal("Failed to record reservation", err)
	}

	s.cfg.Log.Info("Reservation booked",
		"reservation_id", reservation.ID,
		"resource_id", reservation.ResourceID,
		"units", reservation.Units,
		"cost_cents", reservation.CostCents,
		"capacity_left", updated.CapacityUnits,
	)
	s.emit(ctx, EventReservationBooked, reservation)
	return nil
}

func (s *reservationService) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	return s.releaseReservation(ctx, id, EventReservationCancelled)
}

func (s *reservationService) Complete(ctx context.Context, id string) (*model.Reservation, error) {
	return s.releaseReservation(ctx, id, EventReservationCompleted)
}

// releaseReservation is the shared reverse path: restore capacity, then flip
// the ledger row. When the ledger flip fails after the restore succeeded the
// engine compensates with a decrement; if that also fails the state is
// flagged PartialFailure and alerted for manual reconciliation.
func (s *reservationService) releaseReservation(ctx context.Context, id string, eventType string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidRequest("Reservation ID cannot be empty")
	}

	reservation, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLedgerErr(err, id)
	}
	if reservation.Status != model.ReservationBooked {
		return nil, apperrors.AlreadyCancelled(id)
	}

	release, err := s.acquire(ctx, reservation.ResourceID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The first load ran outside the guard, so a concurrent release may have
	// flipped the row in between. Re-read under the lock; only a row that is
	// still Booked here gets its capacity restored.
	reservation, err = s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLedgerErr(err, id)
	}
	if reservation.Status != model.ReservationBooked {
		return nil, apperrors.AlreadyCancelled(id)
	}

	if _, err := s.resources.Increment(ctx, reservation.ResourceID, reservation.Units); err != nil {
		if errors.Is(err, resourceerrors.ErrStorageTimeout) {
			return nil, apperrors.StorageTimeout("capacity restore", err)
		}
		return nil, apperrors.Internal("Failed to restore resource capacity", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	var markErr error
	switch eventType {
	case EventReservationCompleted:
		markErr = s.ledger.MarkCompleted(ctx, id, now)
	default:
		markErr = s.ledger.MarkCancelled(ctx, id, now)
	}
	if markErr != nil {
		return nil, s.compensateRestore(ctx, reservation, markErr)
	}

	switch eventType {
	case EventReservationCompleted:
		reservation.Status = model.ReservationCompleted
		reservation.CompletedAt = &now
	default:
		reservation.Status = model.ReservationCancelled
		reservation.CancelledAt = &now
	}

	s.cfg.Log.Info("Reservation released",
		"reservation_id", reservation.ID,
		"resource_id", reservation.ResourceID,
		"status", reservation.Status,
		"units", reservation.Units,
	)
	s.emit(ctx, eventType, reservation)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidRequest("Reservation ID cannot be empty")
	}

	reservation, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLedgerErr(err, id)
	}

	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.ledger.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.ledger.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) GetByResource(ctx context.Context, resourceID string, limit int, offset int64) ([]*model.Reservation, error) {
	if resourceID == "" {
		return nil, apperrors.InvalidRequest("Resource ID cannot be empty")
	}

	reservations, err := s.ledger.FindByResource(ctx, resourceID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}

	return reservations, nil
}

func (s *reservationService) Describe(ctx context.Context, resourceID string) (*ResourceDescription, error) {
	if resourceID == "" {
		return nil, apperrors.InvalidRequest("Resource ID cannot be empty")
	}

	resource, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		return nil, s.mapResourceErr(err, resourceID, 0)
	}

	return &ResourceDescription{
		ID:             resource.ID,
		Name:           resource.Name,
		Kind:           resource.Kind,
		TotalUnits:     resource.TotalUnits,
		CapacityUnits:  resource.CapacityUnits,
		Status:         resource.Status,
		UnitPriceCents: resource.UnitPriceCents,
		PricingMode:    resource.PricingMode,
	}, nil
}

// --- Helpers ---

func (s *reservationService) sanitize(r *model.Reservation) {
	r.Holder.Name = sanitizer.NormalizeHolderName(r.Holder.Name)
	r.Holder.Contact = sanitizer.NormalizeContactPhone(r.Holder.Contact)
}

// acquire takes every configured guard in order (local first, then the
// distributed one when enabled) and returns a release for all of them.
func (s *reservationService) acquire(ctx context.Context, resourceID string) (func(), error) {
	releases := make([]func(), 0, len(s.guards))
	for _, g := range s.guards {
		release, err := g.Acquire(ctx, resourceID)
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
			if errors.Is(err, reservationerrors.ErrLockUnavailable) {
				return nil, apperrors.Conflict("Resource is busy, please retry")
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apperrors.StorageTimeout("lock acquisition", err)
			}
			return nil, apperrors.Internal("Failed to acquire resource lock", err)
		}
		releases = append(releases, release)
	}

	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}, nil
}

func (s *reservationService) loadResource(ctx context.Context, resourceID string) (*model.Resource, error) {
	resource, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		return nil, s.mapResourceErr(err, resourceID, 0)
	}
	if resource.Status == model.ResourceRetired {
		return nil, apperrors.ResourceRetired(resourceID)
	}
	return resource, nil
}

// rollbackDecrement undoes a capacity decrement whose ledger append failed.
func (s *reservationService) rollbackDecrement(ctx context.Context, reservation *model.Reservation) {
	if _, err := s.resources.Increment(ctx, reservation.ResourceID, reservation.Units); err != nil {
		s.alertPartialFailure(ctx, reservation, "capacity decremented without ledger record", err)
	}
}

// compensateRestore undoes a capacity restore whose ledger transition failed
// and maps the original error for the caller.
func (s *reservationService) compensateRestore(ctx context.Context, reservation *model.Reservation, markErr error) error {
	if _, err := s.resources.TryDecrement(ctx, reservation.ResourceID, reservation.Units); err != nil {
		s.alertPartialFailure(ctx, reservation, "capacity restored without ledger transition", err)
		return apperrors.PartialFailure("Cancellation compensation failed, state requires manual reconciliation", markErr)
	}

	if errors.Is(markErr, reservationerrors.ErrAlreadyCancelled) {
		return apperrors.AlreadyCancelled(reservation.ID)
	}
	if errors.Is(markErr, reservationerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Reservation", reservation.ID)
	}
	if errors.Is(markErr, reservationerrors.ErrStorageTimeout) {
		return apperrors.StorageTimeout("ledger transition", markErr)
	}
	return apperrors.Internal("Failed to update reservation status", markErr)
}

// alertPartialFailure is the operator-visible path for invariant-breaking
// states: always an Error log, plus an ops alert when a broker is wired.
func (s *reservationService) alertPartialFailure(ctx context.Context, reservation *model.Reservation, detail string, cause error) {
	s.cfg.Log.Error("PARTIAL FAILURE: manual reconciliation required",
		"reservation_id", reservation.ID,
		"resource_id", reservation.ResourceID,
		"units", reservation.Units,
		"detail", detail,
		"error", cause,
	)

	alert := OpsAlert{
		Reason:        AlertCompensationFailed,
		ReservationID: reservation.ID,
		ResourceID:    reservation.ResourceID,
		Units:         reservation.Units,
		Detail:        detail,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishAlert(ctx, alert); err != nil {
		s.cfg.Log.Error("Failed to publish ops alert", "resource_id", reservation.ResourceID, "error", err)
	}
}

func (s *reservationService) emit(ctx context.Context, eventType string, reservation *model.Reservation) {
	event := ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		ResourceID:    reservation.ResourceID,
		Units:         reservation.Units,
		CostCents:     reservation.CostCents,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		// Best effort only; the reservation itself already committed.
		s.cfg.Log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}

func (s *reservationService) mapResourceErr(err error, resourceID string, units int) error {
	switch {
	case errors.Is(err, resourceerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Resource", resourceID)
	case errors.Is(err, resourceerrors.ErrRetired):
		return apperrors.ResourceRetired(resourceID)
	case errors.Is(err, resourceerrors.ErrInsufficientCapacity):
		return apperrors.InsufficientCapacity(resourceID, units)
	case errors.Is(err, resourceerrors.ErrStorageTimeout):
		return apperrors.StorageTimeout("resource access", err)
	default:
		return apperrors.Internal("Resource store operation failed", err)
	}
}

func (s *reservationService) mapLedgerErr(err error, id string) error {
	switch {
	case errors.Is(err, reservationerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationerrors.ErrStorageTimeout):
		return apperrors.StorageTimeout("reservation lookup", err)
	default:
		return apperrors.Internal("Failed to retrieve reservation", err)
	}
}
