package service

import (
	"context"
	"errors"
	"sync"

	resourceerrors "reserva/internal/resources/errors"
	"reserva/internal/resources/repository"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"
	"reserva/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// ResourceService covers the administrative side of the resource catalog:
// registering resources, retiring them, and read-only listing. Capacity is
// never mutated here; only the reservation engine does that.
type ResourceService interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error)
	Retire(ctx context.Context, id string) error
}

type resourceService struct {
	repo     repository.ResourceRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewResourceService(repo repository.ResourceRepository, cfg *config.Config) ResourceService {
	return &resourceService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *resourceService) Create(ctx context.Context, resource *model.Resource) error {
	s.applyDefaults(resource)
	resource.Name = sanitizer.NormalizeHolderName(resource.Name)

	if err := s.validate.Struct(resource); err != nil {
		s.cfg.Log.Warn("Resource validation failed", "error", err)
		return apperrors.Validation("Invalid resource", map[string]any{"error": err.Error()})
	}
	if resource.CapacityUnits > resource.TotalUnits {
		return apperrors.InvalidRequest("capacity_units cannot exceed total_units")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.FindByID(sessCtx, resource.ID); err == nil {
			return apperrors.Conflict("Resource with this id already exists")
		} else if !errors.Is(err, resourceerrors.ErrNotFound) {
			return apperrors.Internal("Failed to check resource existence", err)
		}

		if err := s.repo.Create(sessCtx, resource); err != nil {
			if errors.Is(err, resourceerrors.ErrDuplicateID) {
				return apperrors.Conflict("Resource with this id already exists")
			}
			return apperrors.Internal("Failed to create resource", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create resource", "id", resource.ID, "error", err)
		return err
	}

	s.cfg.Log.Info("Resource created successfully",
		"id", resource.ID,
		"kind", resource.Kind,
		"total_units", resource.TotalUnits,
		"pricing_mode", resource.PricingMode,
	)
	return nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidRequest("Resource ID cannot be empty")
	}

	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, resourceerrors.ErrStorageTimeout) {
			return nil, apperrors.StorageTimeout("resource lookup", err)
		}
		return nil, apperrors.Internal("Failed to retrieve resource", err)
	}

	return resource, nil
}

func (s *resourceService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error) {
	var count int64
	var resources []*model.Resource
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count resources", "error", errCount)
			errCount = apperrors.Internal("Failed to count resources", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		resources, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list resources", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve resources", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return resources, count, nil
}

func (s *resourceService) Retire(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidRequest("Resource ID cannot be empty")
	}

	if err := s.repo.Retire(ctx, id); err != nil {
		switch {
		case errors.Is(err, resourceerrors.ErrNotFound):
			return apperrors.NotFoundWithID("Resource", id)
		case errors.Is(err, resourceerrors.ErrRetired):
			return apperrors.ResourceRetired(id)
		case errors.Is(err, resourceerrors.ErrStorageTimeout):
			return apperrors.StorageTimeout("resource retire", err)
		default:
			return apperrors.Internal("Failed to retire resource", err)
		}
	}

	s.cfg.Log.Info("Resource retired", "id", id)
	return nil
}

func (s *resourceService) applyDefaults(r *model.Resource) {
	if r.CapacityUnits == 0 && r.Status == "" {
		r.CapacityUnits = r.TotalUnits
	}
	if r.Status == "" {
		r.Status = model.StatusForCapacity(r.CapacityUnits, r.TotalUnits)
	}
	if r.PricingMode == "" {
		r.PricingMode = model.PricingPerUnit
	}
}
