package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
)

// CatalogService manages product models, vendor rewinding rates and service centers.
type CatalogService struct {
	models  *repository.ModelRepository
	rates   *repository.RewindingRateRepository
	centers *repository.ServiceCenterRepository
	logger  *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	models *repository.ModelRepository,
	rates *repository.RewindingRateRepository,
	centers *repository.ServiceCenterRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{models: models, rates: rates, centers: centers, logger: logger}
}

// CreateModel registers a product model.
func (s *CatalogService) CreateModel(ctx context.Context, req *domain.CreateModelRequest) (*domain.Model, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	model := &domain.Model{
		Model:           strings.TrimSpace(req.Model),
		Division:        strings.ToUpper(strings.TrimSpace(req.Division)),
		Frame:           req.Frame,
		WindingType:     req.WindingType,
		HPRating:        req.HPRating,
		RewindingCharge: req.RewindingCharge,
		CreatedBy:       user.Username,
	}
	if err := s.models.Create(ctx, model); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelAlreadyExists, model.Model)
		}
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	s.logger.Info("model registered",
		zap.String("model", model.Model),
		zap.String("division", model.Division),
		zap.String("user", user.Username),
	)
	return model, nil
}

func (s *CatalogService) ListModels(ctx context.Context, division string) ([]domain.Model, error) {
	return s.models.List(ctx, strings.ToUpper(strings.TrimSpace(division)))
}

// CostDetails combines a model's rewinding charge with the vendor paint, stator
// and leg charges of the matching rate row. LT motors match by frame and FHP
// motors by HP rating and winding type; other divisions carry no vendor rates.
func (s *CatalogService) CostDetails(ctx context.Context, modelName string) (*domain.CostDetails, error) {
	model, err := s.models.Get(ctx, modelName)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelName)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	details := &domain.CostDetails{
		Model:           model.Model,
		Division:        model.Division,
		RewindingCharge: model.RewindingCharge,
		Frame:           model.Frame,
		HPRating:        model.HPRating,
	}

	var rate *domain.RewindingRate
	switch {
	case model.Division == domain.DivisionLTMotor && model.Frame != nil:
		rate, err = s.rates.FindByFrame(ctx, model.Division, *model.Frame)
	case model.Division == domain.DivisionFHPMotor && model.HPRating != nil && model.WindingType != nil:
		rate, err = s.rates.FindByRating(ctx, model.Division, *model.HPRating, *model.WindingType)
	default:
		return details, nil
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return details, nil
		}
		return nil, fmt.Errorf("failed to find rewinding rate: %w", err)
	}

	details.PaintCharge = rate.PaintCharge
	details.StatorCharge = rate.StatorCharge
	details.LegCharge = rate.LegCharge
	if details.RewindingCharge == nil {
		details.RewindingCharge = rate.RewindingCharge
	}
	return details, nil
}

// CreateRewindingRate adds a vendor rate row.
func (s *CatalogService) CreateRewindingRate(ctx context.Context, req *domain.CreateRewindingRateRequest) (*domain.RewindingRate, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	rate := &domain.RewindingRate{
		Division:        strings.ToUpper(strings.TrimSpace(req.Division)),
		Frame:           req.Frame,
		WindingType:     req.WindingType,
		HPRating:        req.HPRating,
		RewindingCharge: req.RewindingCharge,
		PaintCharge:     req.PaintCharge,
		StatorCharge:    req.StatorCharge,
		LegCharge:       req.LegCharge,
		CreatedBy:       user.Username,
	}
	switch rate.Division {
	case domain.DivisionLTMotor:
		if rate.Frame == nil {
			return nil, fmt.Errorf("%w: LT MOTOR rates require a frame", ErrValidationFailure)
		}
	case domain.DivisionFHPMotor:
		if rate.HPRating == nil || rate.WindingType == nil {
			return nil, fmt.Errorf("%w: FHP MOTOR rates require hp rating and winding type", ErrValidationFailure)
		}
	}

	if err := s.rates.Create(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to create rewinding rate: %w", err)
	}
	return rate, nil
}

func (s *CatalogService) ListRewindingRates(ctx context.Context, division string) ([]domain.RewindingRate, error) {
	return s.rates.List(ctx, strings.ToUpper(strings.TrimSpace(division)))
}

// CreateServiceCenter registers an authorised service center.
func (s *CatalogService) CreateServiceCenter(ctx context.Context, req *domain.CreateServiceCenterRequest) (*domain.ServiceCenter, error) {
	if _, ok := auth.FromContext(ctx); !ok {
		return nil, ErrUnauthorized
	}
	sc := &domain.ServiceCenter{Name: strings.TrimSpace(req.Name), City: req.City}
	if err := s.centers.Create(ctx, sc); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: service center %s already exists", ErrIntegrityViolation, sc.Name)
		}
		return nil, fmt.Errorf("failed to create service center: %w", err)
	}
	return sc, nil
}

func (s *CatalogService) ListServiceCenters(ctx context.Context) ([]domain.ServiceCenter, error) {
	return s.centers.List(ctx)
}
