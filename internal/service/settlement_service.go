package service

import (
	"context"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
)

// SettlementService runs the customer-facing settlement batches.
type SettlementService struct {
	srfRepo *repository.SRFRepository
	logger  *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(srfRepo *repository.SRFRepository, logger *zap.Logger) *SettlementService {
	return &SettlementService{srfRepo: srfRepo, logger: logger}
}

// Propose sets the settlement date on closed chargeable records.
func (s *SettlementService) Propose(ctx context.Context, kind domain.SRFKind, req *domain.SettlementBatchRequest) (*domain.BatchResult, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	result, err := runBatch(ctx, s.srfRepo, user.Username, req.Items,
		fixedKind(kind, func(it domain.SettlementItem) string { return it.SRFNumber }),
		func(rec domain.SRFRecord, it domain.SettlementItem) (bool, error) {
			return domain.ProposeSettlement(rec.Settlement(), it.SettlementDate)
		})
	if err != nil {
		s.logger.Warn("settlement batch rejected",
			zap.String("kind", kind.String()),
			zap.String("user", user.Username),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("settlement batch applied",
		zap.String("kind", kind.String()),
		zap.String("user", user.Username),
		zap.Int("applied", result.Applied),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Finalize sets final_settled on records whose settlement was proposed. Admin only.
func (s *SettlementService) Finalize(ctx context.Context, kind domain.SRFKind, req *domain.FinalSettlementBatchRequest) (*domain.BatchResult, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}

	result, err := runBatch(ctx, s.srfRepo, user.Username, req.Items,
		fixedKind(kind, func(it domain.FinalSettlementItem) string { return it.SRFNumber }),
		func(rec domain.SRFRecord, it domain.FinalSettlementItem) (bool, error) {
			return domain.FinalizeSettlement(rec.Settlement(), it.FinalSettled)
		})
	if err != nil {
		s.logger.Warn("final settlement batch rejected",
			zap.String("kind", kind.String()),
			zap.String("user", user.Username),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("final settlement batch applied",
		zap.String("kind", kind.String()),
		zap.String("user", user.Username),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
