package service

import (
	"context"
	"fmt"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
)

// LedgerService serves the settlement ledger listings of one record kind at a time.
type LedgerService struct {
	ledgerRepo *repository.LedgerRepository
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo *repository.LedgerRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo, logger: logger}
}

func (s *LedgerService) Pending(ctx context.Context, kind domain.SRFKind) ([]domain.LedgerRow, error) {
	return s.ledgerRepo.Pending(ctx, kind)
}

func (s *LedgerService) NotSettled(ctx context.Context, kind domain.SRFKind) ([]domain.LedgerRow, error) {
	return s.ledgerRepo.NotSettled(ctx, kind)
}

// FinalSettlementPending is restricted to admins.
func (s *LedgerService) FinalSettlementPending(ctx context.Context, kind domain.SRFKind) ([]domain.LedgerRow, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.ledgerRepo.FinalSettlementPending(ctx, kind)
}

// Enquiry lists records matching the filter. An inverted date range is rejected.
func (s *LedgerService) Enquiry(ctx context.Context, kind domain.SRFKind, filter domain.EnquiryFilter) ([]domain.LedgerRow, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: 'to' precedes 'from'", ErrValidationFailure)
	}
	rows, err := s.ledgerRepo.Enquiry(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("enquiry executed",
		zap.String("kind", kind.String()),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func (s *LedgerService) DeliveredBy(ctx context.Context, kind domain.SRFKind) ([]string, error) {
	return s.ledgerRepo.DeliveredBy(ctx, kind)
}
