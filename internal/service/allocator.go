package service

import (
	"context"
	"fmt"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
)

// MaxAllocationAttempts bounds the optimistic retry loop of Allocate.
const MaxAllocationAttempts = 3

// IdentifierSource lists the identifiers already stored for a record kind.
type IdentifierSource interface {
	ListSRFNumbers(ctx context.Context, kind domain.SRFKind) ([]string, error)
}

// InsertFunc persists a record under id. A unique violation signals that a
// concurrent writer took the identifier.
type InsertFunc func(ctx context.Context, id domain.SRFNumber) error

// IdentifierAllocator derives fresh SRF base numbers from the stored identifiers
// and allocates them with a bounded retry on collision.
type IdentifierAllocator struct {
	source IdentifierSource
	logger *zap.Logger
}

// NewIdentifierAllocator creates a new IdentifierAllocator
func NewIdentifierAllocator(source IdentifierSource, logger *zap.Logger) *IdentifierAllocator {
	return &IdentifierAllocator{source: source, logger: logger}
}

// NextBase returns the next free base number for kind.
func (a *IdentifierAllocator) NextBase(ctx context.Context, kind domain.SRFKind) (int, error) {
	ids, err := a.source.ListSRFNumbers(ctx, kind)
	if err != nil {
		return 0, err
	}
	return domain.NextBase(ids, kind.Prefix()), nil
}

// LastBase returns the highest base number in use for kind, or 0 when none.
func (a *IdentifierAllocator) LastBase(ctx context.Context, kind domain.SRFKind) (int, error) {
	next, err := a.NextBase(ctx, kind)
	if err != nil {
		return 0, err
	}
	return next - 1, nil
}

// Allocate composes <prefix><next base>/<sub> and hands it to insert. When the
// insert collides the next base is recomputed and the insert retried, for at most
// MaxAllocationAttempts attempts in total.
func (a *IdentifierAllocator) Allocate(ctx context.Context, kind domain.SRFKind, sub int, insert InsertFunc) (domain.SRFNumber, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAllocationAttempts; attempt++ {
		base, err := a.NextBase(ctx, kind)
		if err != nil {
			return domain.SRFNumber{}, fmt.Errorf("failed to compute next base: %w", err)
		}
		id, err := domain.NewSRFNumber(kind, base, sub)
		if err != nil {
			return domain.SRFNumber{}, err
		}

		err = insert(ctx, id)
		if err == nil {
			return id, nil
		}
		if !repository.IsUniqueViolation(err) {
			return domain.SRFNumber{}, err
		}

		lastErr = err
		a.logger.Warn("identifier collision, retrying allocation",
			zap.String("srf_number", id.String()),
			zap.Int("attempt", attempt),
		)
	}
	return domain.SRFNumber{}, fmt.Errorf("%w after %d attempts: %v", ErrAllocationExhausted, MaxAllocationAttempts, lastErr)
}
