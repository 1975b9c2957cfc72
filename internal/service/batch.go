package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"gorm.io/gorm"
)

// batchStep applies one item to a loaded record and reports whether the record changed.
type batchStep[T any] func(rec domain.SRFRecord, item T) (bool, error)

// batchResolver maps an item to the kind and normalized identifier it targets.
type batchResolver[T any] func(item T) (domain.SRFKind, string, error)

// runBatch applies step to every item inside one transaction. Unknown
// identifiers are reported as skipped; any other failure aborts the batch and
// rolls back every item before it.
func runBatch[T any](
	ctx context.Context,
	repo *repository.SRFRepository,
	username string,
	items []T,
	resolve batchResolver[T],
	step batchStep[T],
) (*domain.BatchResult, error) {
	result := &domain.BatchResult{Items: make([]domain.BatchItemResult, 0, len(items))}

	err := repo.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		for _, item := range items {
			kind, id, err := resolve(item)
			if err != nil {
				return &BatchItemError{SRFNumber: id, Err: err}
			}

			rec, err := load(ctx, txRepo, kind, id)
			if errors.Is(err, ErrRecordNotFound) {
				result.Add(id, domain.BatchItemSkipped, "record not found")
				continue
			}
			if err != nil {
				return err
			}

			changed, err := step(rec, item)
			if err != nil {
				return &BatchItemError{SRFNumber: id, Err: err}
			}
			if !changed {
				result.Add(id, domain.BatchItemUnchanged, "")
				continue
			}

			rec.Audit().UpdatedBy = &username
			if err := txRepo.Save(ctx, rec); err != nil {
				return fmt.Errorf("failed to save %s: %w", id, err)
			}
			result.Add(id, domain.BatchItemApplied, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// fixedKind resolves items of a single kind, accepting operator shorthand.
func fixedKind[T any](kind domain.SRFKind, srfNumber func(T) string) batchResolver[T] {
	return func(item T) (domain.SRFKind, string, error) {
		raw := srfNumber(item)
		id, err := domain.NormalizeSRFNumber(kind, raw)
		if err != nil {
			return kind, raw, err
		}
		return kind, id, nil
	}
}

// prefixKind resolves items carrying full identifiers of either kind.
func prefixKind[T any](srfNumber func(T) string) batchResolver[T] {
	return func(item T) (domain.SRFKind, string, error) {
		raw := srfNumber(item)
		n, err := domain.ParseSRFNumber(raw)
		if err != nil {
			return 0, raw, err
		}
		return n.Kind, n.String(), nil
	}
}
