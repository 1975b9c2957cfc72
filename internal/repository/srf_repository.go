package repository

import (
	"context"
	"fmt"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

// SRFRepository handles persistence of warranty and out-of-warranty records.
// Every method takes the record kind explicitly and targets that kind's table.
type SRFRepository struct {
	db *gorm.DB
}

// NewSRFRepository creates a new SRFRepository
func NewSRFRepository(db *gorm.DB) *SRFRepository {
	return &SRFRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *SRFRepository) WithTx(tx *gorm.DB) *SRFRepository {
	return &SRFRepository{db: tx}
}

// Transaction runs fn inside one database transaction; returning an error from fn
// rolls everything back. Bind repositories to tx with WithTx.
func (r *SRFRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// ListSRFNumbers returns every identifier stored for kind.
func (r *SRFRepository) ListSRFNumbers(ctx context.Context, kind domain.SRFKind) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table(kind.TableName()).
		Where("srf_number LIKE ?", kind.Prefix()+"%").
		Pluck("srf_number", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s identifiers: %w", kind, err)
	}
	return ids, nil
}

// Create inserts a new record. A key conflict is returned unchanged so callers
// can classify it with IsUniqueViolation.
func (r *SRFRepository) Create(ctx context.Context, rec domain.SRFRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Save writes every column of an existing record.
func (r *SRFRepository) Save(ctx context.Context, rec domain.SRFRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// GetBySRFNumber loads one record. Returns gorm.ErrRecordNotFound when absent.
func (r *SRFRepository) GetBySRFNumber(ctx context.Context, kind domain.SRFKind, srfNumber string) (domain.SRFRecord, error) {
	rec := domain.NewRecord(kind)
	if err := r.db.WithContext(ctx).First(rec, "srf_number = ?", srfNumber).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListFamily returns all records sharing a base code (e.g. R00042), ordered by
// sub-number.
func (r *SRFRepository) ListFamily(ctx context.Context, kind domain.SRFKind, baseCode string) ([]domain.SRFRecord, error) {
	return r.find(ctx, kind, func(q *gorm.DB) *gorm.DB {
		return q.Where("srf_number LIKE ?", baseCode+"/%").Order("srf_number ASC")
	})
}

// CountComplaintNumberClaims counts warranty records other than excludeSRF that
// carry complaintNumber.
func (r *SRFRepository) CountComplaintNumberClaims(ctx context.Context, complaintNumber, excludeSRF string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Warranty{}).
		Where("complaint_number = ? AND srf_number <> ?", complaintNumber, excludeSRF).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count complaint number claims: %w", err)
	}
	return count, nil
}

// CountCGSRFNumberClaims counts warranty records other than excludeSRF that carry
// cgSRFNumber.
func (r *SRFRepository) CountCGSRFNumberClaims(ctx context.Context, cgSRFNumber int64, excludeSRF string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Warranty{}).
		Where("cg_srf_number = ? AND srf_number <> ?", cgSRFNumber, excludeSRF).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count CG SRF number claims: %w", err)
	}
	return count, nil
}

func (r *SRFRepository) find(ctx context.Context, kind domain.SRFKind, scope func(*gorm.DB) *gorm.DB) ([]domain.SRFRecord, error) {
	switch kind {
	case domain.KindWarranty:
		var rows []domain.Warranty
		if err := scope(r.db.WithContext(ctx).Model(&domain.Warranty{})).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
		}
		return toRecords(rows), nil
	case domain.KindOutOfWarranty:
		var rows []domain.OutOfWarranty
		if err := scope(r.db.WithContext(ctx).Model(&domain.OutOfWarranty{})).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
		}
		return toRecords(rows), nil
	}
	return nil, fmt.Errorf("unknown record kind %d", kind)
}

func toRecords[T any, P interface {
	*T
	domain.SRFRecord
}](rows []T) []domain.SRFRecord {
	out := make([]domain.SRFRecord, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out
}
