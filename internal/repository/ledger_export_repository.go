package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

type LedgerExportRepository struct {
	db *gorm.DB
}

func NewLedgerExportRepository(db *gorm.DB) *LedgerExportRepository {
	return &LedgerExportRepository{db: db}
}

func (r *LedgerExportRepository) Create(ctx context.Context, export *domain.LedgerExport) error {
	return r.db.WithContext(ctx).Create(export).Error
}

func (r *LedgerExportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerExport, error) {
	var export domain.LedgerExport
	err := r.db.WithContext(ctx).First(&export, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &export, nil
}

// List returns the most recent exports first.
func (r *LedgerExportRepository) List(ctx context.Context, limit int) ([]domain.LedgerExport, error) {
	exports := []domain.LedgerExport{}
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&exports).Error
	return exports, err
}
