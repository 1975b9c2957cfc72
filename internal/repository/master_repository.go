package repository

import (
	"context"
	"fmt"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

type MasterRepository struct {
	db *gorm.DB
}

func NewMasterRepository(db *gorm.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

func (r *MasterRepository) Create(ctx context.Context, m *domain.Master) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MasterRepository) GetByCode(ctx context.Context, code string) (*domain.Master, error) {
	var m domain.Master
	if err := r.db.WithContext(ctx).First(&m, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByName matches the customer name case-insensitively.
func (r *MasterRepository) GetByName(ctx context.Context, name string) (*domain.Master, error) {
	var m domain.Master
	if err := r.db.WithContext(ctx).First(&m, "LOWER(name) = LOWER(?)", name).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Search lists masters whose name contains term, ordered by name.
func (r *MasterRepository) Search(ctx context.Context, term string, limit int) ([]domain.Master, error) {
	masters := []domain.Master{}
	q := r.db.WithContext(ctx).Order("name ASC")
	if term != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+term+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&masters).Error; err != nil {
		return nil, fmt.Errorf("failed to search masters: %w", err)
	}
	return masters, nil
}

// Codes returns every stored master code.
func (r *MasterRepository) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&domain.Master{}).Pluck("code", &codes).Error
	return codes, err
}
