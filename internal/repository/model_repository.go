package repository

import (
	"context"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

type ModelRepository struct {
	db *gorm.DB
}

func NewModelRepository(db *gorm.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

func (r *ModelRepository) Create(ctx context.Context, m *domain.Model) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ModelRepository) Get(ctx context.Context, model string) (*domain.Model, error) {
	var m domain.Model
	if err := r.db.WithContext(ctx).First(&m, "model = ?", model).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ModelRepository) Exists(ctx context.Context, model string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Model{}).Where("model = ?", model).Count(&count).Error
	return count > 0, err
}

// List returns models ordered by name, optionally restricted to one division.
func (r *ModelRepository) List(ctx context.Context, division string) ([]domain.Model, error) {
	models := []domain.Model{}
	q := r.db.WithContext(ctx).Order("model ASC")
	if division != "" {
		q = q.Where("division = ?", division)
	}
	err := q.Find(&models).Error
	return models, err
}
