package repository

import (
	"context"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

type RewindingRateRepository struct {
	db *gorm.DB
}

func NewRewindingRateRepository(db *gorm.DB) *RewindingRateRepository {
	return &RewindingRateRepository{db: db}
}

func (r *RewindingRateRepository) Create(ctx context.Context, rate *domain.RewindingRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *RewindingRateRepository) List(ctx context.Context, division string) ([]domain.RewindingRate, error) {
	rates := []domain.RewindingRate{}
	q := r.db.WithContext(ctx).Order("id ASC")
	if division != "" {
		q = q.Where("division = ?", division)
	}
	err := q.Find(&rates).Error
	return rates, err
}

// FindByFrame returns the rate row for a division and frame size.
func (r *RewindingRateRepository) FindByFrame(ctx context.Context, division, frame string) (*domain.RewindingRate, error) {
	var rate domain.RewindingRate
	err := r.db.WithContext(ctx).
		Where("division = ? AND frame = ?", division, frame).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// FindByRating returns the rate row for a division, HP rating and winding type.
func (r *RewindingRateRepository) FindByRating(ctx context.Context, division string, hpRating float64, windingType string) (*domain.RewindingRate, error) {
	var rate domain.RewindingRate
	err := r.db.WithContext(ctx).
		Where("division = ? AND hp_rating = ? AND winding_type = ?", division, hpRating, windingType).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
