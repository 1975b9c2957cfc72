package repository

import (
	"context"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

type ServiceCenterRepository struct {
	db *gorm.DB
}

func NewServiceCenterRepository(db *gorm.DB) *ServiceCenterRepository {
	return &ServiceCenterRepository{db: db}
}

func (r *ServiceCenterRepository) Create(ctx context.Context, sc *domain.ServiceCenter) error {
	return r.db.WithContext(ctx).Create(sc).Error
}

func (r *ServiceCenterRepository) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ServiceCenter{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *ServiceCenterRepository) List(ctx context.Context) ([]domain.ServiceCenter, error) {
	centers := []domain.ServiceCenter{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&centers).Error
	return centers, err
}
