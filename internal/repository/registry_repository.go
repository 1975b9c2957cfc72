package repository

import (
	"context"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistryRepository stores the externally issued complaint numbers and CG SRF
// numbers that warranty records must reference before closing.
type RegistryRepository struct {
	db *gorm.DB
}

func NewRegistryRepository(db *gorm.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *RegistryRepository) WithTx(tx *gorm.DB) *RegistryRepository {
	return &RegistryRepository{db: tx}
}

func (r *RegistryRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *RegistryRepository) ComplaintNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ComplaintNumber{}).
		Where("complaint_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

// UpsertComplaintNumber inserts the number or overwrites its status and remark.
// It reports whether a new row was inserted.
func (r *RegistryRepository) UpsertComplaintNumber(ctx context.Context, cn *domain.ComplaintNumber) (bool, error) {
	exists, err := r.ComplaintNumberExists(ctx, cn.ComplaintNumber)
	if err != nil {
		return false, err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "complaint_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "remark"}),
	}).Create(cn).Error
	return !exists, err
}

func (r *RegistryRepository) ListComplaintNumbers(ctx context.Context) ([]domain.ComplaintNumber, error) {
	numbers := []domain.ComplaintNumber{}
	err := r.db.WithContext(ctx).Order("complaint_number ASC").Find(&numbers).Error
	return numbers, err
}

func (r *RegistryRepository) CGSRFNumberExists(ctx context.Context, number int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.CGSRFNumber{}).
		Where("cg_srf_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

// InsertCGSRFNumber inserts the number unless it is already registered. It
// reports whether a row was inserted.
func (r *RegistryRepository) InsertCGSRFNumber(ctx context.Context, number int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CGSRFNumber{CGSRFNumber: number})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RegistryRepository) ListCGSRFNumbers(ctx context.Context) ([]domain.CGSRFNumber, error) {
	numbers := []domain.CGSRFNumber{}
	err := r.db.WithContext(ctx).Order("cg_srf_number ASC").Find(&numbers).Error
	return numbers, err
}
