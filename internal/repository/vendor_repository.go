package repository

import (
	"context"
	"fmt"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

// VendorRepository reads the vendor challan numbering space, which spans both
// record tables.
type VendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository creates a new VendorRepository
func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// ChallanNumbers returns every distinct non-empty challan_number of both kinds.
func (r *VendorRepository) ChallanNumbers(ctx context.Context) ([]string, error) {
	var all []string
	for _, kind := range domain.AllKinds {
		var codes []string
		err := r.db.WithContext(ctx).
			Table(kind.TableName()).
			Distinct("challan_number").
			Where("challan_number IS NOT NULL AND challan_number <> ''").
			Pluck("challan_number", &codes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list %s challan numbers: %w", kind, err)
		}
		all = append(all, codes...)
	}
	return all, nil
}
