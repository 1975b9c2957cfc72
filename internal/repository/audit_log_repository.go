package repository

import (
	"context"
	"time"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	Username  string
	EntityID  string
	Method    string
	StartTime *time.Time
	EndTime   *time.Time
}

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create inserts a new audit log entry (append-only - no updates allowed)
func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List retrieves audit logs with pagination and optional filters
func (r *AuditLogRepository) List(ctx context.Context, filter *AuditLogFilter, page, pageSize int) ([]domain.AuditLog, int64, error) {
	logs := []domain.AuditLog{}
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.AuditLog{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("performed_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}

// DeleteOlderThan removes audit logs older than before (retention policy)
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("performed_at < ?", before).
		Delete(&domain.AuditLog{})
	return result.RowsAffected, result.Error
}

func (r *AuditLogRepository) applyFilters(query *gorm.DB, filter *AuditLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.StartTime != nil {
		query = query.Where("performed_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("performed_at <= ?", *filter.EndTime)
	}
	return query
}
