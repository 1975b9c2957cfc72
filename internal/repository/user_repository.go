package repository

import (
	"context"
	"time"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates the user on first sight and afterwards refreshes the display
// name, role and login time from the presented identity.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.LastLoginAt == nil {
		now := time.Now().UTC()
		user.LastLoginAt = &now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "role", "last_login_at"}),
	}).Create(user).Error
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	return users, err
}
