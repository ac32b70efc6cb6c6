package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/idhub-dev/groups/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore persists identity-provider-backed user records.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Upsert creates the user on first sight and refreshes the cached display
// name and email afterwards. Users are never deleted by this subsystem.
func (s *UserStore) Upsert(ctx context.Context, uuid, name, email string) (*models.User, error) {
	user := models.User{UUID: uuid, Name: name, Email: email}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("user store: upsert: %w", err)
	}
	return &user, nil
}

// Get loads a user by uuid.
func (s *UserStore) Get(ctx context.Context, uuid string) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, "uuid = ?", uuid).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user store: get: %w", errFind)
	}
	return &user, nil
}
