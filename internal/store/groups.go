package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/idhub-dev/groups/internal/authority"
	dbutil "github.com/idhub-dev/groups/internal/db"
	"github.com/idhub-dev/groups/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// bootstrapRoleName is the role every new group starts with. Its holder can
// perform all group-scoped mutations, so the permission evaluator can ever
// allow a first admin action.
const bootstrapRoleName = "Admin"

// GroupStore persists groups and their bootstrap state.
type GroupStore struct {
	db *gorm.DB
}

// NewGroupStore constructs a GroupStore.
func NewGroupStore(db *gorm.DB) *GroupStore {
	return &GroupStore{db: db}
}

// Create creates a group, its bootstrap admin role (id 1, full internal
// authority set), and the president's membership in that role, atomically.
func (s *GroupStore) Create(ctx context.Context, name, description, presidentUUID string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group store: empty name")
	}

	auths, errMarshal := authority.Marshal(authority.All())
	if errMarshal != nil {
		return nil, fmt.Errorf("group store: marshal bootstrap authorities: %w", errMarshal)
	}

	now := time.Now().UTC()
	group := models.Group{
		UUID:          uuid.NewString(),
		Name:          name,
		Description:   description,
		PresidentUUID: presidentUUID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.Group{}).Where("name = ?", name).Count(&count).Error; errCount != nil {
			return fmt.Errorf("group store: check name: %w", errCount)
		}
		if count > 0 {
			return ErrConflict
		}
		if errCreate := tx.Create(&group).Error; errCreate != nil {
			return fmt.Errorf("group store: create: %w", errCreate)
		}
		role := models.Role{
			ID:          1,
			GroupUUID:   group.UUID,
			Name:        bootstrapRoleName,
			Authorities: datatypes.JSON(auths),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if errRole := tx.Create(&role).Error; errRole != nil {
			return fmt.Errorf("group store: create bootstrap role: %w", errRole)
		}
		member := models.UserRole{
			UserUUID:  presidentUUID,
			GroupUUID: group.UUID,
			RoleID:    role.ID,
			CreatedAt: now,
		}
		if errMember := tx.Create(&member).Error; errMember != nil {
			return fmt.Errorf("group store: assign president: %w", errMember)
		}
		return nil
	})
	if errTx != nil {
		if errors.Is(errTx, ErrConflict) || errors.Is(errTx, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, errTx
	}
	return &group, nil
}

// Get loads a live group by uuid.
func (s *GroupStore) Get(ctx context.Context, groupUUID string) (*models.Group, error) {
	var group models.Group
	if errFind := s.db.WithContext(ctx).First(&group, "uuid = ?", groupUUID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("group store: get: %w", errFind)
	}
	return &group, nil
}

// ListForUser returns the live groups in which the user holds at least one
// role, optionally filtered by a case-insensitive name fragment.
func (s *GroupStore) ListForUser(ctx context.Context, userUUID, nameFilter string) ([]models.Group, error) {
	q := s.db.WithContext(ctx).Model(&models.Group{}).
		Joins("JOIN user_roles ON user_roles.group_uuid = groups.uuid").
		Where("user_roles.user_uuid = ?", userUUID).
		Distinct("groups.*")

	if trimmed := strings.TrimSpace(nameFilter); trimmed != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+trimmed+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "groups.name"), pattern)
	}

	var rows []models.Group
	if errFind := q.Order("groups.created_at DESC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("group store: list: %w", errFind)
	}
	return rows, nil
}

// GroupUpdate carries the mutable group fields; nil fields stay untouched.
type GroupUpdate struct {
	Description     *string
	ProfileImageKey *string
}

// Update applies partial updates to a live group.
func (s *GroupStore) Update(ctx context.Context, groupUUID string, update GroupUpdate) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.ProfileImageKey != nil {
		updates["profile_image_key"] = *update.ProfileImageKey
	}

	res := s.db.WithContext(ctx).Model(&models.Group{}).Where("uuid = ?", groupUUID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("group store: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the group deleted without purging history. Roles and
// memberships survive in the database but become unreachable through every
// read path, which filters on the live scope.
func (s *GroupStore) SoftDelete(ctx context.Context, groupUUID string) error {
	res := s.db.WithContext(ctx).Where("uuid = ?", groupUUID).Delete(&models.Group{})
	if res.Error != nil {
		return fmt.Errorf("group store: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
