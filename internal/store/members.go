package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/idhub-dev/groups/internal/models"
	"gorm.io/gorm"
)

// MemberStore persists user-to-role assignments.
type MemberStore struct {
	db *gorm.DB
}

// NewMemberStore constructs a MemberStore.
func NewMemberStore(db *gorm.DB) *MemberStore {
	return &MemberStore{db: db}
}

// Assign adds a user to a role. A second identical assignment is rejected
// as a conflict rather than silently accepted, to surface operator mistakes.
func (s *MemberStore) Assign(ctx context.Context, groupUUID string, roleID uint32, userUUID string) error {
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if errFind := tx.Select("id").First(&role, "group_uuid = ? AND id = ?", groupUUID, roleID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("member store: check role: %w", errFind)
		}
		var user models.User
		if errFind := tx.Select("uuid").First(&user, "uuid = ?", userUUID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("member store: check user: %w", errFind)
		}

		member := models.UserRole{
			UserUUID:  userUUID,
			GroupUUID: groupUUID,
			RoleID:    roleID,
			CreatedAt: time.Now().UTC(),
		}
		if errCreate := tx.Create(&member).Error; errCreate != nil {
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("member store: assign: %w", errCreate)
		}
		return nil
	})
	return errTx
}

// Revoke removes a user from a role.
func (s *MemberStore) Revoke(ctx context.Context, groupUUID string, roleID uint32, userUUID string) error {
	res := s.db.WithContext(ctx).
		Where("group_uuid = ? AND role_id = ? AND user_uuid = ?", groupUUID, roleID, userUUID).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return fmt.Errorf("member store: revoke: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RolesForUser returns every role the user holds in the group, reading live
// state on every call so revocations apply on the next request.
func (s *MemberStore) RolesForUser(ctx context.Context, userUUID, groupUUID string) ([]models.Role, error) {
	var roles []models.Role
	if errFind := s.db.WithContext(ctx).Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.group_uuid = roles.group_uuid AND user_roles.role_id = roles.id").
		Where("user_roles.user_uuid = ? AND roles.group_uuid = ?", userUUID, groupUUID).
		Find(&roles).Error; errFind != nil {
		return nil, fmt.Errorf("member store: roles for user: %w", errFind)
	}
	return roles, nil
}

// IsMember reports whether the user holds at least one role in the group.
func (s *MemberStore) IsMember(ctx context.Context, userUUID, groupUUID string) (bool, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("group_uuid = ? AND user_uuid = ?", groupUUID, userUUID).
		Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("member store: check membership: %w", errCount)
	}
	return count > 0, nil
}

// ListMembers returns the users assigned to a role.
func (s *MemberStore) ListMembers(ctx context.Context, groupUUID string, roleID uint32) ([]models.User, error) {
	var users []models.User
	if errFind := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN user_roles ON user_roles.user_uuid = users.uuid").
		Where("user_roles.group_uuid = ? AND user_roles.role_id = ?", groupUUID, roleID).
		Order("users.uuid ASC").
		Find(&users).Error; errFind != nil {
		return nil, fmt.Errorf("member store: list members: %w", errFind)
	}
	return users, nil
}
