package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoleStore persists roles and enforces the dense per-group id sequence.
type RoleStore struct {
	db *gorm.DB
}

// NewRoleStore constructs a RoleStore.
func NewRoleStore(db *gorm.DB) *RoleStore {
	return &RoleStore{db: db}
}

// Create creates a role with id = count(roles in group) + 1. When a
// mid-sequence deletion left that id occupied by a surviving role, the next
// free id above the current maximum is used instead; the (id, group) primary
// key backs this up at the schema level.
func (s *RoleStore) Create(ctx context.Context, groupUUID, name string, authorities []string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role store: empty name")
	}
	auths, errMarshal := authority.Marshal(authorities)
	if errMarshal != nil {
		return nil, fmt.Errorf("role store: marshal authorities: %w", errMarshal)
	}

	now := time.Now().UTC()
	role := models.Role{
		GroupUUID:   groupUUID,
		Name:        name,
		Authorities: datatypes.JSON(auths),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if errFind := tx.Select("uuid").First(&group, "uuid = ?", groupUUID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("role store: check group: %w", errFind)
		}

		var count int64
		if errCount := tx.Model(&models.Role{}).Where("group_uuid = ?", groupUUID).Count(&count).Error; errCount != nil {
			return fmt.Errorf("role store: count roles: %w", errCount)
		}
		next := uint32(count) + 1

		var occupied int64
		if errOcc := tx.Model(&models.Role{}).Where("group_uuid = ? AND id = ?", groupUUID, next).Count(&occupied).Error; errOcc != nil {
			return fmt.Errorf("role store: check id: %w", errOcc)
		}
		if occupied > 0 {
			var maxID uint32
			if errMax := tx.Model(&models.Role{}).Where("group_uuid = ?", groupUUID).
				Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; errMax != nil {
				return fmt.Errorf("role store: max id: %w", errMax)
			}
			next = maxID + 1
		}

		role.ID = next
		if errCreate := tx.Create(&role).Error; errCreate != nil {
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("role store: create: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &role, nil
}

// Update replaces (does not merge) the authority set on a role.
func (s *RoleStore) Update(ctx context.Context, groupUUID string, roleID uint32, authorities []string) (*models.Role, error) {
	auths, errMarshal := authority.Marshal(authorities)
	if errMarshal != nil {
		return nil, fmt.Errorf("role store: marshal authorities: %w", errMarshal)
	}

	res := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("group_uuid = ? AND id = ?", groupUUID, roleID).
		Updates(map[string]any{
			"authorities": datatypes.JSON(auths),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("role store: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var role models.Role
	if errFind := s.db.WithContext(ctx).First(&role, "group_uuid = ? AND id = ?", groupUUID, roleID).Error; errFind != nil {
		return nil, fmt.Errorf("role store: reload: %w", errFind)
	}
	return &role, nil
}

// Delete removes a role and cascades its membership and grant rows.
func (s *RoleStore) Delete(ctx context.Context, groupUUID string, roleID uint32) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errMembers := tx.Where("group_uuid = ? AND role_id = ?", groupUUID, roleID).
			Delete(&models.UserRole{}).Error; errMembers != nil {
			return fmt.Errorf("role store: cascade memberships: %w", errMembers)
		}
		if errGrants := tx.Where("group_uuid = ? AND role_id = ?", groupUUID, roleID).
			Delete(&models.ExternalPermission{}).Error; errGrants != nil {
			return fmt.Errorf("role store: cascade grants: %w", errGrants)
		}
		res := tx.Where("group_uuid = ? AND id = ?", groupUUID, roleID).Delete(&models.Role{})
		if res.Error != nil {
			return fmt.Errorf("role store: delete: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// List returns the roles of a group, visible only to its members. Outsiders
// get ErrForbidden so role sets cannot be enumerated across tenants.
func (s *RoleStore) List(ctx context.Context, groupUUID, requesterUUID string) ([]models.Role, error) {
	var group models.Group
	if errFind := s.db.WithContext(ctx).Select("uuid").First(&group, "uuid = ?", groupUUID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("role store: check group: %w", errFind)
	}

	var memberships int64
	if errCount := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("group_uuid = ? AND user_uuid = ?", groupUUID, requesterUUID).
		Count(&memberships).Error; errCount != nil {
		return nil, fmt.Errorf("role store: check membership: %w", errCount)
	}
	if memberships == 0 {
		return nil, ErrForbidden
	}

	var roles []models.Role
	if errList := s.db.WithContext(ctx).Where("group_uuid = ?", groupUUID).
		Order("id ASC").Find(&roles).Error; errList != nil {
		return nil, fmt.Errorf("role store: list: %w", errList)
	}
	return roles, nil
}
