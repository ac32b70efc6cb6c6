package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/idhub-dev/groups/internal/models"
	"github.com/idhub-dev/groups/internal/security"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientStore persists registered external systems and their grants.
type ClientStore struct {
	db *gorm.DB
}

// NewClientStore constructs a ClientStore.
func NewClientStore(db *gorm.DB) *ClientStore {
	return &ClientStore{db: db}
}

// Register creates a client and returns the plaintext secret exactly once.
// Only the bcrypt hash is stored; the secret is never retrievable again.
func (s *ClientStore) Register(ctx context.Context, name string) (*models.Client, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("client store: empty name")
	}

	secret, errSecret := security.NewClientSecret()
	if errSecret != nil {
		return nil, "", errSecret
	}
	hash, errHash := security.HashSecret(secret)
	if errHash != nil {
		return nil, "", errHash
	}

	now := time.Now().UTC()
	client := models.Client{
		UUID:       uuid.NewString(),
		Name:       name,
		SecretHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errCreate := s.db.WithContext(ctx).Create(&client).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			return nil, "", ErrConflict
		}
		return nil, "", fmt.Errorf("client store: register: %w", errCreate)
	}
	return &client, secret, nil
}

// Validate looks up a client and compares the supplied secret against the
// stored hash. It returns (nil, nil) for an unknown id or a mismatch: a bad
// credential is not an error here, callers translate nil into unauthorized.
func (s *ClientStore) Validate(ctx context.Context, clientUUID, secret string) (*models.Client, error) {
	var client models.Client
	if errFind := s.db.WithContext(ctx).First(&client, "uuid = ?", clientUUID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("client store: validate: %w", errFind)
	}
	if !security.CompareSecret(client.SecretHash, secret) {
		return nil, nil
	}
	return &client, nil
}

// Get loads a client by uuid.
func (s *ClientStore) Get(ctx context.Context, clientUUID string) (*models.Client, error) {
	var client models.Client
	if errFind := s.db.WithContext(ctx).First(&client, "uuid = ?", clientUUID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("client store: get: %w", errFind)
	}
	return &client, nil
}

// Delete removes a client after re-validating its secret, cascading its
// external authority grants. A mismatch is Forbidden, not Unauthorized: the
// caller is a registered entity attempting self-service deletion.
func (s *ClientStore) Delete(ctx context.Context, clientUUID, secret string) error {
	client, errValidate := s.Validate(ctx, clientUUID, secret)
	if errValidate != nil {
		return errValidate
	}
	if client == nil {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errGrants := tx.Where("client_uuid = ?", client.UUID).
			Delete(&models.ExternalPermission{}).Error; errGrants != nil {
			return fmt.Errorf("client store: cascade grants: %w", errGrants)
		}
		if errDelete := tx.Delete(&models.Client{}, "uuid = ?", client.UUID).Error; errDelete != nil {
			return fmt.Errorf("client store: delete: %w", errDelete)
		}
		return nil
	})
}

// Grant ties a role to a client-defined authority string. Granting the same
// capability twice is a no-op, not an error.
func (s *ClientStore) Grant(ctx context.Context, clientUUID, groupUUID string, roleID uint32, authorityKey string) error {
	authorityKey = strings.TrimSpace(authorityKey)
	if authorityKey == "" {
		return fmt.Errorf("client store: empty authority")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if errFind := tx.Select("uuid").First(&client, "uuid = ?", clientUUID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("client store: check client: %w", errFind)
		}
		var role models.Role
		if errFind := tx.Select("id").First(&role, "group_uuid = ? AND id = ?", groupUUID, roleID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("client store: check role: %w", errFind)
		}

		grant := models.ExternalPermission{
			RoleID:     roleID,
			GroupUUID:  groupUUID,
			ClientUUID: clientUUID,
			Authority:  authorityKey,
			CreatedAt:  time.Now().UTC(),
		}
		if errCreate := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; errCreate != nil {
			return fmt.Errorf("client store: grant: %w", errCreate)
		}
		return nil
	})
}

// Revoke removes a grant; revoking an absent grant is Forbidden.
func (s *ClientStore) Revoke(ctx context.Context, clientUUID, groupUUID string, roleID uint32, authorityKey string) error {
	res := s.db.WithContext(ctx).
		Where("client_uuid = ? AND group_uuid = ? AND role_id = ? AND authority = ?",
			clientUUID, groupUUID, roleID, strings.TrimSpace(authorityKey)).
		Delete(&models.ExternalPermission{})
	if res.Error != nil {
		return fmt.Errorf("client store: revoke: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrForbidden
	}
	return nil
}

// VisibleGroup is one group of the subject's graph visible to a client,
// with the roles that carry at least one grant for that client.
type VisibleGroup struct {
	Group models.Group
	Roles []models.Role
}

// VisibleGroups returns the subject's group/role graph filtered to the
// requesting client: only roles the subject holds that carry at least one
// grant registered for exactly this client appear; groups with no such role
// are omitted entirely. An unknown subject yields an empty result, since
// identity existence and group participation are independent facts.
func (s *ClientStore) VisibleGroups(ctx context.Context, clientUUID, subjectUUID string) ([]VisibleGroup, error) {
	var roles []models.Role
	if errFind := s.db.WithContext(ctx).Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.group_uuid = roles.group_uuid AND user_roles.role_id = roles.id").
		Where("user_roles.user_uuid = ?", subjectUUID).
		Where(`EXISTS (
			SELECT 1 FROM external_permissions
			WHERE external_permissions.group_uuid = roles.group_uuid
			AND external_permissions.role_id = roles.id
			AND external_permissions.client_uuid = ?
		)`, clientUUID).
		Preload("ExternalPermissions", "client_uuid = ?", clientUUID).
		Order("roles.group_uuid ASC, roles.id ASC").
		Find(&roles).Error; errFind != nil {
		return nil, fmt.Errorf("client store: visible roles: %w", errFind)
	}
	if len(roles) == 0 {
		return []VisibleGroup{}, nil
	}

	groupUUIDs := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if _, ok := seen[role.GroupUUID]; ok {
			continue
		}
		seen[role.GroupUUID] = struct{}{}
		groupUUIDs = append(groupUUIDs, role.GroupUUID)
	}

	// The default gorm scope filters soft-deleted groups here, which also
	// drops their roles from the result below.
	var groups []models.Group
	if errFind := s.db.WithContext(ctx).Where("uuid IN ?", groupUUIDs).
		Order("created_at DESC").Find(&groups).Error; errFind != nil {
		return nil, fmt.Errorf("client store: visible groups: %w", errFind)
	}

	rolesByGroup := make(map[string][]models.Role, len(groups))
	for _, role := range roles {
		rolesByGroup[role.GroupUUID] = append(rolesByGroup[role.GroupUUID], role)
	}

	out := make([]VisibleGroup, 0, len(groups))
	for _, group := range groups {
		out = append(out, VisibleGroup{Group: group, Roles: rolesByGroup[group.UUID]})
	}
	return out, nil
}
