package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is a named bundle of internal authorities scoped to one group.
// Role ids are assigned densely per group; (id, group) is unique.
type Role struct {
	ID        uint32 `gorm:"primaryKey;autoIncrement:false"`                         // Numeric id, unique within the group.
	GroupUUID string `gorm:"type:uuid;primaryKey;uniqueIndex:idx_roles_group_name"` // Owning group.
	Name      string `gorm:"type:text;not null;uniqueIndex:idx_roles_group_name"`   // Display name, unique within the group.

	Authorities datatypes.JSON `gorm:"not null;default:'[]'"` // Internal authority set as a JSON string array.

	Group *Group `gorm:"foreignKey:GroupUUID;references:UUID"` // Owning group.

	ExternalPermissions []ExternalPermission `gorm:"foreignKey:RoleID,GroupUUID;references:ID,GroupUUID"` // Client grants on this role.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
