package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a tenant boundary. Roles and memberships are always scoped to
// exactly one group.
type Group struct {
	UUID string `gorm:"type:uuid;primaryKey"` // Group identifier.

	Name        string `gorm:"type:text;not null"` // Display name, unique among live groups.
	Description string `gorm:"type:text"`          // Free-form description.

	PresidentUUID string `gorm:"type:uuid;not null;index"` // Presiding user reference.
	President     *User  `gorm:"foreignKey:PresidentUUID"` // Presiding user.

	ProfileImageKey *string `gorm:"type:text"` // Object-storage key for the profile image.

	VerifiedAt *time.Time // Verification timestamp, nil while unverified.

	Roles []Role `gorm:"foreignKey:GroupUUID;references:UUID"` // Roles scoped to this group.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last update timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index"`                   // Soft delete marker.
}
