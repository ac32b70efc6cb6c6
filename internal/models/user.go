package models

import "time"

// User mirrors an identity-provider account. Records are created lazily on
// the first successful identity-provider validation and never deleted here.
type User struct {
	UUID string `gorm:"type:uuid;primaryKey"` // Identity-provider-issued identifier.

	Name  string `gorm:"type:text"` // Cached display name.
	Email string `gorm:"type:text"` // Cached email address.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
