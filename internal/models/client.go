package models

import "time"

// Client is a registered external system permitted to request identity
// assertions and scoped authority information. Only a salted hash of the
// client secret is stored; the plaintext is returned once at registration.
type Client struct {
	UUID string `gorm:"type:uuid;primaryKey"` // Client identifier.

	Name       string `gorm:"type:text;not null;uniqueIndex"` // Unique display name.
	SecretHash string `gorm:"type:text;not null"`             // bcrypt hash of the secret.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Registration timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
