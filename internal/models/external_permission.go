package models

import "time"

// ExternalPermission grants a client-defined authority string to a role.
// (role, client, authority) is unique; granting twice is a no-op.
type ExternalPermission struct {
	RoleID     uint32 `gorm:"primaryKey;autoIncrement:false"` // Granted role id.
	GroupUUID  string `gorm:"type:uuid;primaryKey"`           // Group the role belongs to.
	ClientUUID string `gorm:"type:uuid;primaryKey"`           // Client the grant is scoped to.
	Authority  string `gorm:"type:text;primaryKey"`           // Client-defined authority string.

	Role   *Role   `gorm:"foreignKey:RoleID,GroupUUID;references:ID,GroupUUID"` // Granted role.
	Client *Client `gorm:"foreignKey:ClientUUID;references:UUID"`               // Scoped client.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Grant timestamp.
}
