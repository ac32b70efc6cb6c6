package models

import "time"

// UserRole assigns a user to a role within a group. A user may hold several
// roles in the same group; effective authorities are the union across them.
type UserRole struct {
	UserUUID  string `gorm:"type:uuid;primaryKey"`           // Assigned user.
	GroupUUID string `gorm:"type:uuid;primaryKey"`           // Group the role belongs to.
	RoleID    uint32 `gorm:"primaryKey;autoIncrement:false"` // Role id within the group.

	User *User `gorm:"foreignKey:UserUUID;references:UUID"`                 // Assigned user.
	Role *Role `gorm:"foreignKey:RoleID,GroupUUID;references:ID,GroupUUID"` // Assigned role.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Assignment timestamp.
}
