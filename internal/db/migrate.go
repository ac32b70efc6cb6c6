package db

import (
	"fmt"

	"github.com/idhub-dev/groups/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite, DialectPostgres, "":
		return migrate(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migrate applies the schema and the indexes both dialects share. The
// uniqueness constraints are the primary correctness mechanism for role ids
// and external grants, so index creation failures are fatal.
func migrate(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Role{},
		&models.UserRole{},
		&models.Client{},
		&models.ExternalPermission{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			// Group names are unique among live rows only; a soft-deleted
			// group must not block re-use of its name.
			name: "idx_groups_name_live",
			sql: `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_groups_name_live
				ON groups (name)
				WHERE deleted_at IS NULL
			`,
		},
		{
			name: "idx_user_roles_group_user",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_user_roles_group_user
				ON user_roles (group_uuid, user_uuid)
			`,
		},
		{
			name: "idx_external_permissions_client",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_external_permissions_client
				ON external_permissions (client_uuid)
			`,
		},
		{
			name: "idx_external_permissions_role",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_external_permissions_role
				ON external_permissions (group_uuid, role_id)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}
