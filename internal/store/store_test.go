package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/idhub-dev/groups/internal/db"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "groups-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, userUUID string) {
	t.Helper()
	users := NewUserStore(conn)
	if _, err := users.Upsert(context.Background(), userUUID, "user-"+userUUID, fmt.Sprintf("%s@example.com", userUUID)); err != nil {
		t.Fatalf("seed user %s: %v", userUUID, err)
	}
}
