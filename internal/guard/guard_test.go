package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/db"
	"github.com/idhub-dev/groups/internal/store"
	"gorm.io/gorm"
)

func newGuardDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "guard-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedGuardUser(t *testing.T, conn *gorm.DB, userUUID string) {
	t.Helper()
	if _, err := store.NewUserStore(conn).Upsert(context.Background(), userUUID, userUUID, userUUID+"@example.com"); err != nil {
		t.Fatalf("seed user %s: %v", userUUID, err)
	}
}

// requestAs performs a request through the guard as the given user and
// reports the resulting status code.
func requestAs(t *testing.T, members *store.MemberStore, userUUID, groupUUID string, required ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userUUID != "" {
			c.Set(ContextUserUUID, userUUID)
		}
		c.Next()
	})
	router.PATCH("/group/:uuid", Require(members, PathParam("uuid"), required...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/group/"+groupUUID, nil)
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequire_NonMemberDenied(t *testing.T) {
	conn := newGuardDB(t)
	seedGuardUser(t, conn, "president")
	seedGuardUser(t, conn, "outsider")
	group, err := store.NewGroupStore(conn).Create(context.Background(), "chess club", "", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	members := store.NewMemberStore(conn)

	if code := requestAs(t, members, "outsider", group.UUID, authority.GroupUpdate); code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", code)
	}
}

func TestRequire_BootstrapAdminAllowed(t *testing.T) {
	conn := newGuardDB(t)
	seedGuardUser(t, conn, "president")
	group, err := store.NewGroupStore(conn).Create(context.Background(), "chess club", "", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	members := store.NewMemberStore(conn)

	if code := requestAs(t, members, "president", group.UUID, authority.GroupUpdate, authority.GroupDelete); code != http.StatusOK {
		t.Fatalf("expected 200 for bootstrap admin, got %d", code)
	}
}

func TestRequire_UnionAcrossRoles(t *testing.T) {
	conn := newGuardDB(t)
	seedGuardUser(t, conn, "president")
	seedGuardUser(t, conn, "alice")
	group, err := store.NewGroupStore(conn).Create(context.Background(), "chess club", "", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	roles := store.NewRoleStore(conn)
	members := store.NewMemberStore(conn)

	editor, errCreate := roles.Create(context.Background(), group.UUID, "editor", []string{authority.GroupUpdate})
	if errCreate != nil {
		t.Fatalf("create role: %v", errCreate)
	}
	recruiter, errCreate := roles.Create(context.Background(), group.UUID, "recruiter", []string{authority.MemberUpdate})
	if errCreate != nil {
		t.Fatalf("create role: %v", errCreate)
	}

	if errAssign := members.Assign(context.Background(), group.UUID, editor.ID, "alice"); errAssign != nil {
		t.Fatalf("assign editor: %v", errAssign)
	}

	// One role is not enough for the combined requirement.
	if code := requestAs(t, members, "alice", group.UUID, authority.GroupUpdate, authority.MemberUpdate); code != http.StatusForbidden {
		t.Fatalf("expected 403 with a single role, got %d", code)
	}

	// The union of both roles covers it.
	if errAssign := members.Assign(context.Background(), group.UUID, recruiter.ID, "alice"); errAssign != nil {
		t.Fatalf("assign recruiter: %v", errAssign)
	}
	if code := requestAs(t, members, "alice", group.UUID, authority.GroupUpdate, authority.MemberUpdate); code != http.StatusOK {
		t.Fatalf("expected 200 with both roles, got %d", code)
	}
}

func TestRequire_RevocationAppliesImmediately(t *testing.T) {
	conn := newGuardDB(t)
	seedGuardUser(t, conn, "president")
	seedGuardUser(t, conn, "alice")
	group, err := store.NewGroupStore(conn).Create(context.Background(), "chess club", "", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	roles := store.NewRoleStore(conn)
	members := store.NewMemberStore(conn)

	editor, errCreate := roles.Create(context.Background(), group.UUID, "editor", []string{authority.GroupUpdate})
	if errCreate != nil {
		t.Fatalf("create role: %v", errCreate)
	}
	if errAssign := members.Assign(context.Background(), group.UUID, editor.ID, "alice"); errAssign != nil {
		t.Fatalf("assign editor: %v", errAssign)
	}
	if code := requestAs(t, members, "alice", group.UUID, authority.GroupUpdate); code != http.StatusOK {
		t.Fatalf("expected 200 before revocation, got %d", code)
	}

	if errRevoke := members.Revoke(context.Background(), group.UUID, editor.ID, "alice"); errRevoke != nil {
		t.Fatalf("revoke editor: %v", errRevoke)
	}
	if code := requestAs(t, members, "alice", group.UUID, authority.GroupUpdate); code != http.StatusForbidden {
		t.Fatalf("expected 403 after revocation, got %d", code)
	}
}

func TestRequire_FailsClosed(t *testing.T) {
	conn := newGuardDB(t)
	seedGuardUser(t, conn, "president")
	group, err := store.NewGroupStore(conn).Create(context.Background(), "chess club", "", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	members := store.NewMemberStore(conn)

	// No declared requirement is a misconfiguration, not an implicit allow.
	if code := requestAs(t, members, "president", group.UUID); code != http.StatusForbidden {
		t.Fatalf("expected 403 without declared authorities, got %d", code)
	}

	// No authenticated user.
	if code := requestAs(t, members, "", group.UUID, authority.GroupUpdate); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a user, got %d", code)
	}
}

func TestExtractors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?group=from-query", nil)
	c.Request.Header.Set("X-Group-UUID", "from-header")
	c.Params = gin.Params{{Key: "uuid", Value: "from-path"}}

	if got := PathParam("uuid")(c); got != "from-path" {
		t.Fatalf("path extractor: got %q", got)
	}
	if got := Query("group")(c); got != "from-query" {
		t.Fatalf("query extractor: got %q", got)
	}
	if got := Header("X-Group-UUID")(c); got != "from-header" {
		t.Fatalf("header extractor: got %q", got)
	}
}
