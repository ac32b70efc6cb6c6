package store

import (
	"context"
	"errors"
	"testing"

	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/models"
)

func TestGroupCreate_BootstrapsAdminRole(t *testing.T) {
	conn := newTestDB(t)
	seedUser(t, conn, "president")
	groups := NewGroupStore(conn)

	group, err := groups.Create(context.Background(), "chess club", "we play chess", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if group.PresidentUUID != "president" {
		t.Fatalf("expected president to be set, got %q", group.PresidentUUID)
	}

	var role models.Role
	if errFind := conn.First(&role, "group_uuid = ? AND id = ?", group.UUID, 1).Error; errFind != nil {
		t.Fatalf("find bootstrap role: %v", errFind)
	}
	held := authority.Parse(role.Authorities)
	for _, required := range authority.All() {
		if !authority.Has(held, required) {
			t.Fatalf("bootstrap role missing %s", required)
		}
	}

	var member models.UserRole
	if errFind := conn.First(&member, "group_uuid = ? AND role_id = ? AND user_uuid = ?", group.UUID, 1, "president").Error; errFind != nil {
		t.Fatalf("president not assigned to bootstrap role: %v", errFind)
	}
}

func TestGroupCreate_DuplicateNameConflicts(t *testing.T) {
	conn := newTestDB(t)
	seedUser(t, conn, "president")
	groups := NewGroupStore(conn)

	if _, err := groups.Create(context.Background(), "chess club", "", "president"); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := groups.Create(context.Background(), "chess club", "", "president"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGroupSoftDelete_FreesNameAndHidesGroup(t *testing.T) {
	conn := newTestDB(t)
	seedUser(t, conn, "president")
	groups := NewGroupStore(conn)

	group, err := groups.Create(context.Background(), "chess club", "", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if errDelete := groups.SoftDelete(context.Background(), group.UUID); errDelete != nil {
		t.Fatalf("soft delete: %v", errDelete)
	}

	if _, errGet := groups.Get(context.Background(), group.UUID); !errors.Is(errGet, ErrNotFound) {
		t.Fatalf("expected deleted group to be unreachable, got %v", errGet)
	}
	if errDelete := groups.SoftDelete(context.Background(), group.UUID); !errors.Is(errDelete, ErrNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", errDelete)
	}

	// A live group may take the retired name.
	if _, errCreate := groups.Create(context.Background(), "chess club", "", "president"); errCreate != nil {
		t.Fatalf("recreate with retired name: %v", errCreate)
	}

	listed, errList := groups.ListForUser(context.Background(), "president", "")
	if errList != nil {
		t.Fatalf("list groups: %v", errList)
	}
	for _, g := range listed {
		if g.UUID == group.UUID {
			t.Fatalf("deleted group still listed")
		}
	}
}

func TestGroupListForUser_FiltersByNameFragment(t *testing.T) {
	conn := newTestDB(t)
	seedUser(t, conn, "president")
	groups := NewGroupStore(conn)

	if _, err := groups.Create(context.Background(), "Chess Club", "", "president"); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := groups.Create(context.Background(), "Debate Society", "", "president"); err != nil {
		t.Fatalf("create group: %v", err)
	}

	listed, errList := groups.ListForUser(context.Background(), "president", "chess")
	if errList != nil {
		t.Fatalf("list groups: %v", errList)
	}
	if len(listed) != 1 || listed[0].Name != "Chess Club" {
		t.Fatalf("expected only Chess Club, got %d groups", len(listed))
	}

	all, errAll := groups.ListForUser(context.Background(), "president", "")
	if errAll != nil {
		t.Fatalf("list all groups: %v", errAll)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(all))
	}
}

func TestGroupUpdate_PartialFields(t *testing.T) {
	conn := newTestDB(t)
	seedUser(t, conn, "president")
	groups := NewGroupStore(conn)

	group, err := groups.Create(context.Background(), "chess club", "old", "president")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	desc := "new description"
	if errUpdate := groups.Update(context.Background(), group.UUID, GroupUpdate{Description: &desc}); errUpdate != nil {
		t.Fatalf("update group: %v", errUpdate)
	}

	reloaded, errGet := groups.Get(context.Background(), group.UUID)
	if errGet != nil {
		t.Fatalf("get group: %v", errGet)
	}
	if reloaded.Description != desc {
		t.Fatalf("description not updated: %q", reloaded.Description)
	}
	if reloaded.ProfileImageKey != nil {
		t.Fatalf("untouched field changed")
	}

	if errUpdate := groups.Update(context.Background(), "missing", GroupUpdate{Description: &desc}); !errors.Is(errUpdate, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown group, got %v", errUpdate)
	}
}
