package store

import (
	"context"
	"errors"
	"testing"

	"github.com/idhub-dev/groups/internal/authority"
)

func TestMemberAssign_AndRevoke(t *testing.T) {
	conn := newTestDB(t)
	group := seedGroup(t, conn, "chess club")
	members := NewMemberStore(conn)
	seedUser(t, conn, "alice")

	if errAssign := members.Assign(context.Background(), group.UUID, 1, "alice"); errAssign != nil {
		t.Fatalf("assign role: %v", errAssign)
	}
	member, errCheck := members.IsMember(context.Background(), "alice", group.UUID)
	if errCheck != nil {
		t.Fatalf("check membership: %v", errCheck)
	}
	if !member {
		t.Fatalf("expected alice to be a member")
	}

	if errRevoke := members.Revoke(context.Background(), group.UUID, 1, "alice"); errRevoke != nil {
		t.Fatalf("revoke role: %v", errRevoke)
	}
	member, errCheck = members.IsMember(context.Background(), "alice", group.UUID)
	if errCheck != nil {
		t.Fatalf("check membership: %v", errCheck)
	}
	if member {
		t.Fatalf("expected revocation to end membership")
	}
	if errRevoke := members.Revoke(context.Background(), group.UUID, 1, "alice"); !errors.Is(errRevoke, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on absent assignment, got %v", errRevoke)
	}
}

func TestMemberAssign_DuplicateConflicts(t *testing.T) {
	conn := newTestDB(t)
	group := seedGroup(t, conn, "chess club")
	members := NewMemberStore(conn)
	seedUser(t, conn, "alice")

	if errAssign := members.Assign(context.Background(), group.UUID, 1, "alice"); errAssign != nil {
		t.Fatalf("assign role: %v", errAssign)
	}
	if errAssign := members.Assign(context.Background(), group.UUID, 1, "alice"); !errors.Is(errAssign, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", errAssign)
	}
}

func TestMemberAssign_RequiresExistingRoleAndUser(t *testing.T) {
	conn := newTestDB(t)
	group := seedGroup(t, conn, "chess club")
	members := NewMemberStore(conn)

	if errAssign := members.Assign(context.Background(), group.UUID, 99, "president"); !errors.Is(errAssign, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown role, got %v", errAssign)
	}
	if errAssign := members.Assign(context.Background(), group.UUID, 1, "ghost"); !errors.Is(errAssign, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", errAssign)
	}
}

func TestMemberRolesForUser_ReturnsAllHeldRoles(t *testing.T) {
	conn := newTestDB(t)
	group := seedGroup(t, conn, "chess club")
	roles := NewRoleStore(conn)
	members := NewMemberStore(conn)

	treasurer, err := roles.Create(context.Background(), group.UUID, "treasurer", []string{authority.GroupUpdate})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if errAssign := members.Assign(context.Background(), group.UUID, treasurer.ID, "president"); errAssign != nil {
		t.Fatalf("assign role: %v", errAssign)
	}

	held, errRoles := members.RolesForUser(context.Background(), "president", group.UUID)
	if errRoles != nil {
		t.Fatalf("roles for user: %v", errRoles)
	}
	if len(held) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(held))
	}
}

func TestMemberListMembers(t *testing.T) {
	conn := newTestDB(t)
	group := seedGroup(t, conn, "chess club")
	members := NewMemberStore(conn)
	seedUser(t, conn, "alice")
	seedUser(t, conn, "bob")

	if errAssign := members.Assign(context.Background(), group.UUID, 1, "alice"); errAssign != nil {
		t.Fatalf("assign alice: %v", errAssign)
	}
	if errAssign := members.Assign(context.Background(), group.UUID, 1, "bob"); errAssign != nil {
		t.Fatalf("assign bob: %v", errAssign)
	}

	listed, errList := members.ListMembers(context.Background(), group.UUID, 1)
	if errList != nil {
		t.Fatalf("list members: %v", errList)
	}
	if len(listed) != 3 {
		t.Fatalf("expected president, alice, bob; got %d members", len(listed))
	}
}
