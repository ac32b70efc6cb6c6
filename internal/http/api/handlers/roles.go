package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/guard"
	"github.com/idhub-dev/groups/internal/models"
	"github.com/idhub-dev/groups/internal/store"
)

// RoleHandler manages role and membership endpoints.
type RoleHandler struct {
	roles   *store.RoleStore
	members *store.MemberStore
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(roles *store.RoleStore, members *store.MemberStore) *RoleHandler {
	return &RoleHandler{roles: roles, members: members}
}

// roleID parses the numeric role id path parameter.
func roleID(c *gin.Context) (uint32, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 32)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return 0, false
	}
	return uint32(id), true
}

// roleResponse maps a role row to its transport representation.
func roleResponse(role *models.Role) gin.H {
	return gin.H{
		"id":          role.ID,
		"group_uuid":  role.GroupUUID,
		"name":        role.Name,
		"authorities": authority.Parse(role.Authorities),
		"created_at":  role.CreatedAt,
		"updated_at":  role.UpdatedAt,
	}
}

// List returns the roles of a group, visible to members only.
func (h *RoleHandler) List(c *gin.Context) {
	roles, errList := h.roles.List(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), c.GetString(guard.ContextUserUUID))
	if errList != nil {
		writeStoreError(c, errList, "list roles")
		return
	}
	out := make([]gin.H, 0, len(roles))
	for i := range roles {
		out = append(out, roleResponse(&roles[i]))
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

// createRoleRequest defines the request body for role creation.
type createRoleRequest struct {
	Name        string   `json:"name"`
	Authorities []string `json:"authorities"`
}

// Create creates a role. Guarded by ROLE_CREATE.
func (h *RoleHandler) Create(c *gin.Context) {
	var body createRoleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	if errValidate := authority.Validate(body.Authorities); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
		return
	}

	role, errCreate := h.roles.Create(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), body.Name, body.Authorities)
	if errCreate != nil {
		writeStoreError(c, errCreate, "create role")
		return
	}
	c.JSON(http.StatusCreated, roleResponse(role))
}

// updateRoleRequest defines the request body for role updates.
type updateRoleRequest struct {
	Authorities []string `json:"authorities"`
}

// Update replaces the authority set on a role. Guarded by ROLE_UPDATE.
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	var body updateRoleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errValidate := authority.Validate(body.Authorities); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
		return
	}

	role, errUpdate := h.roles.Update(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), id, body.Authorities)
	if errUpdate != nil {
		writeStoreError(c, errUpdate, "update role")
		return
	}
	c.JSON(http.StatusOK, roleResponse(role))
}

// Delete removes a role and its memberships and grants. Guarded by ROLE_DELETE.
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	if errDelete := h.roles.Delete(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), id); errDelete != nil {
		writeStoreError(c, errDelete, "delete role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// assignRoleRequest defines the request body for role assignment.
type assignRoleRequest struct {
	UserUUID string `json:"user_uuid"`
}

// Assign adds a user to a role. Guarded by MEMBER_UPDATE. A duplicate
// assignment is a conflict, not a no-op.
func (h *RoleHandler) Assign(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	var body assignRoleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.UserUUID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user uuid"})
		return
	}

	if errAssign := h.members.Assign(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), id, strings.TrimSpace(body.UserUUID)); errAssign != nil {
		writeStoreError(c, errAssign, "assign role")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// Revoke removes a user from a role. Guarded by MEMBER_DELETE.
func (h *RoleHandler) Revoke(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	userUUID := strings.TrimSpace(c.Param("userUuid"))
	if userUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user uuid"})
		return
	}

	if errRevoke := h.members.Revoke(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), id, userUUID); errRevoke != nil {
		writeStoreError(c, errRevoke, "revoke role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListMembers returns the users assigned to a role. Guarded by MEMBER_UPDATE.
func (h *RoleHandler) ListMembers(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	users, errList := h.members.ListMembers(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), id)
	if errList != nil {
		writeStoreError(c, errList, "list members")
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, gin.H{
			"uuid":  user.UUID,
			"name":  user.Name,
			"email": user.Email,
		})
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}
