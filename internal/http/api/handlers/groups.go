package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/guard"
	"github.com/idhub-dev/groups/internal/models"
	"github.com/idhub-dev/groups/internal/store"

	log "github.com/sirupsen/logrus"
)

// GroupHandler manages group endpoints.
type GroupHandler struct {
	groups  *store.GroupStore
	members *store.MemberStore
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *store.GroupStore, members *store.MemberStore) *GroupHandler {
	return &GroupHandler{groups: groups, members: members}
}

// groupResponse maps a group row to its transport representation.
func groupResponse(group *models.Group) gin.H {
	return gin.H{
		"uuid":              group.UUID,
		"name":              group.Name,
		"description":       group.Description,
		"president_uuid":    group.PresidentUUID,
		"profile_image_key": group.ProfileImageKey,
		"verified_at":       group.VerifiedAt,
		"created_at":        group.CreatedAt,
		"updated_at":        group.UpdatedAt,
	}
}

// createGroupRequest defines the request body for group creation.
type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create creates a group. The caller becomes president and receives the
// bootstrap admin role.
func (h *GroupHandler) Create(c *gin.Context) {
	var body createGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	group, errCreate := h.groups.Create(c.Request.Context(), body.Name, body.Description, c.GetString(guard.ContextUserUUID))
	if errCreate != nil {
		writeStoreError(c, errCreate, "create group")
		return
	}
	c.JSON(http.StatusCreated, groupResponse(group))
}

// List returns the groups the caller belongs to.
func (h *GroupHandler) List(c *gin.Context) {
	groups, errList := h.groups.ListForUser(c.Request.Context(), c.GetString(guard.ContextUserUUID), c.Query("name"))
	if errList != nil {
		writeStoreError(c, errList, "list groups")
		return
	}
	out := make([]gin.H, 0, len(groups))
	for i := range groups {
		out = append(out, groupResponse(&groups[i]))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// Get returns a group, visible to its members only.
func (h *GroupHandler) Get(c *gin.Context) {
	groupUUID := strings.TrimSpace(c.Param("uuid"))

	member, errMember := h.members.IsMember(c.Request.Context(), c.GetString(guard.ContextUserUUID), groupUUID)
	if errMember != nil {
		log.WithError(errMember).Error("membership check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	group, errGet := h.groups.Get(c.Request.Context(), groupUUID)
	if errGet != nil {
		writeStoreError(c, errGet, "get group")
		return
	}
	c.JSON(http.StatusOK, groupResponse(group))
}

// updateGroupRequest defines the request body for group updates.
type updateGroupRequest struct {
	Description     *string `json:"description"`
	ProfileImageKey *string `json:"profile_image_key"`
}

// Update modifies a group. Guarded by GROUP_UPDATE.
func (h *GroupHandler) Update(c *gin.Context) {
	var body updateGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errUpdate := h.groups.Update(c.Request.Context(), strings.TrimSpace(c.Param("uuid")), store.GroupUpdate{
		Description:     body.Description,
		ProfileImageKey: body.ProfileImageKey,
	})
	if errUpdate != nil {
		writeStoreError(c, errUpdate, "update group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete soft-deletes a group. Guarded by GROUP_DELETE.
func (h *GroupHandler) Delete(c *gin.Context) {
	if errDelete := h.groups.SoftDelete(c.Request.Context(), strings.TrimSpace(c.Param("uuid"))); errDelete != nil {
		writeStoreError(c, errDelete, "delete group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
