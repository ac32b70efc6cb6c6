package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/config"
	"github.com/idhub-dev/groups/internal/idp"
	"github.com/idhub-dev/groups/internal/models"
	"github.com/idhub-dev/groups/internal/security"
	"github.com/idhub-dev/groups/internal/store"

	log "github.com/sirupsen/logrus"
)

// ExternalHandler manages trust delegation: external authority grants,
// trust token issuance, and the client-scoped information query.
type ExternalHandler struct {
	clients  *store.ClientStore
	users    *store.UserStore
	provider idp.Provider
	jwtCfg   config.JWTConfig
}

// NewExternalHandler constructs an ExternalHandler.
func NewExternalHandler(clients *store.ClientStore, users *store.UserStore, provider idp.Provider, jwtCfg config.JWTConfig) *ExternalHandler {
	return &ExternalHandler{clients: clients, users: users, provider: provider, jwtCfg: jwtCfg}
}

// grantRequest defines the request body for grant and revoke operations.
type grantRequest struct {
	ClientUUID string `json:"client_uuid"`
	Authority  string `json:"authority"`
}

// Grant ties a client-defined authority string to a role. Guarded by
// ROLE_UPDATE. Re-granting is a no-op.
func (h *ExternalHandler) Grant(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	var body grantRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.ClientUUID) == "" || strings.TrimSpace(body.Authority) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing client uuid or authority"})
		return
	}

	errGrant := h.clients.Grant(c.Request.Context(), strings.TrimSpace(body.ClientUUID),
		strings.TrimSpace(c.Param("uuid")), id, body.Authority)
	if errGrant != nil {
		writeStoreError(c, errGrant, "grant external authority")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// RevokeGrant removes a client grant from a role. Guarded by ROLE_UPDATE.
func (h *ExternalHandler) RevokeGrant(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	var body grantRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errRevoke := h.clients.Revoke(c.Request.Context(), strings.TrimSpace(body.ClientUUID),
		strings.TrimSpace(c.Param("uuid")), id, body.Authority)
	if errRevoke != nil {
		writeStoreError(c, errRevoke, "revoke external authority")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// certifyRequest defines the request body for trust token issuance.
type certifyRequest struct {
	Token string `json:"token"`
}

// Certify issues a trust token for the authenticated client. The supplied
// identity-provider token is resolved upstream, the local user record is
// created on first sight, and the token binds the user's uuid to this
// client's audience. No authority data rides in the token.
func (h *ExternalHandler) Certify(c *gin.Context) {
	clientUUID := c.GetString("clientUUID")

	var body certifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Token) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user token"})
		return
	}

	info, errResolve := h.provider.Resolve(c.Request.Context(), strings.TrimSpace(body.Token))
	if errResolve != nil {
		if errors.Is(errResolve, idp.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		log.WithError(errResolve).Error("identity provider lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	user, errUpsert := h.users.Upsert(c.Request.Context(), info.UUID, info.Name, info.Email)
	if errUpsert != nil {
		log.WithError(errUpsert).Error("user upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	now := time.Now().UTC()
	signed, errIssue := security.IssueTrustToken(h.jwtCfg.Certify, user.UUID, clientUUID, now)
	if errIssue != nil {
		log.WithError(errIssue).Error("trust token issuance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      signed,
		"expires_in": int64(h.jwtCfg.Certify.Expiry / time.Second),
	})
}

// visibleRoleResponse maps a role to the shape exposed to a client,
// carrying only the external authorities granted to that client.
func visibleRoleResponse(role *models.Role) gin.H {
	externals := make([]string, 0, len(role.ExternalPermissions))
	for _, grant := range role.ExternalPermissions {
		externals = append(externals, grant.Authority)
	}
	return gin.H{
		"id":                   role.ID,
		"name":                 role.Name,
		"authorities":          authority.Parse(role.Authorities),
		"external_authorities": externals,
	}
}

// Info returns the subject's group/role graph visible to the token's
// audience. The privacy boundary: a role appears only when it carries at
// least one grant for exactly this client, so one client never sees
// authority data scoped to another.
func (h *ExternalHandler) Info(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if authHeader == "" || token == authHeader || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing trust token"})
		return
	}

	claims, errParse := security.ParseTrustToken(h.jwtCfg.Certify.Secret, token)
	if errParse != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid trust token"})
		return
	}

	audience := security.TokenAudience(claims)
	if audience == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid trust token"})
		return
	}
	if _, errClient := h.clients.Get(c.Request.Context(), audience); errClient != nil {
		if errors.Is(errClient, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid trust token"})
			return
		}
		log.WithError(errClient).Error("client lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// A missing local user is not an error: identity existence and group
	// participation are independent facts, so the result is empty.
	visible, errVisible := h.clients.VisibleGroups(c.Request.Context(), audience, claims.Subject)
	if errVisible != nil {
		log.WithError(errVisible).Error("visible groups query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]gin.H, 0, len(visible))
	for i := range visible {
		roles := make([]gin.H, 0, len(visible[i].Roles))
		for j := range visible[i].Roles {
			roles = append(roles, visibleRoleResponse(&visible[i].Roles[j]))
		}
		group := visible[i].Group
		out = append(out, gin.H{
			"uuid":        group.UUID,
			"name":        group.Name,
			"description": group.Description,
			"verified_at": group.VerifiedAt,
			"created_at":  group.CreatedAt,
			"roles":       roles,
		})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}
