package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/guard"
	"github.com/idhub-dev/groups/internal/idp"
	"github.com/idhub-dev/groups/internal/store"

	log "github.com/sirupsen/logrus"
)

// ContextClientUUID is the gin context key under which the client basic
// auth middleware stores the validated client uuid.
const ContextClientUUID = "clientUUID"

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// UserAuthMiddleware resolves the bearer token against the identity
// provider on every request (no local caching of validity) and upserts the
// local user record on first sight.
func UserAuthMiddleware(provider idp.Provider, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		info, errResolve := provider.Resolve(c.Request.Context(), token)
		if errResolve != nil {
			if errors.Is(errResolve, idp.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			log.WithError(errResolve).Error("identity provider lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		user, errUpsert := users.Upsert(c.Request.Context(), info.UUID, info.Name, info.Email)
		if errUpsert != nil {
			log.WithError(errUpsert).Error("user upsert failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(guard.ContextUserUUID, user.UUID)
		c.Next()
	}
}

// ClientBasicAuthMiddleware authenticates a registered client via HTTP
// Basic credentials (client uuid + secret).
func ClientBasicAuthMiddleware(clients *store.ClientStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientUUID, secret, ok := c.Request.BasicAuth()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing client credentials"})
			return
		}

		client, errValidate := clients.Validate(c.Request.Context(), clientUUID, secret)
		if errValidate != nil {
			log.WithError(errValidate).Error("client validation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if client == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid client credentials"})
			return
		}

		c.Set(ContextClientUUID, client.UUID)
		c.Next()
	}
}
