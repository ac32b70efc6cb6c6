package guard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/store"

	log "github.com/sirupsen/logrus"
)

// ContextUserUUID is the gin context key under which the authentication
// middleware stores the caller's user uuid.
const ContextUserUUID = "userUUID"

// GroupExtractor resolves the group identifier from the inbound request.
// The identifier's location varies by route shape, so handlers may supply
// an alternate extractor.
type GroupExtractor func(c *gin.Context) string

// PathParam extracts the group uuid from a path parameter.
func PathParam(name string) GroupExtractor {
	return func(c *gin.Context) string {
		return strings.TrimSpace(c.Param(name))
	}
}

// Query extracts the group uuid from a query parameter.
func Query(name string) GroupExtractor {
	return func(c *gin.Context) string {
		return strings.TrimSpace(c.Query(name))
	}
}

// Header extracts the group uuid from a request header.
func Header(name string) GroupExtractor {
	return func(c *gin.Context) string {
		return strings.TrimSpace(c.GetHeader(name))
	}
}

// Require gates a group-scoped handler behind the permission evaluator.
// Every listed authority must be held (conjunctive, no OR-semantics); the
// effective set is the union across all roles the caller holds in the
// group, re-read from live state on each call so revocations apply on the
// next request. Missing group id or an empty requirement list fails closed.
// Denials report only the reason class, never the missing authority names.
func Require(members *store.MemberStore, extract GroupExtractor, authorities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userUUID := c.GetString(ContextUserUUID)
		if userUUID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		if len(authorities) == 0 {
			// A handler without a declared requirement is a
			// misconfiguration, not an implicit allow.
			log.Error("guard: no required authorities declared")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		groupUUID := extract(c)
		if groupUUID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		roles, errRoles := members.RolesForUser(c.Request.Context(), userUUID, groupUUID)
		if errRoles != nil {
			log.WithError(errRoles).Error("guard: load roles failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if len(roles) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
			return
		}

		sets := make([][]string, 0, len(roles))
		for _, role := range roles {
			sets = append(sets, authority.Parse(role.Authorities))
		}
		held := authority.Union(sets...)

		for _, required := range authorities {
			if !authority.Has(held, required) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient authority"})
				return
			}
		}

		c.Next()
	}
}
