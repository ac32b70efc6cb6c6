package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/store"

	log "github.com/sirupsen/logrus"
)

// writeStoreError translates store sentinels into the caller-facing status
// taxonomy. Anything else is logged in full and surfaced opaque: upstream
// bodies, stack traces, and query text never leak to callers.
func writeStoreError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		log.WithError(err).Errorf("%s failed", action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
