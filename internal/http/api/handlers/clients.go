package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/notify"
	"github.com/idhub-dev/groups/internal/store"
)

// ClientHandler manages client self-service endpoints.
type ClientHandler struct {
	clients  *store.ClientStore
	notifier notify.Notifier
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(clients *store.ClientStore, notifier notify.Notifier) *ClientHandler {
	return &ClientHandler{clients: clients, notifier: notifier}
}

// registerClientRequest defines the request body for client registration.
type registerClientRequest struct {
	Name string `json:"name"`
}

// Register registers a client and returns the plaintext secret exactly
// once. The approval webhook fires off the request path so a notification
// failure can never fail the registration.
func (h *ClientHandler) Register(c *gin.Context) {
	var body registerClientRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	client, secret, errRegister := h.clients.Register(c.Request.Context(), body.Name)
	if errRegister != nil {
		writeStoreError(c, errRegister, "register client")
		return
	}

	if h.notifier != nil {
		go h.notifier.ClientRegistered(context.Background(), client.Name, client.UUID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"uuid":       client.UUID,
		"name":       client.Name,
		"secret":     secret,
		"created_at": client.CreatedAt,
	})
}

// Delete removes a client that presents its own credentials. A secret
// mismatch is Forbidden: the caller claims an identity it cannot prove.
func (h *ClientHandler) Delete(c *gin.Context) {
	clientUUID, secret, ok := c.Request.BasicAuth()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing client credentials"})
		return
	}

	if errDelete := h.clients.Delete(c.Request.Context(), clientUUID, secret); errDelete != nil {
		writeStoreError(c, errDelete, "delete client")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
