// Package notify posts client registrations to an external chat webhook for
// manual review. The channel is best-effort: failures are logged and
// swallowed, and the caller's success path is never blocked.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/idhub-dev/groups/internal/config"

	log "github.com/sirupsen/logrus"
)

// Notifier announces client registrations to an external channel.
type Notifier interface {
	ClientRegistered(ctx context.Context, name, clientUUID string)
}

// WebhookNotifier posts registration announcements to a chat webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier constructs a WebhookNotifier. An empty webhook URL
// yields a notifier that drops every announcement.
func NewWebhookNotifier(cfg config.NotifyConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:    strings.TrimSpace(cfg.WebhookURL),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// ClientRegistered posts the client's name and identifier for approval.
// Failure to notify must not fail the registration, so every error path
// ends in a log line.
func (n *WebhookNotifier) ClientRegistered(ctx context.Context, name, clientUUID string) {
	if n == nil || n.url == "" {
		return
	}

	payload, errMarshal := json.Marshal(map[string]string{
		"text": fmt.Sprintf("client registration pending approval: %s (%s)", name, clientUUID),
	})
	if errMarshal != nil {
		log.WithError(errMarshal).Warn("notify: marshal registration payload failed")
		return
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if errReq != nil {
		log.WithError(errReq).Warn("notify: build registration request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := n.client.Do(req)
	if errDo != nil {
		log.WithError(errDo).Warn("notify: registration webhook failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		log.Warnf("notify: registration webhook returned status %d", resp.StatusCode)
	}
}
