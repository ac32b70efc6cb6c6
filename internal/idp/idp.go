// Package idp talks to the external identity provider. Bearer tokens are
// resolved against its user-info endpoint on every request; validity is
// never cached locally.
package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/idhub-dev/groups/internal/config"
)

// ErrUnauthorized indicates the upstream rejected the token (bad/expired).
var ErrUnauthorized = errors.New("idp: invalid token")

// ErrUnavailable indicates an upstream outage not attributable to the caller.
var ErrUnavailable = errors.New("idp: provider unavailable")

// UserInfo is the identity the provider asserts for a bearer token.
type UserInfo struct {
	UUID  string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Provider resolves identity-provider bearer tokens.
type Provider interface {
	Resolve(ctx context.Context, accessToken string) (*UserInfo, error)
}

// HTTPProvider resolves tokens against the provider's user-info endpoint.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider constructs an HTTPProvider. The configured timeout bounds
// every call; a timed-out lookup is fatal to that request and not retried.
func NewHTTPProvider(cfg config.IdPConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve fetches the user info asserted for the token. Upstream 401/403
// map to ErrUnauthorized; anything else unexpected maps to ErrUnavailable
// so the two are never conflated.
func (p *HTTPProvider) Resolve(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/oauth/userinfo", nil)
	if errReq != nil {
		return nil, fmt.Errorf("idp: build request: %w", errReq)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, errDo := p.client.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var info UserInfo
	if errDecode := json.NewDecoder(resp.Body).Decode(&info); errDecode != nil {
		return nil, fmt.Errorf("%w: decode user info: %v", ErrUnavailable, errDecode)
	}
	if strings.TrimSpace(info.UUID) == "" {
		return nil, fmt.Errorf("%w: user info missing subject", ErrUnavailable)
	}
	return &info, nil
}
