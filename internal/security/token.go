package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/idhub-dev/groups/internal/config"
)

// IssueTrustToken mints a signed assertion of a user's identity restricted
// to a single client audience. No authority data is embedded: the info query
// re-derives it from live role state so revocations apply immediately.
func IssueTrustToken(cfg config.TokenConfig, userUUID, clientUUID string, now time.Time) (string, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", fmt.Errorf("security: missing signing secret")
	}
	claims := jwt.RegisteredClaims{
		Subject:   userUUID,
		Audience:  jwt.ClaimStrings{clientUUID},
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("security: sign trust token: %w", err)
	}
	return signed, nil
}

// ParseTrustToken validates a trust token's signature and expiry and returns
// its claims. Audience checks happen at the call site, where the registered
// client the audience must match is known.
func ParseTrustToken(secret, tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("security: parse trust token: %w", err)
	}
	return claims, nil
}

// TokenAudience extracts the single audience claim from trust token claims.
func TokenAudience(claims *jwt.RegisteredClaims) string {
	if claims == nil || len(claims.Audience) == 0 {
		return ""
	}
	return claims.Audience[0]
}
