package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvIdPBaseURL   = "IDP_BASE_URL"
	EnvWebhookURL   = "WEBHOOK_URL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// TokenConfig holds the signing settings for one token issuance flow.
type TokenConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	Expiry time.Duration `yaml:"expiry"`
}

// JWTConfig holds per-flow trust token settings.
type JWTConfig struct {
	Certify TokenConfig `yaml:"certify"`
}

// defaultCertifyExpiry is used when the config omits or invalidates the
// certify token expiry.
const defaultCertifyExpiry = 5 * time.Minute

// defaultIssuer is used when the config omits the token issuer.
const defaultIssuer = "groups"

// LoadJWTConfig loads trust token settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Certify: TokenConfig{Issuer: defaultIssuer, Expiry: defaultCertifyExpiry}}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Certify.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Certify.Expiry = expiry
		}
	}

	if result.Certify.Expiry <= 0 {
		result.Certify.Expiry = defaultCertifyExpiry
	}
	if strings.TrimSpace(result.Certify.Issuer) == "" {
		result.Certify.Issuer = defaultIssuer
	}
	return result, nil
}

// IdPConfig holds identity-provider collaborator settings.
type IdPConfig struct {
	BaseURL      string        `yaml:"base-url"`
	ClientID     string        `yaml:"client-id"`
	ClientSecret string        `yaml:"client-secret"`
	Timeout      time.Duration `yaml:"timeout"`
}

// defaultIdPTimeout bounds identity-provider and webhook calls when the
// config omits a timeout.
const defaultIdPTimeout = 5 * time.Second

// LoadIdPConfig loads identity-provider settings from the YAML config file.
func LoadIdPConfig(configPath string) (IdPConfig, error) {
	// fileConfig maps the YAML fields needed for IdP settings.
	type fileConfig struct {
		IdP IdPConfig `yaml:"idp"`
	}

	result := IdPConfig{Timeout: defaultIdPTimeout}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.IdP
		}
	}

	if baseURL := strings.TrimSpace(os.Getenv(EnvIdPBaseURL)); baseURL != "" {
		result.BaseURL = baseURL
	}
	if result.Timeout <= 0 {
		result.Timeout = defaultIdPTimeout
	}
	return result, nil
}

// NotifyConfig holds the registration-approval webhook settings.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook-url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoadNotifyConfig loads notification settings from the YAML config file.
func LoadNotifyConfig(configPath string) (NotifyConfig, error) {
	// fileConfig maps the YAML fields needed for notification settings.
	type fileConfig struct {
		Notify NotifyConfig `yaml:"notify"`
	}

	var result NotifyConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Notify
		}
	}

	if webhookURL := strings.TrimSpace(os.Getenv(EnvWebhookURL)); webhookURL != "" {
		result.WebhookURL = webhookURL
	}
	if result.Timeout <= 0 {
		result.Timeout = defaultIdPTimeout
	}
	return result, nil
}
