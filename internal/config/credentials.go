package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when direct API access is configured without a key.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// CredentialSource says where reasoning-service credentials came from.
type CredentialSource string

const (
	SourceEnv     CredentialSource = "environment"
	SourceConfig  CredentialSource = "config_file"
	SourceBedrock CredentialSource = "aws_bedrock"
	SourceNone    CredentialSource = "none"
)

// Credentials is the resolved reasoning-service access.
type Credentials struct {
	APIKey string
	Source CredentialSource
}

// ResolveCredentials picks the API key for cfg. Bedrock access needs no key;
// the AWS credential chain is used instead. Otherwise ANTHROPIC_API_KEY wins
// over the config file.
func ResolveCredentials(cfg *Config) (Credentials, error) {
	if cfg != nil && cfg.Anthropic.UseBedrock {
		return Credentials{Source: SourceBedrock}, nil
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return Credentials{APIKey: key, Source: SourceEnv}, nil
	}
	if key := configuredKey(cfg); key != "" {
		return Credentials{APIKey: key, Source: SourceConfig}, nil
	}
	return Credentials{Source: SourceNone}, ErrNoAPIKey
}

// configuredKey returns the config file key with env references expanded,
// or "" when it is unset or references an unset variable.
func configuredKey(cfg *Config) string {
	if cfg == nil || cfg.Anthropic.APIKey == "" {
		return ""
	}
	key := os.ExpandEnv(cfg.Anthropic.APIKey)
	if strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}

// ValidateAPIKey checks key format. It does not contact the API.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}
	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskAPIKey returns key with everything but the prefix and last four
// characters hidden.
func MaskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 15:
		return "***"
	default:
		return key[:7] + "..." + key[len(key)-4:]
	}
}

// SlogLevel maps log.level onto a slog level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.Level)
	}
}
