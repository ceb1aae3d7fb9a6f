package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by the bot.
const EnvPrefix = "SPRINTATHON_"

// ParseEnv loads configuration from environment variables using EnvPrefix.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix(target, EnvPrefix)
}

// ParseEnvWithPrefix loads configuration from environment variables whose
// names start with prefix. Struct tags name variables without the prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	if target == nil {
		return fmt.Errorf("parse env: target is required")
	}
	if err := env.ParseWithOptions(target, env.Options{Prefix: strings.TrimSpace(prefix)}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
