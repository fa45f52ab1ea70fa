// Package config loads the bot's runtime configuration from the
// environment, one set of variables per deployment.
package config

import (
	"fmt"
	"os"
)

// Config carries everything the two binaries need to talk to Refocus,
// PagerDuty and Temporal.
type Config struct {
	Env              string
	Port             string
	RefocusURL       string
	APIToken         string
	SocketToken      string
	PDToken          string
	PDSender         string
	TemporalHostPort string
	BotID            string
	BotName          string
}

// FromEnv reads configuration from the process environment, applying
// dev defaults where a variable is unset.
func FromEnv() Config {
	return Config{
		Env:              envOr("ENV", "dev"),
		Port:             envOr("PORT", "5000"),
		RefocusURL:       envOr("REFOCUS_URL", "http://localhost:3000"),
		APIToken:         os.Getenv("API_TOKEN"),
		SocketToken:      os.Getenv("SOCKET_TOKEN"),
		PDToken:          os.Getenv("PD_TOKEN"),
		PDSender:         os.Getenv("PD_SENDER"),
		TemporalHostPort: envOr("TEMPORAL_HOSTPORT", "localhost:7233"),
		BotID:            envOr("BOT_ID", "oncall-bot"),
		BotName:          envOr("BOT_NAME", "oncall-bot"),
	}
}

// Validate checks the fields without which paging cannot work.
func (c Config) Validate() error {
	if c.RefocusURL == "" {
		return fmt.Errorf("config: REFOCUS_URL is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("config: API_TOKEN is required")
	}
	if c.PDToken == "" {
		return fmt.Errorf("config: PD_TOKEN is required")
	}
	if c.PDSender == "" {
		return fmt.Errorf("config: PD_SENDER is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
