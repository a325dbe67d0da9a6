// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL  = "https://api.prod.whoop.com/developer"
	defaultAuthURL     = "https://api.prod.whoop.com/oauth/oauth2/auth"
	defaultTokenURL    = "https://api.prod.whoop.com/oauth/oauth2/token"
	defaultRedirectURI = "http://localhost:8000/whoop/callback"
	defaultTimezone    = "America/New_York"
)

// Config holds everything the server needs at startup.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	APIBaseURL string
	AuthURL    string
	TokenURL   string

	TokenFile  string
	PromptFile string

	RateLimitPerMinute int
	RequestTimeout     time.Duration
	Timezone           string
	LogLevel           string

	// GatewayAddr enables the HTTP/WebSocket gateway when non-empty.
	GatewayAddr   string
	GatewayAPIKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first, matching how the provider credentials are
// distributed for local use.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := &Config{
		ClientID:           os.Getenv("WHOOP_CLIENT_ID"),
		ClientSecret:       os.Getenv("WHOOP_CLIENT_SECRET"),
		RedirectURI:        getEnv("WHOOP_REDIRECT_URI", defaultRedirectURI),
		APIBaseURL:         getEnv("WHOOP_API_BASE_URL", defaultAPIBaseURL),
		AuthURL:            getEnv("WHOOP_AUTH_URL", defaultAuthURL),
		TokenURL:           getEnv("WHOOP_TOKEN_URL", defaultTokenURL),
		TokenFile:          getEnv("WHOOP_TOKEN_FILE", filepath.Join(home, ".whoop_token.json")),
		PromptFile:         getEnv("WHOOP_PROMPT_FILE", filepath.Join(home, ".whoop_custom_prompt.json")),
		RateLimitPerMinute: getEnvInt("WHOOP_RATE_LIMIT", 100),
		RequestTimeout:     time.Duration(getEnvInt("WHOOP_REQUEST_TIMEOUT", 30)) * time.Second,
		Timezone:           getEnv("WHOOP_TIMEZONE", defaultTimezone),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GatewayAddr:        os.Getenv("GATEWAY_ADDR"),
		GatewayAPIKey:      os.Getenv("GATEWAY_API_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for the settings without which the server cannot operate.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("WHOOP_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return errors.New("WHOOP_CLIENT_SECRET is required")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("WHOOP_RATE_LIMIT must be a positive integer")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("WHOOP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured display timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
