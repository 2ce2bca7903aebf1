package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables naming the database connection URLs. Their values
// are secrets: only their presence is ever reported.
const (
	EnvFullyURL    = "DATABASE_URL_FULLY"
	EnvFallbackURL = "DATABASE_URL"
)

type Config struct {
	// Server
	Port            int
	APIKey          string
	CORSAllowOrigin string

	// Database
	FullyDatabaseURL    string
	FallbackDatabaseURL string
	DBMaxConns          int
	DBConnectTimeoutSec int
	DBInitAttempts      int

	// Notifications
	WebhookURL  string
	ServiceName string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Server
		Port:            envInt("PORT", 3000),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Database
		FullyDatabaseURL:    envStr(EnvFullyURL, ""),
		FallbackDatabaseURL: envStr(EnvFallbackURL, ""),
		DBMaxConns:          envInt("DB_MAX_CONNS", 10),
		DBConnectTimeoutSec: envInt("DB_CONNECT_TIMEOUT_SECONDS", 5),
		DBInitAttempts:      envInt("DB_INIT_ATTEMPTS", 3),

		// Notifications
		WebhookURL:  envStr("WEBHOOK_URL", ""),
		ServiceName: envStr("SERVICE_NAME", "fully-web"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.DBConnectTimeoutSec <= 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT_SECONDS must be positive")
	}
	if c.FullyDSN() == "" {
		fmt.Printf("[WARN] Neither %s nor %s is set; /api/health will report an error\n", EnvFullyURL, EnvFallbackURL)
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set; /metrics has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// FullyDSN returns the connection URL for the FULLY database, preferring
// the dedicated variable over the shared fallback.
func (c *Config) FullyDSN() string {
	if c.FullyDatabaseURL != "" {
		return c.FullyDatabaseURL
	}
	return c.FallbackDatabaseURL
}

func (c *Config) Print() {
	fmt.Println("=== fully-web Configuration ===")
	fmt.Printf("Port: %d\n", c.Port)
	fmt.Printf("CORS Origin: %s\n", c.CORSAllowOrigin)
	fmt.Println("--------------------------------------")
	fmt.Println("Database:")
	fmt.Printf("  %s: %s\n", EnvFullyURL, boolLabel(c.FullyDatabaseURL != "", "set", "not set"))
	fmt.Printf("  %s: %s\n", EnvFallbackURL, boolLabel(c.FallbackDatabaseURL != "", "set", "not set"))
	fmt.Printf("  Max Conns: %d\n", c.DBMaxConns)
	fmt.Printf("  Connect Timeout: %ds\n", c.DBConnectTimeoutSec)
	fmt.Println("--------------------------------------")
	fmt.Printf("API Key: %s\n", boolLabel(c.APIKey != "", "configured", "not set"))
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("======================================")
}

// IsSet reports whether the environment variable key currently holds a
// non-empty value. It is read at call time, not at Load time.
func IsSet(key string) bool {
	return os.Getenv(key) != ""
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
