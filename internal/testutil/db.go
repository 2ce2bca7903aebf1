package testutil

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// DatabaseURL returns the DSN integration tests should connect to, or skips
// the test when none is configured.
func DatabaseURL(t *testing.T) string {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = EnvOr("DATABASE_URL_FULLY", os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping")
	}
	return dsn
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
