package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/kjannette/fully-web/internal/db"
	"github.com/kjannette/fully-web/internal/testutil"
)

func TestManager_RealDatabase(t *testing.T) {
	dsn := testutil.DatabaseURL(t)

	m := db.NewManager(map[string]string{db.Fully: dsn}, db.WithPoolOptions(db.PoolOptions{
		MaxConns:       2,
		ConnectTimeout: 5 * time.Second,
	}))
	t.Cleanup(m.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.EnsureConnections(ctx); err != nil {
		t.Fatalf("EnsureConnections: %v", err)
	}
	if !m.IsHealthy(db.Fully) {
		t.Fatal("expected FULLY to be healthy")
	}
	t.Log("FULLY healthy")
}
