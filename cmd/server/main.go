package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kjannette/fully-web/internal/api"
	"github.com/kjannette/fully-web/internal/config"
	"github.com/kjannette/fully-web/internal/db"
	"github.com/kjannette/fully-web/internal/notifications"
	"github.com/kjannette/fully-web/internal/retry"
)

const banner = `
╔══════════════════════════════════════╗
║            fully-web v0.1            ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notify := notifications.NewSender(cfg.WebhookURL, cfg.ServiceName)

	// Database
	dbs := db.NewManager(
		map[string]string{db.Fully: cfg.FullyDSN()},
		db.WithPoolOptions(db.PoolOptions{
			MaxConns:       cfg.DBMaxConns,
			ConnectTimeout: time.Duration(cfg.DBConnectTimeoutSec) * time.Second,
		}),
		db.WithInitRetry(retry.Config{
			MaxAttempts: cfg.DBInitAttempts,
			BaseDelay:   1 * time.Second,
			MaxDelay:    10 * time.Second,
		}),
		db.WithStatusHook(notify.StartDatabaseAlerts(ctx, 16)),
	)
	defer dbs.Shutdown()

	fmt.Println("\n[DB] Connecting ...")
	if err := dbs.Init(ctx); err != nil {
		// /api/health keeps retrying on demand
		fmt.Fprintf(os.Stderr, "[DB] Initial connection failed: %v\n", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := api.NewServer(dbs, cfg.Port, cfg.APIKey, cfg.CORSAllowOrigin, reg)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	fmt.Println("\nAll services started successfully")

	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
