package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/fully-web/internal/retry"
)

// Conn is a live handle to one named database.
type Conn interface {
	Ping(ctx context.Context) error
	Close()
}

// PoolOptions tunes the pools opened by Dial.
type PoolOptions struct {
	MaxConns       int
	ConnectTimeout time.Duration
}

var DefaultPoolOptions = PoolOptions{
	MaxConns:       10,
	ConnectTimeout: 5 * time.Second,
}

// Dial opens a pool for dsn, picking the driver from the URL scheme.
// Malformed or unsupported URLs come back as retry.Permanent errors.
func Dial(ctx context.Context, dsn string, opts PoolOptions) (Conn, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, retry.Permanent(fmt.Errorf("invalid database URL: missing scheme"))
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return connectPostgres(ctx, dsn, opts)
	case "mysql":
		return connectMySQL(ctx, dsn, opts)
	default:
		return nil, retry.Permanent(fmt.Errorf("unsupported database scheme %q", scheme))
	}
}

func connectPostgres(ctx context.Context, dsn string, opts PoolOptions) (Conn, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("parse dsn: %w", err))
	}

	cfg.MaxConns = int32(opts.MaxConns)
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return p, nil
}

// mysqlConfig converts a mysql:// URL into the driver's config.
func mysqlConfig(dsn string) (*mysql.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	q := u.Query()
	if len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg, nil
}

func connectMySQL(ctx context.Context, dsn string, opts PoolOptions) (Conn, error) {
	cfg, err := mysqlConfig(dsn)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("mysql connector: %w", err))
	}

	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(opts.MaxConns)
	sqlDB.SetMaxIdleConns(opts.MaxConns)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	c := &sqlConn{db: sqlDB}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return c, nil
}

// sqlConn adapts a database/sql pool to Conn.
type sqlConn struct {
	db *sql.DB
}

func (c *sqlConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqlConn) Close() {
	_ = c.db.Close()
}
