package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kjannette/fully-web/internal/retry"
)

// Fully is the name of the primary application database.
const Fully = "FULLY"

// Dialer opens a connection for a DSN.
type Dialer func(ctx context.Context, dsn string) (Conn, error)

// StatusHook is called after a database flips between healthy and unhealthy.
type StatusHook func(name string, healthy bool)

// Manager owns the named database connections of the process. It is built
// once in main, initialised with Init, and released with Shutdown.
type Manager struct {
	targets map[string]string
	// nameLocks serialises dial/ping per database; mu never covers I/O.
	nameLocks map[string]*sync.Mutex

	mu      sync.Mutex
	conns   map[string]Conn
	healthy map[string]bool

	dial        Dialer
	pingTimeout time.Duration
	initRetry   retry.Config
	onChange    StatusHook
}

type Option func(*Manager)

func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dial = d }
}

func WithPoolOptions(opts PoolOptions) Option {
	return func(m *Manager) {
		m.dial = func(ctx context.Context, dsn string) (Conn, error) {
			return Dial(ctx, dsn, opts)
		}
	}
}

func WithPingTimeout(d time.Duration) Option {
	return func(m *Manager) { m.pingTimeout = d }
}

func WithInitRetry(cfg retry.Config) Option {
	return func(m *Manager) { m.initRetry = cfg }
}

func WithStatusHook(h StatusHook) Option {
	return func(m *Manager) { m.onChange = h }
}

// NewManager creates a manager for targets, a map of database name to DSN.
// No connection is opened until Init or EnsureConnections.
func NewManager(targets map[string]string, opts ...Option) *Manager {
	m := &Manager{
		targets:     make(map[string]string, len(targets)),
		nameLocks:   make(map[string]*sync.Mutex, len(targets)),
		conns:       make(map[string]Conn),
		healthy:     make(map[string]bool),
		pingTimeout: 3 * time.Second,
		initRetry:   retry.Default,
	}
	for name, dsn := range targets {
		m.targets[name] = dsn
		m.nameLocks[name] = &sync.Mutex{}
	}
	WithPoolOptions(DefaultPoolOptions)(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Names returns the configured database names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.targets))
	for name := range m.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Init dials every configured database, retrying transient failures.
// Databases that still fail are reported in the returned error and left
// for EnsureConnections to repair.
func (m *Manager) Init(ctx context.Context) error {
	var errs []error
	var changes []statusChange

	for _, name := range m.Names() {
		err := m.initOne(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("database %s: %w", name, err))
		} else {
			fmt.Printf("[DB] %s connected\n", name)
		}
		changes = m.setHealth(name, err == nil, changes)
	}

	m.notify(changes)
	return errors.Join(errs...)
}

func (m *Manager) initOne(ctx context.Context, name string) error {
	lock := m.nameLocks[name]
	lock.Lock()
	defer lock.Unlock()

	dsn := m.targets[name]
	if dsn == "" {
		return errors.New("no connection URL configured")
	}

	return retry.Do(ctx, m.initRetry, "[DB] connect "+name, func(ctx context.Context) error {
		c, err := m.dial(ctx, dsn)
		if err != nil {
			return err
		}
		m.storeConn(name, c)
		return nil
	})
}

// EnsureConnections makes sure every configured database has a live
// connection: missing ones are dialed, existing ones pinged, and a failed
// ping is followed by one redial. It is safe to call repeatedly and
// concurrently. The returned error names every database that failed.
func (m *Manager) EnsureConnections(ctx context.Context) error {
	var errs []error
	var changes []statusChange

	for _, name := range m.Names() {
		err := m.ensureOne(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("database %s: %w", name, err))
		}
		changes = m.setHealth(name, err == nil, changes)
	}

	m.notify(changes)
	return errors.Join(errs...)
}

func (m *Manager) ensureOne(ctx context.Context, name string) error {
	lock := m.nameLocks[name]
	lock.Lock()
	defer lock.Unlock()

	dsn := m.targets[name]
	if dsn == "" {
		return errors.New("no connection URL configured")
	}

	var pingErr error
	if conn := m.conn(name); conn != nil {
		pingCtx, cancel := context.WithTimeout(ctx, m.pingTimeout)
		pingErr = conn.Ping(pingCtx)
		cancel()
		if pingErr == nil {
			return nil
		}
		m.dropConn(name, conn)
		fmt.Printf("[DB] %s ping failed, reconnecting: %v\n", name, pingErr)
	}

	c, err := m.dial(ctx, dsn)
	if err != nil {
		if pingErr != nil {
			return fmt.Errorf("ping: %v; reconnect: %w", pingErr, err)
		}
		return fmt.Errorf("connect: %w", err)
	}
	m.storeConn(name, c)
	return nil
}

func (m *Manager) conn(name string) Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns[name]
}

// storeConn installs c for name, closing whatever it replaces.
func (m *Manager) storeConn(name string, c Conn) {
	m.mu.Lock()
	old := m.conns[name]
	m.conns[name] = c
	m.mu.Unlock()

	if old != nil && old != c {
		old.Close()
	}
}

// dropConn removes conn if it is still the current one and closes it.
func (m *Manager) dropConn(name string, conn Conn) {
	m.mu.Lock()
	if m.conns[name] == conn {
		delete(m.conns, name)
	}
	m.mu.Unlock()
	conn.Close()
}

// IsHealthy reports the last known health of the named database. Unknown
// names are never healthy.
func (m *Manager) IsHealthy(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy[name]
}

// Shutdown closes every open connection. A later EnsureConnections call
// reopens them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	closing := make([]Conn, 0, len(m.conns))
	for name, conn := range m.conns {
		closing = append(closing, conn)
		delete(m.conns, name)
	}
	for name := range m.healthy {
		m.healthy[name] = false
	}
	m.mu.Unlock()

	for _, conn := range closing {
		conn.Close()
	}
	fmt.Println("[DB] Connections closed")
}

type statusChange struct {
	name    string
	healthy bool
}

func (m *Manager) setHealth(name string, healthy bool, changes []statusChange) []statusChange {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, known := m.healthy[name]
	m.healthy[name] = healthy
	if known && prev != healthy {
		changes = append(changes, statusChange{name: name, healthy: healthy})
	}
	return changes
}

func (m *Manager) notify(changes []statusChange) {
	if m.onChange == nil {
		return
	}
	for _, c := range changes {
		m.onChange(c.name, c.healthy)
	}
}
