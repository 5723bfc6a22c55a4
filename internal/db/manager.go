package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/config"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
)

// Connection is a named, long-lived pool bound to one database. It is
// shared by every request against that name. Each sandboxed transaction
// checks out its own physical connection from the pool, so concurrent
// requests never share transaction state.
type Connection struct {
	Name     string
	Driver   string
	Platform Platform
	DB       *sql.DB
}

// BeginTx starts a transaction on a dedicated physical connection.
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.DB.BeginTx(ctx, opts)
}

// DBSystem returns the platform tag, used for tracing.
func (c *Connection) DBSystem() string {
	return string(c.Platform)
}

// Close releases the pool.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Manager holds configuration and caches connections by name.
type Manager struct {
	cfg *config.Config
	log logger.Logger

	mu    sync.Mutex
	conns map[string]*Connection
}

// NewManager returns a manager that will open connections from cfg.
func NewManager(cfg *config.Config, log logger.Logger) *Manager {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		cfg:   cfg,
		log:   log,
		conns: make(map[string]*Connection),
	}
}

// Connection returns the Connection for name, opening and caching it on
// first use.
func (m *Manager) Connection(ctx context.Context, name string) (*Connection, error) {
	dsn, ok := m.cfg.DSN(name)
	if !ok {
		return nil, fmt.Errorf("unknown connection: %q", name)
	}
	driverID, _ := m.cfg.Driver(name)

	m.mu.Lock()
	c, cached := m.conns[name]
	m.mu.Unlock()
	if cached {
		return c, nil
	}

	pool, err := openDB(name, driverID, dsn, m.log)
	if err == nil {
		err = pool.PingContext(ctx)
		if err != nil {
			_ = pool.Close()
		}
	}
	if err != nil {
		// The full error may contain the DSN; only the log sees it.
		m.log.Error("Failed to open connection", logger.Ctx{"connection": name, "driver": driverID, "err": err.Error()})
		return nil, fmt.Errorf("failed to connect to %q (%s); check server logs for details", name, driverID)
	}

	c = &Connection{
		Name:     name,
		Driver:   driverID,
		Platform: PlatformFromDriver(driverID),
		DB:       pool,
	}

	m.mu.Lock()
	if existing, ok := m.conns[name]; ok {
		m.mu.Unlock()
		_ = c.Close()
		return existing, nil
	}
	m.conns[name] = c
	m.mu.Unlock()

	m.log.Info("Connection opened", logger.Ctx{"connection": name, "driver": driverID, "platform": string(c.Platform)})
	return c, nil
}

// ConnectionInfos lists configured connections with their platform. No DSNs.
func (m *Manager) ConnectionInfos() []ConnectionInfo {
	infos := m.cfg.ConnectionInfos()
	out := make([]ConnectionInfo, len(infos))
	for i, info := range infos {
		out[i] = ConnectionInfo{ID: info.ID, Driver: info.Driver, Platform: PlatformFromDriver(info.Driver)}
	}
	return out
}

// ConnectionInfo is safe to return from tools.
type ConnectionInfo struct {
	ID       string   `json:"id"`
	Driver   string   `json:"driver"`
	Platform Platform `json:"platform"`
}

// Close closes all cached connections. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, c := range m.conns {
		_ = c.Close()
		delete(m.conns, name)
	}
	return nil
}
