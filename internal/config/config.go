// Package config loads database connection configuration from an optional
// YAML file and environment variables. DSNs are never logged or exposed to
// tool responses.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Canonical driver ids. The platform of a connection is derived from these
// by substring match, so "pdo_mysql"-style ids keep working.
const (
	DriverMySQL  = "mysql"
	DriverPgSQL  = "pgsql"
	DriverSQLite = "sqlite"
	DriverSQLSrv = "sqlsrv"
)

// Env var names. Each one, if set, defines a connection with a fixed name.
const (
	EnvMySQLDSN     = "MCP_DB_MYSQL_DSN"
	EnvPostgresURI  = "MCP_DB_POSTGRES_URI"
	EnvSQLitePath   = "MCP_DB_SQLITE_PATH"
	EnvSQLServerURI = "MCP_DB_SQLSERVER_URI"
	EnvLogLevel     = "MCP_LOG_LEVEL"
	EnvTrace        = "MCP_TRACE"
)

var envConnections = []struct {
	env, name, driver string
}{
	{EnvMySQLDSN, "mysql", DriverMySQL},
	{EnvPostgresURI, "postgres", DriverPgSQL},
	{EnvSQLitePath, "sqlite", DriverSQLite},
	{EnvSQLServerURI, "sqlserver", DriverSQLSrv},
}

// DefaultConfigDir is the directory for the optional config file, relative
// to the user's home: ~/.readonly-sql-mcp/config.yaml
const DefaultConfigDir = ".readonly-sql-mcp"
const ConfigFileName = "config.yaml"

// DefaultLogLevel is used when neither the file nor the env sets one.
const DefaultLogLevel = "info"

// Config holds loaded configuration. DSNs are stored but never included in
// logs or tool output.
type Config struct {
	LogLevel string
	// Trace installs a tracer provider that writes finished spans to the log.
	Trace       bool
	connections map[string]connectionEntry
}

type connectionEntry struct {
	Driver string
	dsn    string
}

// ConnectionInfo is safe to log or return to tools: no credentials.
type ConnectionInfo struct {
	ID     string `json:"id"`
	Driver string `json:"driver"`
}

// New returns an empty configuration.
func New() *Config {
	return &Config{LogLevel: DefaultLogLevel, connections: make(map[string]connectionEntry)}
}

// Load reads path (or ~/.readonly-sql-mcp/config.yaml when path is empty
// and the file exists), then applies environment overrides. Env vars win
// over file values for the same connection name.
func Load(path string) (*Config, error) {
	c := New()

	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		path = p
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := c.parse(data); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	for _, e := range envConnections {
		if v := os.Getenv(e.env); v != "" {
			c.connections[e.name] = connectionEntry{Driver: e.driver, dsn: v}
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvTrace); v != "" {
		trace, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTrace, err)
		}
		c.Trace = trace
	}
	return c, nil
}

// Parse builds a Config from YAML bytes without touching the environment.
func Parse(data []byte) (*Config, error) {
	c := New()
	if err := c.parse(data); err != nil {
		return nil, err
	}
	return c, nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(home, DefaultConfigDir, ConfigFileName)
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

type fileFormat struct {
	LogLevel    string                    `yaml:"log_level"`
	Trace       bool                      `yaml:"trace"`
	Connections map[string]fileConnection `yaml:"connections"`
}

// fileConnection accepts either {driver, dsn} or a bare DSN string.
type fileConnection struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func (f *fileConnection) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.DSN = node.Value
		return nil
	}
	type plain fileConnection
	return node.Decode((*plain)(f))
}

func (c *Config) parse(data []byte) error {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	c.Trace = f.Trace
	for id, fc := range f.Connections {
		if fc.DSN == "" {
			continue
		}
		if err := c.Add(id, fc.Driver, fc.DSN); err != nil {
			return err
		}
	}
	return nil
}

// Add registers a connection. An empty driver is inferred from the DSN.
func (c *Config) Add(id, driver, dsn string) error {
	if id == "" {
		return fmt.Errorf("connection name is required")
	}
	if driver == "" {
		driver = inferDriver(dsn)
	}
	canonical, err := CanonicalDriver(driver)
	if err != nil {
		return fmt.Errorf("connection %q: %w", id, err)
	}
	c.connections[id] = connectionEntry{Driver: canonical, dsn: dsn}
	return nil
}

// CanonicalDriver maps a driver name or alias to its canonical id.
func CanonicalDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb", "pdo_mysql":
		return DriverMySQL, nil
	case "pgsql", "postgres", "postgresql", "pgx", "pdo_pgsql":
		return DriverPgSQL, nil
	case "sqlite", "sqlite3", "pdo_sqlite":
		return DriverSQLite, nil
	case "sqlsrv", "sqlserver", "mssql", "pdo_sqlsrv":
		return DriverSQLSrv, nil
	}
	return "", fmt.Errorf("unsupported driver %q", name)
}

// inferDriver guesses the driver from a DSN's shape.
func inferDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPgSQL
	case strings.HasPrefix(lower, "sqlserver://"), strings.HasPrefix(lower, "odbc:"):
		return DriverSQLSrv
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return DriverMySQL
	case strings.HasPrefix(lower, "file:"), lower == ":memory:",
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return DriverSQLite
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return DriverPgSQL
	}
	return ""
}

// ConnectionIDs returns all configured connection names, sorted. Safe to log.
func (c *Config) ConnectionIDs() []string {
	ids := make([]string, 0, len(c.connections))
	for id := range c.connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConnectionInfos returns name and driver for each connection, sorted by
// name. Safe to return from tools.
func (c *Config) ConnectionInfos() []ConnectionInfo {
	infos := make([]ConnectionInfo, 0, len(c.connections))
	for _, id := range c.ConnectionIDs() {
		infos = append(infos, ConnectionInfo{ID: id, Driver: c.connections[id].Driver})
	}
	return infos
}

// DSN returns the DSN for the given name. For use only by the db layer;
// never log the result.
func (c *Config) DSN(id string) (dsn string, ok bool) {
	e, ok := c.connections[id]
	if !ok {
		return "", false
	}
	return e.dsn, true
}

// Driver returns the canonical driver id for the given name.
func (c *Config) Driver(id string) (string, bool) {
	e, ok := c.connections[id]
	return e.Driver, ok
}

// HasConnection returns whether the given name is configured.
func (c *Config) HasConnection(id string) bool {
	_, ok := c.connections[id]
	return ok
}
