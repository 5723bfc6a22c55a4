// Package db opens read-only database connections for MySQL, PostgreSQL,
// SQLite and SQL Server. Every physical connection gets the platform's
// read-only session command before it is handed out.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/config"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
)

// Platform is the database engine family behind a connection.
type Platform string

const (
	PlatformMySQL      Platform = "mysql"
	PlatformPostgreSQL Platform = "postgresql"
	PlatformSQLite     Platform = "sqlite"
	PlatformSQLServer  Platform = "sqlserver"
	PlatformUnknown    Platform = "unknown"
)

// PlatformFromDriver derives the platform from a driver id by substring.
func PlatformFromDriver(driverID string) Platform {
	id := strings.ToLower(driverID)
	switch {
	case strings.Contains(id, "mysql"):
		return PlatformMySQL
	case strings.Contains(id, "pgsql"):
		return PlatformPostgreSQL
	case strings.Contains(id, "sqlite"):
		return PlatformSQLite
	case strings.Contains(id, "sqlsrv"):
		return PlatformSQLServer
	}
	return PlatformUnknown
}

// openDB returns a pool whose physical connections are all read-only
// session configured. It does not connect.
func openDB(name, driverID, dsn string, log logger.Logger) (*sql.DB, error) {
	switch driverID {
	case config.DriverMySQL:
		return openMySQL(name, dsn, log)
	case config.DriverPgSQL:
		return openPostgres(name, dsn, log)
	case config.DriverSQLite:
		return openSQLite(name, dsn, log)
	case config.DriverSQLSrv:
		return openSQLServer(name, dsn, log)
	}
	return nil, fmt.Errorf("unsupported driver %q", driverID)
}

// readOnlyConnector applies the read-only session command to every
// physical connection its wrapped connector creates.
type readOnlyConnector struct {
	driver.Connector
	name     string
	driverID string
	log      logger.Logger
}

func newReadOnlyConnector(c driver.Connector, name, driverID string, log logger.Logger) *readOnlyConnector {
	return &readOnlyConnector{Connector: c, name: name, driverID: driverID, log: log}
}

// Connect implements driver.Connector. Session setup failures are logged;
// the connection is returned regardless.
func (c *readOnlyConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	res := ApplyReadOnlySession(ctx, c.driverID, func(ctx context.Context, query string) error {
		return execOnConn(ctx, conn, query)
	})
	logSessionResult(c.log, c.name, res)
	return conn, nil
}

// execOnConn runs a statement without arguments directly on a driver conn.
func execOnConn(ctx context.Context, conn driver.Conn, query string) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, query, nil)
		if !errors.Is(err, driver.ErrSkip) {
			return err
		}
	}

	var (
		stmt driver.Stmt
		err  error
	)
	if p, ok := conn.(driver.ConnPrepareContext); ok {
		stmt, err = p.PrepareContext(ctx, query)
	} else {
		stmt, err = conn.Prepare(query)
	}
	if err != nil {
		return err
	}
	defer stmt.Close()

	if se, ok := stmt.(driver.StmtExecContext); ok {
		_, err = se.ExecContext(ctx, nil)
		return err
	}
	_, err = stmt.Exec(nil) //nolint:staticcheck // fallback for drivers without StmtExecContext
	return err
}

// dsnConnector adapts a driver.Driver without DriverContext support.
type dsnConnector struct {
	dsn string
	drv driver.Driver
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) { return c.drv.Open(c.dsn) }
func (c dsnConnector) Driver() driver.Driver                        { return c.drv }

// connectorFor builds a connector for dsn using the driver registered with
// database/sql under driverName.
func connectorFor(driverName, dsn string) (driver.Connector, error) {
	probe, err := sql.Open(driverName, "")
	if err != nil {
		return nil, err
	}
	drv := probe.Driver()
	_ = probe.Close()

	if dc, ok := drv.(driver.DriverContext); ok {
		return dc.OpenConnector(dsn)
	}
	return dsnConnector{dsn: dsn, drv: drv}, nil
}

// ColumnInfo describes one column for describe_table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	IsPK     bool   `json:"is_pk"`
}
