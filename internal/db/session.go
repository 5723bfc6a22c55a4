package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
)

// Session commands asking the engine to refuse writes on one connection.
const (
	mysqlReadOnlyCommand    = "SET SESSION transaction_read_only = 1"
	postgresReadOnlyCommand = "SET default_transaction_read_only = on"
	sqliteReadOnlyCommand   = "PRAGMA query_only = ON"
)

// ReadOnlySessionCommand returns the session command for a driver id, or
// false when the platform has none. SQL Server has none: it relies on
// ApplicationIntent=ReadOnly in the DSN, which only routes to read-only
// replicas (Always On, managed cloud SQL). Standalone SQL Server instances
// need a read-only database user provisioned outside this server.
func ReadOnlySessionCommand(driverID string) (string, bool) {
	id := strings.ToLower(driverID)
	switch {
	case strings.Contains(id, "mysql"):
		return mysqlReadOnlyCommand, true
	case strings.Contains(id, "pgsql"):
		return postgresReadOnlyCommand, true
	case strings.Contains(id, "sqlite"):
		return sqliteReadOnlyCommand, true
	}
	return "", false
}

// SessionResult reports what ApplyReadOnlySession did. It is meant to be
// logged and dropped.
type SessionResult struct {
	DriverID string
	Command  string // empty when the platform has no command
	Err      error
}

// Supported reports whether the platform has a session command.
func (r SessionResult) Supported() bool { return r.Command != "" }

// Applied reports whether the command ran without error.
func (r SessionResult) Applied() bool { return r.Command != "" && r.Err == nil }

// ApplyReadOnlySession issues the read-only session command for driverID
// through exec, at most once and without retrying. It never fails: errors
// and panics from exec end up in the result.
func ApplyReadOnlySession(ctx context.Context, driverID string, exec func(ctx context.Context, query string) error) (res SessionResult) {
	res.DriverID = driverID
	cmd, ok := ReadOnlySessionCommand(driverID)
	if !ok {
		return res
	}
	res.Command = cmd

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic during read-only session setup: %v", r)
		}
	}()
	res.Err = exec(ctx, cmd)
	return res
}

func logSessionResult(log logger.Logger, name string, res SessionResult) {
	ctx := logger.Ctx{
		"connection": name,
		"driver":     res.DriverID,
		"platform":   string(PlatformFromDriver(res.DriverID)),
	}
	switch {
	case !res.Supported():
		log.Debug("No read-only session command for platform", ctx)
	case res.Err != nil:
		ctx["command"] = res.Command
		ctx["err"] = res.Err.Error()
		log.Warn("Read-only session setup failed; continuing", ctx)
	default:
		ctx["command"] = res.Command
		log.Debug("Read-only session applied", ctx)
	}
}
