package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/config"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
)

// openSQLite opens a SQLite database at the given path or URI (such as
// "file:path?mode=ro") using modernc.org/sqlite (pure Go, no CGO).
func openSQLite(name, dsn string, log logger.Logger) (*sql.DB, error) {
	connector, err := connectorFor("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite connector: %w", err)
	}
	return sql.OpenDB(newReadOnlyConnector(connector, name, config.DriverSQLite, log)), nil
}
