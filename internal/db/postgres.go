package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/config"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
)

// openPostgres opens a PostgreSQL pool through pgx's database/sql adapter.
// The read-only session command runs in pgx's AfterConnect hook, so it
// applies to each physical connection the pool creates.
func openPostgres(name, uri string, log logger.Logger) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("postgres parse config: %w", err)
	}
	hook := postgresAfterConnect(name, log, func(ctx context.Context, conn *pgx.Conn, query string) error {
		_, err := conn.Exec(ctx, query)
		return err
	})
	return stdlib.OpenDB(*connCfg, stdlib.OptionAfterConnect(hook)), nil
}

// postgresAfterConnect returns the AfterConnect hook. It logs the session
// result and always returns nil so a failed SET never fails the connect.
func postgresAfterConnect(name string, log logger.Logger, exec func(ctx context.Context, conn *pgx.Conn, query string) error) func(context.Context, *pgx.Conn) error {
	return func(ctx context.Context, conn *pgx.Conn) error {
		res := ApplyReadOnlySession(ctx, config.DriverPgSQL, func(ctx context.Context, query string) error {
			return exec(ctx, conn, query)
		})
		logSessionResult(log, name, res)
		return nil
	}
}
