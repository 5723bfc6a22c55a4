package query

import (
	"context"
	"fmt"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/db"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/sqlguard"
)

// ListTables returns base table names via the platform's catalog query,
// run in the same rolled-back sandbox as user statements.
func (e *Executor) ListTables(ctx context.Context, c *db.Connection, schema string) ([]string, error) {
	q, args, err := db.ListTablesQuery(c.Platform, schema)
	if err != nil {
		return nil, err
	}
	rows, err := e.catalog(ctx, c, q, args)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		vals := RowValues(r)
		if len(vals) > 0 {
			names = append(names, fmt.Sprint(vals[0]))
		}
	}
	return names, nil
}

// DescribeTable returns column metadata for table. An unknown table is an
// error.
func (e *Executor) DescribeTable(ctx context.Context, c *db.Connection, schema, table string) ([]db.ColumnInfo, error) {
	q, args, err := db.DescribeTableQuery(c.Platform, schema, table)
	if err != nil {
		return nil, err
	}
	rows, err := e.catalog(ctx, c, q, args)
	if err != nil {
		return nil, fmt.Errorf("describe table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("describe table: table %q not found", table)
	}
	cols := make([]db.ColumnInfo, 0, len(rows))
	for _, r := range rows {
		vals := RowValues(r)
		if len(vals) < 4 {
			return nil, fmt.Errorf("describe table: unexpected catalog row")
		}
		cols = append(cols, db.ColumnInfoFromValues(vals[0], vals[1], vals[2], vals[3]))
	}
	return cols, nil
}

func (e *Executor) catalog(ctx context.Context, c *db.Connection, q string, args []any) ([]Row, error) {
	if err := sqlguard.ValidateStatement(q); err != nil {
		return nil, err
	}
	_, rows, err := e.Run(ctx, c, q, args...)
	return rows, err
}
