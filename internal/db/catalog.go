package db

import (
	"fmt"
	"strconv"
	"strings"
)

// ListTablesQuery returns a catalog query listing base tables. Its result
// has a single column "name". An empty schema means the platform default
// (current database for MySQL, "public" for PostgreSQL, "dbo" for SQL
// Server); SQLite ignores schema.
func ListTablesQuery(p Platform, schema string) (string, []any, error) {
	switch p {
	case PlatformMySQL:
		if schema == "" {
			return `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.TABLES
				WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
				ORDER BY TABLE_NAME`, nil, nil
		}
		return `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.TABLES
			WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
			ORDER BY TABLE_NAME`, []any{schema}, nil
	case PlatformPostgreSQL:
		if schema == "" {
			schema = "public"
		}
		return `SELECT table_name AS name FROM information_schema.tables
			WHERE table_schema = $1 AND table_type = 'BASE TABLE'
			ORDER BY table_name`, []any{schema}, nil
	case PlatformSQLite:
		return `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`, nil, nil
	case PlatformSQLServer:
		if schema == "" {
			schema = "dbo"
		}
		return `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.TABLES
			WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
			ORDER BY TABLE_NAME`, []any{schema}, nil
	}
	return "", nil, fmt.Errorf("list tables: unsupported platform %q", p)
}

// DescribeTableQuery returns a catalog query describing table columns. Its
// result columns are name, type, nullable and is_pk.
func DescribeTableQuery(p Platform, schema, table string) (string, []any, error) {
	switch p {
	case PlatformMySQL:
		if schema == "" {
			return `SELECT c.COLUMN_NAME AS name, c.DATA_TYPE AS type,
				       c.IS_NULLABLE = 'YES' AS nullable,
				       c.COLUMN_KEY = 'PRI' AS is_pk
				FROM INFORMATION_SCHEMA.COLUMNS c
				WHERE c.TABLE_SCHEMA = DATABASE() AND c.TABLE_NAME = ?
				ORDER BY c.ORDINAL_POSITION`, []any{table}, nil
		}
		return `SELECT c.COLUMN_NAME AS name, c.DATA_TYPE AS type,
			       c.IS_NULLABLE = 'YES' AS nullable,
			       c.COLUMN_KEY = 'PRI' AS is_pk
			FROM INFORMATION_SCHEMA.COLUMNS c
			WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
			ORDER BY c.ORDINAL_POSITION`, []any{schema, table}, nil
	case PlatformPostgreSQL:
		if schema == "" {
			schema = "public"
		}
		return `SELECT c.column_name AS name, c.data_type AS type,
			       c.is_nullable = 'YES' AS nullable,
			       EXISTS (
			         SELECT 1 FROM information_schema.table_constraints tc
			         JOIN information_schema.key_column_usage kcu
			           ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
			         WHERE tc.table_schema = c.table_schema AND tc.table_name = c.table_name
			           AND tc.constraint_type = 'PRIMARY KEY' AND kcu.column_name = c.column_name
			       ) AS is_pk
			FROM information_schema.columns c
			WHERE c.table_schema = $1 AND c.table_name = $2
			ORDER BY c.ordinal_position`, []any{schema, table}, nil
	case PlatformSQLite:
		return `SELECT name, type, "notnull" = 0 AS nullable, pk > 0 AS is_pk
			FROM pragma_table_info(?)
			ORDER BY cid`, []any{table}, nil
	case PlatformSQLServer:
		if schema == "" {
			schema = "dbo"
		}
		return `SELECT c.COLUMN_NAME AS name, c.DATA_TYPE AS type,
			       CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END AS nullable,
			       CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END AS is_pk
			FROM INFORMATION_SCHEMA.COLUMNS c
			LEFT JOIN (
			  SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			  FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			  JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA
			  WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			) pk ON c.TABLE_SCHEMA = pk.TABLE_SCHEMA AND c.TABLE_NAME = pk.TABLE_NAME AND c.COLUMN_NAME = pk.COLUMN_NAME
			WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
			ORDER BY c.ORDINAL_POSITION`, []any{schema, table}, nil
	}
	return "", nil, fmt.Errorf("describe table: unsupported platform %q", p)
}

// ColumnInfoFromValues builds a ColumnInfo from the loosely typed values a
// DescribeTableQuery row carries on each platform.
func ColumnInfoFromValues(name, typ, nullable, isPK any) ColumnInfo {
	return ColumnInfo{
		Name:     asString(name),
		Type:     asString(typ),
		Nullable: asBool(nullable),
		IsPK:     asBool(isPK),
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case int32:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	case string, []byte:
		s := strings.TrimSpace(asString(x))
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return err == nil && n != 0
	}
	return false
}
