// Package server builds the MCP server and registers tools.
package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/db"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/query"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/sqlguard"
)

const (
	ServerName    = "readonly-sql-mcp"
	ServerVersion = "1.0.0"
)

const executeQueryDescription = `Run one or more read-only SQL statements separated by semicolons.
Each statement runs in its own transaction that is always rolled back.
Statements containing COMMIT, ROLLBACK, TRANSACTION, INSERT, UPDATE, DELETE, DROP, ALTER, CREATE,
TRUNCATE, EXEC, EXECUTE, MERGE, INTO, GRANT or REVOKE (outside comments, including inside string
literals) reject the whole request. A statement that fails to execute is reported on its own and
the rest still run. On SQL Server, use a read-only database login: the server can only request
ApplicationIntent=ReadOnly, which is honored by replicas and managed instances.`

// New returns an MCP server with all tools registered. mgr may be nil, in
// which case only ping and list_connections are available.
func New(mgr *db.Manager, exec *query.Executor) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false))
	Register(s, mgr, exec)
	return s
}

// Register adds the tools to s. exec defaults to a query.NewExecutor().
func Register(s *server.MCPServer, mgr *db.Manager, exec *query.Executor) {
	if exec == nil {
		exec = query.NewExecutor()
	}
	h := &handlers{mgr: mgr, exec: exec, log: logger.Default().AddContext(logger.Ctx{"component": "mcp"})}

	s.AddTool(mcp.NewTool("ping",
		mcp.WithDescription("Simple health check. Returns pong."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.ping)

	s.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List configured database connection IDs with driver and platform. No credentials in response."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.listConnections)

	if mgr == nil {
		return
	}

	s.AddTool(mcp.NewTool("execute_query",
		mcp.WithDescription(executeQueryDescription),
		mcp.WithString("connection_id", mcp.Required(), mcp.Description("Connection name from list_connections")),
		mcp.WithString("query", mcp.Required(), mcp.Description("SQL text; multiple statements separated by ';'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	), h.executeQuery)

	s.AddTool(mcp.NewTool("list_tables",
		mcp.WithDescription("List table names in a given connection and optional schema."),
		mcp.WithString("connection_id", mcp.Required(), mcp.Description("Connection name from list_connections")),
		mcp.WithString("schema", mcp.Description("Schema name; defaults to the platform default")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.listTables)

	s.AddTool(mcp.NewTool("describe_table",
		mcp.WithDescription("Describe columns of a table (name, type, nullable, primary key)."),
		mcp.WithString("connection_id", mcp.Required(), mcp.Description("Connection name from list_connections")),
		mcp.WithString("schema", mcp.Description("Schema name; defaults to the platform default")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.describeTable)
}

type handlers struct {
	mgr  *db.Manager
	exec *query.Executor
	log  logger.Logger
}

func (h *handlers) ping(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return structuredResult(PingOutput{Message: "pong"})
}

func (h *handlers) listConnections(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := ListConnectionsOutput{Connections: []db.ConnectionInfo{}}
	if h.mgr != nil {
		out.Connections = h.mgr.ConnectionInfos()
	}
	return structuredResult(out)
}

func (h *handlers) executeQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("connection_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sql, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conn, err := h.mgr.Connection(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.exec.RunBatch(ctx, conn, sql)
	if err != nil {
		if errors.Is(err, sqlguard.ErrSecurityViolation) {
			h.log.Warn("Query rejected", logger.Ctx{"connection": name, "err": err.Error()})
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.log.Debug("Query executed", logger.Ctx{"connection": name, "statements": len(res.Outcomes), "failures": res.Failures()})
	return mcp.NewToolResultStructured(res.Structured(), res.Markdown()), nil
}

func (h *handlers) listTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("connection_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conn, err := h.mgr.Connection(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tables, err := h.exec.ListTables(ctx, conn, req.GetString("schema", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return structuredResult(ListTablesOutput{Tables: tables})
}

func (h *handlers) describeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("connection_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	table, err := req.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conn, err := h.mgr.Connection(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cols, err := h.exec.DescribeTable(ctx, conn, req.GetString("schema", ""), table)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return structuredResult(DescribeTableOutput{Columns: cols})
}

// structuredResult returns v as structured content with its JSON as text.
func structuredResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultStructured(v, string(raw)), nil
}

// PingOutput is the structured result of the ping tool.
type PingOutput struct {
	Message string `json:"message"`
}

// ListConnectionsOutput is the result of list_connections.
type ListConnectionsOutput struct {
	Connections []db.ConnectionInfo `json:"connections"`
}

// ListTablesOutput is the result of list_tables.
type ListTablesOutput struct {
	Tables []string `json:"tables"`
}

// DescribeTableOutput is the result of describe_table.
type DescribeTableOutput struct {
	Columns []db.ColumnInfo `json:"columns"`
}
