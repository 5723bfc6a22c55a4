// Package main runs the readonly-sql-mcp server: an MCP server that runs
// read-only SQL against configured databases without exposing credentials.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/config"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/db"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/query"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/tracer"
)

type cmdGlobal struct {
	flagConfig   string
	flagLogLevel string
	flagTrace    bool
}

// setup loads configuration and builds the connection manager and executor.
// The returned shutdown flushes the tracer provider when tracing is enabled.
func (c *cmdGlobal) setup() (*config.Config, *db.Manager, *query.Executor, func(), error) {
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	if c.flagLogLevel != "" {
		cfg.LogLevel = c.flagLogLevel
	}
	if c.flagTrace {
		cfg.Trace = true
	}
	logger.Init(cfg.LogLevel)
	log := logger.Default()

	log.Info("Configuration loaded", logger.Ctx{"connections": cfg.ConnectionIDs()})

	// Without a provider the global otel tracer is a no-op unless the
	// embedding process installs its own.
	shutdown := func() {}
	if cfg.Trace {
		tp := tracer.NewLogProvider(log)
		otel.SetTracerProvider(tp)
		shutdown = func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("Tracer shutdown failed", logger.Ctx{"err": err.Error()})
			}
		}
	}

	mgr := db.NewManager(cfg, log)
	exec := query.NewExecutor(
		query.WithLogger(log),
		query.WithTracer(tracer.NewOtelTracer(otel.Tracer("github.com/SedlarDavid/readonly-sql-mcp"))),
	)
	return cfg, mgr, exec, shutdown, nil
}

func main() {
	globalCmd := cmdGlobal{}

	app := &cobra.Command{}
	app.Use = "readonly-sql-mcp"
	app.Short = "Read-only SQL MCP server"
	app.Long = `Read-only SQL MCP server

  Exposes MySQL, PostgreSQL, SQLite and SQL Server databases to MCP clients.
  Every statement is checked for write keywords, runs on a connection put in
  read-only mode where the engine supports it, and is executed in a
  transaction that is always rolled back.`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	app.PersistentFlags().StringVar(&globalCmd.flagConfig, "config", "", "Path to the YAML config file (default ~/.readonly-sql-mcp/config.yaml)")
	app.PersistentFlags().StringVar(&globalCmd.flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	app.PersistentFlags().BoolVar(&globalCmd.flagTrace, "trace", false, "Log a line for every finished trace span")

	serveCmd := cmdServe{global: &globalCmd}
	app.AddCommand(serveCmd.Command())
	app.RunE = serveCmd.Run

	queryCmd := cmdQuery{global: &globalCmd}
	app.AddCommand(queryCmd.Command())

	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
