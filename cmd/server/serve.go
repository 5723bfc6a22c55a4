package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/server"
)

type cmdServe struct {
	global *cmdGlobal
}

func (c *cmdServe) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "serve"
	cmd.Short = "Serve MCP over stdio (default)"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdServe) Run(cmd *cobra.Command, _ []string) error {
	_, mgr, exec, shutdown, err := c.global.setup()
	if err != nil {
		return err
	}
	defer shutdown()
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(mgr, exec)
	logger.Info("Serving MCP on stdio", logger.Ctx{"name": server.ServerName, "version": server.ServerVersion})

	err = mcpserver.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped", logger.Ctx{"err": err.Error()})
		return err
	}
	return nil
}
