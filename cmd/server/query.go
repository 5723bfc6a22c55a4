package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type cmdQuery struct {
	global *cmdGlobal

	flagJSON bool
}

func (c *cmdQuery) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "query <connection> <sql|->"
	cmd.Short = "Run a read-only batch against a configured connection"
	cmd.Long = `Run a read-only batch against a configured connection

  The batch goes through the same checks as the execute_query tool.
  If <sql> is "-", the batch is read from standard input.`
	cmd.Args = cobra.ExactArgs(2)
	cmd.Flags().BoolVar(&c.flagJSON, "json", false, "Print the structured result as JSON")
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdQuery) Run(cmd *cobra.Command, args []string) error {
	name, sql := args[0], args[1]
	if sql == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		sql = string(data)
	}

	_, mgr, exec, shutdown, err := c.global.setup()
	if err != nil {
		return err
	}
	defer shutdown()
	defer mgr.Close()

	ctx := cmd.Context()
	conn, err := mgr.Connection(ctx, name)
	if err != nil {
		return err
	}

	res, err := exec.RunBatch(ctx, conn, sql)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.flagJSON {
		raw, err := res.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(raw))
		return err
	}
	_, err = fmt.Fprint(out, res.Markdown())
	return err
}
