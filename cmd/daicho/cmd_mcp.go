package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	daichomcp "github.com/ksmori/daicho/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  search_customers — search and filter customer records
  get_customer     — fetch a customer with their interaction history
  log_interaction  — record an interaction with a customer
  crm_stats        — ledger statistics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			gw, _, eng, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("mcp: %w", err)
			}
			defer func() { _ = gw.Close() }()

			srv := daichomcp.NewServer(eng, svc, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: daicho MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
