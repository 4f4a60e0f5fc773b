package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/blackrose-blackhat/phishguard/backend/internal/audit"
	"github.com/blackrose-blackhat/phishguard/backend/internal/config"
	"github.com/blackrose-blackhat/phishguard/backend/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP tool server over stdio",
	Long: `Serves the analyze_url and analyze_email tools over stdin/stdout.
Logs go to stderr because stdout carries the protocol. Audit entries are
written only when AUDIT_LOG_FILE is set.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	logger := newLogger(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var auditLog *audit.Logger
	if cfg.Logging.AuditFile != "" {
		auditLog, err = audit.NewLogger(cfg.Logging.AuditFile)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer auditLog.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcp.NewServer(version, analyzer.NewEngine(), auditLog, logger).Run(ctx)
}
