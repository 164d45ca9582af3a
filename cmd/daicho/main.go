package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/config"
	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/gateway"
	"github.com/ksmori/daicho/internal/query"
	"github.com/ksmori/daicho/internal/store"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "daicho",
		Short: "daicho — local-first customer ledger",
		Long:  "Daicho keeps customer records and interaction history in local storage, with search, filters, and dashboard summaries over them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		addCmd(),
		editCmd(),
		showCmd(),
		rmCmd(),
		listCmd(),
		logCmd(),
		historyCmd(),
		dashboardCmd(),
		statsCmd(),
		exportCmd(),
		importCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newGateway() (gateway.Gateway, error) {
	if cfg.Storage.Backend == config.BackendSQLite {
		return gateway.NewSQLiteGateway(cfg.Storage.DBFile)
	}
	return gateway.NewFileGateway(cfg.Storage.Dir)
}

// openLedger wires the gateway, store, query engine and mutation service
// together and loads the collections. The caller must Close the gateway.
func openLedger(logger *slog.Logger) (gateway.Gateway, *store.Store, *query.Engine, *crm.Service, error) {
	gw, err := newGateway()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	st := store.New(gw, logger)
	if err := st.Load(); err != nil {
		_ = gw.Close()
		return nil, nil, nil, nil, fmt.Errorf("loading ledger: %w", err)
	}
	return gw, st, query.New(st), crm.New(st, logger), nil
}

// reportSync downgrades a sync warning to a stderr notice and passes every
// other error through.
func reportSync(err error) error {
	if crm.IsSyncWarning(err) {
		fmt.Fprintln(os.Stderr, "warning: change kept in memory but not saved to storage; it will retry on the next change")
		return nil
	}
	return err
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
