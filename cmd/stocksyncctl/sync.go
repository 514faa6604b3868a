package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/bootstrap"
	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/infrastructure/logger"
)

// errSyncFailed makes the process exit non-zero when a run did not complete
var errSyncFailed = errors.New("sync did not complete successfully")

func (c *cli) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile warehouse stock with the marketplaces",
	}

	var policy string
	var asJSON bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation batch and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var override inventory.SyncPolicy
			if policy != "" {
				p, err := inventory.ParseSyncPolicy(policy)
				if err != nil {
					return err
				}
				override = p
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			log, err := c.logger()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync(log)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(context.Background()); err != nil {
					log.Warn("Error releasing resources", zap.Error(err))
				}
			}()

			svc := rt.Sync
			if override != "" {
				svc = svc.WithPolicy(override)
			}
			result, err := svc.Reconcile(ctx, inventory.SyncTriggerCLI)
			if err != nil {
				return err
			}
			if err := printSyncResult(cmd, result, asJSON); err != nil {
				return err
			}
			if result.Status == inventory.SyncLogStatusError {
				return errSyncFailed
			}
			return nil
		},
	}
	run.Flags().StringVar(&policy, "policy", "", "Override sync.policy for this run (sales_delta or overwrite)")
	run.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")

	cmd.AddCommand(run)
	return cmd
}

func printSyncResult(cmd *cobra.Command, result *appinventory.SyncRunResult, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "status:   %s\n", result.Status)
	fmt.Fprintf(out, "policy:   %s\n", result.Policy)
	fmt.Fprintf(out, "synced:   %d\n", result.SyncedCount)
	fmt.Fprintf(out, "errors:   %d\n", result.ErrorCount)
	fmt.Fprintf(out, "sales:    %d\n", result.TotalSales)
	fmt.Fprintf(out, "message:  %s\n", result.Message)
	for _, d := range result.Details {
		if d.Failed() {
			fmt.Fprintf(out, "  [error] %s: %s\n", d.SKU, d.Error)
		}
	}
	return nil
}
