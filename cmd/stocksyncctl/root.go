package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/infrastructure/config"
	"github.com/stocksync/backend/internal/infrastructure/logger"
)

// cli carries state shared by every subcommand
type cli struct {
	logLevel   string
	loadConfig func() (*config.Config, error)
}

// newRootCmd builds the command tree; load is config.Load outside tests
func newRootCmd(load func() (*config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: load}

	root := &cobra.Command{
		Use:          "stocksyncctl",
		Short:        "Operate the stocksync backend: schema, reconciliation and credentials",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		c.newMigrateCmd(),
		c.newSyncCmd(),
		c.newAuthCmd(),
		newUserCmd(),
	)
	return root
}

// logger builds a console logger for command output
func (c *cli) logger() (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      c.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
}
