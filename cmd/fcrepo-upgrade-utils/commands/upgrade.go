package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/config"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/logging"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/upgrade"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Run an F5 to F6 upgrade",
	Long:  `Transforms the configured input directory into an OCFL storage root under the configured output directory.`,
	Args:  cobra.NoArgs,
	RunE:  runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logging.Configure(logging.Options{Level: level, JSON: cfg.Log.JSON})
	logger := logging.Default()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown requested, cancelling upgrade context")
		cancel()
	}()

	mgr := upgrade.New(cfg, logger)
	if err := mgr.Run(ctx); err != nil {
		return fmt.Errorf("upgrade failed: %w", err)
	}

	logger.Info("upgrade complete", "input", cfg.InputDir, "output", cfg.OutputDir)
	return nil
}
