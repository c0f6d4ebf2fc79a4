package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/app"
	"github.com/futusense/futusense/internal/config"
	"github.com/futusense/futusense/internal/logger"
)

var updateDate string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run one scoring pass and publish the data tree",
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateDate, "date", "", "record date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	date := updateDate
	if date == "" {
		date = a.Today()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.RunOnce(ctx, date); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if len(cfg.EnabledSymbols()) == 0 {
		log.Warn("no symbols configured, nothing to score")
	}
	return cfg, nil
}
