package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"studentperf/internal"
	"studentperf/internal/config"
	"studentperf/internal/container"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "failed to read .env:", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "studentperf",
		Short:         "Fit, store and apply logit/probit models of student success",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				if err := os.Setenv("CONFIG_FILE", opts.configFile); err != nil {
					return err
				}
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newMigrateCmd(opts),
		newImportCmd(opts),
		newTrainCmd(opts),
		newCompareCmd(opts),
		newPredictCmd(opts),
		newEffectsCmd(opts),
		newIntervalsCmd(opts),
		newModelsCmd(opts),
		newReportCmd(opts),
		newDeleteCmd(opts),
		newDemoCmd(opts),
	)
	return rootCmd
}

// loadConfig reads the configuration and sets up logging
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		internal.ConfigureLogging(opts.logLevel, false, os.Stderr)
		log.Error().Err(err).Msg("failed to load configuration")
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	internal.ConfigureLogging(cfg.Log.Level, cfg.Log.JSON, os.Stderr)
	return cfg, nil
}

// withContainer runs fn against a container opened from configuration and
// closes it afterwards
func withContainer(ctx context.Context, opts *rootOptions, fn func(*container.Container) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	c, err := container.Open(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}()

	if err := fn(c); err != nil {
		log.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
