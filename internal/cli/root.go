package cli

import (
	"context"
	"fmt"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "resumatch",
	Short: "Score how well a resume matches a job description",
	Long: `resumatch compares a resume with a job description. It blends the
semantic similarity of the two texts with the overlap of their ranked
keyword phrases into a single 0-100 match score, and lists the job
keywords the resume already covers and the ones it is missing.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the root command. Configuration and logger are loaded before
// any subcommand runs unless ctx already carries them.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// WithRuntime attaches config and logger to ctx, making them available to all subcommands
func WithRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// loadRuntime loads configuration (file, env, then Vault) and the logger
func loadRuntime(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadConfigFile(configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(ctx, cfg, logger); err != nil {
		return err
	}
	if cfg.Vault.Enabled {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration invalid after applying vault secrets: %w", err)
		}
	}

	logger.Debug("Starting resumatch",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"embedding_provider", cfg.Embedding.Provider)

	cmd.SetContext(WithRuntime(ctx, cfg, logger))
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.resumatch/config.yaml or /etc/resumatch/config.yaml)")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
