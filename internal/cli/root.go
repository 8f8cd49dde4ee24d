package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Embed local documents and ask questions about them",
	Long: `docqa loads text, PDF and source files, splits them into overlapping chunks,
stores their embeddings in a local collection and answers questions about
them with a language model.

Example usage:
  docqa init                                   # Create the store directory
  docqa embed -p ./docs -r --pdf -c handbook   # Embed every PDF under ./docs
  docqa search -c handbook -q "vacation days"  # Show the closest chunks
  docqa qa -c handbook                         # Ask questions interactively`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			var wd string
			wd, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if err := logger.Init(os.Stderr, cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return fmt.Errorf("failed to init logging: %w", err)
		}

		return nil
	},
}

// Execute runs the root command. Interrupts cancel the command context so
// in-flight backend calls stop early.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docqa.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() *config.Config {
	return cfg
}
