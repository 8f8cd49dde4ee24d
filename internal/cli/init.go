package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/config"
)

var (
	initPersistDir  string
	initWriteConfig bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store directory",
	Long: `Create the directory collections are persisted in. The embed command never
creates it, so a mistyped --db-persist-dir fails instead of starting a new store.

With --write-config the effective configuration is saved to ./docqa.yaml.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPersistDir, "db-persist-dir", "", "store directory (default from config, ./db)")
	initCmd.Flags().BoolVar(&initWriteConfig, "write-config", false, "write docqa.yaml if it does not exist")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cmd.Flags().Changed("db-persist-dir") {
		cfg.Store.PersistDir = initPersistDir
	}

	if err := config.EnsureStoreDir(cfg.Store.PersistDir); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Store directory ready: %s\n", cfg.Store.PersistDir)

	if initWriteConfig {
		const path = "docqa.yaml"
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Config %s already exists, leaving it unchanged.\n", path)
			return nil
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	return nil
}
