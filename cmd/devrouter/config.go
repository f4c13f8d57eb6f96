package main

import (
	"fmt"
	"os"

	"github.com/CageChen/devrouter/internal/config"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.GetConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			cfg.SetConfigFilePath(path)
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "Configuration file path (default: ~/.config/devrouter/config.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
