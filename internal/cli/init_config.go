package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/showhidden/internal/config"
)

var initConfigForce bool

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "Overwrite an existing config.yaml")
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Generate default config.yaml with comments",
	Long:  "Creates ~/.showhidden/config.yaml with the default scope, rules and style.\nEdit this file to customize showhidden behavior.",
	RunE:  runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if path == "" {
		return fmt.Errorf("cannot determine home directory")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !initConfigForce {
		return fmt.Errorf("config.yaml already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultConfigYAML()), 0644); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
