package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitalkb/vitalkb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err == nil {
		return fmt.Errorf("config file %s already exists", cfgFile)
	}

	if _, err := config.RunWizard(); err != nil {
		return fmt.Errorf("configuration wizard: %w", err)
	}

	fmt.Println("\nNext: put your corpus under the configured source directories and run `vitalkb index`.")
	return nil
}
