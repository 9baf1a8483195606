package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	store, loaded, err := openStore(cfg, embedder)
	if err != nil {
		return err
	}
	if !loaded {
		fmt.Println("No index found.")
		return nil
	}

	stats := store.Stats()
	fmt.Printf("Total documents:   %d\n", stats.TotalDocuments)
	fmt.Printf("Active documents:  %d\n", stats.ActiveDocuments)
	fmt.Printf("Index size:        %d vectors\n", stats.IndexSize)
	fmt.Printf("Dimension:         %d\n", stats.Dimension)
	fmt.Printf("Index type:        %s\n", stats.IndexType)
	return nil
}
