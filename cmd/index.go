package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalkb/vitalkb/internal/ingest"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the search index from the configured corpus",
	Long:  `Loads every configured source directory, chunks and embeds the content, and writes the index and metadata files to the data directory.`,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().Bool("clear", false, "discard any existing index before building")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

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

	clearFirst, _ := cmd.Flags().GetBool("clear")
	if clearFirst && loaded {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing existing index: %w", err)
		}
	}

	items, warns, err := ingest.LoadSources(sourceConfigs(cfg))
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	printWarnings(warns)
	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d corpus sources\n", len(items))
	}
	if len(items) == 0 {
		fmt.Println("No corpus files found. Check the source directories in your config.")
		return nil
	}

	pipeline, err := newPipeline(cfg, store)
	if err != nil {
		return err
	}

	chunks, err := pipeline.FullBuild(ctx, items)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	stats := store.Stats()
	fmt.Println()
	fmt.Println("Index build complete!")
	fmt.Printf("  Sources indexed:   %d\n", len(items))
	fmt.Printf("  Chunks indexed:    %d\n", chunks)
	fmt.Printf("  Active documents:  %d\n", stats.ActiveDocuments)
	fmt.Printf("  Index type:        %s (%d dimensions)\n", stats.IndexType, stats.Dimension)
	fmt.Printf("  Duration:          %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Output:            %s\n", cfg.DataDir)
	return nil
}
