package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalkb/vitalkb/internal/ingest"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Incrementally refresh the index from the corpus",
	Long: `Diffs the corpus against the tracked content hashes and applies only
the delta: new sources are added, modified sources re-indexed, and
sources absent past the grace period tombstoned. The persisted index is
backed up before any mutation and restored automatically on failure.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().Bool("force", false, "discard the tracked state and rebuild the whole index")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
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
	if !loaded {
		fmt.Println("No existing index found. Run `vitalkb index` first to create the initial index.")
		return nil
	}

	items, warns, err := ingest.LoadSources(sourceConfigs(cfg))
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	printWarnings(warns)

	pipeline, err := newPipeline(cfg, store)
	if err != nil {
		return err
	}

	if force, _ := cmd.Flags().GetBool("force"); force {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing existing index: %w", err)
		}
		chunks, err := pipeline.FullBuild(ctx, items)
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		fmt.Println()
		fmt.Println("Forced rebuild complete!")
		fmt.Printf("  Sources indexed:   %d\n", len(items))
		fmt.Printf("  Chunks indexed:    %d\n", chunks)
		fmt.Printf("  Duration:          %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	}

	res, changes, err := pipeline.Refresh(ctx, items)
	if verbose {
		fmt.Fprintf(os.Stderr, "Changes detected: %d new, %d modified, %d deleted, %d unchanged\n",
			len(changes.New), len(changes.Modified), len(changes.Deleted), len(changes.Unchanged))
	}
	if err != nil {
		if res != nil && res.BackupID != "" {
			fmt.Fprintf(os.Stderr, "Backup id: %s\n", res.BackupID)
			for _, e := range res.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", e)
			}
		}
		return fmt.Errorf("incremental update: %w", err)
	}

	if res == nil {
		fmt.Println("No changes since last update.")
		return nil
	}

	fmt.Println()
	fmt.Println("Incremental update complete!")
	fmt.Printf("  Chunks added:      %d\n", res.ItemsAdded)
	fmt.Printf("  Sources modified:  %d\n", res.ItemsModified)
	fmt.Printf("  Sources deleted:   %d\n", res.ItemsDeleted)
	fmt.Printf("  Sources unchanged: %d\n", len(changes.Unchanged))
	fmt.Printf("  Backup:            %s\n", res.BackupID)
	fmt.Printf("  Duration:          %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
