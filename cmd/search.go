package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index",
	Long:  `Embeds the query and returns the most similar corpus chunks, optionally filtered by metadata (e.g. --filter source_type=book).`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntP("limit", "k", 5, "maximum number of results")
	searchCmd.Flags().StringArray("filter", nil, "metadata filter as key=value (repeatable, AND semantics)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

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
		fmt.Println("Search unavailable: no index found. Run `vitalkb index` first.")
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	filterFlags, _ := cmd.Flags().GetStringArray("filter")

	var filter map[string]string
	for _, f := range filterFlags {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("invalid filter %q: expected key=value", f)
		}
		if filter == nil {
			filter = make(map[string]string)
		}
		filter[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	results, err := store.Search(ctx, query, limit, filter)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Print(vectordb.FormatResults(results))
	return nil
}
