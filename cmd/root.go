package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vitalkb",
	Short: "Semantic search index over a health-content corpus",
	Long: `vitalkb builds and maintains a similarity-search index over scraped
books, newsletters and forum threads. It chunks and embeds the corpus,
supports incremental refresh with backup/rollback, and serves
nearest-neighbor queries with metadata filtering.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".vitalkb.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
