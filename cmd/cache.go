package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache [crate[@version] ...]",
	Short: "Remove cached rustdoc JSON, rendered items and the catalogue",
	Long: `Without arguments, remove everything. With crate arguments, forget only those
crate versions: their cached JSON and catalogue rows. Version defaults to the
most recently built one.`,
	Example: `  ferrisdoc clear-cache
  ferrisdoc clear-cache serde@1.0.219 tokio`,
	Run: runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	_, database, lib, err := openLibrary()
	if err != nil {
		slog.Error("failed to open library", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if len(args) == 0 {
		if err := lib.ClearCache(); err != nil {
			slog.Error("failed to clear cache", "error", err)
			database.Close()
			os.Exit(1)
		}
		fmt.Println("cache cleared")
		return
	}

	failed := false
	for _, arg := range args {
		name, version := splitSpec(arg)
		if err := lib.Forget(name, version); err != nil {
			fmt.Printf("  %s@%s: error: %v\n", name, version, err)
			failed = true
			continue
		}
		fmt.Printf("  %s@%s: removed\n", name, version)
	}
	if failed {
		database.Close()
		os.Exit(1)
	}
}
