package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/ferrisdoc/internal/doc"
)

var buildCmd = &cobra.Command{
	Use:   "build [crate[@version] ...]",
	Short: "Fetch, build and index crate documentation from docs.rs",
	Long:  `Fetch rustdoc JSON, build the document model and catalogue every item. Version defaults to "latest".`,
	Example: `  ferrisdoc build serde
  ferrisdoc build serde@1.0.219 tokio
  ferrisdoc build serde serde_json tokio`,
	Args: cobra.MinimumNArgs(1),
	Run:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) {
	_, database, lib, err := openLibrary()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close()

	failed := false
	for _, arg := range args {
		name, version := splitSpec(arg)
		res, err := lib.Index(context.Background(), name, version)
		if err != nil {
			fmt.Printf("  %s@%s: error: %v\n", name, version, err)
			failed = true
			continue
		}
		fmt.Printf("  %s@%s: %d items, %d reexports indexed%s\n", res.Name, res.Version, res.Items, res.Reexports, kindSummary(res.Kinds))
	}
	if failed {
		database.Close()
		log.Fatalf("some crates failed to build")
	}
}

// kindSummary formats per-kind item counts in declaration order, e.g.
// " (2 module, 1 function)".
func kindSummary(counts map[string]int) string {
	var parts []string
	for _, k := range doc.Kinds {
		if n := counts[k.Slug()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k.Slug()))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
