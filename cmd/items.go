package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/jcdickinson/ferrisdoc/internal/library"
	"github.com/spf13/cobra"
)

var itemsCmd = &cobra.Command{
	Use:   "items <crate[@version]>",
	Short: "List catalogued items of a crate",
	Example: `  ferrisdoc items serde
  ferrisdoc items serde --module de --kind trait
  ferrisdoc items tokio --module sync --recursive`,
	Args: cobra.ExactArgs(1),
	Run:  runItems,
}

var (
	itemsModule    string
	itemsKind      string
	itemsRecursive bool
)

func init() {
	itemsCmd.Flags().StringVar(&itemsModule, "module", "", "module path, relative to the crate root or qualified")
	itemsCmd.Flags().StringVar(&itemsKind, "kind", "", "item kind (fn, struct, trait, ...)")
	itemsCmd.Flags().BoolVarP(&itemsRecursive, "recursive", "r", false, "include items of nested modules")
}

func runItems(cmd *cobra.Command, args []string) {
	_, database, lib, err := openLibrary()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close()

	name, version := splitSpec(args[0])
	items, err := lib.Items(context.Background(), name, version, library.ItemQuery{
		Module:    itemsModule,
		Kind:      itemsKind,
		Recursive: itemsRecursive,
	})
	if err != nil {
		database.Close()
		log.Fatalf("listing items failed: %v", err)
	}

	if len(items) == 0 {
		fmt.Println("no items")
		return
	}
	for _, it := range items {
		marker := ""
		if it.Reexport {
			marker = " (re-export)"
		}
		fmt.Printf("  %-14s %s%s\n", it.Kind, it.Path, marker)
		if it.Brief != "" {
			fmt.Printf("    %s\n", it.Brief)
		}
	}
}
