package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/rustdoc"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <rsdoc://crate/version/path>",
	Short: "Read a documentation item by URI",
	Example: `  ferrisdoc get rsdoc://serde/latest/serde::Serialize
  ferrisdoc get rsdoc://tokio/1.0.0/tokio::spawn
  ferrisdoc get serde/latest/serde::Serialize`,
	Args: cobra.ExactArgs(1),
	Run:  runGet,
}

func runGet(cmd *cobra.Command, args []string) {
	uri := args[0]
	if !strings.HasPrefix(uri, rustdoc.URIScheme) {
		uri = rustdoc.URIScheme + uri
	}
	crateName, version, path, err := rustdoc.ParseURI(uri)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if i := strings.LastIndex(path, "#"); i >= 0 {
		path = path[:i]
	}

	_, database, lib, err := openLibrary()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close()

	it, err := lib.Get(context.Background(), crateName, version, path)
	if err != nil {
		database.Close()
		log.Fatalf("get doc failed: %v", err)
	}

	fmt.Print(it.Markdown)
}
