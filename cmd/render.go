package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/library"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <crate[@version]> <dir>",
	Short: "Render crate documentation to markdown or HTML files",
	Example: `  ferrisdoc render serde ./docs
  ferrisdoc render tokio@1.40.0 ./docs --format html --style doc-per-crate`,
	Args: cobra.ExactArgs(2),
	Run:  runRender,
}

var (
	renderFormat  string
	renderStyle   string
	renderWorkers int
)

func init() {
	renderCmd.Flags().StringVar(&renderFormat, "format", "", "output format: markdown or html (default from config)")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "page split: doc-per-crate or doc-per-mod (default from config)")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", 0, "concurrent page writers (default from config)")
}

func runRender(cmd *cobra.Command, args []string) {
	opts := library.RenderOptions{Workers: renderWorkers}
	if renderFormat != "" {
		f, err := config.ParseOutputFormat(renderFormat)
		if err != nil {
			log.Fatalf("%v", err)
		}
		opts.Format = f
	}
	if renderStyle != "" {
		s, err := config.ParseOutputStyle(renderStyle)
		if err != nil {
			log.Fatalf("%v", err)
		}
		opts.Style = s
	}

	_, database, lib, err := openLibrary()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close()

	name, version := splitSpec(args[0])
	paths, err := lib.Render(context.Background(), name, version, args[1], opts)
	if err != nil {
		database.Close()
		log.Fatalf("render failed: %v", err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
