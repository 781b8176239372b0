package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/db"
	"github.com/jcdickinson/ferrisdoc/internal/library"
	"github.com/spf13/cobra"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

var debug bool

var rootCmd = &cobra.Command{
	Use:   "ferrisdoc",
	Short: "Build and browse Rust crate documentation from rustdoc JSON",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
}

// openLibrary loads the configuration and opens the catalogue. The caller
// closes the returned database.
func openLibrary() (*config.Config, *db.DB, *library.Library, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	database, err := db.New(cfg.DBPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	return cfg, database, library.New(cfg, database), nil
}

// splitSpec parses "crate[@version]"; the version defaults to "latest".
func splitSpec(arg string) (name, version string) {
	name, version, _ = strings.Cut(arg, "@")
	if version == "" {
		version = "latest"
	}
	return name, version
}
