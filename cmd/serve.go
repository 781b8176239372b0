package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jcdickinson/ferrisdoc/internal/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve crate documentation over HTTP",
	Example: `  ferrisdoc serve
  ferrisdoc serve --addr :8080
  curl localhost:7070/docs/serde/latest/serde::Serialize?format=html`,
	Run: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, database, lib, err := openLibrary()
	if err != nil {
		slog.Error("failed to open library", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	addr := cfg.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(lib, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := waitForSignal(errCh); err != nil {
		slog.Error("server error", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
