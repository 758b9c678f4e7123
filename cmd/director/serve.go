package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// serveCmd exposes nothing beyond a diagnostic /healthz — a debug aid
// for probing whether a director process is alive, not a presentation
// surface.
func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a diagnostic /healthz endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

			startedAt := time.Now()
			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"status":       "ok",
					"uptime_secs":  int(time.Since(startedAt).Seconds()),
				})
			})

			addr := fmt.Sprintf(":%d", port)
			logger.Info("director diagnostic server listening", "addr", addr)
			return http.ListenAndServe(addr, mux)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8090, "port to serve /healthz on")
	return cmd
}
