package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/quill/pkg/adapters/websocket"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay between agents and hosts",
	Long: `Starts a channel relay. Peers connect to /ws, join a channel and every frame
they send is forwarded to the other members of that channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Relay.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		metrics := observability.NewMetrics()
		rl := websocket.NewRelay(websocket.WithLogger(logger), websocket.WithMetrics(metrics))

		r := chi.NewRouter()
		r.Handle("/ws", rl.Handler())
		r.Handle("/metrics", metrics.Handler())
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		ctx, stop := signalContext()
		defer stop()
		logger.Info("relay listening", "addr", addr)
		return listen(ctx, &http.Server{Addr: addr, Handler: r})
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().String("addr", "", "Address to listen on (overrides relay.addr)")
}

// listen runs srv until ctx ends, then shuts it down with a grace period.
func listen(ctx context.Context, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() { serverErrors <- srv.ListenAndServe() }()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return err
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("server stopped gracefully", "addr", srv.Addr)
		return nil
	}
}
