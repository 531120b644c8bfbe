package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/quill"
	httpadapter "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/adapters/websocket"
	"github.com/aretw0/quill/pkg/host"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/progress"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const reconnectDelay = 2 * time.Second

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run a document host",
	Long: `Loads a document and serves commands for it. The host joins the relay channel
as the plugin peer and also exposes the HTTP API with progress events and metrics.
With host.serve_relay set, the relay is mounted on the same listener at /ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if doc, _ := cmd.Flags().GetString("document"); doc != "" {
			cfg.Host.Document = doc
		}

		metrics := observability.NewMetrics()
		x, err := newExecutor(metrics)
		if err != nil {
			return err
		}
		hub := progress.NewHub(64)
		x.Emitter().AddSink(hub)

		opts := []httpadapter.Option{
			httpadapter.WithEvents(hub),
			httpadapter.WithMetrics(metrics),
			httpadapter.WithCommands(x.Router().Commands),
			httpadapter.WithLogger(logger),
		}
		if cfg.Host.ServeRelay {
			rl := websocket.NewRelay(websocket.WithLogger(logger), websocket.WithMetrics(metrics))
			opts = append(opts, httpadapter.WithRelay(rl.Handler()))
		}
		api, err := httpadapter.NewServer(x, opts...)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("host api listening", "addr", cfg.Host.Addr)
			return listen(ctx, &http.Server{Addr: cfg.Host.Addr, Handler: api})
		})
		g.Go(func() error {
			return serveRelay(ctx, x)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().String("document", "", "YAML document to serve (default: bundled demo)")
}

// serveRelay keeps the host attached to the relay, reconnecting after drops.
func serveRelay(ctx context.Context, x *host.Executor) error {
	for {
		err := quill.ServeHost(ctx, cfg.Relay.URL, cfg.Relay.Channel, x)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("relay connection lost", "url", cfg.Relay.URL, "error", err, "retry_in", reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
