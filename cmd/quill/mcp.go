package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/quill"
	mcpadapter "github.com/aretw0/quill/pkg/adapters/mcp"
	"github.com/aretw0/quill/pkg/adapters/memory"
	redisadapter "github.com/aretw0/quill/pkg/adapters/redis"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/persistence/middleware"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/relay"
	"github.com/aretw0/quill/pkg/session"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the agent side as an MCP server. Every tool call is relayed to the host
on the session's channel and its progress is forwarded as MCP notifications.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")
		sessionID := cfg.Session.ID
		if cmd.Flags().Changed("session") {
			sessionID, _ = cmd.Flags().GetString("session")
		}

		ctx, stop := signalContext()
		defer stop()

		mgr, closeStore, err := sessionManager()
		if err != nil {
			return err
		}
		defer closeStore()

		sess, err := mgr.Open(ctx, sessionID, func(s *domain.Settings) {
			s.RelayURL = cfg.Relay.URL
			s.Channel = cfg.Relay.Channel
			s.Strategy = cfg.Text.Strategy
			s.FallbackFont = cfg.Text.FallbackFont
			s.ChunkSize = cfg.Batch.ChunkSize
		})
		if err != nil {
			if errors.Is(err, session.ErrSessionBusy) {
				return fmt.Errorf("session %s is owned by another agent", sessionID)
			}
			return err
		}
		defer sess.Close(context.Background())

		settings := sess.Settings()
		dialURL := settings.RelayURL
		if len(cfg.Session.Redact) > 0 {
			// stored urls are masked and cannot be dialed
			dialURL = cfg.Relay.URL
		}
		client, err := quill.Connect(ctx, dialURL, settings.Channel,
			relay.WithLogger(logger))
		if err != nil {
			return err
		}
		defer client.Close()

		srv := mcpadapter.NewServer(client,
			mcpadapter.WithTimeouts(relay.Timeouts{
				Light: cfg.Timeouts.Light,
				Text:  cfg.Timeouts.Text,
				Batch: cfg.Timeouts.Batch,
			}),
			mcpadapter.WithLogger(logger))

		logger.Info("mcp server starting", "transport", transport, "session", sess.ID(), "channel", settings.Channel)
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			if err := srv.ServeSSE(ctx, addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd, sessionsCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "http://localhost:8081", "Public base URL (only for SSE)")
	mcpCmd.Flags().String("session", "", "Session id (overrides session.id)")
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored agent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeStore, err := sessionManager()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		ids, err := mgr.List(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, id := range ids {
			s, err := mgr.Load(ctx, id)
			if err != nil {
				fmt.Fprintf(w, "%s\t<%v>\n", id, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, s.Channel, s.Strategy, s.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

// sessionManager picks Redis when an address is configured, memory otherwise,
// and applies the configured at-rest protections.
func sessionManager() (*session.Manager, func(), error) {
	var (
		store   ports.SessionStore
		locker  ports.DistributedLocker
		cleanup = func() {}
	)
	if cfg.Redis.Addr == "" {
		store, locker = memory.NewStore(), memory.NewLocker()
	} else {
		client := redisadapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		rs := redisadapter.NewStore(client,
			redisadapter.WithPrefix(cfg.Redis.Prefix),
			redisadapter.WithTTL(cfg.Redis.TTL))
		store, locker, cleanup = rs, redisadapter.NewLocker(client, cfg.Redis.Prefix), func() { _ = rs.Close() }
	}

	var mws []middleware.Middleware
	if len(cfg.Session.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(cfg.Session.Redact))
	}
	if cfg.Session.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Session.EncryptionKey)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	mgr := session.NewManager(middleware.Chain(store, mws...),
		session.WithLocker(locker),
		session.WithLockTTL(cfg.Session.LockTTL),
		session.WithLogger(logger))
	return mgr, cleanup, nil
}
