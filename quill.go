package quill

import (
	"context"
	"fmt"

	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/adapters/websocket"
	"github.com/aretw0/quill/pkg/host"
	"github.com/aretw0/quill/pkg/relay"
)

// Connect dials the relay at url and returns a started client on channel.
// The client is closed when ctx ends.
func Connect(ctx context.Context, url, channel string, opts ...relay.Option) (*relay.Client, error) {
	conn, err := websocket.Dial(ctx, url, "")
	if err != nil {
		return nil, err
	}
	c := relay.NewClient(conn, append([]relay.Option{relay.WithChannel(channel)}, opts...)...)
	if err := c.Start(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to join channel %s: %w", channel, err)
	}
	return c, nil
}

// ServeHost dials the relay at url and runs x on channel until ctx ends.
func ServeHost(ctx context.Context, url, channel string, x *host.Executor) error {
	conn, err := websocket.Dial(ctx, url, "")
	if err != nil {
		return err
	}
	defer conn.Close()
	return x.Serve(ctx, conn, channel)
}

// Local runs x in-process and returns a client wired to it through a memory
// pipe. stop shuts both ends down and waits for the host to finish.
func Local(ctx context.Context, x *host.Executor, opts ...relay.Option) (client *relay.Client, stop func() error) {
	ctx, cancel := context.WithCancel(ctx)
	agent, plugin := memory.NewPipe(64)

	served := make(chan error, 1)
	go func() { served <- x.Serve(ctx, plugin, "") }()

	client = relay.NewClient(agent, opts...)
	if err := client.Start(ctx); err != nil {
		cancel()
		return client, func() error { return err }
	}
	return client, func() error {
		cancel()
		_ = client.Close()
		return <-served
	}
}
