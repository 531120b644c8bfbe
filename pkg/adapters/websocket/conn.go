// Package websocket carries channel frames over websockets: a client Conn that
// implements ports.Channel and a Relay that pairs the members of a channel.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
	"golang.org/x/net/websocket"
)

// ErrClosed is returned once the connection is gone.
var ErrClosed = errors.New("websocket: connection closed")

type inbound struct {
	frame domain.Frame
	err   error
}

// Conn is a websocket implementation of ports.Channel. Frames are JSON text messages.
type Conn struct {
	ws *websocket.Conn

	wmu  sync.Mutex
	in   chan inbound
	done chan struct{}
	once sync.Once
}

// Dial connects to a relay at url ("ws://host:port/ws").
func Dial(ctx context.Context, url, origin string) (*Conn, error) {
	if origin == "" {
		origin = "http://localhost/"
	}
	cfg, err := websocket.NewConfig(url, origin)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url %s: %w", url, err)
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay %s: %w", url, err)
	}
	return NewConn(ws), nil
}

// NewConn wraps an established websocket and starts reading from it.
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:   ws,
		in:   make(chan inbound),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	for {
		var f domain.Frame
		err := websocket.JSON.Receive(c.ws, &f)
		select {
		case c.in <- inbound{frame: f, err: err}:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *Conn) Send(ctx context.Context, frame domain.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	return websocket.JSON.Send(c.ws, frame)
}

func (c *Conn) Receive(ctx context.Context) (domain.Frame, error) {
	select {
	case in := <-c.in:
		return in.frame, in.err
	case <-c.done:
		return domain.Frame{}, ErrClosed
	case <-ctx.Done():
		return domain.Frame{}, ctx.Err()
	}
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}
