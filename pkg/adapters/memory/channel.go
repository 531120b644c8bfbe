package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
)

// ErrClosed is returned by a Conn after either end closed the pipe.
var ErrClosed = errors.New("memory channel closed")

// Conn is one end of an in-process duplex pipe. It implements ports.Channel.
type Conn struct {
	in     <-chan domain.Frame
	out    chan<- domain.Frame
	closed chan struct{}
	once   *sync.Once
}

// NewPipe returns two connected ends. Each direction buffers buffer frames.
func NewPipe(buffer int) (*Conn, *Conn) {
	ab := make(chan domain.Frame, buffer)
	ba := make(chan domain.Frame, buffer)
	closed := make(chan struct{})
	once := &sync.Once{}
	return &Conn{in: ba, out: ab, closed: closed, once: once},
		&Conn{in: ab, out: ba, closed: closed, once: once}
}

func (c *Conn) Send(ctx context.Context, frame domain.Frame) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.out <- frame:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Receive(ctx context.Context) (domain.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return domain.Frame{}, ErrClosed
	case <-ctx.Done():
		return domain.Frame{}, ctx.Err()
	}
}

// Close shuts both ends.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
