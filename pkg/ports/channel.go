package ports

import (
	"context"

	"github.com/aretw0/quill/pkg/domain"
)

// Channel is the duplex transport between the automation caller and the host executor.
// Implementations must allow Send and Receive to be called from different goroutines.
type Channel interface {
	// Send transmits a frame. It must not block indefinitely once ctx is done.
	Send(ctx context.Context, frame domain.Frame) error

	// Receive blocks until the next frame arrives, the channel is closed, or ctx is done.
	// Any error other than ctx's is treated as loss of the channel.
	Receive(ctx context.Context) (domain.Frame, error)

	// Close releases the transport. Pending Receive calls return an error.
	Close() error
}

// ProgressSink accepts progress events. Publish must never block the caller.
type ProgressSink interface {
	Publish(event domain.ProgressEvent)
}

// ProgressSinkFunc adapts a function to ProgressSink.
type ProgressSinkFunc func(domain.ProgressEvent)

// Publish calls f(event).
func (f ProgressSinkFunc) Publish(event domain.ProgressEvent) {
	f(event)
}
