package progress

import (
	"context"
	"log/slog"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// ChannelSink forwards events as command_progress frames over a channel.
// Frames are queued and written by a single goroutine; a full queue drops events.
type ChannelSink struct {
	ch      ports.Channel
	channel string
	queue   chan domain.ProgressEvent
	logger  *slog.Logger
}

// NewChannelSink starts the writer goroutine. It stops when ctx is done.
func NewChannelSink(ctx context.Context, ch ports.Channel, channel string, buffer int, logger *slog.Logger) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &ChannelSink{
		ch:      ch,
		channel: channel,
		queue:   make(chan domain.ProgressEvent, buffer),
		logger:  logger,
	}
	go s.run(ctx)
	return s
}

// Publish implements ports.ProgressSink.
func (s *ChannelSink) Publish(ev domain.ProgressEvent) {
	select {
	case s.queue <- ev:
	default:
		s.logger.Warn("progress queue full, dropping event", "command_id", ev.CommandID, "status", ev.Status)
	}
}

func (s *ChannelSink) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.queue:
			frame, err := domain.NewFrame(domain.FrameProgress, s.channel, ev)
			if err != nil {
				s.logger.Error("failed to encode progress", "error", err)
				continue
			}
			if err := s.ch.Send(ctx, frame); err != nil {
				s.logger.Debug("failed to send progress", "command_id", ev.CommandID, "error", err)
			}
		}
	}
}
