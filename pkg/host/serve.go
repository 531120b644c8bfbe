package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/progress"
)

// Serve joins channel on ch and executes incoming requests until ctx ends or
// the channel fails. Requests run concurrently up to MaxInFlight; the document
// lock keeps their mutations serialized. Progress is forwarded on the same channel.
func (x *Executor) Serve(ctx context.Context, ch ports.Channel, channel string) error {
	if channel != "" {
		join, err := domain.NewFrame(domain.FrameJoin, channel, nil)
		if err != nil {
			return err
		}
		if err := ch.Send(ctx, join); err != nil {
			return fmt.Errorf("failed to join channel %s: %w", channel, err)
		}
	}
	x.emitter.AddSink(progress.NewChannelSink(ctx, ch, channel, 256, x.logger))
	x.logger.Info("host serving", "channel", channel, "commands", len(x.router.Commands()))

	sem := make(chan struct{}, max(x.cfg.MaxInFlight, 1))
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		frame, err := ch.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("channel closed: %w", err)
		}

		switch frame.Type {
		case domain.FrameRequest:
		case domain.FrameSystem:
			var notice domain.SystemNotice
			_ = json.Unmarshal(frame.Payload, &notice)
			x.logger.Info("relay notice", "message", notice.Message, "members", notice.Members)
			continue
		default:
			continue
		}

		var req domain.CommandRequest
		if err := json.Unmarshal(frame.Payload, &req); err != nil || req.ID == "" {
			x.logger.Warn("dropping malformed request", "error", err)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			x.respond(ctx, ch, channel, req)
		}()
	}
}

func (x *Executor) respond(ctx context.Context, ch ports.Channel, channel string, req domain.CommandRequest) {
	resp := x.Execute(ctx, req)
	frame, err := domain.NewFrame(domain.FrameResponse, channel, resp)
	if err != nil {
		x.logger.Error("failed to encode response", "id", req.ID, "error", err)
		return
	}
	if err := ch.Send(ctx, frame); err != nil {
		x.logger.Warn("failed to send response", "id", req.ID, "command", req.Command, "error", err)
	}
}
