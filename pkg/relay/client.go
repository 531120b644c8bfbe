package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/google/uuid"
)

// DefaultTimeout applies when Send is given no timeout.
const DefaultTimeout = 30 * time.Second

// ProgressFunc receives progress events for a request.
type ProgressFunc func(domain.ProgressEvent)

type result struct {
	data json.RawMessage
	err  error
}

type pendingRequest struct {
	command      string
	done         chan result
	timer        *time.Timer
	timeout      time.Duration
	lastActivity time.Time
	onProgress   ProgressFunc
}

// Client sends commands over a channel and waits for their responses.
type Client struct {
	ch      ports.Channel
	channel string
	timeout time.Duration
	newID   func() string
	logger  *slog.Logger
	metrics *observability.Metrics

	mu         sync.Mutex
	pending    map[string]*pendingRequest
	lost       error
	onProgress ProgressFunc
}

// Option configures a Client.
type Option func(*Client)

// WithChannel sets the relay channel name stamped on outgoing frames.
func WithChannel(name string) Option {
	return func(c *Client) { c.channel = name }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithProgress observes every progress event, pending or not.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) { c.onProgress = fn }
}

// WithIDGenerator overrides the request id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// NewClient creates a client over ch. Call Start before sending.
func NewClient(ch ports.Channel, opts ...Option) *Client {
	c := &Client{
		ch:      ch,
		timeout: DefaultTimeout,
		newID:   uuid.NewString,
		logger:  slog.Default(),
		pending: make(map[string]*pendingRequest),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start joins the channel and reads responses until ctx ends or the channel fails.
func (c *Client) Start(ctx context.Context) error {
	if c.channel != "" {
		join, err := domain.NewFrame(domain.FrameJoin, c.channel, nil)
		if err != nil {
			return err
		}
		if err := c.ch.Send(ctx, join); err != nil {
			return fmt.Errorf("failed to join channel %s: %w", c.channel, err)
		}
	}
	go c.readLoop(ctx)
	return nil
}

// Close releases the channel and rejects everything still pending.
func (c *Client) Close() error {
	err := c.ch.Close()
	c.fail(errors.New("client closed"))
	return err
}

// Pending returns the number of requests awaiting a response.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Send transmits command and waits for its result.
func (c *Client) Send(ctx context.Context, command string, params map[string]any, timeout time.Duration) (json.RawMessage, error) {
	return c.SendWithProgress(ctx, command, params, timeout, nil)
}

// SendWithProgress is Send with a callback for the request's progress events.
// The request id is added to params as commandId so the host tags its events.
func (c *Client) SendWithProgress(ctx context.Context, command string, params map[string]any, timeout time.Duration, onProgress ProgressFunc) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	id := c.newID()
	p := &pendingRequest{
		command:      command,
		done:         make(chan result, 1),
		timeout:      timeout,
		lastActivity: time.Now(),
		onProgress:   onProgress,
	}

	c.mu.Lock()
	if c.lost != nil {
		err := c.lost
		c.mu.Unlock()
		return nil, domain.Wrap(domain.KindConnectionLost, err, "not connected")
	}
	c.pending[id] = p
	p.timer = time.AfterFunc(timeout, func() { c.expire(id) })
	c.mu.Unlock()
	c.gauge()

	args := make(map[string]any, len(params)+1)
	maps.Copy(args, params)
	args["commandId"] = id

	frame, err := domain.NewFrame(domain.FrameRequest, c.channel, domain.CommandRequest{
		ID:      id,
		Command: command,
		Params:  args,
	})
	if err != nil {
		c.settle(id, result{})
		return nil, domain.Wrap(domain.KindValidation, err, "failed to encode %s request", command)
	}
	if err := c.ch.Send(ctx, frame); err != nil {
		c.settle(id, result{})
		return nil, domain.Wrap(domain.KindConnectionLost, err, "failed to send %s", command)
	}
	c.logger.Debug("request sent", "id", id, "command", command, "timeout", timeout)

	select {
	case res := <-p.done:
		return res.data, res.err
	case <-ctx.Done():
		c.settle(id, result{})
		return nil, ctx.Err()
	}
}

// settle removes id and delivers res. It reports false when id was already settled.
func (c *Client) settle(id string, res result) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		p.timer.Stop()
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.gauge()
	p.done <- res
	return true
}

// expire fires when a request's timer runs out. Recent activity re-arms the timer.
func (c *Client) expire(id string) {
	c.mu.Lock()
	p, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	if idle := time.Since(p.lastActivity); idle < p.timeout {
		p.timer.Reset(p.timeout - idle)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	err := domain.Errorf(domain.KindTimeout, "%s timed out after %s", p.command, p.timeout)
	if c.settle(id, result{err: err}) {
		c.logger.Warn("request timed out", "id", id, "command", p.command, "timeout", p.timeout)
	}
}

// fail rejects every pending request with a connection_lost error and refuses new ones.
func (c *Client) fail(cause error) {
	c.mu.Lock()
	if c.lost == nil {
		c.lost = cause
	}
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	for id, p := range pending {
		p.timer.Stop()
		p.done <- result{err: domain.Wrap(domain.KindConnectionLost, cause, "connection lost while waiting for %s", p.command)}
		c.logger.Debug("request rejected", "id", id, "command", p.command)
	}
	c.gauge()
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		frame, err := c.ch.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("channel lost", "error", err)
			}
			c.fail(err)
			return
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame domain.Frame) {
	switch frame.Type {
	case domain.FrameResponse:
		var resp domain.CommandResponse
		if err := json.Unmarshal(frame.Payload, &resp); err != nil {
			c.logger.Warn("invalid response frame", "error", err)
			return
		}
		res := result{data: resp.Result}
		if resp.Failed() {
			res = result{err: resp.Err()}
		}
		if !c.settle(resp.ID, res) {
			c.logger.Debug("late or unknown response dropped", "id", resp.ID)
		}

	case domain.FrameProgress:
		var ev domain.ProgressEvent
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			c.logger.Warn("invalid progress frame", "error", err)
			return
		}
		c.mu.Lock()
		var fn ProgressFunc
		if p, ok := c.pending[ev.CommandID]; ok {
			p.lastActivity = time.Now()
			fn = p.onProgress
		}
		c.mu.Unlock()
		if fn != nil {
			fn(ev)
		}
		if c.onProgress != nil {
			c.onProgress(ev)
		}

	case domain.FrameSystem:
		var notice domain.SystemNotice
		_ = json.Unmarshal(frame.Payload, &notice)
		c.logger.Info("relay notice", "message", notice.Message, "members", notice.Members)

	default:
		c.logger.Debug("ignoring frame", "type", frame.Type)
	}
}

func (c *Client) gauge() {
	if c.metrics != nil {
		c.metrics.PendingRequests.Set(float64(c.Pending()))
	}
}
