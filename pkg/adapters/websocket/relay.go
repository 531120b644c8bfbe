package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"golang.org/x/net/websocket"
)

// peer is one connected socket. Writes go through queue so a slow peer never
// blocks the sender. channel is written only by the peer's own serve goroutine
// while holding Relay.mu.
type peer struct {
	ws      *websocket.Conn
	queue   chan domain.Frame
	channel string
}

// Relay forwards frames between the members of a named channel. A socket joins
// a channel with a join frame; every other frame it sends on that channel is
// delivered to the other members.
type Relay struct {
	mu       sync.Mutex
	channels map[string]map[*peer]struct{}

	buffer  int
	logger  *slog.Logger
	metrics *observability.Metrics
}

type RelayOption func(*Relay)

func WithLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = l }
}

func WithMetrics(m *observability.Metrics) RelayOption {
	return func(r *Relay) { r.metrics = m }
}

// WithBuffer sets the per-peer outbound queue length.
func WithBuffer(n int) RelayOption {
	return func(r *Relay) { r.buffer = n }
}

func NewRelay(opts ...RelayOption) *Relay {
	r := &Relay{
		channels: make(map[string]map[*peer]struct{}),
		buffer:   256,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler upgrades requests to websockets. Any origin is accepted.
func (r *Relay) Handler() http.Handler {
	return websocket.Server{Handler: r.serve}
}

// Members returns the number of sockets joined to channel.
func (r *Relay) Members(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[channel])
}

func (r *Relay) serve(ws *websocket.Conn) {
	p := &peer{ws: ws, queue: make(chan domain.Frame, r.buffer)}
	if r.metrics != nil {
		r.metrics.RelayClients.Inc()
		defer r.metrics.RelayClients.Dec()
	}

	done := make(chan struct{})
	defer close(done)
	go r.write(p, done)
	defer r.leave(p)

	r.notify(p, "", "Please join a channel to start chatting", 0)
	for {
		var f domain.Frame
		if err := websocket.JSON.Receive(ws, &f); err != nil {
			r.logger.Debug("relay peer disconnected", "channel", p.channel, "error", err)
			return
		}

		if f.Type == domain.FrameJoin {
			r.join(p, f.Channel)
			continue
		}
		if p.channel == "" || f.Channel != p.channel {
			r.notify(p, p.channel, "Join a channel before sending messages", 0)
			continue
		}
		r.broadcast(p, f)
	}
}

func (r *Relay) write(p *peer, done <-chan struct{}) {
	for {
		select {
		case f := <-p.queue:
			if err := websocket.JSON.Send(p.ws, f); err != nil {
				r.logger.Debug("relay write failed", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}

func (r *Relay) join(p *peer, channel string) {
	if channel == "" {
		r.notify(p, p.channel, "Channel name is required", 0)
		return
	}
	r.leave(p)

	r.mu.Lock()
	members, ok := r.channels[channel]
	if !ok {
		members = make(map[*peer]struct{})
		r.channels[channel] = members
	}
	members[p] = struct{}{}
	p.channel = channel
	n := len(members)
	others := r.othersLocked(p)
	r.mu.Unlock()

	r.logger.Info("relay peer joined", "channel", channel, "members", n)
	r.notify(p, channel, "Joined channel: "+channel, n)
	for _, o := range others {
		r.notify(o, channel, "A new peer has joined the channel", n)
	}
}

func (r *Relay) leave(p *peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.channel == "" {
		return
	}
	members := r.channels[p.channel]
	delete(members, p)
	if len(members) == 0 {
		delete(r.channels, p.channel)
	}
	p.channel = ""
}

// othersLocked lists the members sharing p's channel. r.mu must be held.
func (r *Relay) othersLocked(p *peer) []*peer {
	var out []*peer
	for o := range r.channels[p.channel] {
		if o != p {
			out = append(out, o)
		}
	}
	return out
}

func (r *Relay) broadcast(from *peer, f domain.Frame) {
	r.mu.Lock()
	others := r.othersLocked(from)
	r.mu.Unlock()

	if len(others) == 0 {
		r.notify(from, f.Channel, "No other peer on channel "+f.Channel, 1)
		return
	}
	for _, o := range others {
		r.enqueue(o, f)
	}
}

func (r *Relay) notify(p *peer, channel, msg string, members int) {
	data, _ := json.Marshal(domain.SystemNotice{Message: msg, Members: members})
	r.enqueue(p, domain.Frame{Type: domain.FrameSystem, Channel: channel, Payload: data})
}

func (r *Relay) enqueue(p *peer, f domain.Frame) {
	select {
	case p.queue <- f:
	default:
		r.logger.Warn("relay queue full, dropping frame", "channel", f.Channel, "type", f.Type)
	}
}
