package progress

import (
	"log/slog"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
)

// Hub is a ProgressSink that fans events out to subscribers, keyed by command id.
// Subscribing with an empty id receives every event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.ProgressEvent]struct{}
	buffer      int
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subscribers: make(map[string]map[chan domain.ProgressEvent]struct{}),
		buffer:      buffer,
	}
}

// Subscribe returns a channel of events for commandID and a cancel func that closes it.
func (h *Hub) Subscribe(commandID string) (<-chan domain.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.ProgressEvent, h.buffer)
	if _, ok := h.subscribers[commandID]; !ok {
		h.subscribers[commandID] = make(map[chan domain.ProgressEvent]struct{})
	}
	h.subscribers[commandID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[commandID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(h.subscribers, commandID)
				}
			}
		})
	}
}

// Publish implements ports.ProgressSink. It never blocks.
func (h *Hub) Publish(ev domain.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(h.subscribers[ev.CommandID], ev)
	if ev.CommandID != "" {
		h.deliver(h.subscribers[""], ev)
	}
}

func (h *Hub) deliver(subs map[chan domain.ProgressEvent]struct{}, ev domain.ProgressEvent) {
	for ch := range subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("progress subscriber buffer full, dropping event", "command_id", ev.CommandID)
		}
	}
}
