package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/ports"
)

// ChunkInfo locates an event inside a chunked batch.
type ChunkInfo struct {
	Current int
	Total   int
	Size    int
}

// Update is the caller-facing input of Emit.
type Update struct {
	CommandID   string
	CommandType string
	Status      domain.ProgressStatus
	Progress    int
	Total       int
	Processed   int
	Chunk       *ChunkInfo
	Message     string
	Payload     map[string]any
}

// maxTerminal bounds how many finished commands are remembered.
const maxTerminal = 1024

type commandState struct {
	progress int
	terminal bool
}

// Emitter builds ProgressEvents and delivers them to every registered sink.
type Emitter struct {
	mu       sync.Mutex
	sinks    []ports.ProgressSink
	state    map[string]*commandState
	finished []string

	now     func() time.Time
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger used for dropped events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// WithMetrics counts dropped events.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Emitter) { e.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Emitter) { e.now = now }
}

// WithSink registers a sink at construction time.
func WithSink(s ports.ProgressSink) Option {
	return func(e *Emitter) { e.sinks = append(e.sinks, s) }
}

// NewEmitter creates an emitter with no sinks unless options add some.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		state:  make(map[string]*commandState),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddSink registers s for all future events.
func (e *Emitter) AddSink(s ports.ProgressSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Emit publishes u. It returns false when the event was discarded because the
// command already reached a terminal status.
func (e *Emitter) Emit(u Update) bool {
	e.mu.Lock()
	st, ok := e.state[u.CommandID]
	if !ok {
		st = &commandState{}
		e.state[u.CommandID] = st
	}
	if st.terminal {
		e.mu.Unlock()
		e.logger.Debug("progress after terminal status dropped",
			"command_id", u.CommandID, "status", u.Status)
		e.dropped("after_terminal")
		return false
	}

	p := min(max(u.Progress, 0), 100)
	if p < st.progress {
		p = st.progress
	}
	st.progress = p

	if u.Status.Terminal() {
		st.terminal = true
		e.finished = append(e.finished, u.CommandID)
		if len(e.finished) > maxTerminal {
			delete(e.state, e.finished[0])
			e.finished = e.finished[1:]
		}
	}
	sinks := e.sinks
	e.mu.Unlock()

	ev := domain.ProgressEvent{
		Type:           domain.FrameTypeProgress,
		CommandID:      u.CommandID,
		CommandType:    u.CommandType,
		Status:         u.Status,
		Progress:       p,
		TotalItems:     u.Total,
		ProcessedItems: u.Processed,
		Message:        u.Message,
		Payload:        u.Payload,
		Timestamp:      e.now().UnixMilli(),
	}
	if u.Chunk != nil {
		cur, total, size := u.Chunk.Current, u.Chunk.Total, u.Chunk.Size
		ev.CurrentChunk, ev.TotalChunks, ev.ChunkSize = &cur, &total, &size
	}

	for _, s := range sinks {
		s.Publish(ev)
	}
	return true
}

// Forget drops the remembered state of commandID.
func (e *Emitter) Forget(commandID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.state, commandID)
	for i, id := range e.finished {
		if id == commandID {
			e.finished = append(e.finished[:i], e.finished[i+1:]...)
			break
		}
	}
}

func (e *Emitter) dropped(reason string) {
	if e.metrics != nil {
		e.metrics.DroppedProgress.WithLabelValues(reason).Inc()
	}
}
