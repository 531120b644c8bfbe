package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *recorder) Publish(ev domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []domain.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ProgressEvent(nil), r.events...)
}

func TestEmit_NonDecreasingAndTerminalLast(t *testing.T) {
	rec := &recorder{}
	m := observability.NewMetrics()
	e := NewEmitter(WithSink(rec), WithLogger(logging.NewNop()), WithMetrics(m))

	assert.True(t, e.Emit(Update{CommandID: "c1", Status: domain.ProgressStarted, Progress: 0}))
	assert.True(t, e.Emit(Update{CommandID: "c1", Status: domain.ProgressInProgress, Progress: 50}))
	assert.True(t, e.Emit(Update{CommandID: "c1", Status: domain.ProgressInProgress, Progress: 20}))
	assert.True(t, e.Emit(Update{CommandID: "c1", Status: domain.ProgressCompleted, Progress: 100}))
	assert.False(t, e.Emit(Update{CommandID: "c1", Status: domain.ProgressInProgress, Progress: 100}))

	events := rec.all()
	require.Len(t, events, 4)
	prev := 0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Progress, prev)
		prev = ev.Progress
	}
	assert.Equal(t, 50, events[2].Progress, "regression clamped to last value")
	assert.Equal(t, domain.ProgressCompleted, events[3].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DroppedProgress.WithLabelValues("after_terminal")))
}

func TestEmit_ClampsRangeAndFillsChunk(t *testing.T) {
	rec := &recorder{}
	fixed := time.UnixMilli(1700000000000)
	e := NewEmitter(WithSink(rec), WithClock(func() time.Time { return fixed }))

	e.Emit(Update{
		CommandID:   "c2",
		CommandType: "set_multiple_text_contents",
		Status:      domain.ProgressInProgress,
		Progress:    140,
		Chunk:       &ChunkInfo{Current: 2, Total: 3, Size: 5},
	})

	ev := rec.all()[0]
	assert.Equal(t, 100, ev.Progress)
	assert.Equal(t, domain.FrameTypeProgress, ev.Type)
	assert.Equal(t, int64(1700000000000), ev.Timestamp)
	require.NotNil(t, ev.CurrentChunk)
	assert.Equal(t, 2, *ev.CurrentChunk)
	assert.Equal(t, 3, *ev.TotalChunks)
	assert.Equal(t, 5, *ev.ChunkSize)
}

func TestForget_AllowsReuse(t *testing.T) {
	rec := &recorder{}
	e := NewEmitter(WithSink(rec))

	e.Emit(Update{CommandID: "c3", Status: domain.ProgressError, Progress: 40})
	assert.False(t, e.Emit(Update{CommandID: "c3", Status: domain.ProgressStarted}))

	e.Forget("c3")
	assert.True(t, e.Emit(Update{CommandID: "c3", Status: domain.ProgressStarted}))
	assert.Equal(t, 0, rec.all()[1].Progress)
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub(4)
	one, cancelOne := h.Subscribe("c1")
	defer cancelOne()
	all, cancelAll := h.Subscribe("")
	defer cancelAll()

	var sink ports.ProgressSink = h
	sink.Publish(domain.ProgressEvent{CommandID: "c1", Progress: 10})
	sink.Publish(domain.ProgressEvent{CommandID: "c2", Progress: 20})

	assert.Equal(t, 10, (<-one).Progress)
	assert.Equal(t, 10, (<-all).Progress)
	assert.Equal(t, 20, (<-all).Progress)
	assert.Len(t, one, 0)
}

func TestHub_FullBufferDrops(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe("c1")
	defer cancel()

	h.Publish(domain.ProgressEvent{CommandID: "c1", Progress: 1})
	h.Publish(domain.ProgressEvent{CommandID: "c1", Progress: 2})

	assert.Equal(t, 1, (<-ch).Progress)
	assert.Len(t, ch, 0)
}

func TestHub_CancelIdempotent(t *testing.T) {
	h := NewHub(1)
	_, cancel := h.Subscribe("c1")
	cancel()
	assert.NotPanics(t, cancel)
	assert.NotPanics(t, func() { h.Publish(domain.ProgressEvent{CommandID: "c1"}) })
}
