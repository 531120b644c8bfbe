// Package batch runs a work list in bounded chunks. Chunks run strictly in
// order; the items of one chunk start together and are awaited jointly, each
// succeeding or failing on its own. A pause between chunks yields the host to
// other commands. Progress is reported through a progress.Emitter.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/progress"
	"golang.org/x/sync/errgroup"
)

// Progress milestones.
const (
	planned  = 5
	finished = 95
)

// Config holds the chunk size and the pause inserted between chunks.
type Config struct {
	ChunkSize int
	Pause     time.Duration
}

// Chunk splits items into ceil(len/size) contiguous slices. A size below 1 is treated as 1.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		chunks = append(chunks, items[start:min(start+size, len(items))])
	}
	return chunks
}

// Outcome is the result of one item.
type Outcome[R any] struct {
	Value R
	Err   error
}

// Report aggregates a run. Results follow the input order.
type Report[R any] struct {
	TotalRequested int
	Succeeded      int
	Failed         int
	Chunks         int
	Results        []Outcome[R]
}

// Success reports availability over atomicity: any succeeded item counts.
func (r Report[R]) Success() bool {
	return r.Succeeded > 0
}

// Job describes one batch.
type Job[T, R any] struct {
	CommandID   string
	CommandType string
	Items       []T
	// Do handles one item. Errors and panics are captured per item.
	Do func(ctx context.Context, item T) (R, error)
	// Summary builds the payload of the completed event. Optional.
	Summary func(Report[R]) map[string]any
	// ChunkSize overrides the processor config when positive.
	ChunkSize int
}

// Processor runs jobs with a fixed chunking config.
type Processor struct {
	cfg     Config
	emitter *progress.Emitter
	sleep   func(ctx context.Context, d time.Duration)
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Processor.
type Option func(*Processor)

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithSleep replaces the inter-chunk pause, mostly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(p *Processor) { p.sleep = fn }
}

// NewProcessor creates a processor. A nil emitter disables progress.
func NewProcessor(cfg Config, emitter *progress.Emitter, opts ...Option) *Processor {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 1
	}
	p := &Processor{
		cfg:     cfg,
		emitter: emitter,
		sleep:   pause,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the processor config.
func (p *Processor) Config() Config {
	return p.cfg
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run executes job chunk by chunk. The context is only checked between chunks:
// a started chunk always finishes. When ctx ends early an error event is
// emitted and the partial report is returned with ctx's error.
func Run[T, R any](ctx context.Context, p *Processor, job Job[T, R]) (Report[R], error) {
	size := p.cfg.ChunkSize
	if job.ChunkSize > 0 {
		size = job.ChunkSize
	}
	chunks := Chunk(job.Items, size)
	total := len(job.Items)
	rep := Report[R]{
		TotalRequested: total,
		Results:        make([]Outcome[R], total),
	}
	log := p.logger.With("command_id", job.CommandID, "command", job.CommandType)

	p.emit(progress.Update{
		CommandID:   job.CommandID,
		CommandType: job.CommandType,
		Status:      domain.ProgressStarted,
		Total:       total,
		Message:     fmt.Sprintf("Starting %s for %d items", job.CommandType, total),
	})
	p.emit(progress.Update{
		CommandID:   job.CommandID,
		CommandType: job.CommandType,
		Status:      domain.ProgressInProgress,
		Progress:    planned,
		Total:       total,
		Message:     fmt.Sprintf("Planned %d items in %d chunks of %d", total, len(chunks), size),
	})

	offset := 0
	for k, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			log.Warn("batch stopped between chunks", "completed_chunks", k, "error", err)
			p.emit(progress.Update{
				CommandID:   job.CommandID,
				CommandType: job.CommandType,
				Status:      domain.ProgressError,
				Progress:    chunkProgress(k, len(chunks)),
				Total:       total,
				Processed:   offset,
				Message:     fmt.Sprintf("Stopped after %d of %d chunks: %v", k, len(chunks), err),
			})
			return rep, err
		}
		info := &progress.ChunkInfo{Current: k + 1, Total: len(chunks), Size: size}

		p.emit(progress.Update{
			CommandID:   job.CommandID,
			CommandType: job.CommandType,
			Status:      domain.ProgressInProgress,
			Progress:    chunkProgress(k, len(chunks)),
			Total:       total,
			Processed:   offset,
			Chunk:       info,
			Message:     fmt.Sprintf("Processing chunk %d/%d", k+1, len(chunks)),
		})

		succeeded, failed := runChunk(ctx, job, chunk, rep.Results[offset:offset+len(chunk)])
		rep.Succeeded += succeeded
		rep.Failed += failed
		rep.Chunks++
		offset += len(chunk)
		p.count(job.CommandType, succeeded, failed)

		p.emit(progress.Update{
			CommandID:   job.CommandID,
			CommandType: job.CommandType,
			Status:      domain.ProgressInProgress,
			Progress:    chunkProgress(k+1, len(chunks)),
			Total:       total,
			Processed:   offset,
			Chunk:       info,
			Message:     fmt.Sprintf("Chunk %d/%d done: %d succeeded, %d failed", k+1, len(chunks), succeeded, failed),
		})

		if k < len(chunks)-1 {
			p.sleep(ctx, p.cfg.Pause)
		}
	}

	var payload map[string]any
	if job.Summary != nil {
		payload = job.Summary(rep)
	}
	p.emit(progress.Update{
		CommandID:   job.CommandID,
		CommandType: job.CommandType,
		Status:      domain.ProgressCompleted,
		Progress:    100,
		Total:       total,
		Processed:   total,
		Message:     fmt.Sprintf("Completed %s: %d succeeded, %d failed", job.CommandType, rep.Succeeded, rep.Failed),
		Payload:     payload,
	})
	log.Info("batch completed", "items", total, "chunks", rep.Chunks, "succeeded", rep.Succeeded, "failed", rep.Failed)
	return rep, nil
}

// runChunk starts every item of chunk and waits for all of them.
func runChunk[T, R any](ctx context.Context, job Job[T, R], chunk []T, out []Outcome[R]) (succeeded, failed int) {
	var g errgroup.Group
	for i, item := range chunk {
		g.Go(func() error {
			out[i] = safeDo(ctx, job.Do, item)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range out {
		if o.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

func safeDo[T, R any](ctx context.Context, do func(context.Context, T) (R, error), item T) (o Outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			o = Outcome[R]{Err: domain.Errorf(domain.KindInternal, "item panicked: %v", r)}
		}
	}()
	v, err := do(ctx, item)
	return Outcome[R]{Value: v, Err: err}
}

// chunkProgress maps k of n finished chunks onto the planned..finished range.
func chunkProgress(k, n int) int {
	if n == 0 {
		return finished
	}
	return planned + ((finished-planned)*k+n/2)/n
}

func (p *Processor) emit(u progress.Update) {
	if p.emitter != nil {
		p.emitter.Emit(u)
	}
}

func (p *Processor) count(command string, succeeded, failed int) {
	if p.metrics == nil {
		return
	}
	p.metrics.BatchItems.WithLabelValues(command, "ok").Add(float64(succeeded))
	p.metrics.BatchItems.WithLabelValues(command, "error").Add(float64(failed))
}
