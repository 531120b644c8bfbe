package textedit

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Options tunes one replacement. Zero fields take the engine defaults.
type Options struct {
	Strategy Strategy
	Fallback domain.FontName
}

// Result describes a finished replacement.
type Result struct {
	Characters    string                    `json:"characters"`
	Strategy      Strategy                  `json:"strategy"`
	Mixed         bool                      `json:"mixed"`
	Substitutions []domain.FontSubstitution `json:"substitutions,omitempty"`
}

// Engine rewrites text targets, loading fonts through a FontLoader.
type Engine struct {
	fonts    ports.FontLoader
	fallback domain.FontName
	strategy Strategy
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

func WithFallback(f domain.FontName) Option {
	return func(e *Engine) { e.fallback = f }
}

func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine using Inter Regular as fallback and the first strategy.
func NewEngine(fonts ports.FontLoader, opts ...Option) *Engine {
	e := &Engine{
		fonts:    fonts,
		fallback: domain.DefaultFallbackFont,
		strategy: StrategyFirst,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Replace writes text into t.
func (e *Engine) Replace(ctx context.Context, t Target, text string, opts Options) (Result, error) {
	ed := &edit{
		Engine:   e,
		ctx:      ctx,
		t:        t,
		fallback: e.fallback,
		strategy: e.strategy,
		loaded:   make(map[string]error),
	}
	if !opts.Fallback.IsZero() {
		ed.fallback = opts.Fallback
	}
	if opts.Strategy != "" {
		ed.strategy = opts.Strategy
	}

	font, uniform := t.FontName()
	var err error
	switch {
	case uniform:
		err = ed.writeUniform(font, text)
	case ed.strategy == StrategyPrevail:
		err = ed.writeUniform(prevailing(t), text)
	case ed.strategy == StrategyStrict:
		err = ed.strict(text)
	case ed.strategy == StrategySmart:
		err = ed.smart(text)
	default:
		first, _ := t.RangeFontName(0, 1)
		err = ed.writeUniform(first, text)
	}
	if err != nil {
		return Result{}, err
	}

	if e.metrics != nil && len(ed.subs) > 0 {
		e.metrics.Substitutions.WithLabelValues(string(ed.strategy)).Add(float64(len(ed.subs)))
	}
	return Result{
		Characters:    t.Characters(),
		Strategy:      ed.strategy,
		Mixed:         !uniform,
		Substitutions: ed.subs,
	}, nil
}

// edit is the state of one Replace call.
type edit struct {
	*Engine
	ctx      context.Context
	t        Target
	fallback domain.FontName
	strategy Strategy

	mu     sync.Mutex
	loaded map[string]error
	subs   []domain.FontSubstitution
}

// load loads f once per edit and remembers the outcome.
func (ed *edit) load(f domain.FontName) error {
	ed.mu.Lock()
	err, seen := ed.loaded[f.Key()]
	ed.mu.Unlock()
	if seen {
		return err
	}

	err = ed.fonts.LoadFont(ed.ctx, f)

	ed.mu.Lock()
	defer ed.mu.Unlock()
	if _, seen := ed.loaded[f.Key()]; !seen {
		ed.loaded[f.Key()] = err
		if err != nil {
			ed.logger.Warn("font unavailable, using fallback",
				"font", f.String(), "fallback", ed.fallback.String(), "error", err)
			ed.subs = append(ed.subs, domain.FontSubstitution{
				Requested:  f,
				Substitute: ed.fallback,
				Reason:     err.Error(),
			})
		}
	}
	return err
}

// loadAll loads every distinct font concurrently. Failures are recorded, not returned.
func (ed *edit) loadAll(fonts []domain.FontName) {
	var g errgroup.Group
	for _, f := range uniqueFonts(fonts) {
		g.Go(func() error {
			_ = ed.load(f)
			return nil
		})
	}
	_ = g.Wait()
}

func (ed *edit) loadFallback() error {
	if err := ed.fonts.LoadFont(ed.ctx, ed.fallback); err != nil {
		return domain.Wrap(domain.KindResourceLoad, err, "failed to load fallback font %s", ed.fallback)
	}
	return nil
}

// useFont makes f the uniform font of the target, or the fallback when f cannot be loaded.
func (ed *edit) useFont(f domain.FontName) error {
	if f.IsZero() || ed.load(f) != nil {
		if err := ed.loadFallback(); err != nil {
			return err
		}
		f = ed.fallback
	}
	return ed.t.SetFontName(f)
}

func (ed *edit) writeUniform(f domain.FontName, text string) error {
	if err := ed.useFont(f); err != nil {
		return err
	}
	return ed.t.SetCharacters(text)
}

// resetToFallback satisfies the uniform-font rule before a write.
func (ed *edit) resetToFallback(text string) error {
	if err := ed.loadFallback(); err != nil {
		return err
	}
	if err := ed.t.SetFontName(ed.fallback); err != nil {
		return err
	}
	return ed.t.SetCharacters(text)
}

// apply sets f on [start,end) if f loaded; otherwise the range keeps the fallback.
func (ed *edit) apply(start, end int, f domain.FontName) error {
	if start >= end || ed.load(f) != nil {
		return nil
	}
	return ed.t.SetRangeFontName(start, end, f)
}

// prevailing returns the font covering the most characters, ties going to the
// one seen first.
func prevailing(t Target) domain.FontName {
	counts := make(map[domain.FontName]int)
	var order []domain.FontName
	for i := range t.Len() {
		f, _ := t.RangeFontName(i, i+1)
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	var best domain.FontName
	for _, f := range order {
		if counts[f] > counts[best] {
			best = f
		}
	}
	return best
}

func uniqueFonts(fonts []domain.FontName) []domain.FontName {
	seen := make(map[domain.FontName]bool, len(fonts))
	out := slices.Clone(fonts)[:0]
	for _, f := range fonts {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
