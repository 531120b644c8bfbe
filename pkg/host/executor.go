// Package host is the executor side of the channel: it owns the document and
// runs commands against it.
package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aretw0/quill/pkg/batch"
	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/progress"
	"github.com/aretw0/quill/pkg/router"
	"github.com/aretw0/quill/pkg/textedit"
	"github.com/google/uuid"
)

// Config tunes the executor.
type Config struct {
	Text        batch.Config
	Scan        batch.Config
	Strategy    textedit.Strategy
	Fallback    domain.FontName
	MaxInFlight int
}

// DefaultConfig mirrors the host defaults: text batches of 5 with a one second
// pause, scans of 10 with 50ms.
func DefaultConfig() Config {
	return Config{
		Text:        batch.Config{ChunkSize: 5, Pause: time.Second},
		Scan:        batch.Config{ChunkSize: 10, Pause: 50 * time.Millisecond},
		Strategy:    textedit.StrategyFirst,
		Fallback:    domain.DefaultFallbackFont,
		MaxInFlight: 8,
	}
}

// Executor dispatches commands to handlers that mutate the document.
type Executor struct {
	cfg     Config
	doc     *document.Document
	fonts   ports.FontLoader
	router  *router.Router
	emitter *progress.Emitter
	engine  *textedit.Engine
	texts   *batch.Processor
	scans   *batch.Processor
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures an Executor.
type Option func(*Executor)

func WithConfig(cfg Config) Option {
	return func(x *Executor) { x.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(x *Executor) { x.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(x *Executor) { x.metrics = m }
}

// WithEmitter shares an emitter, e.g. with an HTTP event stream.
func WithEmitter(e *progress.Emitter) Option {
	return func(x *Executor) { x.emitter = e }
}

// New wires an executor around doc. fonts loads faces on demand; it is usually
// the same registry the document checks against.
func New(doc *document.Document, fonts ports.FontLoader, opts ...Option) *Executor {
	x := &Executor{
		cfg:    DefaultConfig(),
		doc:    doc,
		fonts:  fonts,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.cfg.Fallback.IsZero() {
		x.cfg.Fallback = domain.DefaultFallbackFont
	}
	if x.emitter == nil {
		x.emitter = progress.NewEmitter(progress.WithLogger(x.logger), progress.WithMetrics(x.metrics))
	}
	x.engine = textedit.NewEngine(fonts,
		textedit.WithFallback(x.cfg.Fallback),
		textedit.WithStrategy(x.cfg.Strategy),
		textedit.WithLogger(x.logger),
		textedit.WithMetrics(x.metrics))
	x.texts = batch.NewProcessor(x.cfg.Text, x.emitter,
		batch.WithLogger(x.logger), batch.WithMetrics(x.metrics))
	x.scans = batch.NewProcessor(x.cfg.Scan, x.emitter,
		batch.WithLogger(x.logger), batch.WithMetrics(x.metrics))

	x.router = router.New(router.Recover(), router.Logging(x.logger))
	if x.metrics != nil {
		x.router.Use(router.Metrics(x.metrics))
	}
	x.registerHandlers()
	return x
}

func (x *Executor) Document() *document.Document { return x.doc }
func (x *Executor) Router() *router.Router       { return x.router }
func (x *Executor) Emitter() *progress.Emitter   { return x.emitter }

// Execute runs one request and always produces a response envelope.
func (x *Executor) Execute(ctx context.Context, req domain.CommandRequest) domain.CommandResponse {
	res, err := x.router.Dispatch(ctx, req.Command, req.Params)
	if err != nil {
		return failure(req.ID, err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return failure(req.ID, domain.Wrap(domain.KindInternal, err, "failed to encode %s result", req.Command))
	}
	return domain.CommandResponse{ID: req.ID, Result: data}
}

func failure(id string, err error) domain.CommandResponse {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindInternal
	}
	return domain.CommandResponse{ID: id, Error: err.Error(), ErrorKind: kind}
}

func (x *Executor) registerHandlers() {
	r := x.router
	need := router.Require("nodeId")

	r.Register("get_document_info", x.getDocumentInfo)
	r.Register("get_node_info", need(x.getNodeInfo))
	r.Register("get_nodes_info", x.getNodesInfo)
	r.Register("find_nodes", x.findNodes)

	r.Register("scan_text_nodes", need(x.scanTextNodes))
	r.Register("set_text_content", need(x.setTextContent))
	r.Register("set_multiple_text_contents", need(x.setMultipleTextContents))
	r.Register("get_styled_text_segments", need(x.getStyledTextSegments))
	r.Register("set_range_font_name", need(x.setRangeFontName))
	r.Register("load_font_async", x.loadFont)
	r.Register("create_text", x.createText)

	r.Register("move_node", need(x.moveNode))
	r.Register("resize_node", need(x.resizeNode))
	r.Register("rename_node", need(x.renameNode))
	r.Register("set_visible", need(x.setVisible))
	r.Register("set_locked", need(x.setLocked))
	r.Register("delete_node", need(x.deleteNode))
	r.Register("clone_node", need(x.cloneNode))
	r.Register("set_fill_color", need(x.setFillColor))
	r.Register("set_corner_radius", need(x.setCornerRadius))
}

// commandID returns the caller-provided id used to tag progress events.
func commandID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
