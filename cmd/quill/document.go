package main

import (
	_ "embed"

	"github.com/aretw0/quill/pkg/batch"
	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/fonts"
	"github.com/aretw0/quill/pkg/host"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/textedit"
)

//go:embed demo.yaml
var demoDocument []byte

// newExecutor builds a host around the configured document, or the bundled demo
// document when none is set.
func newExecutor(metrics *observability.Metrics) (*host.Executor, error) {
	cache := fonts.NewCache(cfg.Host.Fonts,
		fonts.WithLatency(cfg.Host.FontLoadDelay),
		fonts.WithLogger(logger))

	var (
		doc *document.Document
		err error
	)
	if cfg.Host.Document != "" {
		doc, err = document.Load(cfg.Host.Document, document.WithFontRegistry(cache))
	} else {
		doc, err = document.Parse(demoDocument, document.WithFontRegistry(cache))
	}
	if err != nil {
		return nil, err
	}

	strategy, err := textedit.ParseStrategy(cfg.Text.Strategy)
	if err != nil {
		return nil, err
	}
	opts := []host.Option{
		host.WithLogger(logger),
		host.WithConfig(host.Config{
			Text:        batch.Config{ChunkSize: cfg.Batch.ChunkSize, Pause: cfg.Batch.ChunkPause},
			Scan:        batch.Config{ChunkSize: cfg.Batch.ScanChunkSize, Pause: cfg.Batch.ScanPause},
			Strategy:    strategy,
			Fallback:    cfg.Text.FallbackFont,
			MaxInFlight: cfg.Host.MaxInFlight,
		}),
	}
	if metrics != nil {
		opts = append(opts, host.WithMetrics(metrics))
	}
	return host.New(doc, cache, opts...), nil
}
