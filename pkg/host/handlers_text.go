package host

import (
	"context"
	"fmt"

	"github.com/aretw0/quill/pkg/batch"
	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/progress"
	"github.com/aretw0/quill/pkg/textedit"
)

const (
	cmdScan  = "scan_text_nodes"
	cmdBatch = "set_multiple_text_contents"
)

func (x *Executor) textOptions(strategy string, fallback domain.FontName) (textedit.Options, error) {
	opts := textedit.Options{Fallback: fallback}
	if strategy != "" {
		s, err := textedit.ParseStrategy(strategy)
		if err != nil {
			return opts, domain.Wrap(domain.KindValidation, err, "invalid strategy")
		}
		opts.Strategy = s
	}
	return opts, nil
}

// replace rewrites one text node under the document lock.
func (x *Executor) replace(ctx context.Context, nodeID, text string, opts textedit.Options) (domain.ReplacementResult, error) {
	x.doc.Lock()
	defer x.doc.Unlock()

	out := domain.ReplacementResult{NodeID: nodeID, NewText: text}
	t, err := x.doc.Text(nodeID)
	if err != nil {
		return out, err
	}
	out.OriginalText = t.Characters()

	res, err := x.engine.Replace(ctx, t, text, opts)
	if err != nil {
		return out, err
	}
	out.Success = true
	out.Strategy = string(res.Strategy)
	out.Substitutions = res.Substitutions
	return out, nil
}

func (x *Executor) setTextContent(ctx context.Context, params map[string]any) (any, error) {
	var p textParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Text == nil {
		return nil, domain.Errorf(domain.KindValidation, "missing text parameter")
	}
	opts, err := x.textOptions(p.Strategy, p.FallbackFont)
	if err != nil {
		return nil, err
	}

	res, err := x.replace(ctx, p.NodeID, *p.Text, opts)
	if err != nil {
		return nil, err
	}
	x.doc.RLock()
	n, err := x.doc.Get(p.NodeID)
	name := ""
	if err == nil {
		name = n.Name
	}
	x.doc.RUnlock()

	return map[string]any{
		"id":            p.NodeID,
		"name":          name,
		"characters":    res.NewText,
		"strategy":      res.Strategy,
		"substitutions": res.Substitutions,
	}, nil
}

// setMultipleTextContents replaces many text nodes in chunks, streaming progress.
func (x *Executor) setMultipleTextContents(ctx context.Context, params map[string]any) (any, error) {
	var p batchTextParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	id := commandID(p.CommandID)
	if len(p.Text) == 0 {
		x.failProgress(id, cmdBatch, "No text replacements provided")
		return nil, domain.Errorf(domain.KindValidation, "missing text parameter: provide at least one {nodeId, text} replacement")
	}
	opts, err := x.textOptions(p.Strategy, p.FallbackFont)
	if err != nil {
		x.failProgress(id, cmdBatch, err.Error())
		return nil, err
	}

	rep, err := batch.Run(ctx, x.texts, batch.Job[domain.TextReplacement, domain.ReplacementResult]{
		CommandID:   id,
		CommandType: cmdBatch,
		Items:       p.Text,
		ChunkSize:   p.ChunkSize,
		Do: func(ctx context.Context, item domain.TextReplacement) (domain.ReplacementResult, error) {
			if item.NodeID == "" || item.Text == nil {
				return domain.ReplacementResult{}, domain.Errorf(domain.KindValidation, "missing nodeId or text in replacement")
			}
			return x.replace(ctx, item.NodeID, *item.Text, opts)
		},
		Summary: func(r batch.Report[domain.ReplacementResult]) map[string]any {
			return map[string]any{
				"totalReplacements":   r.TotalRequested,
				"replacementsApplied": r.Succeeded,
				"replacementsFailed":  r.Failed,
				"completedInChunks":   r.Chunks,
			}
		},
	})

	report := domain.BatchReport{
		CommandID:      id,
		NodeID:         p.NodeID,
		Success:        rep.Success(),
		TotalRequested: rep.TotalRequested,
		Succeeded:      rep.Succeeded,
		Failed:         rep.Failed,
		Chunks:         rep.Chunks,
		Results:        make([]domain.ReplacementResult, 0, len(rep.Results)),
	}
	for i, o := range rep.Results[:rep.Succeeded+rep.Failed] {
		r := o.Value
		r.NodeID = p.Text[i].NodeID
		if o.Err != nil {
			r.Success = false
			r.Error = o.Err.Error()
			r.ErrorKind = domain.KindOf(o.Err)
		}
		report.Results = append(report.Results, r)
	}
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, err, "batch stopped after %d of %d replacements", len(report.Results), rep.TotalRequested)
	}
	return report, nil
}

// scanTextNodes walks the subtree below nodeId and reports every visible text node.
func (x *Executor) scanTextNodes(ctx context.Context, params map[string]any) (any, error) {
	var p scanParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	id := commandID(p.CommandID)

	x.doc.RLock()
	root, err := x.doc.Get(p.NodeID)
	var entries []document.Entry
	if err == nil {
		entries = document.Collect(root, nil)
	}
	x.doc.RUnlock()
	if err != nil {
		x.failProgress(id, cmdScan, fmt.Sprintf("Node not found: %s", p.NodeID))
		return nil, err
	}

	if p.UseChunking != nil && !*p.UseChunking {
		return x.scanAll(id, entries), nil
	}

	rep, err := batch.Run(ctx, x.scans, batch.Job[document.Entry, *domain.TextNodeInfo]{
		CommandID:   id,
		CommandType: cmdScan,
		Items:       entries,
		ChunkSize:   p.ChunkSize,
		Do: func(ctx context.Context, e document.Entry) (*domain.TextNodeInfo, error) {
			if e.Node.Type != domain.NodeTypeText {
				return nil, nil
			}
			x.doc.RLock()
			defer x.doc.RUnlock()
			info := e.Node.TextInfo(e)
			return &info, nil
		},
		Summary: func(r batch.Report[*domain.TextNodeInfo]) map[string]any {
			return map[string]any{"processedNodes": r.TotalRequested, "chunks": r.Chunks}
		},
	})
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, err, "scan stopped after %d chunks", rep.Chunks)
	}

	texts := []domain.TextNodeInfo{}
	for _, o := range rep.Results {
		if o.Err == nil && o.Value != nil {
			texts = append(texts, *o.Value)
		}
	}
	return domain.ScanReport{
		CommandID:      id,
		Success:        true,
		Message:        fmt.Sprintf("Scanned %d nodes in %d chunks, found %d text nodes", len(entries), rep.Chunks, len(texts)),
		ProcessedNodes: len(entries),
		Chunks:         rep.Chunks,
		TextNodes:      texts,
	}, nil
}

// scanAll collects the text nodes of entries in one pass, bracketed by a started
// and a completed event.
func (x *Executor) scanAll(id string, entries []document.Entry) domain.ScanReport {
	x.emitter.Emit(progress.Update{
		CommandID:   id,
		CommandType: cmdScan,
		Status:      domain.ProgressStarted,
		Total:       len(entries),
		Message:     "Starting scan of text nodes",
	})

	x.doc.RLock()
	texts := []domain.TextNodeInfo{}
	for _, e := range entries {
		if e.Node.Type == domain.NodeTypeText {
			texts = append(texts, e.Node.TextInfo(e))
		}
	}
	x.doc.RUnlock()

	msg := fmt.Sprintf("Scanned %d nodes, found %d text nodes", len(entries), len(texts))
	x.emitter.Emit(progress.Update{
		CommandID:   id,
		CommandType: cmdScan,
		Status:      domain.ProgressCompleted,
		Progress:    100,
		Total:       len(entries),
		Processed:   len(entries),
		Message:     msg,
		Payload:     map[string]any{"textNodes": texts},
	})
	return domain.ScanReport{
		CommandID:      id,
		Success:        true,
		Message:        msg,
		ProcessedNodes: len(entries),
		TextNodes:      texts,
	}
}

func (x *Executor) setRangeFontName(ctx context.Context, params map[string]any) (any, error) {
	var p rangeFontParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	font := domain.FontName{Family: p.FontFamily, Style: p.FontStyle}
	if font.Style == "" {
		font.Style = "Regular"
	}
	if font.IsZero() {
		return nil, domain.Errorf(domain.KindValidation, "missing fontFamily parameter")
	}
	if err := x.fonts.LoadFont(ctx, font); err != nil {
		return nil, err
	}

	x.doc.Lock()
	defer x.doc.Unlock()
	t, err := x.doc.Text(p.NodeID)
	if err != nil {
		return nil, err
	}
	if err := t.SetRangeFontName(p.Start, p.End, font); err != nil {
		return nil, err
	}
	return map[string]any{"nodeId": p.NodeID, "start": p.Start, "end": p.End, "fontName": font}, nil
}

func (x *Executor) loadFont(ctx context.Context, params map[string]any) (any, error) {
	var p fontParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Family == "" {
		return nil, domain.Errorf(domain.KindValidation, "missing family parameter")
	}
	if p.Style == "" {
		p.Style = "Regular"
	}
	font := domain.FontName{Family: p.Family, Style: p.Style}
	if err := x.fonts.LoadFont(ctx, font); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "family": font.Family, "style": font.Style}, nil
}

func (x *Executor) createText(ctx context.Context, params map[string]any) (any, error) {
	var p createTextParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	font := x.cfg.Fallback
	if p.FontFamily != "" {
		font = domain.FontName{Family: p.FontFamily, Style: p.FontStyle}
		if font.Style == "" {
			font.Style = "Regular"
		}
	}
	if err := x.fonts.LoadFont(ctx, font); err != nil {
		return nil, err
	}

	x.doc.Lock()
	defer x.doc.Unlock()
	parent, err := x.parentFor(p.ParentID)
	if err != nil {
		return nil, err
	}
	n, err := x.doc.NewText(parent, p.Name, p.Text, font)
	if err != nil {
		return nil, err
	}
	n.X, n.Y = p.X, p.Y
	if p.FontSize > 0 {
		n.FontSize = p.FontSize
	}
	if n.Name == "" {
		n.Name = p.Text
	}
	return n.Info(0), nil
}

// parentFor resolves an explicit parent or falls back to the first page.
func (x *Executor) parentFor(id string) (*document.Node, error) {
	if id != "" {
		return x.doc.Require(id, domain.CapChildren)
	}
	for _, c := range x.doc.Root().Children() {
		if c.Type == domain.NodeTypePage {
			return c, nil
		}
	}
	return x.doc.Root(), nil
}

// failProgress emits a lone terminal error event for a batch that could not start.
func (x *Executor) failProgress(id, command, message string) {
	x.emitter.Emit(progress.Update{
		CommandID:   id,
		CommandType: command,
		Status:      domain.ProgressError,
		Message:     message,
	})
}
