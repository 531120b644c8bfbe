package host

import (
	"context"
	"slices"
	"sort"

	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

func (x *Executor) getDocumentInfo(ctx context.Context, params map[string]any) (any, error) {
	x.doc.RLock()
	defer x.doc.RUnlock()

	info := x.doc.Root().Info(2)
	return map[string]any{
		"id":        info.ID,
		"name":      info.Name,
		"type":      info.Type,
		"children":  info.Children,
		"nodeCount": x.doc.Len(),
	}, nil
}

func (x *Executor) getNodeInfo(ctx context.Context, params map[string]any) (any, error) {
	var p nodeInfoParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	depth := 1
	if p.Depth != nil {
		depth = *p.Depth
	}

	x.doc.RLock()
	defer x.doc.RUnlock()
	n, err := x.doc.Get(p.NodeID)
	if err != nil {
		return nil, err
	}
	return n.Info(depth), nil
}

func (x *Executor) getNodesInfo(ctx context.Context, params map[string]any) (any, error) {
	var p nodesInfoParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if len(p.NodeIDs) == 0 {
		return nil, domain.Errorf(domain.KindValidation, "missing nodeIds parameter")
	}

	x.doc.RLock()
	defer x.doc.RUnlock()
	nodes := make([]domain.NodeInfo, 0, len(p.NodeIDs))
	missing := []string{}
	for _, id := range p.NodeIDs {
		n, err := x.doc.Get(id)
		if err != nil {
			missing = append(missing, id)
			continue
		}
		nodes = append(nodes, n.Info(0))
	}
	return map[string]any{"nodes": nodes, "missing": missing}, nil
}

// findNodes ranks visible nodes by fuzzy match of their display name.
func (x *Executor) findNodes(ctx context.Context, params map[string]any) (any, error) {
	var p findParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Query == "" {
		return nil, domain.Errorf(domain.KindValidation, "missing query parameter")
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}

	x.doc.RLock()
	defer x.doc.RUnlock()

	root := x.doc.Root()
	if p.NodeID != "" {
		n, err := x.doc.Get(p.NodeID)
		if err != nil {
			return nil, err
		}
		root = n
	}

	entries := document.Collect(root, func(n *document.Node) bool {
		return len(p.Types) == 0 || slices.Contains(p.Types, string(n.Type))
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Node.DisplayName()
	}

	ranks := fuzzy.RankFindFold(p.Query, names)
	sort.Stable(ranks)

	type match struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Type     domain.NodeType `json:"type"`
		Path     string          `json:"path"`
		Distance int             `json:"distance"`
	}
	matches := make([]match, 0, min(len(ranks), p.Limit))
	for _, r := range ranks {
		if len(matches) == p.Limit {
			break
		}
		e := entries[r.OriginalIndex]
		matches = append(matches, match{
			ID:       e.Node.ID,
			Name:     e.Node.Name,
			Type:     e.Node.Type,
			Path:     e.PathString(),
			Distance: r.Distance,
		})
	}
	return map[string]any{"query": p.Query, "matches": matches}, nil
}

type segment struct {
	Start      int             `json:"start"`
	End        int             `json:"end"`
	Characters string          `json:"characters"`
	FontName   domain.FontName `json:"fontName"`
}

func (x *Executor) getStyledTextSegments(ctx context.Context, params map[string]any) (any, error) {
	var p segmentsParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Property != "" && p.Property != "fontName" {
		return nil, domain.Errorf(domain.KindValidation, "unsupported segment property %q", p.Property)
	}

	x.doc.RLock()
	defer x.doc.RUnlock()
	t, err := x.doc.Text(p.NodeID)
	if err != nil {
		return nil, err
	}
	chars := []rune(t.Characters())
	segments := []segment{}
	for _, r := range t.Runs() {
		segments = append(segments, segment{
			Start:      r.Start,
			End:        r.End,
			Characters: string(chars[r.Start:r.End]),
			FontName:   r.Font,
		})
	}
	return map[string]any{"nodeId": p.NodeID, "segments": segments}, nil
}
