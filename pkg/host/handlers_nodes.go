package host

import (
	"context"

	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/lucasb-eyer/go-colorful"
)

// mutate decodes params into p, resolves the node with capability c under the
// write lock and applies fn.
func mutate[P any](x *Executor, params map[string]any, p *P, nodeID func(*P) string, c domain.Capability, fn func(*document.Node, *P) error) (any, error) {
	if err := decode(params, p); err != nil {
		return nil, err
	}
	x.doc.Lock()
	defer x.doc.Unlock()

	var (
		n   *document.Node
		err error
	)
	if c == 0 {
		n, err = x.doc.Get(nodeID(p))
	} else {
		n, err = x.doc.Require(nodeID(p), c)
	}
	if err != nil {
		return nil, err
	}
	if err := fn(n, p); err != nil {
		return nil, err
	}
	return n.Info(0), nil
}

func (x *Executor) moveNode(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &moveParams{}, func(p *moveParams) string { return p.NodeID }, domain.CapGeometry,
		func(n *document.Node, p *moveParams) error {
			if p.X == nil || p.Y == nil {
				return domain.Errorf(domain.KindValidation, "missing x or y parameters")
			}
			n.X, n.Y = *p.X, *p.Y
			return nil
		})
}

func (x *Executor) resizeNode(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &resizeParams{}, func(p *resizeParams) string { return p.NodeID }, domain.CapGeometry,
		func(n *document.Node, p *resizeParams) error {
			if p.Width <= 0 || p.Height <= 0 {
				return domain.Errorf(domain.KindValidation, "width and height must be positive")
			}
			n.Width, n.Height = p.Width, p.Height
			return nil
		})
}

func (x *Executor) renameNode(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &renameParams{}, func(p *renameParams) string { return p.NodeID }, 0,
		func(n *document.Node, p *renameParams) error {
			if n.Parent() == nil {
				return domain.Errorf(domain.KindUnsupported, "cannot rename the document root")
			}
			n.Name = p.Name
			return nil
		})
}

func (x *Executor) setVisible(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &flagParams{}, func(p *flagParams) string { return p.NodeID }, 0,
		func(n *document.Node, p *flagParams) error {
			if p.Visible == nil {
				return domain.Errorf(domain.KindValidation, "missing visible parameter")
			}
			n.Visible = *p.Visible
			return nil
		})
}

func (x *Executor) setLocked(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &flagParams{}, func(p *flagParams) string { return p.NodeID }, 0,
		func(n *document.Node, p *flagParams) error {
			if p.Locked == nil {
				return domain.Errorf(domain.KindValidation, "missing locked parameter")
			}
			n.Locked = *p.Locked
			return nil
		})
}

func (x *Executor) setCornerRadius(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &radiusParams{}, func(p *radiusParams) string { return p.NodeID }, domain.CapCornerRadius,
		func(n *document.Node, p *radiusParams) error {
			if p.Radius == nil || *p.Radius < 0 {
				return domain.Errorf(domain.KindValidation, "radius must be a non-negative number")
			}
			n.CornerRadius = *p.Radius
			return nil
		})
}

// setFillColor accepts either an rgba object with components in [0,1] or a hex string.
func (x *Executor) setFillColor(ctx context.Context, params map[string]any) (any, error) {
	return mutate(x, params, &fillParams{}, func(p *fillParams) string { return p.NodeID }, domain.CapFills,
		func(n *document.Node, p *fillParams) error {
			c, err := fillColor(p)
			if err != nil {
				return err
			}
			n.Fills = []domain.Paint{domain.SolidPaint(c)}
			return nil
		})
}

func fillColor(p *fillParams) (domain.Color, error) {
	alpha := 1.0
	if p.Alpha != nil {
		alpha = *p.Alpha
	}
	var c domain.Color
	switch {
	case p.Hex != "":
		hc, err := colorful.Hex(p.Hex)
		if err != nil {
			return c, domain.Wrap(domain.KindValidation, err, "invalid hex color %q", p.Hex)
		}
		c = domain.Color{R: hc.R, G: hc.G, B: hc.B, A: alpha}
	case p.Color != nil:
		c = *p.Color
		if p.Alpha != nil || c.A == 0 {
			c.A = alpha
		}
	default:
		return c, domain.Errorf(domain.KindValidation, "missing color or hex parameter")
	}
	for _, v := range []float64{c.R, c.G, c.B, c.A} {
		if v < 0 || v > 1 {
			return c, domain.Errorf(domain.KindValidation, "color components must be within [0,1]")
		}
	}
	return c, nil
}

func (x *Executor) deleteNode(ctx context.Context, params map[string]any) (any, error) {
	var p nodeParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	x.doc.Lock()
	defer x.doc.Unlock()

	n, err := x.doc.Get(p.NodeID)
	if err != nil {
		return nil, err
	}
	info := map[string]any{"id": n.ID, "name": n.Name, "type": n.Type}
	if err := x.doc.Remove(p.NodeID); err != nil {
		return nil, err
	}
	return info, nil
}

func (x *Executor) cloneNode(ctx context.Context, params map[string]any) (any, error) {
	var p cloneParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	x.doc.Lock()
	defer x.doc.Unlock()

	move := p.X != nil && p.Y != nil
	if move {
		if _, err := x.doc.Require(p.NodeID, domain.CapGeometry); err != nil {
			return nil, err
		}
	}
	c, err := x.doc.Clone(p.NodeID)
	if err != nil {
		return nil, err
	}
	if move {
		c.X, c.Y = *p.X, *p.Y
	}
	return c.Info(0), nil
}
