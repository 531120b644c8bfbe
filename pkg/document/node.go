package document

import (
	"slices"

	"github.com/aretw0/quill/pkg/domain"
)

// Node is one element of the tree. Children are owned exclusively by their parent.
type Node struct {
	ID           string
	Type         domain.NodeType
	Name         string
	Visible      bool
	Locked       bool
	X, Y         float64
	Width        float64
	Height       float64
	Fills        []domain.Paint
	CornerRadius float64
	FontSize     float64

	text     *content
	parent   *Node
	children []*Node
}

// Parent returns the owning node, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the children in document order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// DisplayName is the name used in paths: the node name, or "Unnamed-<TYPE>".
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return "Unnamed-" + string(n.Type)
}

// Characters returns the text of a TEXT node and "" for every other type.
func (n *Node) Characters() string {
	if n.text == nil {
		return ""
	}
	return string(n.text.chars)
}

// Info renders n and, down to depth levels, its children. A negative depth is unbounded.
func (n *Node) Info(depth int) domain.NodeInfo {
	info := domain.NodeInfo{
		ID:      n.ID,
		Name:    n.Name,
		Type:    n.Type,
		Visible: n.Visible,
		Locked:  n.Locked,
		X:       n.X,
		Y:       n.Y,
		Width:   n.Width,
		Height:  n.Height,
		Fills:   slices.Clone(n.Fills),
		Radius:  n.CornerRadius,
	}
	if n.text != nil {
		info.Text = string(n.text.chars)
		if f, ok := n.text.rangeFont(0, len(n.text.chars)); ok {
			info.FontName = &f
		}
	}
	if depth != 0 {
		for _, c := range n.children {
			info.Children = append(info.Children, c.Info(depth-1))
		}
	}
	return info
}

// TextInfo describes a TEXT node for scan results.
func (n *Node) TextInfo(e Entry) domain.TextNodeInfo {
	info := domain.TextNodeInfo{
		ID:         n.ID,
		Name:       n.Name,
		Type:       string(n.Type),
		Characters: n.Characters(),
		FontSize:   n.FontSize,
		X:          n.X,
		Y:          n.Y,
		Width:      n.Width,
		Height:     n.Height,
		Path:       e.PathString(),
		Depth:      e.Depth,
	}
	if n.text != nil {
		f, uniform := n.text.rangeFont(0, len(n.text.chars))
		if !uniform {
			f = n.text.fontAt(0)
			info.Mixed = true
		}
		info.FontFamily, info.FontStyle = f.Family, f.Style
	}
	return info
}

// clone deep-copies n and its subtree, assigning fresh ids through newID.
func (n *Node) clone(newID func() string) *Node {
	c := *n
	c.ID = newID()
	c.parent = nil
	c.Fills = slices.Clone(n.Fills)
	if n.text != nil {
		t := n.text.copy()
		c.text = &t
	}
	c.children = nil
	for _, child := range n.children {
		cc := child.clone(newID)
		cc.parent = &c
		c.children = append(c.children, cc)
	}
	return &c
}
