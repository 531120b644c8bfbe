package document

import (
	"fmt"
	"os"

	"github.com/aretw0/quill/pkg/domain"
	"gopkg.in/yaml.v3"
)

// NodeSpec is the YAML form of a node, used for fixtures and snapshots.
type NodeSpec struct {
	ID           string            `yaml:"id"`
	Type         domain.NodeType   `yaml:"type"`
	Name         string            `yaml:"name,omitempty"`
	Visible      *bool             `yaml:"visible,omitempty"`
	Locked       bool              `yaml:"locked,omitempty"`
	X            float64           `yaml:"x,omitempty"`
	Y            float64           `yaml:"y,omitempty"`
	Width        float64           `yaml:"width,omitempty"`
	Height       float64           `yaml:"height,omitempty"`
	Fills        []domain.Paint    `yaml:"fills,omitempty"`
	CornerRadius float64           `yaml:"corner_radius,omitempty"`
	FontSize     float64           `yaml:"font_size,omitempty"`
	Characters   string            `yaml:"characters,omitempty"`
	Font         domain.FontName   `yaml:"font,omitempty"`
	Runs         []domain.StyleRun `yaml:"runs,omitempty"`
	Children     []NodeSpec        `yaml:"children,omitempty"`
}

// Load reads a YAML document fixture from path.
func Load(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data, opts...)
}

// Parse decodes a YAML fixture and validates the tree.
func Parse(data []byte, opts ...Option) (*Document, error) {
	var spec NodeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return Build(spec, opts...)
}

// Build turns a spec tree into a Document. The root must be a DOCUMENT node.
func Build(spec NodeSpec, opts ...Option) (*Document, error) {
	if spec.Type != domain.NodeTypeDocument {
		return nil, fmt.Errorf("root node must be %s, got %q", domain.NodeTypeDocument, spec.Type)
	}
	seen := make(map[string]bool)
	root, err := buildNode(spec, seen)
	if err != nil {
		return nil, err
	}
	return New(root, opts...), nil
}

func buildNode(s NodeSpec, seen map[string]bool) (*Node, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("node %q has no id", s.Name)
	}
	if seen[s.ID] {
		return nil, fmt.Errorf("duplicate node id %s", s.ID)
	}
	seen[s.ID] = true
	if !s.Type.Valid() {
		return nil, fmt.Errorf("node %s: unknown type %q", s.ID, s.Type)
	}

	n := &Node{
		ID:           s.ID,
		Type:         s.Type,
		Name:         s.Name,
		Visible:      s.Visible == nil || *s.Visible,
		Locked:       s.Locked,
		X:            s.X,
		Y:            s.Y,
		Width:        s.Width,
		Height:       s.Height,
		Fills:        s.Fills,
		CornerRadius: s.CornerRadius,
		FontSize:     s.FontSize,
	}

	if s.Type == domain.NodeTypeText {
		font := s.Font
		if font.IsZero() {
			font = domain.DefaultFallbackFont
		}
		c := newContent(s.Characters, font)
		if len(s.Runs) > 0 {
			c.runs = append([]domain.StyleRun(nil), s.Runs...)
			c.base = c.runs[0].Font
			if !c.valid() {
				return nil, fmt.Errorf("node %s: runs do not partition the text", s.ID)
			}
		}
		if n.FontSize == 0 {
			n.FontSize = 14
		}
		n.text = &c
	} else if s.Characters != "" || len(s.Runs) > 0 {
		return nil, fmt.Errorf("node %s: only TEXT nodes carry characters", s.ID)
	}

	if len(s.Children) > 0 && !s.Type.Has(domain.CapChildren) {
		return nil, fmt.Errorf("node %s: %s cannot have children", s.ID, s.Type)
	}
	for _, cs := range s.Children {
		c, err := buildNode(cs, seen)
		if err != nil {
			return nil, err
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n, nil
}

// Spec converts n back into its YAML form.
func (n *Node) Spec() NodeSpec {
	visible := n.Visible
	s := NodeSpec{
		ID:           n.ID,
		Type:         n.Type,
		Name:         n.Name,
		Visible:      &visible,
		Locked:       n.Locked,
		X:            n.X,
		Y:            n.Y,
		Width:        n.Width,
		Height:       n.Height,
		Fills:        n.Fills,
		CornerRadius: n.CornerRadius,
		FontSize:     n.FontSize,
	}
	if n.text != nil {
		s.Characters = string(n.text.chars)
		s.Font = n.text.base
		if len(n.text.runs) > 1 {
			s.Runs = append([]domain.StyleRun(nil), n.text.runs...)
		}
	}
	for _, c := range n.children {
		s.Children = append(s.Children, c.Spec())
	}
	return s
}

// Marshal encodes the whole document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d.root.Spec())
}
