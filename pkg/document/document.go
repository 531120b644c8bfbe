package document

import (
	"slices"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/google/uuid"
)

// Document owns the node tree and an id index over it.
type Document struct {
	mu    sync.RWMutex
	root  *Node
	index map[string]*Node
	fonts ports.FontRegistry
	newID func() string
}

// Option configures a Document.
type Option func(*Document)

// WithFontRegistry makes text handles check that fonts are loaded before use.
func WithFontRegistry(r ports.FontRegistry) Option {
	return func(d *Document) { d.fonts = r }
}

// WithIDGenerator overrides the id source for created and cloned nodes.
func WithIDGenerator(fn func() string) Option {
	return func(d *Document) { d.newID = fn }
}

// New wraps an already built tree.
func New(root *Node, opts ...Option) *Document {
	d := &Document{
		root:  root,
		index: make(map[string]*Node),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.reindex(root)
	return d
}

func (d *Document) Lock()    { d.mu.Lock() }
func (d *Document) Unlock()  { d.mu.Unlock() }
func (d *Document) RLock()   { d.mu.RLock() }
func (d *Document) RUnlock() { d.mu.RUnlock() }

// Root returns the DOCUMENT node.
func (d *Document) Root() *Node {
	return d.root
}

// Len returns the number of indexed nodes.
func (d *Document) Len() int {
	return len(d.index)
}

// Get resolves id or fails with a not_found error.
func (d *Document) Get(id string) (*Node, error) {
	if id == "" {
		return nil, domain.Errorf(domain.KindValidation, "missing nodeId parameter")
	}
	n, ok := d.index[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "node not found with ID: %s", id)
	}
	return n, nil
}

// Require resolves id and checks that its type supports c.
func (d *Document) Require(id string, c domain.Capability) (*Node, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, err
	}
	if !n.Type.Has(c) {
		return nil, domain.Errorf(domain.KindUnsupported, "node %s (%s) does not support %s", id, n.Type, c)
	}
	return n, nil
}

// Text returns a mutation handle for a TEXT node.
func (d *Document) Text(id string) (*Text, error) {
	n, err := d.Require(id, domain.CapText)
	if err != nil {
		return nil, err
	}
	return &Text{node: n, fonts: d.fonts}, nil
}

// Append adds n as the last child of parent and indexes its subtree.
func (d *Document) Append(parent, n *Node) error {
	if !parent.Type.Has(domain.CapChildren) {
		return domain.Errorf(domain.KindUnsupported, "node %s (%s) cannot have children", parent.ID, parent.Type)
	}
	if _, dup := d.index[n.ID]; dup {
		return domain.Errorf(domain.KindValidation, "duplicate node id %s", n.ID)
	}
	n.parent = parent
	parent.children = append(parent.children, n)
	d.reindex(n)
	return nil
}

// Remove detaches id from its parent and drops the whole subtree from the index.
func (d *Document) Remove(id string) error {
	n, err := d.Get(id)
	if err != nil {
		return err
	}
	if n.parent == nil {
		return domain.Errorf(domain.KindUnsupported, "cannot delete the document root")
	}
	p := n.parent
	p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
	n.parent = nil
	for e := range all(n) {
		delete(d.index, e.ID)
	}
	return nil
}

// Clone deep-copies id with fresh ids and appends the copy to the same parent.
func (d *Document) Clone(id string) (*Node, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, err
	}
	if n.parent == nil {
		return nil, domain.Errorf(domain.KindUnsupported, "cannot clone the document root")
	}
	c := n.clone(d.newID)
	if err := d.Append(n.parent, c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewText creates a TEXT node with a uniform font and appends it to parent.
func (d *Document) NewText(parent *Node, name, characters string, font domain.FontName) (*Node, error) {
	if d.fonts != nil && !d.fonts.IsLoaded(font) {
		return nil, domain.Errorf(domain.KindResourceLoad, "font %s is not loaded", font)
	}
	t := newContent(characters, font)
	n := &Node{
		ID:       d.newID(),
		Type:     domain.NodeTypeText,
		Name:     name,
		Visible:  true,
		FontSize: 14,
		text:     &t,
	}
	if err := d.Append(parent, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *Document) reindex(n *Node) {
	if n == nil {
		return
	}
	for e := range all(n) {
		d.index[e.ID] = e
	}
}

// all yields n and every descendant, visible or not.
func all(n *Node) func(func(*Node) bool) {
	return func(yield func(*Node) bool) {
		var visit func(*Node) bool
		visit = func(n *Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range n.children {
				if !visit(c) {
					return false
				}
			}
			return true
		}
		visit(n)
	}
}
