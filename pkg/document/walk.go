package document

import (
	"iter"
	"strings"
)

// Entry is one visited node with the display names of its ancestors.
type Entry struct {
	Node  *Node
	Path  []string
	Depth int
}

// PathString joins the ancestors and the node itself with " > ".
func (e Entry) PathString() string {
	parts := append(append([]string(nil), e.Path...), e.Node.DisplayName())
	return strings.Join(parts, " > ")
}

// Walk visits root and its descendants depth-first in document order.
// Invisible nodes are skipped together with their whole subtree.
func Walk(root *Node) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if root == nil {
			return
		}
		walkNode(root, nil, 0, yield)
	}
}

func walkNode(n *Node, path []string, depth int, yield func(Entry) bool) bool {
	if !n.Visible {
		return true
	}
	if !yield(Entry{Node: n, Path: path, Depth: depth}) {
		return false
	}

	childPath := make([]string, len(path), len(path)+1)
	copy(childPath, path)
	childPath = append(childPath, n.DisplayName())

	for _, c := range n.children {
		if !walkNode(c, childPath, depth+1, yield) {
			return false
		}
	}
	return true
}

// Collect returns the entries of Walk(root) accepted by keep. A nil keep accepts all.
func Collect(root *Node, keep func(*Node) bool) []Entry {
	var out []Entry
	for e := range Walk(root) {
		if keep == nil || keep(e.Node) {
			out = append(out, e)
		}
	}
	return out
}
