package document

import (
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// Text is a handle for mutating a TEXT node. It enforces the host rules: a font
// must be loaded before it is assigned, and the characters of a node can only
// be replaced while the node carries one uniform font.
type Text struct {
	node  *Node
	fonts ports.FontRegistry
}

// NodeID returns the id of the underlying node.
func (t *Text) NodeID() string {
	return t.node.ID
}

func (t *Text) Characters() string {
	return string(t.node.text.chars)
}

// Len returns the length in runes.
func (t *Text) Len() int {
	return len(t.node.text.chars)
}

// FontName returns the node font and whether it is uniform across the string.
func (t *Text) FontName() (domain.FontName, bool) {
	return t.node.text.rangeFont(0, len(t.node.text.chars))
}

// RangeFontName returns the font of [start,end) and whether it is uniform.
// An invalid range reports not uniform.
func (t *Text) RangeFontName(start, end int) (domain.FontName, bool) {
	if start < 0 || end > t.Len() || start >= end {
		return domain.FontName{}, false
	}
	return t.node.text.rangeFont(start, end)
}

// Runs returns a copy of the style runs.
func (t *Text) Runs() []domain.StyleRun {
	return append([]domain.StyleRun(nil), t.node.text.runs...)
}

// SetFontName makes f the single font of the node.
func (t *Text) SetFontName(f domain.FontName) error {
	if err := t.requireLoaded(f); err != nil {
		return err
	}
	t.node.text.setFont(f)
	return nil
}

// SetCharacters replaces the string. The new text takes the current uniform font.
func (t *Text) SetCharacters(s string) error {
	f, uniform := t.FontName()
	if !uniform {
		return domain.Errorf(domain.KindUnsupported,
			"cannot replace characters of node %s while it has mixed fonts", t.node.ID)
	}
	if err := t.requireLoaded(f); err != nil {
		return err
	}
	t.node.text.setChars(s, f)
	return nil
}

// SetRangeFontName assigns f to [start,end).
func (t *Text) SetRangeFontName(start, end int, f domain.FontName) error {
	if start < 0 || end > t.Len() || start >= end {
		return domain.Errorf(domain.KindValidation,
			"range [%d,%d) is outside the %d characters of node %s", start, end, t.Len(), t.node.ID)
	}
	if err := t.requireLoaded(f); err != nil {
		return err
	}
	t.node.text.setRange(start, end, f)
	return nil
}

func (t *Text) requireLoaded(f domain.FontName) error {
	if f.IsZero() {
		return domain.Errorf(domain.KindValidation, "font family is required")
	}
	if t.fonts != nil && !t.fonts.IsLoaded(f) {
		return domain.Errorf(domain.KindResourceLoad, "font %s is not loaded", f)
	}
	return nil
}
