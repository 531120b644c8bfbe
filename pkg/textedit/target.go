package textedit

import "github.com/aretw0/quill/pkg/domain"

// Target is a styled text node. Indices are rune offsets.
type Target interface {
	Characters() string
	Len() int
	// FontName returns the node font and false when it is mixed.
	FontName() (domain.FontName, bool)
	// RangeFontName returns the font of [start,end) and false when it is mixed.
	RangeFontName(start, end int) (domain.FontName, bool)
	SetFontName(f domain.FontName) error
	// SetCharacters requires a uniform, loaded font.
	SetCharacters(s string) error
	SetRangeFontName(start, end int, f domain.FontName) error
}
