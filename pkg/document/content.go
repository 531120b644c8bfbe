package document

import (
	"slices"

	"github.com/aretw0/quill/pkg/domain"
)

// content is the text of a TEXT node. runs partition [0,len(chars)) with no gap
// and no overlap, adjacent runs never share a font, and an empty string has no
// runs but keeps base as its font.
type content struct {
	chars []rune
	runs  []domain.StyleRun
	base  domain.FontName
}

func newContent(s string, font domain.FontName) content {
	c := content{chars: []rune(s), base: font}
	if len(c.chars) > 0 {
		c.runs = []domain.StyleRun{{Start: 0, End: len(c.chars), Font: font}}
	}
	return c
}

func (c *content) copy() content {
	return content{chars: slices.Clone(c.chars), runs: slices.Clone(c.runs), base: c.base}
}

func (c *content) fontAt(i int) domain.FontName {
	for _, r := range c.runs {
		if i >= r.Start && i < r.End {
			return r.Font
		}
	}
	return c.base
}

// rangeFont returns the font of [start,end) and whether it is uniform.
func (c *content) rangeFont(start, end int) (domain.FontName, bool) {
	if len(c.chars) == 0 {
		return c.base, true
	}
	var font domain.FontName
	found := false
	for _, r := range c.runs {
		if r.End <= start || r.Start >= end {
			continue
		}
		if !found {
			font, found = r.Font, true
			continue
		}
		if r.Font != font {
			return domain.FontName{}, false
		}
	}
	return font, found
}

func (c *content) setFont(f domain.FontName) {
	c.base = f
	if len(c.chars) > 0 {
		c.runs = []domain.StyleRun{{Start: 0, End: len(c.chars), Font: f}}
	}
}

func (c *content) setChars(s string, f domain.FontName) {
	*c = newContent(s, f)
}

// setRange assigns f to [start,end), splitting and merging runs as needed.
func (c *content) setRange(start, end int, f domain.FontName) {
	out := make([]domain.StyleRun, 0, len(c.runs)+2)
	for _, r := range c.runs {
		if r.Start < start {
			out = append(out, domain.StyleRun{Start: r.Start, End: min(r.End, start), Font: r.Font})
		}
		if r.End > end {
			out = append(out, domain.StyleRun{Start: max(r.Start, end), End: r.End, Font: r.Font})
		}
	}
	out = append(out, domain.StyleRun{Start: start, End: end, Font: f})
	slices.SortFunc(out, func(a, b domain.StyleRun) int { return a.Start - b.Start })

	merged := out[:0]
	for _, r := range out {
		if n := len(merged); n > 0 && merged[n-1].Font == r.Font && merged[n-1].End == r.Start {
			merged[n-1].End = r.End
			continue
		}
		merged = append(merged, r)
	}
	c.runs = merged
	c.base = c.runs[0].Font
}

// valid checks the partition invariant.
func (c *content) valid() bool {
	if len(c.chars) == 0 {
		return len(c.runs) == 0
	}
	pos := 0
	for i, r := range c.runs {
		if r.Start != pos || r.End <= r.Start || r.Font.IsZero() {
			return false
		}
		if i > 0 && c.runs[i-1].Font == r.Font {
			return false
		}
		pos = r.End
	}
	return pos == len(c.chars)
}
