package textedit

import (
	"slices"

	"github.com/aretw0/quill/pkg/domain"
)

// transition is a font that lasts until the next occurrence of delimiter.
type transition struct {
	start     int
	delimiter rune
	font      domain.FontName
}

type span struct{ start, end int }

// split returns the non-empty spans of chars[start:end] separated by delim.
func split(chars []rune, delim rune, start, end int) []span {
	var out []span
	from := start
	for i := start; i < end; i++ {
		if chars[i] != delim {
			continue
		}
		if i > from {
			out = append(out, span{from, i})
		}
		from = i + 1
	}
	if from < end {
		out = append(out, span{from, end})
	}
	return out
}

// linearOrder reads the font layout of t: one transition per line when the line
// is uniform, otherwise one per space-separated word. A mixed word takes the
// font of its first character.
func linearOrder(t Target) []transition {
	chars := []rune(t.Characters())
	var order []transition
	for _, line := range split(chars, '\n', 0, len(chars)) {
		if f, ok := t.RangeFontName(line.start, line.end); ok {
			order = append(order, transition{start: line.start, delimiter: '\n', font: f})
			continue
		}
		for _, word := range split(chars, ' ', line.start, line.end) {
			f, ok := t.RangeFontName(word.start, word.end)
			if !ok {
				f, _ = t.RangeFontName(word.start, word.start+1)
			}
			order = append(order, transition{start: word.start, delimiter: ' ', font: f})
		}
	}
	slices.SortStableFunc(order, func(a, b transition) int { return a.start - b.start })
	return order
}

// smart replays the transitions against the delimiters of the new text. A
// transition whose delimiter sits right at the cursor takes the rest of the
// text. Text left over once the transitions run out keeps the fallback font.
func (ed *edit) smart(text string) error {
	order := linearOrder(ed.t)
	fonts := make([]domain.FontName, 0, len(order))
	for _, tr := range order {
		fonts = append(fonts, tr.font)
	}
	ed.loadAll(fonts)

	if err := ed.resetToFallback(text); err != nil {
		return err
	}

	chars := []rune(text)
	cursor := 0
	for _, tr := range order {
		if cursor >= len(chars) {
			break
		}
		end := len(chars)
		if i := slices.Index(chars[cursor:], tr.delimiter); i > 0 {
			end = cursor + i
		}
		if err := ed.apply(cursor, end, tr.font); err != nil {
			return err
		}
		cursor = end + 1
	}
	return nil
}
