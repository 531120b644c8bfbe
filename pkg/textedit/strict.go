package textedit

import "github.com/aretw0/quill/pkg/domain"

// exactRuns scans t once and returns its maximal same-font runs.
func exactRuns(t Target) []domain.StyleRun {
	var runs []domain.StyleRun
	for i := range t.Len() {
		f, _ := t.RangeFontName(i, i+1)
		if n := len(runs); n > 0 && runs[n-1].Font == f {
			runs[n-1].End = i + 1
			continue
		}
		runs = append(runs, domain.StyleRun{Start: i, End: i + 1, Font: f})
	}
	return runs
}

// strict replays the original runs on the same indices of the new text.
// Runs past the end of the new text are clipped or dropped.
func (ed *edit) strict(text string) error {
	runs := exactRuns(ed.t)
	fonts := make([]domain.FontName, len(runs))
	for i, r := range runs {
		fonts[i] = r.Font
	}

	if err := ed.resetToFallback(text); err != nil {
		return err
	}
	ed.loadAll(fonts)

	n := ed.t.Len()
	for _, r := range runs {
		if err := ed.apply(r.Start, min(r.End, n), r.Font); err != nil {
			return err
		}
	}
	return nil
}
