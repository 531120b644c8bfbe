/*
Package textedit replaces the characters of a styled text node while keeping,
or re-deriving, its per-range fonts.

A text target only accepts new characters while it carries one uniform font,
and every font must be loaded before it is assigned. Mixed-font nodes are
therefore rewritten in three steps: pick or record the fonts, collapse the node
to one loaded font and write, then reapply ranges. The strategy decides how
much styling survives:

	first    the font of the first character, applied to everything
	prevail  the most frequent font, applied to everything
	strict   the original runs, replayed on the same indices
	smart    fonts replayed by newline and space layout

A font that cannot be loaded is replaced by the fallback and recorded as a
substitution. Only a failing fallback aborts the edit.
*/
package textedit
