package domain

import "strings"

// FontName identifies a font face. It must be loaded before it is assigned to text.
type FontName struct {
	Family string `json:"family" yaml:"family" mapstructure:"family"`
	Style  string `json:"style" yaml:"style" mapstructure:"style"`
}

// DefaultFallbackFont is substituted when a requested face cannot be loaded.
var DefaultFallbackFont = FontName{Family: "Inter", Style: "Regular"}

// Key returns the cache key "family::style".
func (f FontName) Key() string {
	return f.Family + "::" + f.Style
}

func (f FontName) String() string {
	return strings.TrimSpace(f.Family + " " + f.Style)
}

// IsZero reports whether no family was set.
func (f FontName) IsZero() bool {
	return f.Family == ""
}

// ParseFontKey is the inverse of Key.
func ParseFontKey(key string) FontName {
	family, style, _ := strings.Cut(key, "::")
	return FontName{Family: family, Style: style}
}

// StyleRun is a maximal [Start,End) rune range sharing one font.
type StyleRun struct {
	Start int      `json:"start" yaml:"start"`
	End   int      `json:"end" yaml:"end"`
	Font  FontName `json:"fontName" yaml:"font"`
}

// Len returns the number of runes covered by the run.
func (r StyleRun) Len() int {
	return r.End - r.Start
}

// FontSubstitution records a font that could not be loaded and what replaced it.
type FontSubstitution struct {
	Requested  FontName `json:"requested"`
	Substitute FontName `json:"substitute"`
	Reason     string   `json:"reason"`
}
