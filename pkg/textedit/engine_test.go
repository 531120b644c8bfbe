package textedit

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/fonts"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	regular = domain.FontName{Family: "Inter", Style: "Regular"}
	bold    = domain.FontName{Family: "Inter", Style: "Bold"}
	italic  = domain.FontName{Family: "Inter", Style: "Italic"}
	missing = domain.FontName{Family: "Papyrus", Style: "Regular"}
)

type fixture struct {
	engine *Engine
	cache  *fonts.Cache
	doc    *document.Document
}

func newFixture(t *testing.T, textYAML string, available ...domain.FontName) *fixture {
	t.Helper()
	if available == nil {
		available = []domain.FontName{regular, bold, italic}
	}
	cache := fonts.NewCache(available, fonts.WithLogger(logging.NewNop()))
	doc, err := document.Parse([]byte("id: root\ntype: DOCUMENT\nchildren:\n  - id: t\n    type: TEXT\n"+textYAML),
		document.WithFontRegistry(cache))
	require.NoError(t, err)
	return &fixture{
		engine: NewEngine(cache, WithLogger(logging.NewNop())),
		cache:  cache,
		doc:    doc,
	}
}

func (f *fixture) text(t *testing.T) *document.Text {
	t.Helper()
	txt, err := f.doc.Text("t")
	require.NoError(t, err)
	return txt
}

// helloWorld is "Hello World" with "Hello" bold and " World" regular.
const helloWorld = `    characters: Hello World
    runs:
      - {start: 0, end: 5, font: {family: Inter, style: Bold}}
      - {start: 5, end: 11, font: {family: Inter, style: Regular}}
`

func TestReplace_UniformKeepsFont(t *testing.T) {
	f := newFixture(t, "    characters: Old\n    font: {family: Inter, style: Italic}\n")

	res, err := f.engine.Replace(context.Background(), f.text(t), "Brand new", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Brand new", res.Characters)
	assert.False(t, res.Mixed)
	assert.Empty(t, res.Substitutions)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 9, Font: italic}}, f.text(t).Runs())
}

func TestReplace_UniformUnavailableFontFallsBack(t *testing.T) {
	f := newFixture(t, "    characters: Old\n    font: {family: Papyrus, style: Regular}\n")
	m := observability.NewMetrics()
	f.engine.metrics = m

	res, err := f.engine.Replace(context.Background(), f.text(t), "New", Options{})
	require.NoError(t, err)
	require.Len(t, res.Substitutions, 1)
	assert.Equal(t, missing, res.Substitutions[0].Requested)
	assert.Equal(t, regular, res.Substitutions[0].Substitute)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 3, Font: regular}}, f.text(t).Runs())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Substitutions.WithLabelValues("first")))
}

func TestReplace_EmptyString(t *testing.T) {
	f := newFixture(t, helloWorld)

	res, err := f.engine.Replace(context.Background(), f.text(t), "", Options{Strategy: StrategyStrict})
	require.NoError(t, err)
	assert.Equal(t, "", res.Characters)
	assert.Empty(t, f.text(t).Runs())
}

func TestReplace_First(t *testing.T) {
	f := newFixture(t, helloWorld)

	_, err := f.engine.Replace(context.Background(), f.text(t), "Bonjour le monde", Options{Strategy: StrategyFirst})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 16, Font: bold}}, f.text(t).Runs())
}

func TestReplace_Prevail(t *testing.T) {
	f := newFixture(t, helloWorld)

	_, err := f.engine.Replace(context.Background(), f.text(t), "Hola", Options{Strategy: StrategyPrevail})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 4, Font: regular}}, f.text(t).Runs())
}

func TestReplace_StrictRoundTripSameLength(t *testing.T) {
	f := newFixture(t, `    characters: abcdefghij
    runs:
      - {start: 0, end: 2, font: {family: Inter, style: Bold}}
      - {start: 2, end: 7, font: {family: Inter, style: Italic}}
      - {start: 7, end: 10, font: {family: Inter, style: Bold}}
`)
	before := f.text(t).Runs()

	_, err := f.engine.Replace(context.Background(), f.text(t), "0123456789",
		Options{Strategy: StrategyStrict, Fallback: regular})
	require.NoError(t, err)
	assert.Equal(t, before, f.text(t).Runs())
	assert.Equal(t, "0123456789", f.text(t).Characters())
}

func TestReplace_StrictShorterClips(t *testing.T) {
	f := newFixture(t, helloWorld)

	_, err := f.engine.Replace(context.Background(), f.text(t), "Hi", Options{Strategy: StrategyStrict})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 2, Font: bold}}, f.text(t).Runs())
}

func TestReplace_StrictUnavailableRunKeepsFallback(t *testing.T) {
	f := newFixture(t, `    characters: aaabbbccc
    runs:
      - {start: 0, end: 3, font: {family: Papyrus, style: Regular}}
      - {start: 3, end: 6, font: {family: Inter, style: Bold}}
      - {start: 6, end: 9, font: {family: Papyrus, style: Regular}}
`)

	res, err := f.engine.Replace(context.Background(), f.text(t), "xxxyyyzzz", Options{Strategy: StrategyStrict})
	require.NoError(t, err)
	assert.Len(t, res.Substitutions, 1, "one substitution per distinct font")
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 3, Font: regular},
		{Start: 3, End: 6, Font: bold},
		{Start: 6, End: 9, Font: regular},
	}, f.text(t).Runs())
}

func TestReplace_SmartNoDelimitersSingleStyle(t *testing.T) {
	f := newFixture(t, `    characters: HelloWorld
    runs:
      - {start: 0, end: 5, font: {family: Inter, style: Italic}}
      - {start: 5, end: 10, font: {family: Inter, style: Bold}}
`)

	_, err := f.engine.Replace(context.Background(), f.text(t), "Bonjour", Options{Strategy: StrategySmart})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 7, Font: italic}}, f.text(t).Runs())
}

func TestReplace_SmartLines(t *testing.T) {
	f := newFixture(t, `    characters: "Title\nBody text"
    runs:
      - {start: 0, end: 5, font: {family: Inter, style: Bold}}
      - {start: 5, end: 15, font: {family: Inter, style: Regular}}
`)

	_, err := f.engine.Replace(context.Background(), f.text(t), "Titre\nCorps du texte",
		Options{Strategy: StrategySmart, Fallback: regular})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 5, Font: bold},
		{Start: 5, End: 20, Font: regular},
	}, f.text(t).Runs())
}

func TestReplace_SmartMixedLineUsesWords(t *testing.T) {
	f := newFixture(t, `    characters: "big small"
    runs:
      - {start: 0, end: 3, font: {family: Inter, style: Bold}}
      - {start: 3, end: 9, font: {family: Inter, style: Italic}}
`)

	_, err := f.engine.Replace(context.Background(), f.text(t), "grand petit",
		Options{Strategy: StrategySmart, Fallback: regular})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 5, Font: bold},
		{Start: 5, End: 6, Font: regular},
		{Start: 6, End: 11, Font: italic},
	}, f.text(t).Runs())
}

func TestReplace_SmartDivergentTailKeepsFallback(t *testing.T) {
	f := newFixture(t, `    characters: "A\nB"
    runs:
      - {start: 0, end: 1, font: {family: Inter, style: Bold}}
      - {start: 1, end: 3, font: {family: Inter, style: Italic}}
`)

	_, err := f.engine.Replace(context.Background(), f.text(t), "x\ny\nz",
		Options{Strategy: StrategySmart, Fallback: regular})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 1, Font: bold},
		{Start: 1, End: 2, Font: regular},
		{Start: 2, End: 3, Font: italic},
		{Start: 3, End: 5, Font: regular},
	}, f.text(t).Runs())
}

func TestReplace_SmartAdjacentDelimiterTakesRest(t *testing.T) {
	f := newFixture(t, `    characters: "A\nB"
    runs:
      - {start: 0, end: 1, font: {family: Inter, style: Bold}}
      - {start: 1, end: 3, font: {family: Inter, style: Italic}}
`)

	_, err := f.engine.Replace(context.Background(), f.text(t), "x\n\ny",
		Options{Strategy: StrategySmart, Fallback: regular})
	require.NoError(t, err)
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 1, Font: bold},
		{Start: 1, End: 2, Font: regular},
		{Start: 2, End: 4, Font: italic},
	}, f.text(t).Runs())
}

func TestReplace_FallbackUnavailableFails(t *testing.T) {
	f := newFixture(t, helloWorld, bold)

	_, err := f.engine.Replace(context.Background(), f.text(t), "x", Options{Strategy: StrategyStrict})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrResourceLoad))
	assert.Equal(t, "Hello World", f.text(t).Characters(), "nothing written")
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"":             StrategyFirst,
		"first":        StrategyFirst,
		"Prevail":      StrategyPrevail,
		"strict":       StrategyStrict,
		"smart":        StrategySmart,
		"experimental": StrategySmart,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrategy("guess")
	assert.Error(t, err)
}
