package document

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bold    = domain.FontName{Family: "Inter", Style: "Bold"}
	regular = domain.FontName{Family: "Inter", Style: "Regular"}
	roboto  = domain.FontName{Family: "Roboto", Style: "Regular"}
)

type loadedSet map[domain.FontName]bool

func (s loadedSet) IsLoaded(f domain.FontName) bool { return s[f] }

func loadSample(t *testing.T, opts ...Option) *Document {
	t.Helper()
	doc, err := Load("testdata/sample.yaml", opts...)
	require.NoError(t, err)
	return doc
}

func TestLoad_IndexesEveryNode(t *testing.T) {
	doc := loadSample(t)
	assert.Equal(t, 10, doc.Len())

	n, err := doc.Get("2:4")
	require.NoError(t, err)
	assert.Equal(t, "not visible", n.Characters())

	_, err = doc.Get("9:9")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBuild_RejectsBadTrees(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"root not document", "id: a\ntype: FRAME\n"},
		{"duplicate ids", "id: a\ntype: DOCUMENT\nchildren:\n  - {id: b, type: PAGE}\n  - {id: b, type: PAGE}\n"},
		{"unknown type", "id: a\ntype: DOCUMENT\nchildren:\n  - {id: b, type: STAR}\n"},
		{"leaf with children", "id: a\ntype: DOCUMENT\nchildren:\n  - {id: b, type: RECTANGLE, children: [{id: c, type: TEXT}]}\n"},
		{"runs with gap", "id: a\ntype: DOCUMENT\nchildren:\n  - id: b\n    type: TEXT\n    characters: abcd\n    runs: [{start: 0, end: 2, font: {family: A, style: B}}, {start: 3, end: 4, font: {family: C, style: D}}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRequire_Capability(t *testing.T) {
	doc := loadSample(t)

	_, err := doc.Require("1:4", domain.CapCornerRadius)
	assert.NoError(t, err)

	_, err = doc.Require("2:1", domain.CapCornerRadius)
	assert.True(t, errors.Is(err, domain.ErrUnsupported))

	_, err = doc.Text("1:4")
	assert.True(t, errors.Is(err, domain.ErrUnsupported))
}

func TestRemove_DestroysSubtree(t *testing.T) {
	doc := loadSample(t)

	require.NoError(t, doc.Remove("2:1"))
	for _, id := range []string{"2:1", "2:2", "2:3", "2:4"} {
		_, err := doc.Get(id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), id)
	}
	page, _ := doc.Get("0:1")
	assert.Len(t, page.Children(), 1)

	assert.True(t, errors.Is(doc.Remove("0:0"), domain.ErrUnsupported))
}

func TestClone_FreshIDsAndIndependentText(t *testing.T) {
	seq := 0
	doc := loadSample(t, WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("c:%d", seq)
	}))

	c, err := doc.Clone("1:1")
	require.NoError(t, err)
	assert.Equal(t, "c:1", c.ID)
	assert.Equal(t, 14, doc.Len())

	orig, _ := doc.Text("1:2")
	copyID := c.Children()[0].ID
	copied, err := doc.Text(copyID)
	require.NoError(t, err)
	require.NoError(t, copied.SetFontName(roboto))

	f, uniform := orig.FontName()
	assert.False(t, uniform, "original keeps its runs")
	assert.True(t, f.IsZero())
}

func TestText_Rules(t *testing.T) {
	doc := loadSample(t, WithFontRegistry(loadedSet{regular: true, bold: true}))
	txt, err := doc.Text("1:2")
	require.NoError(t, err)

	f, ok := txt.RangeFontName(0, 5)
	assert.True(t, ok)
	assert.Equal(t, bold, f)
	_, ok = txt.FontName()
	assert.False(t, ok)

	err = txt.SetCharacters("Bye")
	assert.True(t, errors.Is(err, domain.ErrUnsupported), "mixed fonts block writes")

	err = txt.SetFontName(roboto)
	assert.True(t, errors.Is(err, domain.ErrResourceLoad), "unloaded font")

	require.NoError(t, txt.SetFontName(regular))
	require.NoError(t, txt.SetCharacters("Bye now"))
	require.NoError(t, txt.SetRangeFontName(0, 3, bold))
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 3, Font: bold},
		{Start: 3, End: 7, Font: regular},
	}, txt.Runs())

	err = txt.SetRangeFontName(5, 9, bold)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestText_EmptyKeepsBaseFont(t *testing.T) {
	doc := loadSample(t)
	txt, _ := doc.Text("1:3")

	require.NoError(t, txt.SetCharacters(""))
	assert.Empty(t, txt.Runs())
	f, uniform := txt.FontName()
	assert.True(t, uniform)
	assert.Equal(t, roboto, f)

	require.NoError(t, txt.SetCharacters("again"))
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 5, Font: roboto}}, txt.Runs())
}

func TestContent_SetRangeMerges(t *testing.T) {
	c := newContent("abcdefgh", regular)
	c.setRange(2, 4, bold)
	c.setRange(4, 6, bold)
	assert.Equal(t, []domain.StyleRun{
		{Start: 0, End: 2, Font: regular},
		{Start: 2, End: 6, Font: bold},
		{Start: 6, End: 8, Font: regular},
	}, c.runs)
	assert.True(t, c.valid())

	c.setRange(0, 8, roboto)
	assert.Equal(t, []domain.StyleRun{{Start: 0, End: 8, Font: roboto}}, c.runs)
}

func TestMarshal_RoundTrip(t *testing.T) {
	doc := loadSample(t)
	data, err := doc.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Len(), again.Len())

	a, _ := doc.Text("1:2")
	b, _ := again.Text("1:2")
	assert.Equal(t, a.Runs(), b.Runs())
}
