package document

import (
	"testing"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Node.ID)
	}
	return out
}

func TestWalk_SkipsInvisibleSubtree(t *testing.T) {
	doc := loadSample(t)

	entries := Collect(doc.Root(), nil)
	assert.Equal(t, []string{"0:0", "0:1", "1:1", "1:2", "1:3", "1:4"}, ids(entries))
	for _, e := range entries {
		assert.NotContains(t, []string{"2:1", "2:2", "2:3", "2:4"}, e.Node.ID)
	}
}

func TestWalk_PathAndDepth(t *testing.T) {
	doc := loadSample(t)

	texts := Collect(doc.Root(), func(n *Node) bool { return n.Type == domain.NodeTypeText })
	require.Len(t, texts, 2)

	assert.Equal(t, []string{"Sample", "Page 1", "Hero"}, texts[0].Path)
	assert.Equal(t, 3, texts[0].Depth)
	assert.Equal(t, "Sample > Page 1 > Hero > Title", texts[0].PathString())
	assert.Equal(t, "Sample > Page 1 > Hero > Unnamed-TEXT", texts[1].PathString())
}

func TestWalk_InvisibleRoot(t *testing.T) {
	doc := loadSample(t)
	hidden, _ := doc.Get("2:1")
	assert.Empty(t, Collect(hidden, nil))

	hidden.Visible = true
	assert.Equal(t, []string{"2:1", "2:2", "2:3", "2:4"}, ids(Collect(hidden, nil)))
}

func TestWalk_EarlyStop(t *testing.T) {
	doc := loadSample(t)
	n := 0
	for range Walk(doc.Root()) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
