package quill_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/document"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/fonts"
	"github.com/aretw0/quill/pkg/host"
)

func ExampleLocal() {
	cache := fonts.NewCache([]domain.FontName{domain.DefaultFallbackFont})
	doc, err := document.Load("pkg/document/testdata/sample.yaml", document.WithFontRegistry(cache))
	if err != nil {
		panic(err)
	}
	x := host.New(doc, cache, host.WithLogger(logging.NewNop()))

	ctx := context.Background()
	client, stop := quill.Local(ctx, x)
	defer stop()

	data, err := client.Send(ctx, "set_text_content", map[string]any{"nodeId": "1:3", "text": "Welcome"}, 0)
	if err != nil {
		panic(err)
	}
	var res struct {
		Characters string `json:"characters"`
	}
	_ = json.Unmarshal(data, &res)
	fmt.Println(res.Characters)
	// Output: Welcome
}
