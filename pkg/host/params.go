package host

import (
	"github.com/aretw0/quill/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// decode copies command params into out. Numbers and booleans sent as strings
// are accepted; anything else that does not fit is a validation error.
func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return domain.Wrap(domain.KindInternal, err, "failed to build decoder")
	}
	if err := dec.Decode(params); err != nil {
		return domain.Wrap(domain.KindValidation, err, "invalid parameters")
	}
	return nil
}

type nodeParams struct {
	NodeID string `mapstructure:"nodeId"`
}

type nodeInfoParams struct {
	NodeID string `mapstructure:"nodeId"`
	Depth  *int   `mapstructure:"depth"`
}

type nodesInfoParams struct {
	NodeIDs []string `mapstructure:"nodeIds"`
}

type textParams struct {
	NodeID       string          `mapstructure:"nodeId"`
	Text         *string         `mapstructure:"text"`
	Strategy     string          `mapstructure:"strategy"`
	FallbackFont domain.FontName `mapstructure:"fallbackFont"`
}

type batchTextParams struct {
	CommandID    string                   `mapstructure:"commandId"`
	NodeID       string                   `mapstructure:"nodeId"`
	Text         []domain.TextReplacement `mapstructure:"text"`
	Strategy     string                   `mapstructure:"strategy"`
	FallbackFont domain.FontName          `mapstructure:"fallbackFont"`
	ChunkSize    int                      `mapstructure:"chunkSize"`
}

type scanParams struct {
	CommandID   string `mapstructure:"commandId"`
	NodeID      string `mapstructure:"nodeId"`
	UseChunking *bool  `mapstructure:"useChunking"`
	ChunkSize   int    `mapstructure:"chunkSize"`
}

type segmentsParams struct {
	NodeID   string `mapstructure:"nodeId"`
	Property string `mapstructure:"property"`
}

type rangeFontParams struct {
	NodeID     string `mapstructure:"nodeId"`
	Start      int    `mapstructure:"start"`
	End        int    `mapstructure:"end"`
	FontFamily string `mapstructure:"fontFamily"`
	FontStyle  string `mapstructure:"fontStyle"`
}

type fontParams struct {
	Family string `mapstructure:"family"`
	Style  string `mapstructure:"style"`
}

type findParams struct {
	NodeID string   `mapstructure:"nodeId"`
	Query  string   `mapstructure:"query"`
	Types  []string `mapstructure:"types"`
	Limit  int      `mapstructure:"limit"`
}

type moveParams struct {
	NodeID string   `mapstructure:"nodeId"`
	X      *float64 `mapstructure:"x"`
	Y      *float64 `mapstructure:"y"`
}

type resizeParams struct {
	NodeID string  `mapstructure:"nodeId"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type renameParams struct {
	NodeID string `mapstructure:"nodeId"`
	Name   string `mapstructure:"name"`
}

type flagParams struct {
	NodeID  string `mapstructure:"nodeId"`
	Visible *bool  `mapstructure:"visible"`
	Locked  *bool  `mapstructure:"locked"`
}

type fillParams struct {
	NodeID string        `mapstructure:"nodeId"`
	Color  *domain.Color `mapstructure:"color"`
	Hex    string        `mapstructure:"hex"`
	Alpha  *float64      `mapstructure:"a"`
}

type radiusParams struct {
	NodeID string   `mapstructure:"nodeId"`
	Radius *float64 `mapstructure:"radius"`
}

type createTextParams struct {
	ParentID   string  `mapstructure:"parentId"`
	X          float64 `mapstructure:"x"`
	Y          float64 `mapstructure:"y"`
	Text       string  `mapstructure:"text"`
	Name       string  `mapstructure:"name"`
	FontSize   float64 `mapstructure:"fontSize"`
	FontFamily string  `mapstructure:"fontFamily"`
	FontStyle  string  `mapstructure:"fontStyle"`
}

type cloneParams struct {
	NodeID string   `mapstructure:"nodeId"`
	X      *float64 `mapstructure:"x"`
	Y      *float64 `mapstructure:"y"`
}
