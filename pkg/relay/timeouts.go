package relay

import "time"

// Timeouts are the caller-side ceilings per operation weight.
type Timeouts struct {
	Light time.Duration
	Text  time.Duration
	Batch time.Duration
}

var heavy = map[string]bool{
	"scan_text_nodes":            true,
	"set_multiple_text_contents": true,
	"get_document_info":          true,
	"find_nodes":                 true,
}

var textual = map[string]bool{
	"set_text_content":         true,
	"get_styled_text_segments": true,
	"set_range_font_name":      true,
	"load_font_async":          true,
	"create_text":              true,
}

// For picks the ceiling for command.
func (t Timeouts) For(command string) time.Duration {
	switch {
	case heavy[command]:
		return t.Batch
	case textual[command]:
		return t.Text
	default:
		return t.Light
	}
}
