package domain

import "encoding/json"

// FrameType tags messages travelling over a channel.
type FrameType string

const (
	FrameJoin     FrameType = "join"
	FrameRequest  FrameType = "request"
	FrameResponse FrameType = "response"
	FrameProgress FrameType = FrameTypeProgress
	FrameSystem   FrameType = "system"
)

// Frame is the unit exchanged on a channel. Payload holds a request, a response,
// a progress event or a system notice depending on Type.
type Frame struct {
	Type    FrameType       `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame marshals v into a frame payload.
func NewFrame(t FrameType, channel string, v any) (Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: t, Channel: channel, Payload: data}, nil
}

// CommandRequest is an inbound command envelope.
type CommandRequest struct {
	ID      string         `json:"id"`
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// CommandResponse carries either a result or a single readable error sentence.
type CommandResponse struct {
	ID        string          `json:"id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind Kind            `json:"errorKind,omitempty"`
}

// Failed reports whether the response carries an error.
func (r CommandResponse) Failed() bool {
	return r.Error != ""
}

// Err rebuilds the classified error carried by a failed response.
func (r CommandResponse) Err() error {
	if !r.Failed() {
		return nil
	}
	kind := r.ErrorKind
	if kind == "" {
		kind = KindInternal
	}
	return &Error{Kind: kind, Message: r.Error}
}

// SystemNotice is a relay-originated informational frame payload.
type SystemNotice struct {
	Message string `json:"message"`
	Members int    `json:"members,omitempty"`
}
