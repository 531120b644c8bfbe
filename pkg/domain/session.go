package domain

import "time"

// Settings is the persisted state of an agent session: where it connects and how
// text mutations are performed by default.
type Settings struct {
	SessionID    string    `json:"session_id" yaml:"session_id"`
	RelayURL     string    `json:"relay_url" yaml:"relay_url"`
	Channel      string    `json:"channel" yaml:"channel"`
	Strategy     string    `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	FallbackFont FontName  `json:"fallback_font" yaml:"fallback_font"`
	ChunkSize    int       `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	OpenedAt     time.Time `json:"opened_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSettings returns settings for a fresh session.
func NewSettings(sessionID string) *Settings {
	now := time.Now()
	return &Settings{
		SessionID:    sessionID,
		FallbackFont: DefaultFallbackFont,
		OpenedAt:     now,
		UpdatedAt:    now,
	}
}
