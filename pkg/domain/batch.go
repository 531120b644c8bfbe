package domain

// TextReplacement addresses one leaf text mutation inside a batch.
type TextReplacement struct {
	NodeID string  `json:"nodeId" mapstructure:"nodeId"`
	Text   *string `json:"text" mapstructure:"text"`
}

// ReplacementResult is the per-item outcome of a batch text replacement.
type ReplacementResult struct {
	NodeID        string             `json:"nodeId"`
	Success       bool               `json:"success"`
	OriginalText  string             `json:"originalText,omitempty"`
	NewText       string             `json:"translatedText,omitempty"`
	Strategy      string             `json:"strategy,omitempty"`
	Substitutions []FontSubstitution `json:"substitutions,omitempty"`
	Error         string             `json:"error,omitempty"`
	ErrorKind     Kind               `json:"errorKind,omitempty"`
}

// BatchReport aggregates a chunked batch. Success is true when any item succeeded.
type BatchReport struct {
	CommandID      string              `json:"commandId"`
	NodeID         string              `json:"nodeId,omitempty"`
	Success        bool                `json:"success"`
	TotalRequested int                 `json:"totalReplacements"`
	Succeeded      int                 `json:"replacementsApplied"`
	Failed         int                 `json:"replacementsFailed"`
	Chunks         int                 `json:"completedInChunks"`
	Results        []ReplacementResult `json:"results"`
}

// ScanReport is the result of a text node scan.
type ScanReport struct {
	CommandID      string         `json:"commandId"`
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	ProcessedNodes int            `json:"processedNodes"`
	Chunks         int            `json:"chunks"`
	TextNodes      []TextNodeInfo `json:"textNodes"`
}
