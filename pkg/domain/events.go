package domain

// ProgressStatus is the lifecycle stage of a long command.
type ProgressStatus string

const (
	ProgressStarted    ProgressStatus = "started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressError      ProgressStatus = "error"
)

// Terminal reports whether no further events may follow s.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressCompleted || s == ProgressError
}

// FrameTypeProgress is the envelope type tag of progress events.
const FrameTypeProgress = "command_progress"

// ProgressEvent is a fire-and-forget status report for a long command.
type ProgressEvent struct {
	Type           string         `json:"type"`
	CommandID      string         `json:"commandId"`
	CommandType    string         `json:"commandType"`
	Status         ProgressStatus `json:"status"`
	Progress       int            `json:"progress"`
	TotalItems     int            `json:"totalItems"`
	ProcessedItems int            `json:"processedItems"`
	CurrentChunk   *int           `json:"currentChunk,omitempty"`
	TotalChunks    *int           `json:"totalChunks,omitempty"`
	ChunkSize      *int           `json:"chunkSize,omitempty"`
	Message        string         `json:"message"`
	Payload        map[string]any `json:"payload,omitempty"`
	Timestamp      int64          `json:"timestamp"`
}
