// Package history persists export attempts and recently opened sources.
package history

import "time"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Export is one export attempt.
type Export struct {
	ID           string
	SourceName   string
	SourcePath   string
	SegmentCount int
	Muted        bool
	Status       string
	OutputPath   string
	Error        string
	CreatedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long the attempt took, 0 while unfinished.
func (e *Export) Duration() time.Duration {
	if e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.CreatedAt)
}

// RecentSource is a file the editor has opened.
type RecentSource struct {
	Path     string
	Name     string
	Size     int64
	OpenedAt time.Time
}
