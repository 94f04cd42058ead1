// Package export sends the loaded source and its segments to the remote
// export service and saves what comes back.
package export

import (
	"fmt"
	"time"

	"github.com/cutline/cutline/internal/segments"
)

// Status is the lifecycle state of an export attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusProcessing
	StatusCompleted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Source describes the file being exported.
type Source struct {
	Path     string
	Name     string
	MimeType string
	Size     int64
}

// Snapshot is everything one export request carries, captured when the
// export is triggered.
type Snapshot struct {
	Source   Source
	Muted    bool
	Segments []segments.Segment
}

// Ready reports whether the snapshot has a source and at least one segment.
func (s Snapshot) Ready() bool {
	return s.Source.Path != "" && len(s.Segments) > 0
}

// Result is the outcome of one export attempt.
type Result struct {
	ID         string
	Status     Status
	OutputPath string
	// Message is the user-facing text for a failed export.
	Message    string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// OutputFilename names a saved export after the given instant.
func OutputFilename(t time.Time) string {
	return fmt.Sprintf("exported_video_%d.mp4", t.UnixMilli())
}
