package tui

import (
	"github.com/cutline/cutline/internal/export"
	"github.com/cutline/cutline/internal/playback"
	"github.com/cutline/cutline/internal/watcher"
)

// SignalMsg carries one event from the playback surface.
type SignalMsg struct {
	Signal playback.Signal
}

// SignalsClosedMsg is sent when the surface stops reporting.
type SignalsClosedMsg struct{}

// SourceChangedMsg reports that the loaded file changed on disk.
type SourceChangedMsg struct {
	Event watcher.Event
}

// ExportDoneMsg carries the outcome of an export. Started is false when the
// coordinator ignored the trigger.
type ExportDoneMsg struct {
	Result  export.Result
	Started bool
}

// CutsWrittenMsg reports the files written by the write-cuts key.
type CutsWrittenMsg struct {
	EDLPath  string
	CutsPath string
	Err      error
}

// RecentLoadedMsg carries the most recently opened source, if any.
type RecentLoadedMsg struct {
	Path string
}

// ClearInfoMsg clears the info line if it is still the one with Seq.
type ClearInfoMsg struct {
	Seq int
}

// OpenFileMsg asks the model to load the file at Path.
type OpenFileMsg struct {
	Path string
}
