package playback

import "context"

// SignalKind identifies what a surface is reporting.
type SignalKind int

const (
	// SignalTimeAdvance carries the current position in Value.
	SignalTimeAdvance SignalKind = iota
	// SignalDurationKnown carries the source duration in Value.
	SignalDurationKnown
	// SignalPlayStarted reports that the transport is running.
	SignalPlayStarted
	// SignalPlayPaused reports that the transport stopped.
	SignalPlayPaused
)

func (k SignalKind) String() string {
	switch k {
	case SignalTimeAdvance:
		return "time_advance"
	case SignalDurationKnown:
		return "duration_known"
	case SignalPlayStarted:
		return "play_started"
	case SignalPlayPaused:
		return "play_paused"
	default:
		return "unknown"
	}
}

// Signal is one event emitted by a surface.
type Signal struct {
	Kind  SignalKind
	Value float64
}

// Surface renders a source and exposes transport controls. Commands are
// requests; the surface reports the resulting state back through Signals.
type Surface interface {
	Load(ctx context.Context, url string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetMuted(muted bool) error
	SetLooping(looping bool) error
	// Signals is closed when the surface shuts down.
	Signals() <-chan Signal
	Close() error
}
