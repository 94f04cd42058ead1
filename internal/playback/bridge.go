package playback

import (
	"log/slog"
	"math"
)

// Position is a snapshot of the transport as the bridge sees it.
type Position struct {
	CurrentTime float64
	Duration    float64
	Playing     bool
}

// Bridge keeps the application's view of the playhead in sync with a
// surface. It is driven from a single event loop and does no locking.
type Bridge struct {
	surface Surface
	logger  *slog.Logger

	currentTime   float64
	duration      float64
	durationKnown bool
	playing       bool
	muted         bool
	looping       bool

	onDuration func(float64)
	listeners  []func(Position)
}

// NewBridge wires a bridge to surface. Looping starts enabled.
func NewBridge(surface Surface, logger *slog.Logger) *Bridge {
	return &Bridge{
		surface: surface,
		logger:  logger,
		looping: true,
	}
}

// OnDuration registers the hook that receives the duration once per load.
func (b *Bridge) OnDuration(fn func(float64)) {
	b.onDuration = fn
}

// Subscribe registers fn to be called after every position change.
func (b *Bridge) Subscribe(fn func(Position)) {
	b.listeners = append(b.listeners, fn)
}

// Dispatch routes a surface signal to its handler.
func (b *Bridge) Dispatch(sig Signal) {
	switch sig.Kind {
	case SignalTimeAdvance:
		b.OnTimeAdvance(sig.Value)
	case SignalDurationKnown:
		b.OnDurationKnown(sig.Value)
	case SignalPlayStarted:
		b.OnPlayStarted()
	case SignalPlayPaused:
		b.OnPlayPaused()
	}
}

// OnTimeAdvance records the surface's position.
func (b *Bridge) OnTimeAdvance(t float64) {
	b.currentTime = b.clampTime(t)
	b.notify()
}

// OnDurationKnown accepts the first positive finite duration after a load.
func (b *Bridge) OnDurationKnown(d float64) {
	if b.durationKnown || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return
	}
	b.duration = d
	b.durationKnown = true
	b.currentTime = b.clampTime(b.currentTime)
	if b.logger != nil {
		b.logger.Debug("duration known", "duration", d)
	}
	if b.onDuration != nil {
		b.onDuration(d)
	}
	b.notify()
}

// OnPlayStarted marks the transport as running.
func (b *Bridge) OnPlayStarted() {
	b.playing = true
	b.notify()
}

// OnPlayPaused marks the transport as stopped.
func (b *Bridge) OnPlayPaused() {
	b.playing = false
	b.notify()
}

// Seek moves the playhead to t, clamped to the known duration.
func (b *Bridge) Seek(t float64) error {
	t = b.clampTime(t)
	b.currentTime = t
	b.notify()
	if b.surface == nil {
		return nil
	}
	return b.surface.Seek(t)
}

// TogglePlay asks the surface to play or pause based on the last reported
// state. The playing flag only changes when the surface confirms.
func (b *Bridge) TogglePlay() error {
	if b.surface == nil {
		return nil
	}
	if b.playing {
		return b.surface.Pause()
	}
	return b.surface.Play()
}

// SetMuted forwards the mute intent to the surface.
func (b *Bridge) SetMuted(muted bool) error {
	b.muted = muted
	if b.surface == nil {
		return nil
	}
	return b.surface.SetMuted(muted)
}

// SetLooping forwards the loop intent to the surface.
func (b *Bridge) SetLooping(looping bool) error {
	b.looping = looping
	if b.surface == nil {
		return nil
	}
	return b.surface.SetLooping(looping)
}

// Reset forgets all transport state ahead of a new source.
func (b *Bridge) Reset() {
	b.currentTime = 0
	b.duration = 0
	b.durationKnown = false
	b.playing = false
	b.notify()
}

// Reload re-arms duration discovery for the same source, keeping the
// playhead where it was.
func (b *Bridge) Reload() {
	b.durationKnown = false
}

// CurrentTime returns the last known playhead position.
func (b *Bridge) CurrentTime() float64 { return b.currentTime }

// Duration returns the reported duration, 0 while unknown.
func (b *Bridge) Duration() float64 { return b.duration }

// Playing reports the last signalled transport state.
func (b *Bridge) Playing() bool { return b.playing }

// Muted reports the last mute intent.
func (b *Bridge) Muted() bool { return b.muted }

// Looping reports the last loop intent.
func (b *Bridge) Looping() bool { return b.looping }

// Surface returns the wired surface.
func (b *Bridge) Surface() Surface { return b.surface }

// Position returns a snapshot of the transport.
func (b *Bridge) Position() Position {
	return Position{CurrentTime: b.currentTime, Duration: b.duration, Playing: b.playing}
}

func (b *Bridge) clampTime(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, -1) || t < 0 {
		return 0
	}
	if math.IsInf(t, 1) {
		return b.duration
	}
	if b.duration > 0 && t > b.duration {
		return b.duration
	}
	return t
}

func (b *Bridge) notify() {
	pos := b.Position()
	for _, fn := range b.listeners {
		fn(pos)
	}
}
