package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cutline/cutline/internal/playback"
)

type fakeProber struct {
	duration float64
	err      error
	targets  chan string
}

func (p *fakeProber) Probe(ctx context.Context, target string) (float64, error) {
	if p.targets != nil {
		p.targets <- target
	}
	return p.duration, p.err
}

func newTestClock(t *testing.T, prober Prober) *Clock {
	t.Helper()
	c := NewClock(prober, nil, WithTick(time.Hour))
	t.Cleanup(func() { c.Close() })
	return c
}

func nextSignal(t *testing.T, c *Clock) playback.Signal {
	t.Helper()
	select {
	case sig := <-c.Signals():
		return sig
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
		return playback.Signal{}
	}
}

func expectSignal(t *testing.T, c *Clock, kind playback.SignalKind, value float64) {
	t.Helper()
	sig := nextSignal(t, c)
	if sig.Kind != kind || sig.Value != value {
		t.Fatalf("signal = %v(%v), want %v(%v)", sig.Kind, sig.Value, kind, value)
	}
}

func TestClock_LoadReportsDuration(t *testing.T) {
	prober := &fakeProber{duration: 30, targets: make(chan string, 1)}
	c := newTestClock(t, prober)

	if err := c.Load(context.Background(), "http://127.0.0.1:1/media/tok"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	expectSignal(t, c, playback.SignalTimeAdvance, 0)
	expectSignal(t, c, playback.SignalDurationKnown, 30)

	if got := <-prober.targets; got != "http://127.0.0.1:1/media/tok" {
		t.Errorf("probed %q", got)
	}
}

func TestClock_ProbeFailureReportsNothing(t *testing.T) {
	c := newTestClock(t, &fakeProber{err: errors.New("boom")})

	c.Load(context.Background(), "x")
	expectSignal(t, c, playback.SignalTimeAdvance, 0)

	select {
	case sig := <-c.Signals():
		t.Errorf("unexpected signal %v", sig.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClock_PlayAdvancePause(t *testing.T) {
	c := newTestClock(t, &fakeProber{duration: 10})
	c.Load(context.Background(), "x")
	expectSignal(t, c, playback.SignalTimeAdvance, 0)
	expectSignal(t, c, playback.SignalDurationKnown, 10)

	c.advance(1)
	select {
	case sig := <-c.Signals():
		t.Fatalf("paused clock emitted %v", sig.Kind)
	default:
	}

	c.Play()
	expectSignal(t, c, playback.SignalPlayStarted, 0)
	c.advance(2.5)
	expectSignal(t, c, playback.SignalTimeAdvance, 2.5)

	c.Pause()
	expectSignal(t, c, playback.SignalPlayPaused, 0)
}

func TestClock_EndOfSource(t *testing.T) {
	tests := []struct {
		name    string
		looping bool
		wantPos float64
		paused  bool
	}{
		{"loops to start", true, 0, false},
		{"stops at end", false, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClock(t, &fakeProber{duration: 10})
			c.Load(context.Background(), "x")
			expectSignal(t, c, playback.SignalTimeAdvance, 0)
			expectSignal(t, c, playback.SignalDurationKnown, 10)

			c.SetLooping(tt.looping)
			c.Seek(9)
			expectSignal(t, c, playback.SignalTimeAdvance, 9)
			c.Play()
			expectSignal(t, c, playback.SignalPlayStarted, 0)

			c.advance(2)
			expectSignal(t, c, playback.SignalTimeAdvance, tt.wantPos)
			if tt.paused {
				expectSignal(t, c, playback.SignalPlayPaused, 0)
			}
		})
	}
}

func TestClock_SeekClamps(t *testing.T) {
	c := newTestClock(t, &fakeProber{duration: 10})
	c.Load(context.Background(), "x")
	expectSignal(t, c, playback.SignalTimeAdvance, 0)
	expectSignal(t, c, playback.SignalDurationKnown, 10)

	c.Seek(-3)
	expectSignal(t, c, playback.SignalTimeAdvance, 0)
	c.Seek(42)
	expectSignal(t, c, playback.SignalTimeAdvance, 10)
}

func TestClock_CloseClosesSignals(t *testing.T) {
	c := NewClock(nil, nil, WithTick(time.Hour))
	c.Close()
	c.Close()

	if _, ok := <-c.Signals(); ok {
		t.Error("signals channel still open after Close")
	}
	if err := c.Play(); err != nil {
		t.Errorf("Play() after Close error = %v", err)
	}
}
