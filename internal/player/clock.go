package player

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cutline/cutline/internal/playback"
)

const (
	defaultTick   = 100 * time.Millisecond
	signalBacklog = 256
)

// Clock is a surface without video output. It keeps a transport position
// that advances in real time while playing and learns the duration from
// a Prober.
type Clock struct {
	prober Prober
	logger *slog.Logger
	tick   time.Duration

	mu       sync.Mutex
	pos      float64
	duration float64
	playing  bool
	looping  bool
	muted    bool
	loadSeq  int

	signals   chan playback.Signal
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithTick sets how often the position advances while playing.
func WithTick(d time.Duration) ClockOption {
	return func(c *Clock) { c.tick = d }
}

// NewClock starts a clock surface. prober may be nil, in which case the
// duration is never reported.
func NewClock(prober Prober, logger *slog.Logger, opts ...ClockOption) *Clock {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Clock{
		prober:  prober,
		logger:  logger,
		tick:    defaultTick,
		looping: true,
		signals: make(chan playback.Signal, signalBacklog),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Clock) Signals() <-chan playback.Signal { return c.signals }

// Load resets the transport and probes url in the background.
func (c *Clock) Load(ctx context.Context, url string) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.pos = 0
	c.duration = 0
	wasPlaying := c.playing
	c.playing = false
	c.mu.Unlock()

	if wasPlaying {
		c.emit(playback.Signal{Kind: playback.SignalPlayPaused})
	}
	c.emit(playback.Signal{Kind: playback.SignalTimeAdvance, Value: 0})

	if c.prober == nil {
		return nil
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		probeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		go func() {
			select {
			case <-c.done:
				cancel()
			case <-probeCtx.Done():
			}
		}()

		d, err := c.prober.Probe(probeCtx, url)
		if err != nil {
			c.logger.Warn("duration probe failed", "error", err)
			return
		}

		c.mu.Lock()
		if seq != c.loadSeq {
			c.mu.Unlock()
			return
		}
		c.duration = d
		c.mu.Unlock()
		c.emit(playback.Signal{Kind: playback.SignalDurationKnown, Value: d})
	}()
	return nil
}

func (c *Clock) Play() error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return nil
	}
	if c.duration > 0 && c.pos >= c.duration {
		c.pos = 0
	}
	c.playing = true
	c.mu.Unlock()
	c.emit(playback.Signal{Kind: playback.SignalPlayStarted})
	return nil
}

func (c *Clock) Pause() error {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return nil
	}
	c.playing = false
	c.mu.Unlock()
	c.emit(playback.Signal{Kind: playback.SignalPlayPaused})
	return nil
}

func (c *Clock) Seek(seconds float64) error {
	c.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.pos = seconds
	c.mu.Unlock()
	c.emit(playback.Signal{Kind: playback.SignalTimeAdvance, Value: seconds})
	return nil
}

func (c *Clock) SetMuted(muted bool) error {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
	return nil
}

func (c *Clock) SetLooping(looping bool) error {
	c.mu.Lock()
	c.looping = looping
	c.mu.Unlock()
	return nil
}

// Muted reports the mute state; a clock has no audio to silence.
func (c *Clock) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Close stops the ticker and closes the signal channel.
func (c *Clock) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		close(c.signals)
	})
	return nil
}

func (c *Clock) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

// advance moves a playing transport forward by dt seconds.
func (c *Clock) advance(dt float64) {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}

	var sigs []playback.Signal
	c.pos += dt
	if c.duration > 0 && c.pos >= c.duration {
		if c.looping {
			c.pos = 0
		} else {
			c.pos = c.duration
			c.playing = false
			sigs = append(sigs, playback.Signal{Kind: playback.SignalPlayPaused})
		}
	}
	sigs = append([]playback.Signal{{Kind: playback.SignalTimeAdvance, Value: c.pos}}, sigs...)
	c.mu.Unlock()

	for _, s := range sigs {
		if s.Kind == playback.SignalTimeAdvance {
			c.tryEmit(s)
			continue
		}
		c.emit(s)
	}
}

func (c *Clock) emit(sig playback.Signal) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.signals <- sig:
	case <-c.done:
	}
}

// tryEmit drops sig when the consumer is behind; the next tick reports a
// fresher position anyway.
func (c *Clock) tryEmit(sig playback.Signal) {
	select {
	case <-c.done:
		return
	case c.signals <- sig:
	default:
	}
}
