// Package editor holds the application state of a cutting session: the
// loaded source, its segments, the transport and the export flags. All
// methods except Export must be called from the single UI event loop.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cutline/cutline/internal/export"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/playback"
	"github.com/cutline/cutline/internal/segments"
	"github.com/cutline/cutline/internal/timeline"
)

// ErrNoSource is returned by operations that need a loaded file.
var ErrNoSource = errors.New("no video loaded")

// Metadata describes the loaded source. Duration stays 0 until the surface
// reports it.
type Metadata struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
	Duration float64
	URL      string
}

// Recents records opened files.
type Recents interface {
	TouchSource(ctx context.Context, s *history.RecentSource) error
}

// Config wires an Editor. Registry, Surface and Coordinator are required.
type Config struct {
	Registry    *playback.Registry
	Surface     playback.Surface
	Coordinator *export.Coordinator
	Recents     Recents
	Store       *segments.Store
	Logger      *slog.Logger
}

// Editor is the single owner of session state. The UI reads it through the
// accessors and changes it only through its methods.
type Editor struct {
	registry    *playback.Registry
	bridge      *playback.Bridge
	store       *segments.Store
	coordinator *export.Coordinator
	recents     Recents
	logger      *slog.Logger

	meta    Metadata
	ref     playback.SourceRef
	muted   bool
	looping bool
}

// New creates an editor with no file loaded, paused and looping.
func New(cfg Config) *Editor {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	store := cfg.Store
	if store == nil {
		store = segments.NewStore()
	}

	e := &Editor{
		registry:    cfg.Registry,
		store:       store,
		coordinator: cfg.Coordinator,
		recents:     cfg.Recents,
		logger:      logging.WithComponent(logger, "editor"),
		looping:     true,
	}
	e.bridge = playback.NewBridge(cfg.Surface, e.logger)
	e.bridge.OnDuration(func(d float64) {
		e.meta.Duration = d
		if n := e.store.ClampTo(d); n > 0 {
			e.logger.Info("segments clamped to new duration", "count", n, "duration", d)
		}
	})
	return e
}

// LoadFile replaces the current source with the file at path. Segments are
// cleared and the previous source reference is released. If the file
// cannot be opened or registered the current session is left as it was.
func (e *Editor) LoadFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}

	mimeType, err := DetectMimeType(abs)
	if err != nil {
		return err
	}

	ref, err := e.registry.Acquire(abs, mimeType)
	if err != nil {
		return fmt.Errorf("register source: %w", err)
	}
	e.registry.Release(e.ref)
	e.ref = ref

	e.meta = Metadata{
		Path:     abs,
		Name:     info.Name(),
		Size:     info.Size(),
		MimeType: mimeType,
		URL:      ref.URL,
	}
	e.store.Clear()
	e.bridge.Reset()

	e.logger.Info("source loaded",
		"path", logging.SanitizePath(abs),
		"size", info.Size(),
		"mime_type", mimeType,
	)

	if e.recents != nil {
		err := e.recents.TouchSource(ctx, &history.RecentSource{
			Path: abs, Name: info.Name(), Size: info.Size(), OpenedAt: time.Now(),
		})
		if err != nil {
			e.logger.Warn("failed to record recent source", "error", err)
		}
	}

	if surface := e.bridge.Surface(); surface != nil {
		if err := surface.Load(ctx, ref.URL); err != nil {
			return fmt.Errorf("load preview: %w", err)
		}
	}
	if err := e.bridge.SetMuted(e.muted); err != nil {
		e.logger.Warn("failed to apply mute", "error", err)
	}
	if err := e.bridge.SetLooping(e.looping); err != nil {
		e.logger.Warn("failed to apply loop", "error", err)
	}
	return nil
}

// ReloadSource re-reads the current file after it changed on disk. The
// segments are kept and the duration is re-discovered.
func (e *Editor) ReloadSource(ctx context.Context) error {
	if !e.HasFile() {
		return ErrNoSource
	}
	info, err := os.Stat(e.meta.Path)
	if err != nil {
		return fmt.Errorf("reload video: %w", err)
	}
	e.meta.Size = info.Size()
	e.bridge.Reload()

	e.logger.Info("source reloaded", "path", logging.SanitizePath(e.meta.Path), "size", info.Size())

	if surface := e.bridge.Surface(); surface != nil {
		if err := surface.Load(ctx, e.ref.URL); err != nil {
			return fmt.Errorf("load preview: %w", err)
		}
	}
	return nil
}

// Dispatch applies a surface signal.
func (e *Editor) Dispatch(sig playback.Signal) {
	e.bridge.Dispatch(sig)
}

// AddSegment creates a segment at the playhead. It does nothing while no
// file is loaded.
func (e *Editor) AddSegment() (segments.Segment, bool) {
	if !e.HasFile() {
		return segments.Segment{}, false
	}
	seg := e.store.Add(e.bridge.CurrentTime(), e.meta.Duration)
	e.logger.Debug("segment added", "id", seg.ID, "start", seg.Start, "end", seg.End)
	return seg, true
}

// RemoveSegment deletes the segment with id and reports whether it existed.
func (e *Editor) RemoveSegment(id string) bool {
	return e.store.Remove(id)
}

// UpdateSegment patches a segment, keeping it inside the known duration.
func (e *Editor) UpdateSegment(id string, p segments.Patch) (segments.Segment, bool) {
	return e.store.Update(id, p, e.meta.Duration)
}

// Seek moves the playhead to t seconds.
func (e *Editor) Seek(t float64) error {
	return e.bridge.Seek(t)
}

// SeekBy moves the playhead by delta seconds.
func (e *Editor) SeekBy(delta float64) error {
	return e.bridge.Seek(e.bridge.CurrentTime() + delta)
}

// SeekFraction moves the playhead to a fraction of the timeline.
func (e *Editor) SeekFraction(f float64) error {
	if e.meta.Duration <= 0 {
		return nil
	}
	return e.bridge.Seek(timeline.FractionToTime(f, e.meta.Duration))
}

// TogglePlay asks the surface to play or pause. The playing flag follows
// the surface signals, not this call.
func (e *Editor) TogglePlay() error {
	if !e.HasFile() {
		return nil
	}
	return e.bridge.TogglePlay()
}

// SetMuted sets the global mute flag used by both preview and export.
func (e *Editor) SetMuted(muted bool) error {
	e.muted = muted
	if !e.HasFile() {
		return nil
	}
	return e.bridge.SetMuted(muted)
}

// ToggleMute flips the mute flag.
func (e *Editor) ToggleMute() error {
	return e.SetMuted(!e.muted)
}

// SetLooping sets whether the preview restarts at the end.
func (e *Editor) SetLooping(looping bool) error {
	e.looping = looping
	if !e.HasFile() {
		return nil
	}
	return e.bridge.SetLooping(looping)
}

// ToggleLoop flips the loop flag.
func (e *Editor) ToggleLoop() error {
	return e.SetLooping(!e.looping)
}

// ExportSnapshot captures what an export triggered now would send.
func (e *Editor) ExportSnapshot() export.Snapshot {
	snap := export.Snapshot{Muted: e.muted, Segments: e.store.List()}
	if e.HasFile() {
		snap.Source = export.Source{
			Path:     e.meta.Path,
			Name:     e.meta.Name,
			MimeType: e.meta.MimeType,
			Size:     e.meta.Size,
		}
	}
	return snap
}

// CanExport reports whether an export trigger would do anything.
func (e *Editor) CanExport() bool {
	return e.HasFile() && e.store.Len() > 0 && !e.coordinator.Busy()
}

// Export runs one export of snap. It reads no editor state, so it may run
// off the event loop with a snapshot taken by ExportSnapshot.
func (e *Editor) Export(ctx context.Context, snap export.Snapshot) (export.Result, bool) {
	return e.coordinator.Start(ctx, snap)
}

// Close releases the source reference and shuts the surface down.
func (e *Editor) Close() error {
	e.registry.Release(e.ref)
	e.ref = playback.SourceRef{}
	if surface := e.bridge.Surface(); surface != nil {
		return surface.Close()
	}
	return nil
}

// HasFile reports whether a source is loaded.
func (e *Editor) HasFile() bool { return e.meta.Path != "" }

// Metadata returns the loaded source's description.
func (e *Editor) Metadata() Metadata { return e.meta }

// SourceRef returns the registry reference backing the preview URL.
func (e *Editor) SourceRef() playback.SourceRef { return e.ref }

// Segments returns a copy of the segments in insertion order.
func (e *Editor) Segments() []segments.Segment { return e.store.List() }

// Segment looks up one segment by id.
func (e *Editor) Segment(id string) (segments.Segment, bool) { return e.store.Get(id) }

// Position returns the transport as last reported by the surface.
func (e *Editor) Position() playback.Position { return e.bridge.Position() }

// Muted reports the mute flag sent with exports.
func (e *Editor) Muted() bool { return e.muted }

// Looping reports the loop flag.
func (e *Editor) Looping() bool { return e.looping }

// ExportStatus returns the coordinator state.
func (e *Editor) ExportStatus() export.Status { return e.coordinator.Status() }

// Busy reports whether an export is in flight.
func (e *Editor) Busy() bool { return e.coordinator.Busy() }

// DetectMimeType uses the extension, falling back to content sniffing.
func DetectMimeType(path string) (string, error) {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read video: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
