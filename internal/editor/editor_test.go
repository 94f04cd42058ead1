package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cutline/cutline/internal/export"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/playback"
	"github.com/cutline/cutline/internal/segments"
)

type fakeSurface struct {
	calls   []string
	loadErr error
	closed  bool
}

func (s *fakeSurface) Load(ctx context.Context, url string) error {
	s.calls = append(s.calls, "load "+url)
	return s.loadErr
}
func (s *fakeSurface) Play() error  { s.calls = append(s.calls, "play"); return nil }
func (s *fakeSurface) Pause() error { s.calls = append(s.calls, "pause"); return nil }
func (s *fakeSurface) Seek(t float64) error {
	s.calls = append(s.calls, fmt.Sprintf("seek %.2f", t))
	return nil
}
func (s *fakeSurface) SetMuted(m bool) error {
	s.calls = append(s.calls, fmt.Sprintf("muted %v", m))
	return nil
}
func (s *fakeSurface) SetLooping(l bool) error {
	s.calls = append(s.calls, fmt.Sprintf("looping %v", l))
	return nil
}
func (s *fakeSurface) Signals() <-chan playback.Signal { return nil }
func (s *fakeSurface) Close() error                    { s.closed = true; return nil }

func (s *fakeSurface) reset() { s.calls = nil }

type fakeUploader struct {
	err  error
	body string
	got  export.Snapshot
}

func (u *fakeUploader) Export(ctx context.Context, snap export.Snapshot) (io.ReadCloser, error) {
	u.got = snap
	if u.err != nil {
		return nil, u.err
	}
	return io.NopCloser(strings.NewReader(u.body)), nil
}

type fakeRecents struct {
	touched []string
}

func (r *fakeRecents) TouchSource(ctx context.Context, s *history.RecentSource) error {
	r.touched = append(r.touched, s.Path)
	return nil
}

type harness struct {
	editor   *Editor
	surface  *fakeSurface
	registry *playback.Registry
	uploader *fakeUploader
	recents  *fakeRecents
	notified []string
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		surface:  &fakeSurface{},
		registry: playback.NewRegistry(nil),
		uploader: &fakeUploader{body: "video-bytes"},
		recents:  &fakeRecents{},
		dir:      t.TempDir(),
	}
	h.registry.SetBaseURL("http://127.0.0.1:9")

	coord := export.NewCoordinator(export.CoordinatorConfig{
		Client:   h.uploader,
		Saver:    export.DirSaver{Dir: filepath.Join(h.dir, "out")},
		Notifier: export.NotifierFunc(func(msg string) { h.notified = append(h.notified, msg) }),
	})

	h.editor = New(Config{
		Registry:    h.registry,
		Surface:     h.surface,
		Coordinator: coord,
		Recents:     h.recents,
	})
	return h
}

func (h *harness) writeVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte("not really a video"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (h *harness) load(t *testing.T, name string, duration float64) {
	t.Helper()
	if err := h.editor.LoadFile(context.Background(), h.writeVideo(t, name)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	h.editor.Dispatch(playback.Signal{Kind: playback.SignalDurationKnown, Value: duration})
}

func TestLoadFile(t *testing.T) {
	h := newHarness(t)
	path := h.writeVideo(t, "clip.mp4")

	if err := h.editor.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	meta := h.editor.Metadata()
	if meta.Name != "clip.mp4" || meta.Size != 18 || meta.Duration != 0 || meta.MimeType == "" {
		t.Errorf("metadata = %+v", meta)
	}
	if !strings.HasPrefix(meta.URL, "http://127.0.0.1:9/media/") {
		t.Errorf("URL = %q", meta.URL)
	}

	want := []string{"load " + meta.URL, "muted false", "looping true"}
	if strings.Join(h.surface.calls, "|") != strings.Join(want, "|") {
		t.Errorf("surface calls = %v, want %v", h.surface.calls, want)
	}
	if len(h.recents.touched) != 1 || h.recents.touched[0] != path {
		t.Errorf("recents = %v", h.recents.touched)
	}
}

func TestLoadFile_NewFileResetsSession(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 30)
	h.editor.AddSegment()
	h.editor.AddSegment()
	first := h.editor.SourceRef()

	h.load(t, "b.mp4", 0)

	if got := len(h.editor.Segments()); got != 0 {
		t.Errorf("segments after new file = %d, want 0", got)
	}
	if d := h.editor.Metadata().Duration; d != 0 {
		t.Errorf("duration after new file = %v, want 0", d)
	}
	if h.registry.Active() != 1 {
		t.Errorf("active refs = %d, want 1", h.registry.Active())
	}
	if h.editor.SourceRef() == first {
		t.Error("source ref was not replaced")
	}
}

func TestLoadFile_MissingKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 30)
	h.editor.AddSegment()
	before := h.editor.Metadata()

	err := h.editor.LoadFile(context.Background(), filepath.Join(h.dir, "missing.mp4"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if h.editor.Metadata() != before || len(h.editor.Segments()) != 1 {
		t.Error("failed load changed the session")
	}
	if h.registry.Active() != 1 {
		t.Errorf("active refs = %d, want 1", h.registry.Active())
	}
}

func TestLoadFile_SurfaceErrorReported(t *testing.T) {
	h := newHarness(t)
	h.surface.loadErr = errors.New("no window")

	err := h.editor.LoadFile(context.Background(), h.writeVideo(t, "a.mp4"))
	if err == nil || !strings.Contains(err.Error(), "no window") {
		t.Errorf("LoadFile() error = %v", err)
	}
}

func TestAddSegment(t *testing.T) {
	h := newHarness(t)

	if _, ok := h.editor.AddSegment(); ok {
		t.Fatal("AddSegment() with no file should be a no-op")
	}

	h.load(t, "a.mp4", 30)
	h.editor.Dispatch(playback.Signal{Kind: playback.SignalTimeAdvance, Value: 2})

	seg, ok := h.editor.AddSegment()
	if !ok {
		t.Fatal("AddSegment() = false")
	}
	if seg.Start != 2 || seg.End != 7 || seg.Label != "Segment 1" {
		t.Errorf("segment = %+v", seg)
	}

	h.editor.Dispatch(playback.Signal{Kind: playback.SignalTimeAdvance, Value: 28})
	seg, _ = h.editor.AddSegment()
	if seg.End != 30 || seg.Label != "Segment 2" {
		t.Errorf("segment near end = %+v", seg)
	}
}

func TestUpdateAndRemoveSegment(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 30)
	seg, _ := h.editor.AddSegment()

	got, ok := h.editor.UpdateSegment(seg.ID, segments.Patch{End: segments.Float(99), Label: segments.String("Intro")})
	if !ok || got.End != 30 || got.Label != "Intro" {
		t.Errorf("UpdateSegment() = %+v, %v", got, ok)
	}

	if _, ok := h.editor.UpdateSegment("nope", segments.Patch{}); ok {
		t.Error("UpdateSegment(unknown) = true")
	}
	if !h.editor.RemoveSegment(seg.ID) || h.editor.RemoveSegment(seg.ID) {
		t.Error("RemoveSegment() should succeed once")
	}
}

func TestSeek(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 20)
	h.surface.reset()

	h.editor.SeekFraction(0.25)
	if got := h.editor.Position().CurrentTime; got != 5 {
		t.Errorf("after SeekFraction CurrentTime = %v, want 5", got)
	}
	h.editor.SeekBy(-10)
	if got := h.editor.Position().CurrentTime; got != 0 {
		t.Errorf("after SeekBy CurrentTime = %v, want 0", got)
	}
	h.editor.Seek(100)
	if got := h.editor.Position().CurrentTime; got != 20 {
		t.Errorf("after Seek CurrentTime = %v, want 20", got)
	}

	want := "seek 5.00|seek 0.00|seek 20.00"
	if got := strings.Join(h.surface.calls, "|"); got != want {
		t.Errorf("surface calls = %s, want %s", got, want)
	}
}

func TestTogglePlayFollowsSurface(t *testing.T) {
	h := newHarness(t)
	h.editor.TogglePlay()
	if len(h.surface.calls) != 0 {
		t.Errorf("TogglePlay() with no file reached surface: %v", h.surface.calls)
	}

	h.load(t, "a.mp4", 20)
	h.surface.reset()

	h.editor.TogglePlay()
	if h.editor.Position().Playing {
		t.Error("playing before the surface confirmed")
	}
	h.editor.Dispatch(playback.Signal{Kind: playback.SignalPlayStarted})
	h.editor.TogglePlay()

	if got := strings.Join(h.surface.calls, "|"); got != "play|pause" {
		t.Errorf("surface calls = %s", got)
	}
}

func TestMuteAndLoopFlags(t *testing.T) {
	h := newHarness(t)
	if h.editor.Muted() || !h.editor.Looping() {
		t.Fatal("defaults should be unmuted and looping")
	}

	h.editor.ToggleMute()
	h.editor.ToggleLoop()
	if len(h.surface.calls) != 0 {
		t.Errorf("flags reached surface with no file: %v", h.surface.calls)
	}

	h.load(t, "a.mp4", 10)
	want := "muted true|looping false"
	if got := strings.Join(h.surface.calls[1:], "|"); got != want {
		t.Errorf("flags applied on load = %s, want %s", got, want)
	}
	if !h.editor.ExportSnapshot().Muted {
		t.Error("snapshot should carry the mute flag")
	}
}

func TestExport_Success(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 30)
	h.editor.AddSegment()

	if !h.editor.CanExport() {
		t.Fatal("CanExport() = false")
	}
	res, ok := h.editor.Export(context.Background(), h.editor.ExportSnapshot())
	if !ok || res.Status != export.StatusCompleted {
		t.Fatalf("Export() = %+v, %v", res, ok)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil || string(data) != "video-bytes" {
		t.Errorf("saved = %q, %v", data, err)
	}
	if h.uploader.got.Source.Name != "a.mp4" || len(h.uploader.got.Segments) != 1 {
		t.Errorf("uploaded snapshot = %+v", h.uploader.got)
	}
	if h.editor.ExportStatus() != export.StatusIdle {
		t.Errorf("status = %v, want idle", h.editor.ExportStatus())
	}
}

func TestExport_FailureLeavesSessionUnchanged(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 30)
	h.editor.AddSegment()
	h.editor.AddSegment()
	meta := h.editor.Metadata()
	segs := h.editor.Segments()

	h.uploader.err = &export.ServerError{StatusCode: 500, Message: "disk full"}
	res, ok := h.editor.Export(context.Background(), h.editor.ExportSnapshot())
	if !ok || res.Status != export.StatusError {
		t.Fatalf("Export() = %+v, %v", res, ok)
	}
	if !strings.Contains(res.Message, "disk full") {
		t.Errorf("message = %q", res.Message)
	}
	if len(h.notified) != 1 || !strings.Contains(h.notified[0], "disk full") {
		t.Errorf("notified = %v", h.notified)
	}

	if h.editor.Metadata() != meta {
		t.Error("metadata changed after failed export")
	}
	after := h.editor.Segments()
	if len(after) != len(segs) || after[0] != segs[0] || after[1] != segs[1] {
		t.Errorf("segments changed: %+v -> %+v", segs, after)
	}
	if h.editor.Busy() {
		t.Error("still busy after failed export")
	}
}

func TestExport_NotReady(t *testing.T) {
	h := newHarness(t)
	if _, ok := h.editor.Export(context.Background(), h.editor.ExportSnapshot()); ok {
		t.Error("export with no file should be a no-op")
	}

	h.load(t, "a.mp4", 30)
	if h.editor.CanExport() {
		t.Error("CanExport() with no segments = true")
	}
	if _, ok := h.editor.Export(context.Background(), h.editor.ExportSnapshot()); ok {
		t.Error("export with no segments should be a no-op")
	}
}

func TestReloadSource(t *testing.T) {
	h := newHarness(t)
	if err := h.editor.ReloadSource(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("ReloadSource() with no file = %v", err)
	}

	h.load(t, "a.mp4", 30)
	h.editor.AddSegment()
	os.WriteFile(h.editor.Metadata().Path, []byte("longer content now"), 0644)
	h.surface.reset()

	if err := h.editor.ReloadSource(context.Background()); err != nil {
		t.Fatalf("ReloadSource() error = %v", err)
	}
	if len(h.editor.Segments()) != 1 {
		t.Error("reload dropped segments")
	}
	h.editor.Dispatch(playback.Signal{Kind: playback.SignalDurationKnown, Value: 40})
	if h.editor.Metadata().Duration != 40 {
		t.Errorf("duration after reload = %v, want 40", h.editor.Metadata().Duration)
	}
	if len(h.surface.calls) != 1 || !strings.HasPrefix(h.surface.calls[0], "load ") {
		t.Errorf("surface calls = %v", h.surface.calls)
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 30)

	if err := h.editor.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if h.registry.Active() != 0 {
		t.Errorf("active refs after Close = %d", h.registry.Active())
	}
	if !h.surface.closed {
		t.Error("surface not closed")
	}
}

func TestReloadSource_ShorterFileClampsSegments(t *testing.T) {
	h := newHarness(t)
	h.load(t, "a.mp4", 100)

	h.editor.Dispatch(playback.Signal{Kind: playback.SignalTimeAdvance, Value: 10})
	inside, _ := h.editor.AddSegment()
	h.editor.Dispatch(playback.Signal{Kind: playback.SignalTimeAdvance, Value: 97})
	tail, _ := h.editor.AddSegment()
	if tail.Start != 97 || tail.End != 100 {
		t.Fatalf("tail segment = [%v, %v], want [97, 100]", tail.Start, tail.End)
	}

	if err := h.editor.ReloadSource(context.Background()); err != nil {
		t.Fatalf("ReloadSource() error = %v", err)
	}
	h.editor.Dispatch(playback.Signal{Kind: playback.SignalDurationKnown, Value: 50})

	duration := h.editor.Metadata().Duration
	if duration != 50 {
		t.Fatalf("duration = %v, want 50", duration)
	}
	for _, seg := range h.editor.Segments() {
		if seg.Start < 0 || seg.Start > seg.End || seg.End > duration {
			t.Errorf("segment %s = [%v, %v] outside [0, %v]", seg.ID, seg.Start, seg.End, duration)
		}
	}
	if got, _ := h.editor.Segment(inside.ID); got != inside {
		t.Errorf("segment inside the new duration changed: %+v", got)
	}
	if got, _ := h.editor.Segment(tail.ID); got.Start != 50 || got.End != 50 {
		t.Errorf("tail segment = [%v, %v], want [50, 50]", got.Start, got.End)
	}
}
