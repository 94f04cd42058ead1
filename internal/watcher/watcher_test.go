package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, path string) *FileWatcher {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w, err := New(logger, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(50 * time.Millisecond)
	return w
}

func waitEvent(t *testing.T, w *FileWatcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatcher_Modify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	os.WriteFile(path, []byte("v1"), 0o644)
	w := startWatcher(t, path)

	for i := 0; i < 5; i++ {
		os.WriteFile(path, []byte("v2 chunk"), 0o644)
	}

	ev := waitEvent(t, w)
	if ev.Type != EventModify || ev.Path != path {
		t.Errorf("event = %+v, want modify of %s", ev, path)
	}

	select {
	case extra := <-w.Events():
		t.Errorf("burst produced a second event %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_AtomicReplaceIsModify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	os.WriteFile(path, []byte("v1"), 0o644)
	w := startWatcher(t, path)

	tmp := filepath.Join(dir, ".clip.tmp")
	os.WriteFile(tmp, []byte("v2"), 0o644)
	os.Rename(tmp, path)

	if ev := waitEvent(t, w); ev.Type != EventModify {
		t.Errorf("event = %v, want modified", ev.Type)
	}
}

func TestWatcher_Delete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	os.WriteFile(path, []byte("v1"), 0o644)
	w := startWatcher(t, path)

	os.Remove(path)

	if ev := waitEvent(t, w); ev.Type != EventDelete {
		t.Errorf("event = %v, want deleted", ev.Type)
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	os.WriteFile(path, []byte("v1"), 0o644)
	w := startWatcher(t, path)

	os.WriteFile(filepath.Join(dir, "other.mp4"), []byte("x"), 0o644)

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_SwitchTarget(t *testing.T) {
	first := filepath.Join(t.TempDir(), "a.mp4")
	secondDir := t.TempDir()
	second := filepath.Join(secondDir, "b.mp4")
	os.WriteFile(first, []byte("a"), 0o644)
	os.WriteFile(second, []byte("b"), 0o644)

	w := startWatcher(t, first)
	if err := w.Watch(second); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if w.Target() != second {
		t.Fatalf("Target() = %s", w.Target())
	}

	os.WriteFile(second, []byte("b2"), 0o644)
	ev := waitEvent(t, w)
	if ev.Path != second {
		t.Errorf("event path = %s, want %s", ev.Path, second)
	}
}
