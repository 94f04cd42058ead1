package playback

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistry_AcquireRelease(t *testing.T) {
	reg := NewRegistry(nil)
	reg.SetBaseURL("http://127.0.0.1:9000/")
	path := writeSource(t, "data")

	ref, err := reg.Acquire(path, "video/mp4")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !strings.HasPrefix(ref.URL, "http://127.0.0.1:9000/media/") {
		t.Errorf("URL = %q", ref.URL)
	}
	if reg.Active() != 1 {
		t.Errorf("Active() = %d, want 1", reg.Active())
	}

	reg.Release(ref)
	reg.Release(ref)
	if reg.Active() != 0 {
		t.Errorf("Active() = %d after release, want 0", reg.Active())
	}
}

func TestRegistry_AcquireErrors(t *testing.T) {
	reg := NewRegistry(nil)
	path := writeSource(t, "data")

	if _, err := reg.Acquire(path, ""); !errors.Is(err, ErrNotServing) {
		t.Errorf("Acquire() before SetBaseURL error = %v, want ErrNotServing", err)
	}

	reg.SetBaseURL("http://127.0.0.1:9000")
	if _, err := reg.Acquire(filepath.Join(t.TempDir(), "missing.mp4"), ""); err == nil {
		t.Error("Acquire() of a missing file should fail")
	}
	if _, err := reg.Acquire(t.TempDir(), ""); err == nil {
		t.Error("Acquire() of a directory should fail")
	}
}

func TestRegistry_ServeSource(t *testing.T) {
	reg := NewRegistry(nil)
	reg.SetBaseURL("http://127.0.0.1:9000")
	ref, err := reg.Acquire(writeSource(t, "0123456789"), "video/mp4")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		rangeHdr   string
		wantStatus int
		wantBody   string
	}{
		{"full", "", http.StatusOK, "0123456789"},
		{"partial", "bytes=2-5", http.StatusPartialContent, "2345"},
		{"malformed falls back", "pages=1", http.StatusOK, "0123456789"},
		{"unsatisfiable", "bytes=50-", http.StatusRequestedRangeNotSatisfiable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/media/"+ref.Token, nil)
			if tt.rangeHdr != "" {
				req.Header.Set("Range", tt.rangeHdr)
			}
			rec := httptest.NewRecorder()

			if err := reg.ServeSource(rec, req, ref.Token); err != nil {
				t.Fatalf("ServeSource() error = %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(rec.Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}

func TestRegistry_ServeReleasedSource(t *testing.T) {
	reg := NewRegistry(nil)
	reg.SetBaseURL("http://127.0.0.1:9000")
	ref, _ := reg.Acquire(writeSource(t, "x"), "")
	reg.Release(ref)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/"+ref.Token, nil)
	if err := reg.ServeSource(rec, req, ref.Token); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error = %v, want ErrUnknownSource", err)
	}
}
