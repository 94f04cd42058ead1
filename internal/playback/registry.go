package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cutline/cutline/internal/logging"
)

var (
	ErrUnknownSource = errors.New("unknown source reference")
	ErrNotServing    = errors.New("media server address not set")
)

// SourceRef is a locally resolvable reference to a loaded file. It stays
// valid until released.
type SourceRef struct {
	Token string
	URL   string
}

// Valid reports whether the reference was issued.
func (r SourceRef) Valid() bool {
	return r.Token != ""
}

type source struct {
	path     string
	mimeType string
}

// Registry hands out source references for local files and serves their
// bytes over HTTP. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	baseURL string
	sources map[string]source
	logger  *slog.Logger
}

// NewRegistry returns an empty registry. SetBaseURL must be called before
// the first Acquire.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sources: make(map[string]source),
		logger:  logger,
	}
}

// SetBaseURL records where the media server listens, e.g.
// http://127.0.0.1:43121.
func (r *Registry) SetBaseURL(base string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseURL = strings.TrimSuffix(base, "/")
}

// Acquire registers path and returns a reference to it.
func (r *Registry) Acquire(path, mimeType string) (SourceRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceRef{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return SourceRef{}, fmt.Errorf("source %s is a directory", filepath.Base(path))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.baseURL == "" {
		return SourceRef{}, ErrNotServing
	}

	token := uuid.New().String()
	r.sources[token] = source{path: path, mimeType: mimeType}

	if r.logger != nil {
		r.logger.Debug("source acquired", "token", logging.SanitizeToken(token), "path", logging.SanitizePath(path))
	}

	return SourceRef{Token: token, URL: r.baseURL + "/media/" + token}, nil
}

// Release invalidates ref. Releasing twice is harmless.
func (r *Registry) Release(ref SourceRef) {
	if !ref.Valid() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[ref.Token]; ok {
		delete(r.sources, ref.Token)
		if r.logger != nil {
			r.logger.Debug("source released", "token", logging.SanitizeToken(ref.Token))
		}
	}
}

// Active returns the number of live references.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// ServeSource writes the bytes behind token, honouring a single Range.
func (r *Registry) ServeSource(w http.ResponseWriter, req *http.Request, token string) error {
	r.mu.RLock()
	src, ok := r.sources[token]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownSource
	}

	f, err := os.Open(src.path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	size := info.Size()

	contentType := src.mimeType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(src.path))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, ranged, err := ParseByteRange(req.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrRangeNotSatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrMalformedRange):
		ranged = false
	}

	if !ranged {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if req.Method != http.MethodHead {
			_, _ = io.Copy(w, f)
		}
		return nil
	}

	if _, err := f.Seek(br.First, io.SeekStart); err != nil {
		return fmt.Errorf("seek source: %w", err)
	}

	w.Header().Set("Content-Length", strconv.FormatInt(br.Len(), 10))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if req.Method != http.MethodHead {
		_, _ = io.CopyN(w, f, br.Len())
	}
	return nil
}
