package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/segments"
)

const (
	// maxErrorBody bounds how much of a failed response is read.
	maxErrorBody = 64 * 1024

	fieldVideo    = "video"
	fieldMute     = "mute"
	fieldSegments = "segments"
)

// ServerError is a non-2xx answer from the export service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("export service returned HTTP %d: %s", e.StatusCode, e.Message)
}

// TransportError means the export service could not be reached or the
// exchange broke off before the processed video was fully received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("export request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Uploader submits a snapshot and returns the processed video stream.
type Uploader interface {
	Export(ctx context.Context, snap Snapshot) (io.ReadCloser, error)
}

// HTTPClient talks to the export service over multipart/form-data.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a client for the service at baseURL. A zero
// timeout leaves the request unbounded.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.Discard()
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the service root.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the export URL.
func (c *HTTPClient) Endpoint() string {
	return c.baseURL + "/export"
}

// Export posts the source file, mute flag and segment list in one
// buffered request. On 2xx the caller owns the returned body.
func (c *HTTPClient) Export(ctx context.Context, snap Snapshot) (io.ReadCloser, error) {
	body, contentType, err := encodeForm(snap)
	if err != nil {
		return nil, err
	}

	url := c.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(body.Len())

	c.logger.Info("posting export",
		"url", url,
		"source", snap.Source.Name,
		"segment_count", len(snap.Segments),
		"muted", snap.Muted,
		"body_bytes", body.Len(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.baseURL, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &responseBody{ReadCloser: resp.Body, url: c.baseURL}, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
}

// responseBody reports a body that breaks off mid-stream as a
// TransportError, the same as a request that never got a status.
type responseBody struct {
	io.ReadCloser
	url string
}

func (b *responseBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		err = &TransportError{URL: b.url, Err: err}
	}
	return n, err
}

// errorMessage extracts {"error": "..."} from a failure body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "HTTP " + strconv.Itoa(status)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeForm(snap Snapshot) (*bytes.Buffer, string, error) {
	f, err := os.Open(snap.Source.Path)
	if err != nil {
		return nil, "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	mimeType := snap.Source.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		fieldVideo, quoteEscaper.Replace(snap.Source.Name)))
	h.Set("Content-Type", mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create video part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read source: %w", err)
	}

	if err := w.WriteField(fieldMute, strconv.FormatBool(snap.Muted)); err != nil {
		return nil, "", fmt.Errorf("write mute field: %w", err)
	}

	segs := snap.Segments
	if segs == nil {
		segs = []segments.Segment{}
	}
	encoded, err := json.Marshal(segs)
	if err != nil {
		return nil, "", fmt.Errorf("encode segments: %w", err)
	}
	if err := w.WriteField(fieldSegments, string(encoded)); err != nil {
		return nil, "", fmt.Errorf("write segments field: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// UserMessage turns an export failure into the text shown to the user.
func UserMessage(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return "Export failed: " + se.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf("Export failed. Make sure the export service is reachable at %s.", te.URL)
	}
	return "Export failed: " + err.Error()
}
