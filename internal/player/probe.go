// Package player provides playback surfaces: an mpv window driven over its
// JSON IPC socket, and a headless clock for terminals without a video output.
package player

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024
	probeTimeout   = 30 * time.Second
)

// Prober reports the duration of a media source in seconds.
type Prober interface {
	Probe(ctx context.Context, target string) (float64, error)
}

// FFProbe runs ffprobe as a subprocess.
type FFProbe struct {
	path   string
	logger *slog.Logger
}

// NewFFProbe resolves the ffprobe binary. An empty preferred path searches PATH.
func NewFFProbe(preferred string, logger *slog.Logger) (*FFProbe, error) {
	path, err := resolveBinary(preferred, "ffprobe")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FFProbe{path: path, logger: logger}, nil
}

// Path returns the resolved binary.
func (p *FFProbe) Path() string { return p.path }

// Probe reads the container duration of target, which may be a path or URL.
func (p *FFProbe) Probe(ctx context.Context, target string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		target,
	)

	var stdout, stderrBuf bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		p.logger.Warn("ffprobe failed",
			"exit_code", exitCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr_tail", truncate(stderrBuf.String(), 512),
		)
		return 0, fmt.Errorf("ffprobe exited %d: %s", exitCode, strings.TrimSpace(truncate(stderrBuf.String(), 512)))
	}

	d, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return 0, err
	}
	p.logger.Debug("ffprobe complete", "duration", d, "duration_ms", time.Since(start).Milliseconds())
	return d, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}
	if out.Format.Duration == "" || out.Format.Duration == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", out.Format.Duration, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", out.Format.Duration)
	}
	return d, nil
}

// resolveBinary finds preferred, or name on PATH when preferred is empty.
func resolveBinary(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("no %s binary found on PATH", name)
	}
	return p, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := make([]byte, lw.limit)
		copy(tail, b[len(b)-lw.limit:])
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
