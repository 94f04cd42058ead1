package player

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cutline/cutline/internal/playback"
)

const (
	commandTimeout = 5 * time.Second
	dialTimeout    = 5 * time.Second
	quitGrace      = 2 * time.Second
)

// ErrClosed is returned by commands issued after the surface shut down.
var ErrClosed = errors.New("mpv: surface closed")

// Observed property ids.
const (
	propTimePos = iota + 1
	propDuration
	propPause
)

// MPVConfig configures StartMPV.
type MPVConfig struct {
	Path   string // empty = search PATH
	Logger *slog.Logger
	Args   []string // extra command-line flags
}

// MPV drives an mpv process over its JSON IPC socket.
type MPV struct {
	conn    net.Conn
	scanner *bufio.Scanner
	logger  *slog.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan mpvReply

	signals   chan playback.Signal
	done      chan struct{}
	closeOnce sync.Once
	readDone  chan struct{}

	cmd       *exec.Cmd
	socketDir string
}

type mpvRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type mpvReply struct {
	Error string
	Data  json.RawMessage
}

type mpvMessage struct {
	Event     string          `json:"event"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	RequestID *int64          `json:"request_id"`
	Error     string          `json:"error"`
}

// StartMPV launches mpv in idle mode and connects to its IPC socket.
func StartMPV(ctx context.Context, cfg MPVConfig) (*MPV, error) {
	path, err := resolveBinary(cfg.Path, "mpv")
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dir, err := os.MkdirTemp("", "cutline-mpv-*")
	if err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	sock := filepath.Join(dir, "mpv.sock")

	args := append([]string{
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes",
		"--pause",
		"--loop-file=inf",
		"--no-terminal",
		"--title=cutline",
		"--input-ipc-server=" + sock,
	}, cfg.Args...)

	cmd := exec.Command(path, args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("start mpv: %w", err)
	}
	logger.Info("mpv started", "pid", cmd.Process.Pid, "binary", path)

	conn, err := dialSocket(ctx, sock)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("connect to mpv: %w (stderr: %s)", err, truncate(stderrBuf.String(), 512))
	}

	m := newMPV(conn, logger)
	m.cmd = cmd
	m.socketDir = dir
	if err := m.observe(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func dialSocket(ctx context.Context, sock string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", sock)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// newMPV wraps an established IPC connection and starts reading from it.
func newMPV(conn net.Conn, logger *slog.Logger) *MPV {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	m := &MPV{
		conn:     conn,
		scanner:  scanner,
		logger:   logger,
		pending:  make(map[int64]chan mpvReply),
		signals:  make(chan playback.Signal, signalBacklog),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go m.readLoop()
	return m
}

func (m *MPV) observe() error {
	props := []struct {
		id   int
		name string
	}{
		{propTimePos, "time-pos"},
		{propDuration, "duration"},
		{propPause, "pause"},
	}
	for _, p := range props {
		if _, err := m.command("observe_property", p.id, p.name); err != nil {
			return fmt.Errorf("observe %s: %w", p.name, err)
		}
	}
	return nil
}

func (m *MPV) Signals() <-chan playback.Signal { return m.signals }

func (m *MPV) Load(ctx context.Context, url string) error {
	if err := m.setProperty("pause", true); err != nil {
		return err
	}
	_, err := m.commandContext(ctx, "loadfile", url, "replace")
	return err
}

func (m *MPV) Play() error  { return m.setProperty("pause", false) }
func (m *MPV) Pause() error { return m.setProperty("pause", true) }

func (m *MPV) Seek(seconds float64) error {
	_, err := m.command("seek", seconds, "absolute")
	return err
}

func (m *MPV) SetMuted(muted bool) error { return m.setProperty("mute", muted) }

func (m *MPV) SetLooping(looping bool) error {
	v := "no"
	if looping {
		v = "inf"
	}
	return m.setProperty("loop-file", v)
}

// Close asks mpv to quit, then tears down the connection and process.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		m.conn.SetWriteDeadline(time.Now().Add(time.Second))
		m.writeLine(mpvRequest{Command: []any{"quit"}, RequestID: m.nextID.Add(1)})
		close(m.done)
		m.conn.Close()
		<-m.readDone

		if m.cmd != nil {
			exited := make(chan struct{})
			go func() {
				m.cmd.Wait()
				close(exited)
			}()
			select {
			case <-exited:
			case <-time.After(quitGrace):
				m.cmd.Process.Kill()
				<-exited
			}
			m.logger.Info("mpv stopped")
		}
		if m.socketDir != "" {
			os.RemoveAll(m.socketDir)
		}
	})
	return nil
}

func (m *MPV) setProperty(name string, value any) error {
	_, err := m.command("set_property", name, value)
	return err
}

func (m *MPV) command(args ...any) (json.RawMessage, error) {
	return m.commandContext(context.Background(), args...)
}

// commandContext sends one IPC command and waits for its reply.
func (m *MPV) commandContext(ctx context.Context, args ...any) (json.RawMessage, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	id := m.nextID.Add(1)
	ch := make(chan mpvReply, 1)
	m.pendingMu.Lock()
	m.pending[id] = ch
	m.pendingMu.Unlock()
	defer func() {
		m.pendingMu.Lock()
		delete(m.pending, id)
		m.pendingMu.Unlock()
	}()

	if err := m.writeLine(mpvRequest{Command: args, RequestID: id}); err != nil {
		return nil, err
	}

	timer := time.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if reply.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], reply.Error)
		}
		return reply.Data, nil
	case <-timer.C:
		return nil, fmt.Errorf("mpv %v: no reply within %s", args[0], commandTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrClosed
	}
}

func (m *MPV) writeLine(req mpvRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	data = append(data, '\n')

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if _, err := m.conn.Write(data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

func (m *MPV) readLoop() {
	defer close(m.readDone)
	defer close(m.signals)
	defer m.failPending()

	for m.scanner.Scan() {
		var msg mpvMessage
		if err := json.Unmarshal(m.scanner.Bytes(), &msg); err != nil {
			m.logger.Debug("skipping malformed ipc line", "error", err)
			continue
		}

		if msg.RequestID != nil && msg.Event == "" {
			m.deliver(*msg.RequestID, mpvReply{Error: msg.Error, Data: msg.Data})
			continue
		}

		switch msg.Event {
		case "property-change":
			if sig, ok := propertySignal(msg); ok {
				select {
				case m.signals <- sig:
				case <-m.done:
					return
				}
			}
		case "shutdown":
			m.logger.Info("mpv shut down")
			return
		}
	}
	if err := m.scanner.Err(); err != nil {
		select {
		case <-m.done:
		default:
			m.logger.Warn("mpv connection lost", "error", err)
		}
	}
}

func (m *MPV) deliver(id int64, reply mpvReply) {
	m.pendingMu.Lock()
	ch, ok := m.pending[id]
	m.pendingMu.Unlock()
	if ok {
		ch <- reply
	}
}

func (m *MPV) failPending() {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	for id, ch := range m.pending {
		close(ch)
		delete(m.pending, id)
	}
}

// propertySignal maps an observed property change to a surface signal.
// Null values, sent while nothing is loaded, produce no signal.
func propertySignal(msg mpvMessage) (playback.Signal, bool) {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return playback.Signal{}, false
	}

	switch msg.Name {
	case "time-pos":
		var v float64
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return playback.Signal{}, false
		}
		return playback.Signal{Kind: playback.SignalTimeAdvance, Value: v}, true
	case "duration":
		var v float64
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return playback.Signal{}, false
		}
		return playback.Signal{Kind: playback.SignalDurationKnown, Value: v}, true
	case "pause":
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return playback.Signal{}, false
		}
		if paused {
			return playback.Signal{Kind: playback.SignalPlayPaused}, true
		}
		return playback.Signal{Kind: playback.SignalPlayStarted}, true
	}
	return playback.Signal{}, false
}
