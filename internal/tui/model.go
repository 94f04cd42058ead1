// Package tui is the terminal front end of the editor: transport, timeline,
// segment list and export controls.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/cutline/cutline/internal/editor"
	"github.com/cutline/cutline/internal/export"
	"github.com/cutline/cutline/internal/history"
	"github.com/cutline/cutline/internal/logging"
	"github.com/cutline/cutline/internal/playback"
	"github.com/cutline/cutline/internal/segments"
	"github.com/cutline/cutline/internal/timeline"
	"github.com/cutline/cutline/internal/ui"
	"github.com/cutline/cutline/internal/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

const infoTimeout = 5 * time.Second

// inputMode is what the text prompt is collecting, if anything.
type inputMode int

const (
	modeNormal inputMode = iota
	modeEditStart
	modeEditEnd
	modeEditLabel
	modeOpenFile
)

// SourceWatcher follows the loaded file on disk.
type SourceWatcher interface {
	Watch(path string) error
	Events() <-chan watcher.Event
}

// RecentSources lists files opened in earlier sessions.
type RecentSources interface {
	ListRecentSources(ctx context.Context, limit int) ([]*history.RecentSource, error)
}

// Config wires a Model. Editor is required.
type Config struct {
	Context     context.Context
	Editor      *editor.Editor
	Signals     <-chan playback.Signal
	Watcher     SourceWatcher
	Recents     RecentSources
	DownloadDir string
	InitialFile string
	Logger      *slog.Logger
}

// Model is the root bubbletea model of the editor.
type Model struct {
	ctx         context.Context
	editor      *editor.Editor
	signals     <-chan playback.Signal
	watcher     SourceWatcher
	recents     RecentSources
	downloadDir string
	initialFile string
	logger      *slog.Logger

	// UI state
	width    int
	height   int
	selected int
	mode     inputMode
	input    textinput.Model
	spinner  spinner.Model

	exporting     bool
	surfaceClosed bool

	// A non-empty errorMessage is shown in a modal until dismissed.
	errorTitle   string
	errorMessage string

	infoMessage string
	infoIsError bool
	infoSeq     int

	lastRecent string
}

func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ti := textinput.New()
	ti.CharLimit = 4096

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(ui.SpinnerStyle),
	)

	return Model{
		ctx:         ctx,
		editor:      cfg.Editor,
		signals:     cfg.Signals,
		watcher:     cfg.Watcher,
		recents:     cfg.Recents,
		downloadDir: cfg.DownloadDir,
		initialFile: cfg.InitialFile,
		logger:      logging.WithComponent(logger, "tui"),
		input:       ti,
		spinner:     sp,
	}
}

// Init starts the listeners and opens the initial file, if any.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitSignalCmd(m.signals),
		loadRecentCmd(m.ctx, m.recents),
	}
	if m.watcher != nil {
		cmds = append(cmds, waitSourceCmd(m.watcher.Events()))
	}
	if m.initialFile != "" {
		path := m.initialFile
		cmds = append(cmds, func() tea.Msg { return OpenFileMsg{Path: path} })
	}
	return tea.Batch(cmds...)
}

// waitSignalCmd blocks for the next surface signal.
func waitSignalCmd(ch <-chan playback.Signal) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		sig, ok := <-ch
		if !ok {
			return SignalsClosedMsg{}
		}
		return SignalMsg{Signal: sig}
	}
}

// waitSourceCmd blocks for the next change to the loaded file.
func waitSourceCmd(ch <-chan watcher.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SourceChangedMsg{Event: ev}
	}
}

// loadRecentCmd looks up the last opened file to prefill the open prompt.
func loadRecentCmd(ctx context.Context, recents RecentSources) tea.Cmd {
	if recents == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := recents.ListRecentSources(ctx, 1)
		if err != nil || len(list) == 0 {
			return RecentLoadedMsg{}
		}
		return RecentLoadedMsg{Path: list[0].Path}
	}
}

// exportCmd runs the export off the event loop with a snapshot taken on it.
func exportCmd(ctx context.Context, ed *editor.Editor, snap export.Snapshot) tea.Cmd {
	return func() tea.Msg {
		res, ok := ed.Export(ctx, snap)
		return ExportDoneMsg{Result: res, Started: ok}
	}
}

// writeCutsCmd writes an EDL and a YAML cut list next to the exports.
func writeCutsCmd(dir string, meta editor.Metadata, segs []segments.Segment) tea.Cmd {
	return func() tea.Msg {
		dir, err := export.ResolveOutputDir(dir)
		if err != nil {
			return CutsWrittenMsg{Err: err}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return CutsWrittenMsg{Err: fmt.Errorf("create download dir: %w", err)}
		}
		base := export.ExportBaseName(meta.Name)

		edlPath := filepath.Join(dir, base+".edl")
		edl := export.GenerateEDL(segs, base, export.DefaultFrameRate, meta.Path)
		if err := os.WriteFile(edlPath, []byte(edl), 0644); err != nil {
			return CutsWrittenMsg{Err: fmt.Errorf("write edl: %w", err)}
		}

		cutsPath := filepath.Join(dir, base+".cuts.yaml")
		if err := export.WriteCutList(cutsPath, meta.Path, segs); err != nil {
			return CutsWrittenMsg{Err: err}
		}
		return CutsWrittenMsg{EDLPath: edlPath, CutsPath: cutsPath}
	}
}

// clearInfoCmd fires after a delay to clear the info line.
func clearInfoCmd(seq int) tea.Cmd {
	return tea.Tick(infoTimeout, func(time.Time) tea.Msg {
		return ClearInfoMsg{Seq: seq}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-20)
		return m, nil

	case SignalMsg:
		m.editor.Dispatch(msg.Signal)
		return m, waitSignalCmd(m.signals)

	case SignalsClosedMsg:
		m.surfaceClosed = true
		return m, m.setInfo("Preview closed", true)

	case SourceChangedMsg:
		cmd := m.handleSourceChange(msg.Event)
		return m, tea.Batch(cmd, waitSourceCmd(m.watcher.Events()))

	case OpenFileMsg:
		return m, m.openFile(msg.Path)

	case RecentLoadedMsg:
		if m.lastRecent == "" {
			m.lastRecent = msg.Path
		}
		return m, nil

	case ExportDoneMsg:
		m.exporting = false
		if !msg.Started {
			return m, nil
		}
		res := msg.Result
		if res.Status == export.StatusCompleted {
			return m, m.setInfo("Saved "+res.OutputPath, false)
		}
		message := res.Message
		if message == "" {
			message = "The export did not complete."
		}
		m.showError("Export failed", message)
		return m, nil

	case CutsWrittenMsg:
		if msg.Err != nil {
			m.logger.Warn("failed to write cut files", "error", msg.Err)
			return m, m.setInfo(msg.Err.Error(), true)
		}
		return m, m.setInfo(fmt.Sprintf("Wrote %s and %s", filepath.Base(msg.EDLPath), filepath.Base(msg.CutsPath)), false)

	case spinner.TickMsg:
		if !m.exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ClearInfoMsg:
		if msg.Seq == m.infoSeq {
			m.infoMessage = ""
			m.infoIsError = false
		}
		return m, nil
	}

	if m.mode != modeNormal {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleSourceChange(ev watcher.Event) tea.Cmd {
	if !m.editor.HasFile() || ev.Path != m.editor.Metadata().Path {
		return nil
	}
	name := filepath.Base(ev.Path)

	switch ev.Type {
	case watcher.EventDelete:
		m.showError("Source removed", fmt.Sprintf("%s was removed from disk", name))
		return nil
	default:
		if err := m.editor.ReloadSource(m.ctx); err != nil {
			m.showError("Reload failed", err.Error())
			return nil
		}
		return m.setInfo(fmt.Sprintf("Reloaded %s", name), false)
	}
}

func (m *Model) openFile(path string) tea.Cmd {
	if err := m.editor.LoadFile(m.ctx, path); err != nil {
		m.logger.Warn("failed to open video", "error", err)
		m.showError("Could not open video", err.Error())
		return nil
	}
	meta := m.editor.Metadata()
	m.selected = 0
	m.lastRecent = meta.Path

	if m.watcher != nil {
		if err := m.watcher.Watch(meta.Path); err != nil {
			m.logger.Warn("failed to watch source", "error", err)
		}
	}
	return m.setInfo("Loaded "+meta.Name, false)
}

func (m *Model) showError(title, message string) {
	m.errorTitle = title
	m.errorMessage = message
}

// setInfo shows text on the info line until it times out or is replaced.
func (m *Model) setInfo(text string, isError bool) tea.Cmd {
	m.infoSeq++
	m.infoMessage = text
	m.infoIsError = isError
	return clearInfoCmd(m.infoSeq)
}

// reportErr shows a failed surface command on the info line.
func (m *Model) reportErr(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return m.setInfo(err.Error(), true)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.errorMessage != "" || m.mode != modeNormal || !m.editor.HasFile() {
		return m, nil
	}
	if msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress && msg.Action != tea.MouseActionMotion {
		return m, nil
	}
	if msg.Y != timelineRow {
		return m, nil
	}
	f := timeline.PointerFraction(float64(msg.X)+0.5, trackLeft, float64(m.trackWidth()))
	return m, m.reportErr(m.editor.SeekFraction(f))
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == KeyCtrlC {
		return m, tea.Quit
	}

	if m.errorMessage != "" {
		if key == KeyEnter || key == KeyEsc {
			m.showError("", "")
		}
		return m, nil
	}

	if m.mode != modeNormal {
		return m.handleInputKey(msg)
	}

	switch key {
	case KeyQuit:
		return m, tea.Quit

	case KeySpace:
		return m, m.reportErr(m.editor.TogglePlay())

	case KeyLeft:
		return m, m.seekBy(-smallStep)

	case KeyRight:
		return m, m.seekBy(smallStep)

	case KeyShiftLeft:
		return m, m.seekBy(-largeStep)

	case KeyShiftRight:
		return m, m.seekBy(largeStep)

	case KeyHome:
		if !m.editor.HasFile() {
			return m, nil
		}
		return m, m.reportErr(m.editor.Seek(0))

	case KeyEnd:
		if !m.editor.HasFile() {
			return m, nil
		}
		return m, m.reportErr(m.editor.Seek(m.editor.Position().Duration))

	case KeyAdd:
		if !m.editor.HasFile() {
			return m, m.setInfo("Open a video first", true)
		}
		if _, ok := m.editor.AddSegment(); ok {
			m.selected = len(m.editor.Segments()) - 1
		}
		return m, nil

	case KeyDelete:
		seg, ok := m.selectedSegment()
		if !ok {
			return m, nil
		}
		m.editor.RemoveSegment(seg.ID)
		m.clampSelection()
		return m, nil

	case KeyUp, KeyK:
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyDown, KeyJ:
		if m.selected < len(m.editor.Segments())-1 {
			m.selected++
		}
		return m, nil

	case KeyMarkStart:
		if seg, ok := m.selectedSegment(); ok {
			m.editor.UpdateSegment(seg.ID, segments.Patch{Start: segments.Float(m.editor.Position().CurrentTime)})
		}
		return m, nil

	case KeyMarkEnd:
		if seg, ok := m.selectedSegment(); ok {
			m.editor.UpdateSegment(seg.ID, segments.Patch{End: segments.Float(m.editor.Position().CurrentTime)})
		}
		return m, nil

	case KeyEditStart:
		if seg, ok := m.selectedSegment(); ok {
			return m, m.startInput(modeEditStart, "Start: ", timeline.FormatTime(seg.Start))
		}
		return m, nil

	case KeyEditEnd:
		if seg, ok := m.selectedSegment(); ok {
			return m, m.startInput(modeEditEnd, "End: ", timeline.FormatTime(seg.End))
		}
		return m, nil

	case KeyRename:
		if seg, ok := m.selectedSegment(); ok {
			return m, m.startInput(modeEditLabel, "Label: ", seg.Label)
		}
		return m, nil

	case KeyMute:
		return m, m.reportErr(m.editor.ToggleMute())

	case KeyLoop:
		return m, m.reportErr(m.editor.ToggleLoop())

	case KeyExport:
		if m.exporting || !m.editor.CanExport() {
			return m, nil
		}
		m.exporting = true
		snap := m.editor.ExportSnapshot()
		return m, tea.Batch(exportCmd(m.ctx, m.editor, snap), m.spinner.Tick)

	case KeyWriteCuts:
		segs := m.editor.Segments()
		if !m.editor.HasFile() || len(segs) == 0 {
			return m, nil
		}
		return m, writeCutsCmd(m.downloadDir, m.editor.Metadata(), segs)

	case KeyOpen:
		return m, m.startInput(modeOpenFile, "Open: ", m.lastRecent)
	}

	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.stopInput()
		return m, nil

	case KeyEnter:
		value := m.input.Value()
		mode := m.mode
		m.stopInput()
		return m, m.commitInput(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startInput(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) commitInput(mode inputMode, value string) tea.Cmd {
	if mode == modeOpenFile {
		if value == "" {
			return nil
		}
		return m.openFile(expandHome(value))
	}

	seg, ok := m.selectedSegment()
	if !ok {
		return nil
	}

	var p segments.Patch
	switch mode {
	case modeEditLabel:
		p.Label = segments.String(value)
	case modeEditStart, modeEditEnd:
		t, err := timeline.ParseTime(value)
		if err != nil {
			return m.setInfo(err.Error(), true)
		}
		if mode == modeEditStart {
			p.Start = segments.Float(t)
		} else {
			p.End = segments.Float(t)
		}
	}
	m.editor.UpdateSegment(seg.ID, p)
	return nil
}

func (m *Model) seekBy(delta float64) tea.Cmd {
	if !m.editor.HasFile() {
		return nil
	}
	return m.reportErr(m.editor.SeekBy(delta))
}

func (m Model) selectedSegment() (segments.Segment, bool) {
	segs := m.editor.Segments()
	if m.selected < 0 || m.selected >= len(segs) {
		return segments.Segment{}, false
	}
	return segs[m.selected], true
}

func (m *Model) clampSelection() {
	n := len(m.editor.Segments())
	if m.selected >= n {
		m.selected = max(0, n-1)
	}
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == filepath.Separator {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
