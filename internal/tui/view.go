package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cutline/cutline/internal/segments"
	"github.com/cutline/cutline/internal/timeline"
	"github.com/cutline/cutline/internal/ui"
)

// Layout of the top of the screen. The timeline is the only row that takes
// mouse input.
const (
	timelineRow = 3
	trackLeft   = 2
)

// Track cell kinds, in drawing priority order.
const (
	cellTrack = iota
	cellSegment
	cellSelected
	cellPlayhead
)

func (m Model) trackWidth() int {
	return max(10, m.width-2*trackLeft)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	if m.errorMessage != "" {
		return m.renderModal()
	}

	divider := ui.DividerStyle.Render(strings.Repeat("─", m.width))

	sections := []string{
		m.renderHeader(),
		m.renderStatusBar(),
		divider,
		m.renderTimeline(),
		m.renderRuler(),
		divider,
		m.renderSegments(),
		divider,
		m.renderPromptLine(),
		m.renderExportButton(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("CUTLINE")
	if !m.editor.HasFile() {
		return title + ui.DimStyle.Render("  No file selected")
	}
	meta := m.editor.Metadata()
	size := float64(meta.Size) / (1024 * 1024)
	return title + "  " + meta.Name + ui.DimStyle.Render(fmt.Sprintf(" (%.1f MB)", size))
}

func (m Model) renderStatusBar() string {
	pos := m.editor.Position()

	var state string
	if pos.Playing {
		state = ui.PlayingStyle.Render("▶ PLAYING")
	} else {
		state = ui.PausedStyle.Render("❚❚ PAUSED")
	}

	clock := fmt.Sprintf("%s / %s", timeline.FormatTime(pos.CurrentTime), timeline.FormatTime(pos.Duration))

	return state + "  " + clock + "  " + renderFlag("MUTE", m.editor.Muted()) + " " + renderFlag("LOOP", m.editor.Looping())
}

func renderFlag(label string, on bool) string {
	if on {
		return ui.FlagOnStyle.Render("[" + label + "]")
	}
	return ui.FlagOffStyle.Render("[" + label + "]")
}

// renderTimeline draws the track with every segment and the playhead.
func (m Model) renderTimeline() string {
	cells := m.trackWidth()
	kinds := make([]int, cells)
	pos := m.editor.Position()

	if pos.Duration > 0 {
		for i, seg := range m.editor.Segments() {
			left, width := timeline.Span(seg.Start, seg.End, pos.Duration)
			kind := cellSegment
			if i == m.selected {
				kind = cellSelected
			}
			from := timeline.Cell(left, cells)
			to := timeline.Cell(left+width, cells)
			for c := from; c <= to; c++ {
				if kinds[c] < kind {
					kinds[c] = kind
				}
			}
		}
	}
	kinds[timeline.Cell(timeline.TimeToFraction(pos.CurrentTime, pos.Duration), cells)] = cellPlayhead

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", trackLeft))
	for start := 0; start < cells; {
		end := start
		for end < cells && kinds[end] == kinds[start] {
			end++
		}
		b.WriteString(renderCells(kinds[start], end-start))
		start = end
	}
	return b.String()
}

func renderCells(kind, n int) string {
	switch kind {
	case cellSegment:
		return ui.SegmentBarStyle.Render(strings.Repeat("█", n))
	case cellSelected:
		return ui.SelectedBarStyle.Render(strings.Repeat("█", n))
	case cellPlayhead:
		return ui.PlayheadStyle.Render(strings.Repeat("┃", n))
	default:
		return ui.TrackStyle.Render(strings.Repeat("─", n))
	}
}

func (m Model) renderRuler() string {
	cells := m.trackWidth()
	left := timeline.FormatTime(0)
	right := timeline.FormatTime(m.editor.Position().Duration)
	gap := max(1, cells-len(left)-len(right))
	return strings.Repeat(" ", trackLeft) + ui.DimStyle.Render(left+strings.Repeat(" ", gap)+right)
}

// segmentListHeight is the number of rows left for segment entries.
func (m Model) segmentListHeight() int {
	if m.height == 0 {
		return 10
	}
	// header(2) + dividers(3) + timeline(2) + list title(1) + prompt(1) + button(1) + footer(1)
	return max(2, m.height-11)
}

func (m Model) renderSegments() string {
	segs := m.editor.Segments()
	height := m.segmentListHeight()

	lines := []string{ui.PanelTitleStyle.Render(fmt.Sprintf("SEGMENTS (%d)", len(segs)))}

	switch {
	case !m.editor.HasFile():
		lines = append(lines, ui.DimStyle.Render("  Press o to open a video"))
	case len(segs) == 0:
		lines = append(lines, ui.DimStyle.Render("  No segments added yet. Press a to add one at the playhead."))
	default:
		start := 0
		if m.selected >= height {
			start = m.selected - height + 1
		}
		end := min(len(segs), start+height)
		for i := start; i < end; i++ {
			lines = append(lines, renderSegmentRow(i, segs[i], i == m.selected))
		}
	}

	for len(lines) < height+1 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func renderSegmentRow(i int, seg segments.Segment, selected bool) string {
	index := fmt.Sprintf("#%02d", i+1)
	span := fmt.Sprintf("%s - %s", timeline.FormatTime(seg.Start), timeline.FormatTime(seg.End))
	length := "Duration: " + timeline.FormatSpan(seg.Start, seg.End)

	if selected {
		return ui.SelectedStyle.Render("> "+index+" "+seg.Label) + "  " + span + "  " + ui.DimStyle.Render(length)
	}
	return "  " + index + " " + seg.Label + "  " + span + "  " + ui.DimStyle.Render(length)
}

func (m Model) renderPromptLine() string {
	if m.mode != modeNormal {
		return m.input.View()
	}
	if m.infoMessage == "" {
		return ""
	}
	if m.infoIsError {
		return ui.ErrorTextStyle.Render(m.infoMessage)
	}
	return ui.InfoStyle.Render(m.infoMessage)
}

func (m Model) renderExportButton() string {
	if m.exporting {
		return ui.ButtonStyle.Render(m.spinner.View() + " Processing...")
	}
	label := fmt.Sprintf("Export %d Clips", len(m.editor.Segments()))
	if !m.editor.CanExport() {
		return ui.ButtonDisabledStyle.Render(label)
	}
	return ui.ButtonStyle.Render(label)
}

func (m Model) renderFooter() string {
	if m.mode != modeNormal {
		return footerItem("Enter", "Apply") + "  " + footerItem("Esc", "Cancel")
	}

	var parts []string
	if m.editor.HasFile() {
		parts = append(parts,
			footerItem("Space", "Play"),
			footerItem("←→", "Seek"),
			footerItem("a", "Add"),
			footerItem("d", "Delete"),
			footerItem("[ ]", "Mark"),
			footerItem("S/E/r", "Edit"),
			footerItem("m", "Mute"),
			footerItem("l", "Loop"),
			footerItem("x", "Export"),
			footerItem("w", "EDL"),
		)
	}
	parts = append(parts, footerItem("o", "Open"), footerItem("q", "Quit"))
	return strings.Join(parts, "  ")
}

func footerItem(key, desc string) string {
	return ui.FooterKeyStyle.Render(key) + ui.FooterDescStyle.Render(" "+desc)
}

func (m Model) renderModal() string {
	body := ui.ErrorStyle.Render(m.errorTitle) + "\n\n" + m.errorMessage + "\n\n" + ui.DimStyle.Render("Enter to dismiss")
	return lipgloss.Place(m.width, max(m.height, 1), lipgloss.Center, lipgloss.Center, ui.ModalStyle.Render(body))
}
