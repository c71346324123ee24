package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/pharos-sh/pharos/pkg/core"
	"github.com/pharos-sh/pharos/pkg/notify"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	indicatorIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	indicatorFlash  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	indicatorSteady = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	lineError  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	lineNotice = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(lipgloss.Color("205"))

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	statusBarH := 2
	mainH := a.height - statusBarH - 2
	listW := a.width/3 - 2
	logW := a.width - listW - 4

	list := a.renderSources(listW, mainH)
	listPane := a.paneBox(PaneSources, " Sources ", list, listW, mainH)

	logs := a.renderLogs(logW, mainH)
	logPane := a.paneBox(PaneLogs, a.logTitle(), logs, logW, mainH)

	mainRow := lipgloss.JoinHorizontal(lipgloss.Top, listPane, logPane)
	statusBar := a.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, mainRow, statusBar)
}

func (a App) paneBox(pane Pane, title, content string, w, h int) string {
	style := paneStyle
	if a.activePane == pane {
		style = activePaneStyle
	}
	return style.Width(w).Height(h).Render(
		titleStyle.Render(title) + "\n" + content,
	)
}

func (a App) renderSources(w, h int) string {
	sources := a.filteredSources()
	if len(sources) == 0 {
		return dimStyle.Render("no sources")
	}

	var b strings.Builder
	maxVisible := h - 2
	start := 0
	if a.selectedIdx >= maxVisible {
		start = a.selectedIdx - maxVisible + 1
	}

	for i := start; i < len(sources) && i-start < maxVisible; i++ {
		source := sources[i]
		marker := dimStyle.Render("○")
		if !a.tracker.Viewed(source) {
			marker = indicatorSteady.Render("●")
		}
		name := truncate(source, w-6)
		line := fmt.Sprintf(" %s %-*s", marker, w-6, name)

		if i == a.selectedIdx {
			line = selectedStyle.Width(w).Render(line)
		}
		b.WriteString(line + "\n")
	}

	if a.mode == ModeFilter {
		b.WriteString("\n" + a.filter.View())
	}

	return b.String()
}

func (a App) renderLogs(w, h int) string {
	active := a.model.Active()
	if active == "" {
		return dimStyle.Render("select a source")
	}
	if !a.registry.Has(active) {
		return dimStyle.Render("no log output")
	}

	entries := a.registry.Buffer(active).Entries()
	if len(entries) == 0 {
		return dimStyle.Render("no log output")
	}

	start := 0
	if len(entries) > h-1 {
		start = len(entries) - h + 1
	}

	var b strings.Builder
	for i := start; i < len(entries); i++ {
		b.WriteString(renderLine(entries[i], w) + "\n")
	}
	return b.String()
}

func renderLine(e core.Entry, w int) string {
	line := truncate(e.Line, w)
	switch e.Kind {
	case core.KindError:
		return lineError.Render(line)
	case core.KindDisplay:
		return lineNotice.Render(line)
	default:
		return line
	}
}

func (a App) logTitle() string {
	active := a.model.Active()
	if active == "" {
		return " Logs "
	}
	return " " + active + " "
}

// indicator renders the attention cue and the active buffer's entry
// count. The flash state is shown only while the pulse is lit.
func (a App) indicator() string {
	count := a.model.LogCount()
	label := fmt.Sprintf("● %d", count)

	switch a.model.State() {
	case notify.StateSteady:
		return indicatorSteady.Render(label)
	case notify.StateFlash:
		if a.pulse {
			return indicatorFlash.Render(label)
		}
		return indicatorIdle.Render(label)
	default:
		return indicatorIdle.Render(label)
	}
}

func (a App) renderStatusBar() string {
	left := a.indicator()
	leftLen := lipgloss.Width(left)
	if a.statusMsg != "" {
		left += "  " + helpStyle.Render(a.statusMsg)
		leftLen += 2 + len(a.statusMsg)
	}

	right := "j/k:nav enter:open esc:back /:filter c:clear q:quit"
	if a.mode == ModeFilter {
		right = "enter:apply esc:cancel"
	}

	gap := a.width - leftLen - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + helpStyle.Render(right)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen <= 3 {
		return ansi.Truncate(s, maxLen, "")
	}
	return ansi.Truncate(s, maxLen, "...")
}
