package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"insightd/internal/pipeline"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// signalDoneMsg reports one completed signal run.
type signalDoneMsg struct {
	done   int
	total  int
	symbol string
}

// batchDoneMsg ends the progress display.
type batchDoneMsg struct{}

// progressModel renders the batch progress bar.
type progressModel struct {
	progress progress.Model
	theme    Theme
	done     int
	total    int
	symbol   string
	finished bool
}

func newProgressModel() progressModel {
	return progressModel{
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// The run itself keeps going; only the display stops.
			m.finished = true
			return m, tea.Quit
		}
	case signalDoneMsg:
		m.done = msg.done
		m.total = msg.total
		m.symbol = msg.symbol
		return m, nil
	case batchDoneMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	if m.total == 0 {
		return m.theme.statusStyle().Render("[researching]") + " waiting for signals...\n"
	}

	pct := float64(m.done) / float64(m.total)
	status := m.theme.statusStyle().Render("[researching]")
	counts := fmt.Sprintf("%d/%d signals", m.done, m.total)
	last := m.theme.hintStyle().Render("last: " + m.symbol)

	return fmt.Sprintf("%s %s %s %s\n", status, m.progress.ViewAs(pct), counts, last)
}

// batchProgress returns the progress callback for the pipeline batch and a
// finish function to tear the display down. Outside a TTY (cron, CI) or
// when disabled it degrades to plain log output only.
func batchProgress(disabled bool) (pipeline.ProgressFunc, func()) {
	if disabled || !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, func() {}
	}

	p := tea.NewProgram(newProgressModel())
	finished := make(chan struct{})
	go func() {
		_, _ = p.Run()
		close(finished)
	}()

	callback := func(done, total int, symbol string) {
		p.Send(signalDoneMsg{done: done, total: total, symbol: symbol})
	}
	finish := func() {
		p.Send(batchDoneMsg{})
		<-finished
	}
	return callback, finish
}
