package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BlockDoneMsg reports one converted row block.
type BlockDoneMsg struct {
	Rows       int64
	Statements int64
}

// ConversionDoneMsg ends the progress view.
type ConversionDoneMsg struct {
	Err error
}

// ProgressModel displays the progress of a conversion
type ProgressModel struct {
	progress      progress.Model
	spinner       spinner.Model
	total         int64
	rows          int64
	statements    int64
	operationName string
	status        string
	err           error
	finished      bool
	cancelled     bool
}

// NewProgressModel creates a progress view for totalRows rows
func NewProgressModel(operationName string, totalRows int64) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return ProgressModel{
		progress:      p,
		spinner:       s,
		total:         totalRows,
		operationName: operationName,
		status:        "Starting...",
	}
}

// Cancelled reports whether the user quit before the conversion finished
func (m ProgressModel) Cancelled() bool {
	return m.cancelled
}

// Init starts the spinner
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = !m.finished
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.progress.Width = max(msg.Width-20, 10)
	case BlockDoneMsg:
		m.rows += msg.Rows
		m.statements += msg.Statements
		m.status = fmt.Sprintf("%d statements written", m.statements)
	case ConversionDoneMsg:
		m.finished = true
		m.err = msg.Err
		if msg.Err != nil {
			m.status = msg.Err.Error()
		} else {
			m.status = "Done"
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the model
func (m ProgressModel) View() string {
	percent := 0.0
	if m.total > 0 {
		percent = min(float64(m.rows)/float64(m.total), 1)
	}

	pad := strings.Repeat(" ", 2)

	title := HighlightStyle.Render(m.operationName)
	stats := InfoStyle.Render(fmt.Sprintf("%d/%d rows", m.rows, m.total))

	var status string
	switch {
	case m.err != nil:
		status = ErrorStyle.Render("✗ " + m.status)
	case m.finished:
		status = SuccessStyle.Render("✓ " + m.status)
	default:
		status = m.spinner.View() + " " + InfoStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.progress.ViewAs(percent),
		pad+stats,
		pad+status,
		FooterStyle.Render("Press q to quit"),
	) + "\n"
}
