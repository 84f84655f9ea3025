// Package tui holds the Bubble Tea views behind --tui.
//
// The views are read only and show the same payloads the json, table and
// yaml renderers print.
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View types.
const (
	ViewStatsAutoSync = "stats_autosync"
	ViewStatsHistory  = "stats_history"
	ViewStateAction   = "state_action"
)

var supportedViews = []string{ViewStatsAutoSync, ViewStatsHistory, ViewStateAction}

// IsTUISupported reports whether viewType has an interactive view.
func IsTUISupported(viewType string) bool {
	return slices.Contains(supportedViews, viewType)
}

// SupportedTUIViews lists the interactive views.
func SupportedTUIViews() []string {
	return slices.Clone(supportedViews)
}

// Run opens the view for viewType and blocks until the user quits.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	p := tea.NewProgram(NewModel(viewType, data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatic renders a view once, without a terminal program.
func RenderStatic(viewType string, data any) string {
	m := NewModel(viewType, data)
	m.width = 80
	m.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(m.View())
}

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the Bubble Tea model shared by every view.
type Model struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewModel creates the model for viewType.
func NewModel(viewType string, data any) Model {
	return Model{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewStatsAutoSync:
		content = renderAutoSync(m.data)
	case ViewStatsHistory:
		content = renderHistory(m.data)
	case ViewStateAction:
		content = renderAction(m.data)
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Press q or Ctrl+C to quit"))
	return b.String()
}
