package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/gizmotray/internal/fleet"
)

// gizmoItem is a list item for one discovered gizmo.
type gizmoItem struct {
	status fleet.Status
}

func (i gizmoItem) Title() string {
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	if !i.status.Reachable {
		dot = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
	}
	name := string(i.status.Endpoint)
	if i.status.Title != "" && i.status.Title != name {
		name += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(i.status.Title)
	}
	return dot + " " + name
}

func (i gizmoItem) Description() string {
	if !i.status.Reachable {
		return "unreachable: " + i.status.Error
	}
	r := i.status.Rect
	return fmt.Sprintf("%dx%d at (%d, %d)", r.Width, r.Height, r.Left, r.Top)
}

func (i gizmoItem) FilterValue() string { return string(i.status.Endpoint) }

// fleetMsg carries a fresh fleet listing.
type fleetMsg []fleet.Status

// summaryMsg reports a finished command.
type summaryMsg struct {
	op      string
	summary fleet.Summary
}

// model is the root bubbletea model for the TUI.
type model struct {
	ctx   context.Context
	fleet Fleet

	list    list.Model
	confirm *huh.Form
	closeOK *bool

	busy       bool
	lastResult string

	width  int
	height int
}

func newModel(ctx context.Context, f Fleet) model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Gizmos"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return model{
		ctx:   ctx,
		fleet: f,
		list:  l,
	}
}

func (m model) refresh() tea.Cmd {
	return func() tea.Msg {
		return fleetMsg(m.fleet.List(m.ctx))
	}
}

func (m model) run(op string, fn func(context.Context) fleet.Summary) tea.Cmd {
	return func() tea.Msg {
		return summaryMsg{op: op, summary: fn(m.ctx)}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.refresh()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.listHeight())
		return m, nil

	case fleetMsg:
		items := make([]list.Item, 0, len(msg))
		for _, st := range msg {
			items = append(items, gizmoItem{status: st})
		}
		return m, m.list.SetItems(items)

	case summaryMsg:
		m.busy = false
		m.lastResult = fmt.Sprintf("%s: %d of %d gizmos (%d skipped)",
			msg.op, msg.summary.Succeeded, msg.summary.Discovered, msg.summary.Skipped)
		return m, m.refresh()
	}

	// The close confirmation captures all input while shown.
	if m.confirm != nil {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
			return m, tea.Quit
		}
		form, cmd := m.confirm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.confirm = f
		}
		switch m.confirm.State {
		case huh.StateCompleted:
			m.confirm = nil
			if *m.closeOK {
				m.busy = true
				return m, m.run("close all", m.fleet.CloseAll)
			}
			m.lastResult = "close all: cancelled"
			return m, nil
		case huh.StateAborted:
			m.confirm = nil
			m.lastResult = "close all: cancelled"
			return m, nil
		}
		return m, cmd
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}
		if !m.busy {
			switch km.String() {
			case "f", "enter":
				m.busy = true
				return m, m.run("bring all to front", m.fleet.BringAllToFront)
			case "a":
				m.busy = true
				return m, m.run("align all", m.fleet.AlignAll)
			case "c":
				m.closeOK = new(bool)
				m.confirm = huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Close all %d gizmos?", len(m.list.Items()))).
						Affirmative("Close").
						Negative("Cancel").
						Value(m.closeOK),
				)).WithShowHelp(false)
				return m, m.confirm.Init()
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) listHeight() int {
	// status line + help line
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var content string
	switch {
	case m.confirm != nil:
		content = lipgloss.NewStyle().
			Width(m.width).
			Height(m.listHeight()).
			Padding(1, 2).
			Render(m.confirm.View())
	case len(m.list.Items()) == 0:
		content = lipgloss.NewStyle().
			Width(m.width).
			Height(m.listHeight()).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No gizmos running\nPress r to refresh")
	default:
		content = m.list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		content,
		renderStatusLine(m.busy, m.lastResult, m.width),
		renderHelpBar(m.width),
	)
}

func renderStatusLine(busy bool, last string, width int) string {
	text := last
	if busy {
		text = "working…"
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1).
		Render(text)
}

func renderHelpBar(width int) string {
	help := strings.Join([]string{
		"f/enter: bring all to front",
		"a: align all",
		"c: close all",
		"r: refresh",
		"q: quit",
	}, "  ")
	return lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render(help)
}
