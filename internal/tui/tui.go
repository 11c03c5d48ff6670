// Package tui is the terminal dashboard: the live insight feed in a
// scrollable viewport with the popup overlay and the assistant hand-off.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"insights-dashboard/internal/dashboard"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/notify"
	"insights-dashboard/internal/render"
)

const helpText = "↑/↓ scroll • n/p select • a ask assistant • esc close • q quit"

type stateMsg dashboard.State

type popupMsg notify.Popup

type closedMsg struct{}

// Options wires a Model.
type Options struct {
	// States delivers dashboard states, usually a hub subscription.
	States    <-chan dashboard.State
	Renderer  *render.Renderer
	Popups    *notify.Popups
	Assistant *notify.Assistant
	Color     bool
}

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	ctx       context.Context
	states    <-chan dashboard.State
	popupCh   chan notify.Popup
	renderer  *render.Renderer
	terminal  *render.Terminal
	popups    *notify.Popups
	assistant *notify.Assistant
	color     bool

	state    dashboard.State
	popup    notify.Popup
	selected int

	viewport viewport.Model
	width    int
	height   int

	help   lipgloss.Style
	status lipgloss.Style
}

// New creates the model. Popup changes are delivered latest-wins, so a
// burst of changes between two frames shows only the last.
func New(ctx context.Context, opts Options) Model {
	popupCh := make(chan notify.Popup, 1)
	if opts.Popups != nil {
		opts.Popups.OnChange(func(p notify.Popup) {
			for {
				select {
				case popupCh <- p:
					return
				default:
				}
				select {
				case <-popupCh:
				default:
				}
			}
		})
	}

	m := Model{
		ctx:       ctx,
		states:    opts.States,
		popupCh:   popupCh,
		renderer:  opts.Renderer,
		terminal:  render.NewTerminal(opts.Color, 80),
		popups:    opts.Popups,
		assistant: opts.Assistant,
		color:     opts.Color,
		state:     dashboard.State{Phase: dashboard.PhaseLoading},
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
		help:      lipgloss.NewStyle().Faint(true),
		status:    lipgloss.NewStyle().Bold(true),
	}
	m.refresh()
	return m
}

// Run starts the terminal dashboard and blocks until the user quits or ctx
// is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitState(m.states), waitPopup(m.ctx, m.popupCh))
}

func waitState(states <-chan dashboard.State) tea.Cmd {
	if states == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return closedMsg{}
		}
		return stateMsg(st)
	}
}

// waitPopup returns nil once ctx is done so the command goroutine exits with
// the program.
func waitPopup(ctx context.Context, ch <-chan notify.Popup) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-ch:
			return popupMsg(p)
		case <-ctx.Done():
			return nil
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		m.state = dashboard.State(msg)
		if n := len(m.recommendations()); m.selected >= n {
			m.selected = 0
		}
		m.refresh()
		return m, waitState(m.states)

	case closedMsg:
		return m, tea.Quit

	case popupMsg:
		m.popup = notify.Popup(msg)
		return m, waitPopup(m.ctx, m.popupCh)

	case tea.KeyMsg:
		if m.popup.Open && m.popup.Confirm {
			switch msg.String() {
			case "y", "enter":
				m.popups.Confirm()
			case "n", "esc":
				m.popups.Cancel()
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "n", "tab":
			m.move(1)
			return m, nil
		case "p", "shift+tab":
			m.move(-1)
			return m, nil
		case "a":
			m.ask()
			return m, nil
		case "esc":
			if m.popups != nil {
				m.popups.Hide()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if overlay := notify.Overlay(m.popup, m.color, m.width); overlay != "" {
		sb.WriteString(overlay)
		sb.WriteString("\n")
	}
	if sel := m.selection(); sel != "" {
		sb.WriteString(m.status.Render(sel))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.Render(helpText))
	return sb.String()
}

// SetSize resizes the viewport, keeping room for the status lines.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 4
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.terminal = render.NewTerminal(m.color, w)
	m.refresh()
}

// State returns the state currently displayed.
func (m Model) State() dashboard.State {
	return m.state
}

// Selected returns the selected recommendation of the newest insight.
func (m Model) Selected() (models.Recommendation, bool) {
	recs := m.recommendations()
	if m.selected < 0 || m.selected >= len(recs) {
		return models.Recommendation{}, false
	}
	return recs[m.selected], true
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.terminal.Draw(m.renderer.Render(m.state)))
}

func (m Model) recommendations() []models.Recommendation {
	rec, ok := m.state.Newest()
	if !ok {
		return nil
	}
	body, ok := rec.Structured()
	if !ok {
		return nil
	}
	return body.Recommendations
}

func (m *Model) move(delta int) {
	n := len(m.recommendations())
	if n == 0 {
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

func (m *Model) ask() {
	rec, ok := m.Selected()
	if !ok || m.assistant == nil {
		return
	}
	m.assistant.Ask(m.ctx, rec, nil)
}

func (m Model) selection() string {
	rec, ok := m.Selected()
	if !ok {
		return ""
	}
	return fmt.Sprintf("▶ %s (%d/%d)", rec.Symbol, m.selected+1, len(m.recommendations()))
}
