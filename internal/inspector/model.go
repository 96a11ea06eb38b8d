package inspector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	"github.com/watchcask/allio/pkg/allio/types"
)

const maxLogLines = 200

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Watch   key.Binding
	Observe key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand/collapse")),
	Watch:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "toggle watch")),
	Observe: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "toggle observe")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// eventMsg wraps an event read off the core's bus so it can flow through
// Bubble Tea's Update loop like any other message.
type eventMsg struct {
	event types.Event
	ok    bool
}

func waitForEvent(events <-chan types.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return eventMsg{event: event, ok: ok}
	}
}

// Model is the inspector's Bubble Tea model: a live tree view over a
// Core's accessibility state, a detail panel for the selection, and a
// scrolling log of events as they arrive off the event bus.
type Model struct {
	core        *core.Core
	events      <-chan types.Event
	unsubscribe func()

	tree     *TreeView
	log      []string
	watched  map[types.ElementId]bool
	observed map[types.ElementId]bool
	width    int
	height   int
	quit     bool
}

// New builds an inspector model around c, taking its own subscription to
// the event bus. The quit key unsubscribes; the zero value is not usable.
func New(c *core.Core) *Model {
	_, events, unsubscribe := c.Subscribe()
	m := &Model{
		core:        c,
		events:      events,
		unsubscribe: unsubscribe,
		tree:        NewTreeView(),
		watched:     make(map[types.ElementId]bool),
		observed:    make(map[types.ElementId]bool),
	}
	m.tree.Rebuild(c.Snapshot())
	return m
}

func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case eventMsg:
		if !msg.ok {
			return m, nil
		}
		m.appendLog(msg.event)
		m.tree.Rebuild(m.core.Snapshot())
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.unsubscribe()
		m.quit = true
		return m, tea.Quit

	case key.Matches(msg, keys.Down):
		m.tree.SelectNext()

	case key.Matches(msg, keys.Up):
		m.tree.SelectPrevious()

	case key.Matches(msg, keys.Toggle):
		m.tree.Toggle()

	case key.Matches(msg, keys.Watch):
		m.toggleWatch()

	case key.Matches(msg, keys.Observe):
		m.toggleObserve()
	}
	return m, nil
}

func (m *Model) toggleWatch() {
	el, ok := m.tree.Selected()
	if !ok {
		return
	}
	if m.watched[el.ID] {
		if err := m.core.Unwatch(el.ID); err == nil {
			delete(m.watched, el.ID)
		}
		return
	}
	if err := m.core.Watch(el.ID); err == nil {
		m.watched[el.ID] = true
	}
}

func (m *Model) toggleObserve() {
	el, ok := m.tree.Selected()
	if !ok {
		return
	}
	if m.observed[el.ID] {
		m.core.Unobserve(el.ID)
		delete(m.observed, el.ID)
		return
	}
	if err := m.core.Observe(el.ID, subscriptions.ObserveConfig{}); err == nil {
		m.observed[el.ID] = true
	}
}

func (m *Model) appendLog(event types.Event) {
	m.log = append(m.log, event.Kind.String())
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m *Model) View() string {
	if m.quit {
		return ""
	}

	tree := panelStyle.Render(m.tree.Render())
	detail := panelStyle.Render(m.renderDetail())
	log := panelStyle.Render(m.renderLog())

	body := lipgloss.JoinHorizontal(lipgloss.Top, tree, detail)

	var b strings.Builder
	b.WriteString(titleStyle.Render("allio inspector"))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(log)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/k ↓/j navigate • enter expand/collapse • w watch • o observe • q quit"))
	return b.String()
}

func (m *Model) renderDetail() string {
	el, ok := m.tree.Selected()
	if !ok {
		return dimStyle.Render("select an element")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "id:     %d\n", el.ID)
	fmt.Fprintf(&b, "role:   %s\n", el.Role.String())
	if el.Label != nil {
		fmt.Fprintf(&b, "label:  %s\n", *el.Label)
	}
	if el.Value != nil {
		fmt.Fprintf(&b, "value:  %s\n", el.Value.String())
	}
	if el.Bounds != nil {
		fmt.Fprintf(&b, "bounds: %.0fx%.0f @ (%.0f,%.0f)\n", el.Bounds.Width, el.Bounds.Height, el.Bounds.X, el.Bounds.Y)
	}
	if len(el.Actions) > 0 {
		actions := make([]string, len(el.Actions))
		for i, a := range el.Actions {
			actions[i] = a.String()
		}
		fmt.Fprintf(&b, "actions: %s\n", strings.Join(actions, ", "))
	}
	if m.watched[el.ID] {
		b.WriteString("watched: yes\n")
	}
	if m.observed[el.ID] {
		b.WriteString("observed: yes\n")
	}
	return b.String()
}

func (m *Model) renderLog() string {
	if len(m.log) == 0 {
		return dimStyle.Render("no events yet")
	}
	start := 0
	if len(m.log) > 10 {
		start = len(m.log) - 10
	}
	return logStyle.Render(strings.Join(m.log[start:], "\n"))
}
