package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/oauthcap/internal/events"
	"github.com/desertthunder/oauthcap/internal/server"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeedView ViewState = iota
	DetailView
)

// Listeners is the listener lifecycle the monitor controls.
type Listeners interface {
	Start(port uint16) error
	StopAll() error
	Ports() []uint16
}

// Model represents the TUI application state.
type Model struct {
	view      ViewState
	listeners Listeners
	ports     []uint16
	active    []uint16
	feed      <-chan events.Event
	feedOpen  bool
	received  int
	width     int
	height    int
	list      list.Model
	selected  *callbackItem
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a monitor for ports, reading callbacks from feed.
func NewModel(listeners Listeners, ports []uint16, feed <-chan events.Event) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Callbacks"
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return &Model{
		view:      FeedView,
		listeners: listeners,
		ports:     ports,
		feed:      feed,
		feedOpen:  true,
		list:      l,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the configured listeners and begins reading the feed.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startListeners(), m.waitForCallback())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FeedView:
			return m.handleFeedKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCallback:
		ev := msg.data.(events.Event)
		p, ok := ev.Payload.(server.Payload)
		if !ok {
			return m, m.waitForCallback()
		}
		m.received++
		cmd := m.list.InsertItem(0, callbackItem{id: ev.ID, at: ev.At, payload: p})
		return m, tea.Batch(cmd, m.waitForCallback())

	case MsgListeners:
		data := msg.data.(struct {
			ports []uint16
			err   error
		})
		m.active = data.ports
		m.err = data.err
		return m, nil

	case MsgFeedClosed:
		m.feedOpen = false
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case FeedView:
		return m.renderFeed()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		return m, m.startListeners()
	case key.Matches(msg, m.keys.stop):
		return m, m.stopListeners()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(callbackItem); ok {
			m.selected = &item
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = FeedView
		m.selected = nil
	}
	return m, nil
}

// startListeners (re)binds every configured port. Start replaces a running listener,
// so this is also the restart action.
func (m *Model) startListeners() tea.Cmd {
	return func() tea.Msg {
		var errs []error
		for _, port := range m.ports {
			if err := m.listeners.Start(port); err != nil {
				errs = append(errs, err)
			}
		}
		return listenersMsg(m.listeners.Ports(), errors.Join(errs...))
	}
}

func (m *Model) stopListeners() tea.Cmd {
	return func() tea.Msg {
		err := m.listeners.StopAll()
		return listenersMsg(m.listeners.Ports(), err)
	}
}

func (m *Model) waitForCallback() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.feed
		if !ok {
			return feedClosedMsg()
		}
		return callbackMsg(ev)
	}
}

func (m *Model) renderHeader() string {
	var listening string
	if len(m.active) == 0 {
		listening = styles.warn.Render("not listening")
	} else {
		badges := make([]string, len(m.active))
		for i, p := range m.active {
			badges[i] = styles.On(fmt.Sprintf(":%d", p), lipgloss.Color("#7D56F4"))
		}
		listening = "listening on " + strings.Join(badges, " ")
	}

	header := fmt.Sprintf("%s\n%s  %s", styles.title.Render("oauthcap monitor"), listening,
		styles.help.Render(fmt.Sprintf("%d received", m.received)))
	if !m.feedOpen {
		header += "\n" + styles.warn.Render("event feed closed")
	}
	if m.err != nil {
		header += "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return header
}

func (m *Model) renderFeed() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.restart, m.keys.stop, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderHeader(), m.list.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	p := m.selected.payload

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Callback from %s", p.Provider)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Received:    %s\n", m.selected.at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Port:        %d\n", p.Port)
	fmt.Fprintf(&b, "Status:      %s\n", styles.status(m.selected.status()))
	fmt.Fprintf(&b, "Code:        %s\n", mask(p.Code))
	fmt.Fprintf(&b, "State:       %s\n", field(p.State))
	if p.Failed() {
		fmt.Fprintf(&b, "Error:       %s\n", styles.err.Render(server.Value(p.Error)))
		fmt.Fprintf(&b, "Description: %s\n", field(p.ErrorDescription))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

func field(s *string) string {
	if s == nil {
		return styles.help.Render("(absent)")
	}
	return *s
}

// mask shows only the first characters of an authorization code.
func mask(s *string) string {
	if s == nil {
		return styles.help.Render("(absent)")
	}
	r := []rune(*s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return fmt.Sprintf("%s… (%d chars)", string(r[:4]), len(r))
}
