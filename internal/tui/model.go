// Package tui is the terminal front end: a waiter view for composing orders
// and a manager view for following and advancing them.
package tui

import (
	"context"
	"errors"

	"cafeteria/internal/composer"
	"cafeteria/internal/coordinator"
	"cafeteria/internal/logging"
	"cafeteria/internal/models"
	"cafeteria/internal/monitor"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

type focus int

const (
	focusTables focus = iota
	focusCategories
	focusMenu
	focusCart
	focusName
	focusNotes
	focusCount
)

// ChangedMsg tells the model that dashboard state changed
type ChangedMsg struct{}

// ConnectionMsg reports a push channel transition
type ConnectionMsg struct {
	Connected bool
}

// LoadedMsg is sent once the composer's reference data has been fetched
type LoadedMsg struct{}

type submitResultMsg struct {
	order *models.Order
	err   error
}

type advanceResultMsg struct {
	err error
}

// Model is the bubbletea model of the application
type Model struct {
	ctx      context.Context
	composer *composer.Composer
	monitor  *monitor.Monitor
	coord    *coordinator.Coordinator
	polls    *polling
	log      logrus.FieldLogger

	nameInput  textinput.Model
	notesInput textinput.Model
	spinner    spinner.Model
	help       help.Model

	focus          focus
	tableCursor    int
	categoryCursor int
	menuCursor     int
	cartCursor     int
	orderCursor    int
	advancing      bool

	flash    string
	flashErr bool
	width    int
	height   int
}

// Option configures a Model
type Option func(*Model)

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Model) { m.log = logging.Component(l, "tui") }
}

// New builds the model. ctx bounds every request the UI starts.
func New(ctx context.Context, comp *composer.Composer, mon *monitor.Monitor, coord *coordinator.Coordinator, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	name := textinput.New()
	name.Placeholder = "Nome do garçom"
	name.CharLimit = 60
	name.Width = 30

	notes := textinput.New()
	notes.Placeholder = "Observações especiais"
	notes.CharLimit = 200
	notes.Width = 40

	m := Model{
		ctx:        ctx,
		composer:   comp,
		monitor:    mon,
		coord:      coord,
		polls:      &polling{},
		log:        logging.Component(nil, "tui"),
		nameInput:  name,
		notesInput: notes,
		spinner:    s,
		help:       help.New(),
		focus:      focusTables,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WatchMonitor forwards monitor change notifications to send until ctx ends.
// send is normally Program.Send.
func WatchMonitor(ctx context.Context, mon *monitor.Monitor, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-mon.Changes():
			send(ChangedMsg{})
		}
	}
}

// Init starts the spinner, seeds the backend and activates the initial view
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// the view was chosen at startup and is not recomputed
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case activateMsg:
		return m, m.activate(msg.view)

	case ChangedMsg, ConnectionMsg, LoadedMsg:
		m.clampCursors()
		return m, nil

	case submitResultMsg:
		if msg.err != nil {
			m.setFlash(composer.UserMessage(msg.err), true)
			return m, nil
		}
		m.setFlash(composer.MsgSubmitted, false)
		m.notesInput.SetValue("")
		m.tableCursor, m.cartCursor = 0, 0
		return m, nil

	case advanceResultMsg:
		m.advancing = false
		if msg.err != nil {
			m.log.WithError(msg.err).Debug("advance finished with error")
		}
		m.clampCursors()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Toggle):
		next := coordinator.ViewManager
		if m.coord.View() == coordinator.ViewManager {
			next = coordinator.ViewWaiter
		}
		if err := m.coord.Toggle(next); err != nil {
			if !errors.Is(err, coordinator.ErrToggleUnavailable) {
				m.log.WithError(err).Warn("view toggle failed")
			}
			return m, nil
		}
		return m, m.activate(next)
	}

	if m.coord.View() == coordinator.ViewManager {
		return m.managerKey(msg)
	}
	return m.waiterKey(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusName:
		m.nameInput, cmd = m.nameInput.Update(msg)
		m.composer.SetStaffName(m.nameInput.Value())
	case focusNotes:
		m.notesInput, cmd = m.notesInput.Update(msg)
		m.composer.SetSpecialRequests(m.notesInput.Value())
	}
	return m, cmd
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

func (m *Model) clampCursors() {
	st := m.composer.State()
	m.tableCursor = clamp(m.tableCursor, len(st.Tables))
	m.categoryCursor = clamp(m.categoryCursor, len(st.Categories))
	m.menuCursor = clamp(m.menuCursor, len(st.Menu))
	m.cartCursor = clamp(m.cartCursor, len(st.Cart))
	m.orderCursor = clamp(m.orderCursor, len(m.monitor.Snapshot().Orders))
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// View renders the UI
func (m Model) View() string {
	var body string
	var bindings []key.Binding
	if m.coord.View() == coordinator.ViewManager {
		body = m.managerView()
		bindings = keys.managerHelp()
	} else {
		body = m.waiterView()
		bindings = keys.waiterHelp()
	}

	out := m.header() + "\n" + body + "\n"
	if m.flash != "" {
		style := successStyle
		if m.flashErr {
			style = errorStyle
		}
		out += "\n" + style.Render(m.flash) + "\n"
	}
	out += "\n" + m.help.ShortHelpView(bindings)
	return docStyle.Render(out)
}

func (m Model) header() string {
	title := titleStyle.Render("☕ Cafeteria")

	var tabs string
	if !m.coord.Narrow() {
		waiter, manager := inactiveTabStyle, inactiveTabStyle
		if m.coord.View() == coordinator.ViewManager {
			manager = activeTabStyle
		} else {
			waiter = activeTabStyle
		}
		tabs = " " + waiter.Render("Garçom") + manager.Render("Gerente")
	}

	indicator := disconnectedStyle.Render("● Desconectado")
	if m.coord.Connected() {
		indicator = connectedStyle.Render("● Conectado")
	}
	return title + tabs + "  " + indicator
}
