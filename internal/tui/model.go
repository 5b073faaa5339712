// Package tui is the interactive directory browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idelchi/dirdive/internal/dirstat"
	"github.com/idelchi/dirdive/internal/navigation"
	"github.com/idelchi/dirdive/internal/size"
)

// actionDelete labels a delete in flight.
const actionDelete = "Deleting"

// Options configures the browser.
type Options struct {
	// Root is the directory the session starts in.
	Root string
	// Confirm asks before each delete.
	Confirm bool
	// Logger receives navigation and deletion events. Nil discards them.
	Logger *slog.Logger
}

// Run starts the browser on session and blocks until the user quits or ctx is done.
func Run(ctx context.Context, session *navigation.Session, opts Options) error {
	m := newModel(ctx, session, opts)

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("running browser: %w", err)
	}

	return nil
}

// transitionMsg carries the outcome of a session transition.
type transitionMsg struct {
	id     int
	action string
	state  navigation.State
	err    error
}

// deleteMsg carries the outcome of a delete.
type deleteMsg struct {
	id    int
	entry dirstat.Entry
	state navigation.State
	err   error
}

type model struct {
	ctx     context.Context
	session *navigation.Session
	log     *slog.Logger
	root    string

	table   table.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	state          navigation.State
	confirmDeletes bool
	confirm        *dirstat.Entry

	// requestID identifies the newest dispatched transition; older results are dropped.
	requestID   int
	loading     bool
	pending     string
	pendingPath string

	err       error
	lastEvent string
	startCmd  tea.Cmd
	// deleteErr survives the rescan issued after a failed delete.
	deleteErr error

	width  int
	height int
}

func newModel(ctx context.Context, session *navigation.Session, opts Options) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := model{
		ctx:            ctx,
		session:        session,
		log:            logger,
		root:           opts.Root,
		table:          newTable(),
		spinner:        sp,
		help:           help.New(),
		keys:           newKeyMap(),
		confirmDeletes: opts.Confirm,
	}

	root := opts.Root
	m.startCmd = m.dispatch("Scanning", root, func(ctx context.Context) (navigation.State, error) {
		return session.Start(ctx, root)
	})

	return m
}

// Init runs the initial scan dispatched by newModel.
func (m model) Init() tea.Cmd {
	return m.startCmd
}

// dispatch marks the model busy and returns a command running fn off the UI goroutine.
func (m *model) dispatch(action, path string, fn func(context.Context) (navigation.State, error)) tea.Cmd {
	m.requestID++
	id := m.requestID
	ctx := m.ctx
	m.loading = true
	m.pending = action
	m.pendingPath = path
	m.err = nil

	run := func() tea.Msg {
		state, err := fn(ctx)

		return transitionMsg{id: id, action: action, state: state, err: err}
	}

	return tea.Batch(run, m.spinner.Tick)
}

func (m *model) dispatchDelete(entry dirstat.Entry) tea.Cmd {
	m.requestID++
	id := m.requestID
	ctx := m.ctx
	session := m.session
	m.loading = true
	m.pending = actionDelete
	m.pendingPath = entry.Path
	m.err = nil

	run := func() tea.Msg {
		state, err := session.Delete(ctx, entry)

		return deleteMsg{id: id, entry: entry, state: state, err: err}
	}

	return tea.Batch(run, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.updateLayout(msg.Width, msg.Height)

		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case transitionMsg:
		return m.handleTransition(msg)
	case deleteMsg:
		return m.handleDelete(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleTransition(msg transitionMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.requestID || errors.Is(msg.err, navigation.ErrSuperseded) {
		m.log.Debug("dropping stale result", "action", msg.action, "id", msg.id)

		return m, nil
	}

	m.loading = false

	if msg.err != nil {
		m.err = msg.err
		m.lastEvent = fmt.Sprintf("%s failed", msg.action)
		m.log.Warn("transition failed", "action", msg.action, "error", msg.err)

		return m, nil
	}

	moved := msg.state.Current != m.state.Current
	m.apply(msg.state)

	if moved {
		m.table.SetCursor(0)
		m.syncSelection()
	}

	m.lastEvent = fmt.Sprintf("%d directories in %s", len(m.state.Result.Entries), m.state.Current)

	if m.deleteErr != nil {
		m.lastEvent = fmt.Sprintf("Delete failed: %v", m.deleteErr)
		m.deleteErr = nil
	}

	m.log.Info("showing directory", "path", m.state.Current, "entries", len(m.state.Result.Entries))

	return m, nil
}

func (m model) handleDelete(msg deleteMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.requestID {
		m.log.Debug("dropping stale delete result", "path", msg.entry.Path, "id", msg.id)

		return m, nil
	}

	m.loading = false

	if msg.err != nil {
		m.log.Error("delete failed", "path", msg.entry.Path, "error", msg.err)

		// A partial removal may have changed sizes; rescan and keep the error visible.
		cmd := m.dispatch("Rescanning", m.state.Current, m.session.Refresh)
		m.deleteErr = msg.err
		m.lastEvent = fmt.Sprintf("Delete of %s failed", msg.entry.Name())

		return m, cmd
	}

	m.apply(msg.state)
	m.lastEvent = fmt.Sprintf("Deleted %s (freed %s)", msg.entry.Path, size.Format(msg.entry.Size))
	m.log.Info("deleted directory", "path", msg.entry.Path, "size", msg.entry.Size)

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch msg.String() {
		case "y", "Y":
			entry := *m.confirm
			m.confirm = nil

			return m, m.dispatchDelete(entry)
		case "n", "N", "esc":
			m.lastEvent = "Delete cancelled"
			m.confirm = nil
		}

		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.updateLayout(m.width, m.height)

		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.confirmDeletes = !m.confirmDeletes

		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if !m.ready() {
			return m, nil
		}

		return m, m.dispatch("Rescanning", m.state.Current, m.session.Refresh)
	case key.Matches(msg, m.keys.BackToRoot):
		if !m.ready() || (!m.loading && m.state.AtRoot()) {
			return m, nil
		}

		return m, m.dispatch("Scanning", m.state.Root, m.session.BackToRoot)
	case key.Matches(msg, m.keys.Up):
		if !m.ready() || (!m.loading && m.state.AtRoot()) {
			return m, nil
		}

		return m, m.dispatch("Scanning", "..", m.session.Up)
	case key.Matches(msg, m.keys.Open):
		entry, ok := m.selected()
		if !ok || !m.ready() || m.loading {
			return m, nil
		}

		session := m.session

		return m, m.dispatch("Scanning", entry.Path, func(ctx context.Context) (navigation.State, error) {
			return session.DrillInto(ctx, entry)
		})
	case key.Matches(msg, m.keys.Delete):
		entry, ok := m.selected()
		if !ok || !m.ready() || m.loading {
			return m, nil
		}

		if m.confirmDeletes {
			m.confirm = &entry

			return m, nil
		}

		return m, m.dispatchDelete(entry)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.syncSelection()

	return m, cmd
}

// ready reports whether a session has been started and no delete is running.
// Scans that do not depend on the listed entries may replace one in flight.
func (m model) ready() bool {
	if m.loading && m.pending == actionDelete {
		return false
	}

	_, started := m.session.State()

	return started
}

func (m *model) apply(state navigation.State) {
	m.state = state
	m.err = nil
	m.setTableRows()
}

func (m model) selected() (dirstat.Entry, bool) {
	entries := m.state.Result.Entries
	idx := m.table.Cursor()

	if idx < 0 || idx >= len(entries) {
		return dirstat.Entry{}, false
	}

	return entries[idx], true
}

// syncSelection mirrors the table cursor into the session.
func (m *model) syncSelection() {
	entry, ok := m.selected()
	if !ok {
		return
	}

	if state, err := m.session.Select(entry); err == nil {
		m.state = state
	}
}
