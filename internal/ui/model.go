package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lookout/internal/logging"
	"github.com/five82/lookout/internal/prefs"
	"github.com/five82/lookout/internal/state"
)

const (
	defaultTick    = time.Second
	logBufferLimit = 500

	// Rows taken by everything except the log viewport: header, footer,
	// the top panels and the log box. Boxes add a title and two borders.
	panelHeight  = 7
	chromeHeight = 1 + 1 + (panelHeight + 3) + 3
)

// Service is the part of the background service the dashboard drives.
type Service interface {
	Start() error
	Stop()
}

// Options configure the dashboard.
type Options struct {
	Store     *state.Store
	Service   Service
	ThemeName string
	PrefsPath string
	AutoStart bool
	Problems  []string         // config problems; Start is refused while any exist
	Seed      []logging.Record // history shown before live records arrive
	PollTick  time.Duration
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	store     *state.Store
	service   Service
	prefsPath string
	autoStart bool
	problems  []string
	tick      time.Duration

	theme Theme
	keys  keyMap

	width  int
	height int

	snapshot state.Snapshot

	logs        []logging.Record
	logViewport viewport.Model
	follow      bool

	showHelp bool
	busy     bool
	notice   string
}

// New builds the dashboard model.
func New(opts Options) Model {
	tick := opts.PollTick
	if tick <= 0 {
		tick = defaultTick
	}
	m := Model{
		store:       opts.Store,
		service:     opts.Service,
		prefsPath:   opts.PrefsPath,
		autoStart:   opts.AutoStart,
		problems:    opts.Problems,
		tick:        tick,
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		logViewport: viewport.New(0, 0),
		follow:      true,
	}
	for _, record := range opts.Seed {
		m.appendLog(record)
	}
	if opts.Store != nil {
		m.snapshot = opts.Store.Snapshot()
	}
	return m
}

// NewProgram wraps the model in a full-screen program. Callers that
// route logs into the dashboard hand the program to their log handler
// before calling Run.
func NewProgram(opts Options, extra ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(New(opts), append([]tea.ProgramOption{tea.WithAltScreen()}, extra...)...)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmds()...)
}

func (m Model) initCmds() []tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick), fetchSnapshotCmd(m.store)}
	if m.autoStart && len(m.problems) == 0 && m.service != nil {
		cmds = append(cmds, startCmd(m.service))
	}
	return cmds
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogs()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.tick))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case logging.Record:
		m.appendLog(msg)
		return m, nil

	case serviceResultMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.notice = ""
		}
		return m, fetchSnapshotCmd(m.store)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.snapshot.Alert != "" {
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			m.dismissAlert()
		case key.Matches(msg, m.keys.Start):
			m.dismissAlert()
			return m.start()
		}
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Dismiss) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Start):
		return m.start()
	case key.Matches(msg, m.keys.Stop):
		return m.stop()
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.Dismiss):
		m.notice = ""
	case key.Matches(msg, m.keys.ScrollUp):
		m.follow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.logViewport.ScrollDown(1)
		m.follow = m.logViewport.AtBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.logViewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.follow = m.logViewport.AtBottom()
	case key.Matches(msg, m.keys.Follow):
		m.follow = true
		m.logViewport.GotoBottom()
	}
	return m, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	switch {
	case m.service == nil:
		return m, nil
	case len(m.problems) > 0:
		m.notice = "fix config first: " + m.problems[0]
		return m, nil
	case m.busy || m.snapshot.Running:
		m.notice = "service already running"
		return m, nil
	}
	m.busy = true
	m.notice = "starting..."
	return m, startCmd(m.service)
}

func (m Model) stop() (tea.Model, tea.Cmd) {
	if m.service == nil || m.busy || !m.snapshot.Running {
		m.notice = "service not running"
		return m, nil
	}
	m.busy = true
	m.notice = "stopping..."
	return m, stopCmd(m.service)
}

func (m *Model) dismissAlert() {
	if m.store != nil {
		m.store.DismissAlert()
	}
	m.snapshot.Alert = ""
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.refreshLogs()
	if m.prefsPath == "" {
		return
	}
	err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, AutoStart: m.autoStart})
	if err != nil {
		m.notice = "save prefs: " + err.Error()
	}
}

func (m *Model) appendLog(record logging.Record) {
	m.logs = append(m.logs, record)
	if over := len(m.logs) - logBufferLimit; over > 0 {
		m.logs = append(m.logs[:0:0], m.logs[over:]...)
	}
	m.refreshLogs()
}

func (m *Model) resizeLogs() {
	m.logViewport.Width = max(m.width-4, 10)
	m.logViewport.Height = max(m.height-chromeHeight, 3)
	m.refreshLogs()
}

func (m *Model) refreshLogs() {
	m.logViewport.SetContent(m.renderLogContent())
	if m.follow {
		m.logViewport.GotoBottom()
	}
}
