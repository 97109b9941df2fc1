package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SCuellar21/picard/internal/logging"
	"github.com/SCuellar21/picard/internal/logtail"
	"github.com/SCuellar21/picard/internal/prefs"
	"github.com/SCuellar21/picard/internal/state"
	"github.com/SCuellar21/picard/internal/webservice"
)

// Filter selects which requests the table shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterFailed
)

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterFailed:
		return "Failed"
	default:
		return "All"
	}
}

// ParseFilter maps a filter name to a Filter, FilterAll when unknown.
func ParseFilter(name string) Filter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "active":
		return FilterActive
	case "failed":
		return FilterFailed
	default:
		return FilterAll
	}
}

func (f Filter) next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterFailed
	default:
		return FilterAll
	}
}

func (f Filter) match(info webservice.RequestInfo) bool {
	switch f {
	case FilterActive:
		return !info.State.Finished()
	case FilterFailed:
		return info.State == webservice.StateFailed
	default:
		return true
	}
}

// Canceler removes a queued request. *webservice.Transport implements it.
type Canceler interface {
	Cancel(h webservice.Handle) bool
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Canceler  Canceler
	PollTick  time.Duration
	Title     string
	ThemeName string
	// Filter is the initial filter name (All, Active or Failed).
	Filter    string
	PrefsPath string
	// LogPath is the JSON log file shown in the log pane.
	LogPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	canceler  Canceler
	pollTick  time.Duration
	title     string
	prefsPath string
	logPath   string

	theme  Theme
	keys   keyMap
	help   help.Model
	width  int
	height int
	ready  bool

	snapshot    state.Snapshot
	selectedRow int
	filter      Filter
	showHelp    bool
	showLog     bool
	logLines    []string
	notice      string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	title := opts.Title
	if title == "" {
		title = "picard-ws"
	}
	return Model{
		ctx:       ctx,
		store:     opts.Store,
		canceler:  opts.Canceler,
		pollTick:  pollTick,
		title:     title,
		prefsPath: opts.PrefsPath,
		logPath:   opts.LogPath,
		theme:     GetTheme(opts.ThemeName),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		filter:    ParseFilter(opts.Filter),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick), waitDoneCmd(m.ctx)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		if m.showLog {
			cmds = append(cmds, fetchLogCmd(m.logPath, m.logHeight()))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampSelection()
		return m, nil

	case logMsg:
		m.logLines = msg
		return m, nil

	case doneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = m.filter.next()
		m.selectedRow = 0
		m.savePrefs()
	case key.Matches(msg, m.keys.Cancel):
		m.cancelSelected()
	case key.Matches(msg, m.keys.ToggleLog):
		if m.logPath == "" {
			m.notice = "no log file configured"
			return m, nil
		}
		m.showLog = !m.showLog
		if m.showLog {
			return m, fetchLogCmd(m.logPath, m.logHeight())
		}
		m.logLines = nil
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(m.visibleRequests())-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = max(len(m.visibleRequests())-1, 0)
	}
	return m, nil
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Filter: m.filter.String()}); err != nil {
		logging.Warn().Err(err).Msg("save monitor prefs")
	}
}

func (m *Model) cancelSelected() {
	rows := m.visibleRequests()
	if m.canceler == nil || m.selectedRow >= len(rows) {
		return
	}
	info := rows[m.selectedRow]
	if m.canceler.Cancel(webservice.Handle{ID: info.ID}) {
		m.notice = "canceled " + shortID(info.ID)
	} else {
		m.notice = shortID(info.ID) + " is no longer queued"
	}
}

// visibleRequests returns the snapshot's requests after filtering, newest first.
func (m Model) visibleRequests() []webservice.RequestInfo {
	all := m.snapshot.Requests
	out := make([]webservice.RequestInfo, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if m.filter.match(all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

func (m *Model) clampSelection() {
	n := len(m.visibleRequests())
	if m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logMsg []string

type doneMsg struct{}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func fetchLogCmd(path string, n int) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Format(path, n)
		if err != nil {
			return logMsg{"log unavailable: " + err.Error()}
		}
		return logMsg(lines)
	}
}

func waitDoneCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return doneMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
