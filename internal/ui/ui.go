package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/linkguard/internal/formatter"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/session"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/store"
	"github.com/desertthunder/linkguard/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LinksView ViewState = iota
	AlertsView
	UploadView
	ResultView
	ExpiredView
)

// statusFilters is the cycle order of the status filter; "" shows every link.
var statusFilters = append([]models.LinkStatus{""}, models.LinkStatuses...)

// Options configures optional behavior of the [Model].
type Options struct {
	UploadPath string // when set, the TUI starts by uploading this CSV file
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	links      *store.LinkStore
	alerts     *store.AlertStore
	uploader   *tasks.Uploader
	uploadPath string
	sessionCh  chan session.Event

	width     int
	height    int
	linkList  list.Model
	alertList list.Model
	filter    int

	progressChan chan tasks.ProgressUpdate
	uploadDone   chan uploadDoneMsg
	progress     tasks.ProgressUpdate
	result       *models.BulkUploadResult

	busy   bool
	notice string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, links *store.LinkStore, alerts *store.AlertStore, uploader *tasks.Uploader, sess *session.Manager, opts Options) *Model {
	m := &Model{
		ctx:        ctx,
		view:       LinksView,
		links:      links,
		alerts:     alerts,
		uploader:   uploader,
		uploadPath: opts.UploadPath,
		sessionCh:  make(chan session.Event, 4),
		linkList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		alertList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.linkList.Title = "Links"
	m.alertList.Title = "Alerts"

	if sess != nil {
		sess.Subscribe(func(ev session.Event) {
			select {
			case m.sessionCh <- ev:
			default:
			}
		})
	}
	return m
}

// Init loads both collections and, when configured, starts the upload.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadLinks(), m.loadAlerts(), m.waitForSession()}
	if m.uploadPath != "" {
		m.view = UploadView
		cmds = append(cmds, m.startUpload(m.uploadPath))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.linkList.SetSize(msg.Width-4, msg.Height-8)
		m.alertList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LinksView:
			return m.handleLinksKeys(msg)
		case AlertsView:
			return m.handleAlertsKeys(msg)
		case UploadView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		case ExpiredView:
			return m, tea.Quit
		}

	case linksLoadedMsg:
		m.busy = false
		m.err = msg.err
		m.refreshLinks()
		return m, nil

	case alertsLoadedMsg:
		m.err = msg.err
		m.refreshAlerts()
		return m, nil

	case actionDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.notice = msg.notice
		}
		m.refreshLinks()
		m.refreshAlerts()
		return m, nil

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case uploadDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan, m.uploadDone = nil, nil
		m.view = ResultView
		m.refreshLinks()
		return m, nil

	case sessionMsg:
		if msg.Reason == session.ReasonExpired {
			m.view = ExpiredView
			return m, nil
		}
		return m, m.waitForSession()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LinksView:
		return m.renderList(m.linkList, m.linksHelp())
	case AlertsView:
		return m.renderList(m.alertList, m.alertsHelp())
	case UploadView:
		return m.renderUpload()
	case ResultView:
		return m.renderResult()
	case ExpiredView:
		return styles.err.Render("Your session has expired. Run `linkguard auth login` and start again.\n\nPress any key to quit")
	default:
		return ""
	}
}

func (m *Model) filtering(l list.Model) bool {
	return l.FilterState() == list.Filtering
}

func (m *Model) selectedLink() (models.Link, bool) {
	if it, ok := m.linkList.SelectedItem().(linkItem); ok {
		return it.link, true
	}
	return models.Link{}, false
}

func (m *Model) selectedAlert() (models.Alert, bool) {
	if it, ok := m.alertList.SelectedItem().(alertItem); ok {
		return it.alert, true
	}
	return models.Alert{}, false
}

func (m *Model) handleLinksKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering(m.linkList) {
		var cmd tea.Cmd
		m.linkList, cmd = m.linkList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		m.view = AlertsView
		return m, nil
	case key.Matches(msg, m.keys.filter):
		m.filter = (m.filter + 1) % len(statusFilters)
		m.refreshLinks()
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.loadLinks()
	case key.Matches(msg, m.keys.checkAll):
		return m, m.act("Checked all links", m.links.CheckAll)
	case key.Matches(msg, m.keys.check):
		if l, ok := m.selectedLink(); ok {
			return m, m.act("Checked "+l.Title, func(ctx context.Context) error { return m.links.CheckOne(ctx, l.ID) })
		}
	case key.Matches(msg, m.keys.remove):
		if l, ok := m.selectedLink(); ok {
			commit, err := m.links.BeginRemove(l.ID)
			return m.optimistic("Deleted "+l.Title, commit, err)
		}
	}

	var cmd tea.Cmd
	m.linkList, cmd = m.linkList.Update(msg)
	return m, cmd
}

func (m *Model) handleAlertsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering(m.alertList) {
		var cmd tea.Cmd
		m.alertList, cmd = m.alertList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab), key.Matches(msg, m.keys.back):
		m.view = LinksView
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.loadAlerts()
	case key.Matches(msg, m.keys.readAll):
		return m.optimistic("All alerts marked as read", m.alerts.BeginMarkAllRead(), nil)
	case key.Matches(msg, m.keys.read):
		if a, ok := m.selectedAlert(); ok {
			commit, err := m.alerts.BeginMarkRead(a.ID)
			return m.optimistic("Alert marked as read", commit, err)
		}
	case key.Matches(msg, m.keys.remove):
		if a, ok := m.selectedAlert(); ok {
			commit, err := m.alerts.BeginRemove(a.ID)
			return m.optimistic("Alert deleted", commit, err)
		}
	}

	var cmd tea.Cmd
	m.alertList, cmd = m.alertList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), msg.String() == "enter":
		m.view = LinksView
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LinksView:
		m.linkList, cmd = m.linkList.Update(msg)
	case AlertsView:
		m.alertList, cmd = m.alertList.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshLinks() {
	status := statusFilters[m.filter]
	links := m.links.Filter("", status)
	items := make([]list.Item, len(links))
	for i, l := range links {
		items[i] = linkItem{link: l}
	}
	m.linkList.SetItems(items)

	title := "Links"
	if status != "" {
		title = fmt.Sprintf("Links (%s)", status)
	}
	m.linkList.Title = title
}

func (m *Model) refreshAlerts() {
	now := time.Now()
	alerts := m.alerts.Snapshot()
	items := make([]list.Item, len(alerts))
	for i, a := range alerts {
		items[i] = alertItem{alert: a, now: now}
	}
	m.alertList.SetItems(items)
	m.alertList.Title = fmt.Sprintf("Alerts (%d unread)", m.alerts.Unread())
}

func (m *Model) loadLinks() tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		return linksLoadedMsg{err: m.links.Load(m.ctx)}
	}
}

func (m *Model) loadAlerts() tea.Cmd {
	return func() tea.Msg {
		return alertsLoadedMsg{err: m.alerts.Load(m.ctx)}
	}
}

// act runs a store mutation off the update loop.
func (m *Model) act(notice string, fn func(context.Context) error) tea.Cmd {
	m.busy = true
	m.notice = ""
	return func() tea.Msg {
		return actionDoneMsg{notice: notice, err: fn(m.ctx)}
	}
}

// optimistic shows a change the store has already applied locally and sends it to the server.
func (m *Model) optimistic(notice string, commit store.Commit, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.err = err
		return m, nil
	}
	m.refreshLinks()
	m.refreshAlerts()
	return m, m.act(notice, commit)
}

func (m *Model) waitForSession() tea.Cmd {
	ch := m.sessionCh
	return func() tea.Msg {
		return sessionMsg(<-ch)
	}
}

func (m *Model) startUpload(path string) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan uploadDoneMsg, 1)
	m.progressChan, m.uploadDone = progress, done

	go func() {
		defer close(progress)

		f, err := os.Open(path)
		if err != nil {
			done <- uploadDoneMsg{err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)}
			return
		}
		defer f.Close()

		res, err := m.uploader.Upload(m.ctx, path, f, progress)
		done <- uploadDoneMsg{result: res, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.uploadDone
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressMsg(update)
		}
		return <-done
	}
}

func (m *Model) header() string {
	if !m.links.Loaded() {
		return styles.title.Render("LinkGuard • loading links...")
	}
	counts := m.links.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	return styles.title.Render(fmt.Sprintf("LinkGuard • %d links • %d broken • %d unread alerts",
		total, counts[models.LinkBroken], m.alerts.Unread()))
}

func (m *Model) status() string {
	switch {
	case m.err != nil:
		return styles.err.Render("✗ " + shared.UserMessage(m.err))
	case m.busy:
		return styles.muted.Render("Working...")
	case m.notice != "":
		return styles.ok.Render("✓ " + m.notice)
	default:
		return ""
	}
}

func (m *Model) linksHelp() []key.Binding {
	return []key.Binding{m.keys.check, m.keys.checkAll, m.keys.remove, m.keys.filter, m.keys.tab, m.keys.quit}
}

func (m *Model) alertsHelp() []key.Binding {
	return []key.Binding{m.keys.read, m.keys.readAll, m.keys.remove, m.keys.tab, m.keys.quit}
}

func (m *Model) renderList(l list.Model, helpKeys []key.Binding) string {
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", m.header(), l.View(), m.status(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderUpload() string {
	title := styles.title.Render("Uploading " + m.uploadPath)

	var phase string
	switch m.progress.Phase {
	case tasks.Validate:
		phase = "Checking file..."
	case tasks.Upload:
		phase = "Sending to server..."
	case tasks.Reconcile:
		phase = "Refreshing links..."
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.result == nil {
		msg := "No result available"
		if m.err != nil {
			msg = "Upload failed: " + shared.UserMessage(m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	title := styles.ok.Render("✓ Upload Complete")
	if m.result.Failed > 0 {
		title = styles.warn.Render("Upload finished with rejected rows")
	}

	var b strings.Builder
	b.WriteString(formatter.UploadReport(m.result))
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Links could not be refreshed: "+shared.UserMessage(m.err)))
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, b.String(), helpView)
}
