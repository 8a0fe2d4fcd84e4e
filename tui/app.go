package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"croquis-cli/layout"
	"croquis-cli/model"
	"croquis-cli/service"
	"croquis-cli/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type appState int

const (
	stateLoadingEvents appState = iota
	stateSelectEvent
	stateLoadingLayout
	stateEditor
	stateConfirm
	stateError
)

const noticeTTL = 4 * time.Second

var errNoEvent = errors.New("no event selected")

// Options configure the editor program.
type Options struct {
	Client *service.Client
	// EventID opens that event directly instead of the picker.
	EventID int64
	// Notice is shown once the first screen is ready.
	Notice string
}

type appModel struct {
	client *service.Client
	saver  *layout.Saver
	editor *layout.Store

	state     appState
	lastState appState
	err       error

	retry      tea.Cmd
	retryState appState

	width  int
	height int

	events    []model.Event
	eventList list.Model

	eventID int64
	event   model.Event

	spinner spinner.Model

	notices    []noticeEntry
	nextNotice int

	confirmPrompt string
	// armedKey is the key pressed once to discard unsaved changes; a
	// second press of the same key goes through.
	armedKey    string
	startNotice string
}

type noticeEntry struct {
	id     int
	notice layout.Notice
}

type errMsg struct {
	err        error
	retry      tea.Cmd
	retryState appState
}

type eventsMsg struct {
	events []model.Event
	err    error
}

type layoutMsg struct {
	eventID int64
	event   model.Event
	raw     model.LayoutResponse
	err     error
}

type saveDoneMsg struct {
	result layout.SaveResult
}

type noticeExpiredMsg struct {
	id int
}

func New(opts Options) tea.Model {
	client := opts.Client
	if client == nil {
		client = service.NewClient(nil, service.Options{})
	}
	m := appModel{
		client:      client,
		saver:       layout.NewSaver(client),
		editor:      layout.NewStore(),
		state:       stateLoadingEvents,
		eventID:     opts.EventID,
		startNotice: opts.Notice,
	}
	if m.eventID > 0 {
		m.state = stateLoadingLayout
	}

	m.eventList = newList("Select Event")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.state == stateLoadingLayout {
		cmds = append(cmds, m.fetchLayoutCmd(m.eventID))
	} else {
		cmds = append(cmds, m.fetchEventsCmd())
	}
	cmds = append(cmds, m.spinner.Tick)
	if m.startNotice != "" {
		cmds = append(cmds, func() tea.Msg {
			return layout.Notice{Level: layout.NoticeWarning, Title: "Session", Text: m.startNotice}
		})
	}
	return tea.Batch(cmds...)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case tea.MouseMsg:
		// Motion and release reach the pointer hub in every state so a drag
		// always ends.
		if m.state != stateEditor && msg.Action == tea.MouseActionPress {
			return m, nil
		}
		return m.handleMouse(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.retry = msg.retry
		m.retryState = msg.retryState
		m.lastState = recoverStateFrom(m.state)
		m.state = stateError
		return m, nil

	case eventsMsg:
		if msg.err != nil {
			log.Printf("list events: %v", msg.err)
			return m, errCmd(msg.err, m.fetchEventsCmd(), stateLoadingEvents)
		}
		m.events = msg.events
		m.eventList.SetItems(buildEventItems(msg.events))
		m.state = stateSelectEvent
		return m, nil

	case layoutMsg:
		if msg.err != nil {
			log.Printf("load layout %d: %v", msg.eventID, msg.err)
			return m, errCmd(msg.err, m.fetchLayoutCmd(msg.eventID), stateLoadingLayout)
		}
		m.eventID = msg.eventID
		m.event = msg.event
		l, seats := layout.Normalize(msg.raw)
		m.editor.Replace(l, seats)
		m.applyPreferences()
		_ = store.RememberEvent(m.event)
		m.armedKey = ""
		m.state = stateEditor
		return m, nil

	case saveDoneMsg:
		return m.finishSave(msg.result)

	case layout.Notice:
		return m, m.pushNotice(msg)

	case noticeExpiredMsg:
		m.dropNotice(msg.id)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectEvent:
		m.eventList, cmd = m.eventList.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingEvents, stateLoadingLayout:
		return header + "\n\n" + m.loadingView()
	case stateSelectEvent:
		return header + "\n\n" + m.eventList.View() + m.noticesView()
	case stateEditor:
		return header + "\n\n" + m.editorView() + m.noticesView()
	case stateConfirm:
		return header + "\n\n" + m.editorView() + "\n\n" + m.confirmView()
	case stateError:
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("Error: "+service.UserMessage(m.err)) +
			"\n\n" + hint("Press r or enter to retry, esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Croquis Editor")
	sub := []string{}
	if m.event.Name != "" {
		sub = append(sub, fmt.Sprintf("Event: %s", m.event.Name))
	}
	if m.event.VenueName != "" {
		sub = append(sub, fmt.Sprintf("Venue: %s", m.event.VenueName))
	}
	if m.event.Date != "" {
		sub = append(sub, fmt.Sprintf("Date: %s", eventDate(m.event.Date)))
	}
	if m.state == stateEditor || m.state == stateConfirm {
		mode := "view"
		if m.editor.EditMode() {
			mode = "edit"
		}
		sub = append(sub, "Mode: "+mode)
		if m.editor.Saving() {
			sub = append(sub, m.spinner.View()+"saving")
		} else if m.editor.Dirty() {
			sub = append(sub, "unsaved changes")
		}
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}
	hints := "ctrl+c quit • type to filter • enter open event • ctrl+r refresh"
	switch m.state {
	case stateEditor:
		if m.editor.EditMode() {
			hints = "e view mode • a add area • s add seat • x delete/restore • tab next area • ctrl+s save • +/- zoom • l labels • f filter • esc back"
		} else {
			hints = "e edit mode • +/- zoom • l labels • f filter • r reload • esc back • q quit"
		}
	case stateConfirm:
		hints = "y confirm • n/esc cancel"
	case stateError:
		hints = "ctrl+c quit • esc back • r retry"
	case stateLoadingEvents, stateLoadingLayout:
		hints = "ctrl+c quit"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}
	switch m.state {
	case stateConfirm:
		return m.handleConfirmKey(msg)
	case stateEditor:
		return m.handleEditorKey(msg)
	case stateError:
		switch msg.String() {
		case "r", "enter":
			if m.retry == nil {
				return m, nil, true
			}
			m.state = m.retryState
			return m, tea.Batch(m.retry, m.spinner.Tick), true
		case "esc":
			next, cmd := m.goBack()
			return next, cmd, true
		case "q":
			return m, tea.Quit, true
		}
		return m, nil, true
	}

	switch msg.String() {
	case "esc":
		if listPtr := m.activeList(); listPtr != nil && listPtr.FilterValue() != "" {
			listPtr.ResetFilter()
			return m, nil, true
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+r":
		if m.state == stateSelectEvent {
			_ = store.ClearEventCache()
			m.state = stateLoadingEvents
			return m, tea.Batch(m.fetchEventsCmd(), m.spinner.Tick), true
		}
	case "enter":
		if m.state != stateSelectEvent {
			return m, nil, false
		}
		item, ok := m.eventList.SelectedItem().(eventItem)
		if !ok {
			return m, nil, true
		}
		m.eventID = item.event.Id
		m.event = item.event
		m.state = stateLoadingLayout
		return m, tea.Batch(m.fetchLayoutCmd(item.event.Id), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateEditor:
		if m.editor.Saving() {
			return m, m.pushNotice(layout.NoticeFor(layout.ErrSaveInFlight))
		}
		if cmd, armed := m.armDiscard("esc", "Press esc again to discard them."); armed {
			return m, cmd
		}
		_ = m.editor.SetEditMode(false)
		m.event = model.Event{}
		m.eventID = 0
		if len(m.eventList.Items()) == 0 {
			m.state = stateLoadingEvents
			return m, tea.Batch(m.fetchEventsCmd(), m.spinner.Tick)
		}
		m.state = stateSelectEvent
		m.eventList.SetItems(buildEventItems(m.events))
	case stateError:
		if m.lastState == stateLoadingEvents {
			return m, nil
		}
		if m.lastState == stateSelectEvent && len(m.eventList.Items()) == 0 {
			m.state = stateLoadingEvents
			return m, tea.Batch(m.fetchEventsCmd(), m.spinner.Tick)
		}
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := trimLastRune(listPtr.FilterValue())
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	if m.state == stateSelectEvent {
		return &m.eventList
	}
	return nil
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingEvents ||
		m.state == stateLoadingLayout ||
		m.editor.Saving()
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingEvents:
		title = "Loading events"
	case stateLoadingLayout:
		title = "Loading layout"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Fetching data..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.eventList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error, retry tea.Cmd, retryState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err, retry: retry, retryState: retryState}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingLayout:
		return stateSelectEvent
	case stateEditor:
		return stateEditor
	case stateError:
		return stateSelectEvent
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func (m appModel) fetchEventsCmd() tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadEventCache(); err == nil && fresh && len(cached) > 0 {
			return eventsMsg{events: cached}
		}
		ctx := context.Background()
		events, err := m.client.ListEvents(ctx)
		if err == nil && len(events) > 0 {
			_ = store.SaveEventCache(events)
		}
		return eventsMsg{events: events, err: err}
	}
}

// fetchLayoutCmd loads the event and its layout together; either failing
// fails the whole load so no partial layout is shown.
func (m appModel) fetchLayoutCmd(eventID int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		event, err := m.client.GetEvent(ctx, eventID)
		if err != nil {
			return layoutMsg{eventID: eventID, err: fmt.Errorf("event %d: %w", eventID, err)}
		}
		raw, err := m.client.GetLayout(ctx, eventID)
		if err != nil {
			return layoutMsg{eventID: eventID, err: fmt.Errorf("layout of event %d: %w", eventID, err)}
		}
		return layoutMsg{eventID: eventID, event: event, raw: raw}
	}
}

func (m appModel) saveCmd(plan layout.SavePlan) tea.Cmd {
	eventID := m.eventID
	saver := m.saver
	return func() tea.Msg {
		return saveDoneMsg{result: saver.Execute(context.Background(), eventID, plan)}
	}
}

type eventItem struct {
	event  model.Event
	recent bool
}

func (e eventItem) Title() string {
	return e.event.Name
}

func (e eventItem) Description() string {
	parts := []string{}
	if e.recent {
		parts = append(parts, "Recent")
	}
	if e.event.VenueName != "" {
		parts = append(parts, e.event.VenueName)
	}
	if e.event.Date != "" {
		parts = append(parts, eventDate(e.event.Date))
	}
	if e.event.Capacity > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d sold", e.event.Sold(), e.event.Capacity))
	}
	return strings.Join(parts, " • ")
}

func (e eventItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{e.event.Name, e.event.VenueName, e.event.Date, fmt.Sprint(e.event.Id)}, " "))
}

// buildEventItems lists recently opened events first, then the rest by date.
func buildEventItems(events []model.Event) []list.Item {
	recents, _ := store.LoadRecentEvents()
	byID := make(map[int64]model.Event, len(events))
	for _, event := range events {
		byID[event.Id] = event
	}

	var items []list.Item
	used := map[int64]bool{}
	for _, recent := range recents {
		if event, ok := byID[recent.ID]; ok && !used[event.Id] {
			items = append(items, eventItem{event: event, recent: true})
			used[event.Id] = true
		}
	}

	remaining := make([]model.Event, 0, len(events))
	for _, event := range events {
		if !used[event.Id] {
			remaining = append(remaining, event)
		}
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		if remaining[i].Date != remaining[j].Date {
			return remaining[i].Date < remaining[j].Date
		}
		return strings.ToLower(remaining[i].Name) < strings.ToLower(remaining[j].Name)
	})
	for _, event := range remaining {
		items = append(items, eventItem{event: event})
	}
	return items
}

func eventDate(raw string) string {
	for _, layoutStr := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", time.DateOnly} {
		if t, err := time.Parse(layoutStr, raw); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return raw
}

func (m *appModel) applyPreferences() {
	prefs, err := store.LoadPreferences(m.eventID)
	if err != nil {
		log.Printf("load preferences: %v", err)
		return
	}
	m.editor.SetZoom(layout.DefaultZoom)
	if prefs.Zoom != 0 {
		m.editor.SetZoom(prefs.Zoom)
	}
	m.editor.SetShowLabels(!prefs.HideLabels)
	m.editor.SetFilter(prefs.Filter)
}

func (m appModel) savePreferences() {
	prefs := store.Preferences{
		HideLabels: !m.editor.ShowLabels(),
		Filter:     string(m.editor.Filter()),
	}
	if zoom := m.editor.Zoom(); zoom != layout.DefaultZoom {
		prefs.Zoom = zoom
	}
	if err := store.SavePreferences(m.eventID, prefs); err != nil {
		log.Printf("save preferences: %v", err)
	}
}

func (m *appModel) pushNotice(n layout.Notice) tea.Cmd {
	if n.Title == "" && n.Text == "" {
		return nil
	}
	m.nextNotice++
	id := m.nextNotice
	m.notices = append(m.notices, noticeEntry{id: id, notice: n})
	if len(m.notices) > 3 {
		m.notices = m.notices[len(m.notices)-3:]
	}
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (m *appModel) dropNotice(id int) {
	kept := m.notices[:0]
	for _, entry := range m.notices {
		if entry.id != id {
			kept = append(kept, entry)
		}
	}
	m.notices = kept
}

func (m appModel) noticesView() string {
	if len(m.notices) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.notices))
	for _, entry := range m.notices {
		lines = append(lines, renderNotice(entry.notice))
	}
	return "\n\n" + strings.Join(lines, "\n")
}

func renderNotice(n layout.Notice) string {
	color := "6"
	switch n.Level {
	case layout.NoticeSuccess:
		color = "2"
	case layout.NoticeWarning:
		color = "3"
	case layout.NoticeError:
		color = "1"
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(n.Title)
	if n.Text == "" {
		return title
	}
	return title + " " + n.Text
}
