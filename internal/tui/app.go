package tui

import (
	"fmt"
	"strings"
	"time"

	"nexdo/internal/dragplan"
	"nexdo/internal/model"
	"nexdo/internal/mutate"
	"nexdo/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	viewModeList  = "list"
	viewModeBoard = "board"

	// Screen rows above the task rows: the header and a rule.
	bodyTop     = 2
	footerLines = 2
)

type lens int

const (
	lensAll lens = iota
	lensToday
	lensOverdue
	lensInbox
	lensTrash
)

var lensNames = [...]string{"All tasks", "Today", "Overdue", "Inbox", "Trash"}

func (l lens) String() string { return lensNames[l] }

type inputKind int

const (
	inputNone inputKind = iota
	inputAdd
	inputAddChild
	inputRename
	inputComment
)

type tickMsg time.Time

type minibufferDoneMsg struct{ seq int }

// pressState is a left press that has not moved yet. Motion turns it into a drag.
type pressState struct {
	taskID string
	y      int
}

type appModel struct {
	engine *mutate.Engine
	db     *store.DB
	opts   Options
	keys   keyMap
	help   help.Model

	width  int
	height int

	lens       lens
	selectedID string
	cursor     int
	offset     int
	boardCol   int

	showHelp   bool
	showDetail bool

	input     textinput.Model
	inputKind inputKind
	inputFor  string

	confirm *confirmState

	minibufferText string
	minibufferSeq  int
	saveErr        string

	drag  *dragplan.Session
	press *pressState
}

func newAppModel(e *mutate.Engine, opts Options) appModel {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 500

	m := appModel{
		engine:     e,
		db:         e.DB(),
		opts:       opts,
		keys:       defaultKeyMap(),
		help:       help.New(),
		width:      100,
		height:     30,
		input:      in,
		showDetail: true,
	}
	m.help.Width = m.width
	m.syncSelection()
	return m
}

func (m appModel) Init() tea.Cmd { return m.tick() }

func (m appModel) tick() tea.Cmd {
	every := time.Second
	if c := m.opts.Config; c != nil && c.TUI != nil && c.TUI.TickSeconds > 0 {
		every = time.Duration(c.TUI.TickSeconds) * time.Second
	}
	return tea.Tick(every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.syncSelection()
		return m, nil

	case tickMsg:
		// Tracking timers are derived from the clock at render time; the tick only repaints.
		m.saveErr = ""
		if m.opts.Err != nil {
			if err := m.opts.Err(); err != nil {
				m.saveErr = "Save failed: " + err.Error()
			}
		}
		return m, m.tick()

	case minibufferDoneMsg:
		if msg.seq == m.minibufferSeq {
			m.minibufferText = ""
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}
	if m.inputKind != inputNone {
		return m.updateInput(msg)
	}
	if m.dragging() {
		if key.Matches(msg, m.keys.Cancel) {
			m.cancelDrag()
			return m, m.showMinibuffer("Drag cancelled")
		}
		return m, nil
	}
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help, m.keys.Cancel):
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.View):
		m.toggleViewMode()
		return m, nil
	case key.Matches(msg, m.keys.Lens):
		m.lens = (m.lens + 1) % lens(len(lensNames))
		m.selectedID, m.cursor, m.offset = "", 0, 0
		m.syncSelection()
		return m, m.showMinibuffer(m.lens.String())
	case key.Matches(msg, m.keys.Sort):
		cmd := m.cycleSort()
		m.syncSelection()
		return m, cmd
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		return m, nil
	}

	if m.boardActive() {
		return m.updateBoardKey(msg)
	}
	return m.updateOutlineKey(msg)
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	run := false
	switch {
	case key.Matches(msg, m.keys.Cancel) || msg.String() == "n":
		m.confirm = nil
		return m, nil
	case msg.String() == "y":
		run = true
	case key.Matches(msg, m.keys.Submit):
		run = c.focus == confirmFocusConfirm
		if !run {
			m.confirm = nil
			return m, nil
		}
	case key.Matches(msg, m.keys.FocusNext):
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
		return m, nil
	}
	if !run {
		return m, nil
	}
	m.confirm = nil
	text := c.run()
	m.syncSelection()
	return m, m.showMinibuffer(text)
}

func (m *appModel) openConfirm(title, body, confirmLabel string, run func() string) {
	m.confirm = &confirmState{
		title:        title,
		body:         body,
		confirmLabel: confirmLabel,
		focus:        confirmFocusConfirm,
		run:          run,
	}
}

func (m *appModel) openInput(kind inputKind, forID, value string) tea.Cmd {
	m.inputKind = kind
	m.inputFor = forID
	switch kind {
	case inputComment:
		m.input.Placeholder = "Write a comment"
	case inputRename:
		m.input.Placeholder = "Title"
	default:
		m.input.Placeholder = "New task"
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *appModel) closeInput() {
	m.inputKind = inputNone
	m.inputFor = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	case msg.Type == tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		kind, forID := m.inputKind, m.inputFor
		m.closeInput()
		if text == "" {
			return m, nil
		}
		cmd := m.submitInput(kind, forID, text)
		m.syncSelection()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) submitInput(kind inputKind, forID, text string) tea.Cmd {
	switch kind {
	case inputAdd:
		m.selectedID = m.addSibling(forID, text)
		return m.showMinibuffer("Added")
	case inputAddChild:
		id := m.engine.AddTask(text, m.addOptions(forID))
		m.setCollapsed(forID, false)
		m.selectedID = id
		return m.showMinibuffer("Added subtask")
	case inputRename:
		if m.engine.UpdateTask(forID, mutate.Patch{Title: &text}) {
			return m.showMinibuffer("Renamed")
		}
	case inputComment:
		if m.engine.AddComment(forID, text) {
			return m.showMinibuffer("Comment added")
		}
	}
	return nil
}

// addSibling adds a task right after afterID, or at the end of the roots when afterID is empty.
func (m *appModel) addSibling(afterID, title string) string {
	after, ok := m.db.FindTask(afterID)
	if !ok || m.lens != lensAll {
		return m.engine.AddTask(title, m.addOptions(""))
	}
	opts := m.addOptions(after.ParentID)
	opts.ProjectID = after.ProjectID
	id := m.engine.AddTask(title, opts)
	if i := indexOf(m.db.Container(after.ParentID), after.ID); i >= 0 {
		m.engine.MoveTask(id, after.ParentID, i+1)
	}
	return id
}

func (m appModel) addOptions(parentID string) mutate.AddOptions {
	opts := mutate.AddOptions{ParentID: parentID}
	if p, ok := m.db.FindTask(parentID); ok {
		opts.ProjectID = p.ProjectID
	}
	if m.lens == lensToday {
		opts.DueDate = m.engine.Now().Format("2006-01-02")
	}
	if m.boardActive() {
		opts.StatusID = m.boardColumns()[m.boardCol].status.ID
	}
	return opts
}

func (m *appModel) showMinibuffer(text string) tea.Cmd {
	m.minibufferSeq++
	m.minibufferText = text
	seq := m.minibufferSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return minibufferDoneMsg{seq: seq} })
}

func (m appModel) boardActive() bool {
	return m.db.UI.ViewMode == viewModeBoard && m.lens == lensAll
}

func (m appModel) manualSort() bool {
	return m.db.UI.Sort == "" || m.db.UI.Sort == store.SortManual
}

func (m *appModel) toggleViewMode() {
	m.cancelDrag()
	m.engine.SetUI(func(ui *store.UIState) {
		if ui.ViewMode == viewModeBoard {
			ui.ViewMode = viewModeList
		} else {
			ui.ViewMode = viewModeBoard
		}
	})
	m.syncSelection()
}

var sortCycle = []store.Sort{
	store.SortManual,
	store.SortDueDate,
	store.SortPriority,
	store.SortCreated,
	store.SortAlphabetical,
	store.SortAssignee,
}

func (m *appModel) cycleSort() tea.Cmd {
	next := sortCycle[0]
	for i, s := range sortCycle {
		if s == m.db.UI.Sort {
			next = sortCycle[(i+1)%len(sortCycle)]
		}
	}
	m.engine.SetUI(func(ui *store.UIState) { ui.Sort = next })
	return m.showMinibuffer("Sort: " + string(next))
}

func (m *appModel) setCollapsed(id string, collapsed bool) bool {
	if id == "" {
		return false
	}
	return m.engine.SetUI(func(ui *store.UIState) {
		if collapsed {
			ui.Collapsed[id] = true
		} else {
			delete(ui.Collapsed, id)
		}
	})
}

// tasks returns the rows of the current list, in display order.
func (m appModel) tasks() []*model.Task {
	q := store.QueryFromUI(m.db.UI)
	switch m.lens {
	case lensToday:
		return store.ApplyQuery(m.db.TodayTasks(m.engine.Now()), q)
	case lensOverdue:
		return store.ApplyQuery(m.db.OverdueTasks(m.engine.Now()), q)
	case lensInbox:
		return store.ApplyQuery(m.db.InboxTasks(), q)
	case lensTrash:
		return m.db.DeletedRootTasks()
	}
	return outlineTasks(m.db, m.db.UI)
}

func (m appModel) selectedTask() *model.Task {
	t, ok := m.db.FindTask(m.selectedID)
	if !ok {
		return nil
	}
	return t
}

// syncSelection keeps the selection on a visible task and in view after the rows change.
func (m *appModel) syncSelection() {
	if m.boardActive() {
		m.syncBoardSelection()
		return
	}
	tasks := m.tasks()
	if len(tasks) == 0 {
		m.selectedID, m.cursor, m.offset = "", 0, 0
		return
	}
	found := false
	for i, t := range tasks {
		if t.ID == m.selectedID {
			m.cursor, found = i, true
			break
		}
	}
	if !found {
		m.cursor = clamp(m.cursor, 0, len(tasks)-1)
		m.selectedID = tasks[m.cursor].ID
	}
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = clamp(m.offset, 0, max(len(tasks)-h, 0))
}

func (m *appModel) moveCursor(delta int) {
	tasks := m.tasks()
	if len(tasks) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(tasks)-1)
	m.selectedID = tasks[m.cursor].ID
	m.syncSelection()
}

func (m appModel) bodyHeight() int {
	return max(m.height-bodyTop-footerLines, 1)
}

func (m appModel) View() string {
	bodyH := m.bodyHeight()
	rule := styleMuted().Render(strings.Repeat(glyphHRule(), max(m.width, 1)))

	var body string
	if m.boardActive() {
		body = m.viewBoard(m.width, bodyH)
	} else {
		body = m.viewOutline(m.width, bodyH)
	}

	out := strings.Join([]string{
		fitWidth(m.viewHeader(), m.width),
		rule,
		normalizePane(body, m.width, bodyH),
		m.viewStatusLine(),
		fitWidth(m.help.ShortHelpView(m.keys.ShortHelp()), m.width),
	}, "\n")

	switch {
	case m.confirm != nil:
		c := m.confirm
		return placeModal(m.width, m.height, renderConfirmModal(m.width, c.title, c.body, c.confirmLabel, "Cancel", c.focus))
	case m.showHelp:
		return placeModal(m.width, m.height, renderModalBox(m.width, "Keys", m.help.FullHelpView(m.keys.FullHelp())))
	}
	return out
}

func (m appModel) viewHeader() string {
	mode := m.db.UI.ViewMode
	if m.lens != lensAll {
		mode = viewModeList
	}
	parts := []string{
		styleHeader().Render("nexdo"),
		lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(m.lens.String()),
		styleMuted().Render(mode),
		styleMuted().Render("sort: " + string(m.db.UI.Sort)),
	}
	if u, ok := m.db.FindUser(m.db.CurrentUserID); ok {
		parts = append(parts, styleMuted().Render("user: "+u.Name))
	}
	if n := len(m.db.TrackingTasks()); n > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorSuccess).Render(fmt.Sprintf("%s %d tracking", glyphTracking(), n)))
	}
	return strings.Join(parts, "  ")
}

func (m appModel) viewStatusLine() string {
	switch {
	case m.inputKind != inputNone:
		label := map[inputKind]string{
			inputAdd:      "Add:",
			inputAddChild: "Add subtask:",
			inputRename:   "Title:",
			inputComment:  "Comment:",
		}[m.inputKind]
		return renderPrompt(m.width, label, m.input.View())
	case m.dragging():
		return fitWidth(lipgloss.NewStyle().Foreground(colorDropLine).Render(m.dragStatus()), m.width)
	case m.saveErr != "":
		return fitWidth(lipgloss.NewStyle().Foreground(colorError).Render(m.saveErr), m.width)
	}
	return fitWidth(styleMuted().Render(m.minibufferText), m.width)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func indexOf(xs []string, id string) int {
	for i, x := range xs {
		if x == id {
			return i
		}
	}
	return -1
}
