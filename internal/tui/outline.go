package tui

import (
	"fmt"
	"strings"

	"nexdo/internal/dragplan"
	"nexdo/internal/model"
	"nexdo/internal/mutate"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// outlineTasks flattens the live tree in pre-order. Filters and sort apply per sibling group; a
// task that is filtered out hides its subtree, and collapsed tasks hide their children.
func outlineTasks(db *store.DB, ui store.UIState) []*model.Task {
	q := store.QueryFromUI(ui)
	out := []*model.Task{}
	var walk func(ts []*model.Task)
	walk = func(ts []*model.Task) {
		for _, t := range store.ApplyQuery(ts, q) {
			out = append(out, t)
			if !ui.Collapsed[t.ID] {
				walk(db.ChildTasks(t.ID))
			}
		}
	}
	walk(db.RootTasks())
	return out
}

// outlineRows is the drag geometry of the rows currently on screen (one line per task).
func (m appModel) outlineRows() []dragplan.Row {
	tasks := m.tasks()
	end := min(m.offset+m.bodyHeight(), len(tasks))
	if m.offset >= end {
		return nil
	}
	return dragplan.Layout(tasks[m.offset:end], bodyTop, 1)
}

func (m appModel) updateOutlineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.selectedTask()
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	}

	if m.lens == lensTrash {
		if t == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Restore):
			if m.engine.RestoreTask(t.ID) {
				cmd = m.showMinibuffer("Restored: " + t.Title)
			}
		case key.Matches(msg, m.keys.Purge):
			id, title := t.ID, t.Title
			m.openConfirm("Delete forever", fmt.Sprintf("Permanently delete %q and its subtasks? This cannot be undone.", title), "Delete",
				func() string {
					if m.engine.HardDeleteTask(id) {
						return "Deleted forever: " + title
					}
					return ""
				})
		}
		m.syncSelection()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Add):
		id := ""
		if t != nil {
			id = t.ID
		}
		return m, m.openInput(inputAdd, id, "")
	}
	if t == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		if len(m.db.ChildTasks(t.ID)) > 0 && !m.db.UI.Collapsed[t.ID] {
			m.setCollapsed(t.ID, true)
		} else if p, ok := m.db.FindTask(t.ParentID); ok && m.lens == lensAll {
			m.selectedID = p.ID
		}
	case key.Matches(msg, m.keys.Right):
		m.setCollapsed(t.ID, false)
	case key.Matches(msg, m.keys.Collapse):
		m.setCollapsed(t.ID, !m.db.UI.Collapsed[t.ID])
	case key.Matches(msg, m.keys.AddChild):
		return m, m.openInput(inputAddChild, t.ID, "")
	case key.Matches(msg, m.keys.Edit):
		return m, m.openInput(inputRename, t.ID, t.Title)
	case key.Matches(msg, m.keys.Comment):
		return m, m.openInput(inputComment, t.ID, "")
	case key.Matches(msg, m.keys.Toggle):
		if m.engine.ToggleComplete(t.ID) {
			if statusutil.IsDone(t.StatusID) {
				cmd = m.showMinibuffer("Completed: " + t.Title)
			} else {
				cmd = m.showMinibuffer("Reopened: " + t.Title)
			}
		}
	case key.Matches(msg, m.keys.Track):
		cmd = m.toggleTracking(t)
	case key.Matches(msg, m.keys.Priority):
		p := nextPriority(t.Priority)
		if m.engine.UpdateTask(t.ID, mutate.Patch{Priority: &p}) {
			cmd = m.showMinibuffer("Priority: " + string(p))
		}
	case key.Matches(msg, m.keys.Delete):
		id, title := t.ID, t.Title
		m.openConfirm("Delete task", fmt.Sprintf("Move %q and its subtasks to the trash?", title), "Delete",
			func() string {
				if m.engine.DeleteTask(id) {
					return "Deleted: " + title + " (g to open trash)"
				}
				return ""
			})
	case key.Matches(msg, m.keys.MoveUp):
		cmd = m.reorder(t, -1)
	case key.Matches(msg, m.keys.MoveDown):
		cmd = m.reorder(t, 1)
	case key.Matches(msg, m.keys.Indent):
		cmd = m.indent(t)
	case key.Matches(msg, m.keys.Outdent):
		cmd = m.outdent(t)
	}
	m.syncSelection()
	return m, cmd
}

func (m *appModel) toggleTracking(t *model.Task) tea.Cmd {
	if t.IsTracking() {
		if m.engine.StopTracking(t.ID) {
			return m.showMinibuffer("Stopped: " + t.Title)
		}
		return nil
	}
	if m.engine.StartTracking(t.ID) {
		return m.showMinibuffer("Tracking: " + t.Title)
	}
	return nil
}

var priorityCycle = []model.Priority{
	model.PriorityNone,
	model.PriorityLow,
	model.PriorityMedium,
	model.PriorityHigh,
	model.PriorityUrgent,
}

func nextPriority(p model.Priority) model.Priority {
	for i, v := range priorityCycle {
		if v == p {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return model.PriorityLow
}

// treeEditable reports whether keyboard tree edits make sense for the current rows.
func (m *appModel) treeEditable() (bool, tea.Cmd) {
	if m.lens != lensAll {
		return false, m.showMinibuffer("Tree edits work in " + lensAll.String())
	}
	if !m.manualSort() {
		return false, m.showMinibuffer("Switch to manual sort (s) to rearrange tasks")
	}
	return true, nil
}

// liveSibling returns the nearest live sibling of t in direction dir (-1 or 1).
func (m appModel) liveSibling(t *model.Task, dir int) (*model.Task, bool) {
	container := m.db.Container(t.ParentID)
	i := indexOf(container, t.ID)
	if i < 0 {
		return nil, false
	}
	for j := i + dir; j >= 0 && j < len(container); j += dir {
		if s, ok := m.db.FindTask(container[j]); ok && !s.IsDeleted() {
			return s, true
		}
	}
	return nil, false
}

// reorder swaps t with its previous or next live sibling.
func (m *appModel) reorder(t *model.Task, dir int) tea.Cmd {
	if ok, cmd := m.treeEditable(); !ok {
		return cmd
	}
	s, ok := m.liveSibling(t, dir)
	if !ok {
		return nil
	}
	// MoveTask indexes the container after t is detached, so the sibling's current index lands t
	// in front of it when moving up and right after it when moving down.
	m.engine.MoveTask(t.ID, t.ParentID, indexOf(m.db.Container(t.ParentID), s.ID))
	return nil
}

// indent makes t the last child of its previous live sibling.
func (m *appModel) indent(t *model.Task) tea.Cmd {
	if ok, cmd := m.treeEditable(); !ok {
		return cmd
	}
	prev, ok := m.liveSibling(t, -1)
	if !ok {
		return m.showMinibuffer("Nothing to indent under")
	}
	if m.engine.MoveTask(t.ID, prev.ID, -1) {
		m.setCollapsed(prev.ID, false)
	}
	return nil
}

// outdent moves t right after its parent.
func (m *appModel) outdent(t *model.Task) tea.Cmd {
	if ok, cmd := m.treeEditable(); !ok {
		return cmd
	}
	p, ok := m.db.FindTask(t.ParentID)
	if !ok {
		return m.showMinibuffer("Already at the top level")
	}
	m.engine.MoveTask(t.ID, p.ParentID, indexOf(m.db.Container(p.ParentID), p.ID)+1)
	return nil
}

func (m appModel) viewOutline(width, height int) string {
	listW, detailW := width, 0
	if m.showDetail && width >= 80 {
		detailW = width * 2 / 5
		listW = width - detailW - 1
	}
	rows := normalizePane(m.renderOutlineRows(listW, height), listW, height)
	if detailW == 0 {
		return rows
	}
	sep := styleMuted().Render(strings.TrimSuffix(strings.Repeat("│\n", height), "\n"))
	detail := normalizePane(renderDetail(m.db, m.selectedTask(), m.engine.Now(), detailW, height), detailW, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, rows, sep, detail)
}

func (m appModel) renderOutlineRows(width, height int) string {
	tasks := m.tasks()
	if len(tasks) == 0 {
		return styleMuted().Render(m.emptyText())
	}

	var target dragplan.Placement
	hasTarget, draggedID := false, ""
	if m.dragging() {
		target, hasTarget = m.drag.Target()
		draggedID = m.drag.DraggedID()
	}
	markY := -1
	if hasTarget && target.Mode == dragplan.ModeReorder {
		markY = m.dropMarkerY(target)
	}

	marker := lipgloss.NewStyle().Foreground(colorDropLine).Bold(true).Render(glyphDropMarker())
	nestStyle := lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorDropLine).Bold(true)

	end := min(m.offset+height, len(tasks))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		t := tasks[i]
		gutter := "  "
		if bodyTop+i-m.offset == markY {
			gutter = marker + " "
		}
		depth := t.Depth
		if m.lens != lensAll {
			depth = 0
		}
		rowW := max(width-2, 1)
		switch {
		case hasTarget && target.Mode == dragplan.ModeNest && t.ID == target.HoverID:
			lines = append(lines, gutter+nestStyle.Render(fitWidth(m.rowText(t, depth), rowW)))
		case t.ID == draggedID:
			lines = append(lines, gutter+styleMuted().Render(fitWidth(m.rowText(t, depth), rowW)))
		case t.ID == m.selectedID:
			lines = append(lines, gutter+styleSelected().Render(fitWidth(m.rowText(t, depth), rowW)))
		default:
			lines = append(lines, gutter+fitWidth(m.styledRow(t, depth), rowW))
		}
	}
	return strings.Join(lines, "\n")
}

// dropMarkerY is the screen row that shows the reorder indicator: the row the task would land in
// front of, or the last row of the container when it would land at the end.
func (m appModel) dropMarkerY(pl dragplan.Placement) int {
	siblings := 0
	for _, id := range m.db.Container(pl.ParentID) {
		if id != pl.TaskID {
			siblings++
		}
	}
	if pl.Index < 0 || pl.Index >= siblings {
		return pl.LineY - 1
	}
	return pl.LineY
}

func (m appModel) emptyText() string {
	switch m.lens {
	case lensToday:
		return "Nothing due today."
	case lensOverdue:
		return "Nothing overdue."
	case lensInbox:
		return "Inbox is empty."
	case lensTrash:
		return "Trash is empty."
	}
	return "No tasks yet. Press a to add one."
}

func (m appModel) rowPrefix(t *model.Task, depth int) string {
	twisty := " "
	if m.lens == lensAll && len(m.db.ChildTasks(t.ID)) > 0 {
		if m.db.UI.Collapsed[t.ID] {
			twisty = glyphTwistyCollapsed()
		} else {
			twisty = glyphTwistyExpanded()
		}
	}
	return strings.Repeat("  ", depth) + twisty + " " + glyphCheckbox(statusutil.IsDone(t.StatusID)) + " "
}

func (m appModel) rowText(t *model.Task, depth int) string {
	parts := []string{m.rowPrefix(t, depth) + t.Title}
	parts = append(parts, m.rowTags(t)...)
	return strings.Join(parts, "  ")
}

func (m appModel) styledRow(t *model.Task, depth int) string {
	title := t.Title
	if statusutil.IsDone(t.StatusID) || m.lens == lensTrash {
		title = styleMuted().Strikethrough(statusutil.IsDone(t.StatusID)).Render(title)
	}
	parts := []string{m.rowPrefix(t, depth) + title}
	for _, tag := range m.rowTags(t) {
		style := styleMuted()
		switch {
		case strings.HasPrefix(tag, "!"):
			style = lipgloss.NewStyle().Foreground(priorityColor(t.Priority))
		case strings.HasPrefix(tag, glyphTracking()):
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		case strings.HasPrefix(tag, "["):
			style = lipgloss.NewStyle().Foreground(statusColor(m.statusOf(t).Color))
		}
		parts = append(parts, style.Render(tag))
	}
	return strings.Join(parts, "  ")
}

func (m appModel) statusOf(t *model.Task) model.Status {
	for _, s := range m.db.StatusesFor(t) {
		if s.ID == t.StatusID {
			return s
		}
	}
	return model.Status{ID: t.StatusID, Name: t.StatusID}
}

func (m appModel) rowTags(t *model.Task) []string {
	var tags []string
	if t.StatusID != statusutil.StatusTodo && !statusutil.IsDone(t.StatusID) {
		tags = append(tags, "["+m.statusOf(t).Name+"]")
	}
	if t.Priority != "" && t.Priority != model.PriorityNone {
		tags = append(tags, "!"+string(t.Priority))
	}
	if t.DueDate != "" {
		tags = append(tags, "due "+t.DueDate)
	}
	if t.Recurrence != nil {
		tags = append(tags, "every "+recurrenceLabel(*t.Recurrence))
	}
	if t.IsTracking() {
		tags = append(tags, glyphTracking()+" "+mutate.FormatDuration(mutate.TrackedSeconds(t, m.engine.Now())))
	} else if t.TrackedSeconds != nil && *t.TrackedSeconds > 0 {
		tags = append(tags, mutate.FormatDuration(*t.TrackedSeconds))
	}
	for _, id := range t.AssigneeIDs {
		tags = append(tags, "@"+id)
	}
	return tags
}

func recurrenceLabel(r model.RecurrenceRule) string {
	unit := map[model.Frequency]string{
		model.FrequencyDaily:   "day",
		model.FrequencyWeekly:  "week",
		model.FrequencyMonthly: "month",
	}[r.Frequency]
	if r.Interval > 1 {
		return fmt.Sprintf("%d %ss", r.Interval, unit)
	}
	return unit
}
