package tui

import (
	"fmt"
	"strings"

	"nexdo/internal/dragplan"
	"nexdo/internal/model"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Board geometry, relative to bodyTop: a header line, then cards of cardHeight lines, each with a
// gap line above it that doubles as the drop indicator.
const (
	cardHeight = 2
	cardStride = cardHeight + 1
	firstCardY = bodyTop + 2
)

type boardColumn struct {
	status model.Status
	tasks  []*model.Task
	x      int
	width  int
}

// boardColumns groups the live root tasks that pass the saved filters by status. Tasks in a
// status outside the default set have no column.
func (m appModel) boardColumns() []boardColumn {
	statuses := statusutil.DefaultStatuses()
	byStatus := map[string][]*model.Task{}
	for _, t := range store.ApplyQuery(m.db.RootTasks(), store.QueryFromUI(m.db.UI)) {
		byStatus[t.StatusID] = append(byStatus[t.StatusID], t)
	}
	colW := max(m.width/len(statuses), 1)
	cols := make([]boardColumn, 0, len(statuses))
	for i, s := range statuses {
		w := colW
		if i == len(statuses)-1 {
			w = max(m.width-i*colW, 1)
		}
		cols = append(cols, boardColumn{status: s, tasks: byStatus[s.ID], x: i * colW, width: w})
	}
	return cols
}

// columnGeometry is the drag geometry of the cards that fit on screen.
func (m appModel) columnGeometry(c boardColumn) dragplan.Column {
	col := dragplan.Column{StatusID: c.status.ID, Top: firstCardY}
	limit := bodyTop + m.bodyHeight()
	for i, t := range c.tasks {
		y := firstCardY + i*cardStride
		if y+cardHeight > limit {
			break
		}
		col.Cards = append(col.Cards, dragplan.Card{TaskID: t.ID, Y: y, Height: cardHeight})
	}
	return col
}

func (m appModel) columnAt(x int) (int, bool) {
	cols := m.boardColumns()
	for i, c := range cols {
		if x >= c.x && x < c.x+c.width {
			return i, true
		}
	}
	if len(cols) > 0 && x >= cols[len(cols)-1].x {
		return len(cols) - 1, true
	}
	return 0, false
}

// cardAt returns the task whose card covers screen position (x, y).
func (m appModel) cardAt(x, y int) (string, int, bool) {
	ci, ok := m.columnAt(x)
	if !ok {
		return "", 0, false
	}
	for _, c := range m.columnGeometry(m.boardColumns()[ci]).Cards {
		if y >= c.Y && y < c.Y+c.Height {
			return c.TaskID, ci, true
		}
	}
	return "", ci, false
}

func (m *appModel) syncBoardSelection() {
	cols := m.boardColumns()
	for i, c := range cols {
		for _, t := range c.tasks {
			if t.ID == m.selectedID {
				m.boardCol = i
				return
			}
		}
	}
	m.boardCol = clamp(m.boardCol, 0, len(cols)-1)
	m.selectedID = ""
	if tasks := cols[m.boardCol].tasks; len(tasks) > 0 {
		m.selectedID = tasks[0].ID
	}
}

func (m appModel) boardPosition() (boardColumn, int) {
	c := m.boardColumns()[m.boardCol]
	for i, t := range c.tasks {
		if t.ID == m.selectedID {
			return c, i
		}
	}
	return c, -1
}

func (m appModel) updateBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.boardColumns()
	col, row := m.boardPosition()
	t := m.selectedTask()
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Up):
		if row > 0 {
			m.selectedID = col.tasks[row-1].ID
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if row >= 0 && row+1 < len(col.tasks) {
			m.selectedID = col.tasks[row+1].ID
		}
		return m, nil
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		dir := 1
		if key.Matches(msg, m.keys.Left) {
			dir = -1
		}
		next := clamp(m.boardCol+dir, 0, len(cols)-1)
		m.boardCol = next
		m.selectedID = ""
		if tasks := cols[next].tasks; len(tasks) > 0 {
			m.selectedID = tasks[clamp(row, 0, len(tasks)-1)].ID
		}
		return m, nil
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
	case key.Matches(msg, m.keys.MoveLeft), key.Matches(msg, m.keys.MoveRight):
		dir := 1
		if key.Matches(msg, m.keys.MoveLeft) {
			dir = -1
		}
		next := m.boardCol + dir
		if next < 0 || next >= len(cols) {
			return m, nil
		}
		if m.engine.SetStatus(t.ID, cols[next].status.ID) {
			cmd = m.showMinibuffer(fmt.Sprintf("%s → %s", t.Title, cols[next].status.Name))
		}
	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		if !m.manualSort() {
			return m, m.showMinibuffer("Switch to manual sort (s) to rearrange cards")
		}
		other := row - 1
		if key.Matches(msg, m.keys.MoveDown) {
			other = row + 1
		}
		if row < 0 || other < 0 || other >= len(col.tasks) {
			return m, nil
		}
		m.engine.MoveTask(t.ID, "", indexOf(m.db.Container(""), col.tasks[other].ID))
	case key.Matches(msg, m.keys.Edit):
		return m, m.openInput(inputRename, t.ID, t.Title)
	case key.Matches(msg, m.keys.Comment):
		return m, m.openInput(inputComment, t.ID, "")
	case key.Matches(msg, m.keys.Toggle):
		m.engine.ToggleComplete(t.ID)
	case key.Matches(msg, m.keys.Track):
		cmd = m.toggleTracking(t)
	case key.Matches(msg, m.keys.Delete):
		id, title := t.ID, t.Title
		m.openConfirm("Delete task", fmt.Sprintf("Move %q and its subtasks to the trash?", title), "Delete",
			func() string {
				if m.engine.DeleteTask(id) {
					return "Deleted: " + title
				}
				return ""
			})
	}
	m.syncSelection()
	return m, cmd
}

func (m appModel) viewBoard(width, height int) string {
	cols := m.boardColumns()
	panes := make([]string, 0, len(cols))
	for i, c := range cols {
		panes = append(panes, normalizePane(m.renderColumn(i, c, height), c.width, height))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

func (m appModel) renderColumn(ci int, c boardColumn, height int) string {
	w := max(c.width-1, 1)
	lines := make([]string, height)

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(statusColor(c.status.Color))
	if ci == m.boardCol {
		headerStyle = headerStyle.Underline(true)
	}
	lines[0] = fitWidth(headerStyle.Render(fmt.Sprintf("%s (%d)", c.status.Name, len(c.tasks))), w)

	var target dragplan.ColumnPlacement
	hasTarget, draggedID := false, ""
	if m.dragging() {
		target, hasTarget = m.drag.ColumnTarget()
		draggedID = m.drag.DraggedID()
	}

	geo := m.columnGeometry(c)
	for i, card := range geo.Cards {
		t := c.tasks[i]
		title := glyphCheckbox(statusutil.IsDone(t.StatusID)) + " " + t.Title
		meta := strings.Join(m.cardTags(t), "  ")
		style := lipgloss.NewStyle()
		metaStyle := styleMuted()
		switch {
		case t.ID == draggedID:
			style, metaStyle = styleMuted(), styleMuted()
		case t.ID == m.selectedID:
			style, metaStyle = styleSelected(), styleSelected()
		}
		if at := card.Y - bodyTop; at+1 < height {
			lines[at] = style.Render(fitWidth(title, w))
			lines[at+1] = metaStyle.Render(fitWidth(meta, w))
		}
	}
	if hidden := len(c.tasks) - len(geo.Cards); hidden > 0 {
		lines[height-1] = styleMuted().Render(fitWidth(fmt.Sprintf("+%d more", hidden), w))
	}

	if hasTarget && target.StatusID == c.status.ID {
		if at := target.LineY - 1 - bodyTop; at > 0 && at < height {
			lines[at] = lipgloss.NewStyle().Foreground(colorDropLine).Bold(true).Render(strings.Repeat(glyphHRule(), w))
		}
	}
	return strings.Join(lines, "\n")
}

func (m appModel) cardTags(t *model.Task) []string {
	var tags []string
	for _, tag := range m.rowTags(t) {
		if strings.HasPrefix(tag, "[") {
			continue
		}
		tags = append(tags, tag)
	}
	if n := len(m.db.ChildTasks(t.ID)); n > 0 {
		tags = append(tags, fmt.Sprintf("%d subtasks", n))
	}
	return tags
}
