package tui

import (
	"fmt"

	"nexdo/internal/dragplan"

	tea "github.com/charmbracelet/bubbletea"
)

// Mouse drag: a left press arms a drag on the task under the pointer, the first motion with the
// button held starts a dragplan.Session, every further motion re-plans the target and the release
// commits it. Esc cancels without touching the tree. Holding Shift nests instead of reordering.

func (m appModel) dragging() bool { return m.drag != nil && m.drag.Active() }

func (m *appModel) cancelDrag() {
	if m.drag != nil {
		m.drag.Cancel()
	}
	m.drag = nil
	m.press = nil
}

func (m appModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil || m.inputKind != inputNone || m.showHelp {
		return m, nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if !m.dragging() && !m.boardActive() {
			m.moveCursor(-1)
		}
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown:
		if !m.dragging() && !m.boardActive() {
			m.moveCursor(1)
		}
		return m, nil
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		return m.mousePress(msg)
	case msg.Action == tea.MouseActionMotion:
		return m.mouseMotion(msg)
	case msg.Action == tea.MouseActionRelease:
		return m.mouseRelease(msg)
	}
	return m, nil
}

func (m appModel) mousePress(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.cancelDrag()
	id, ok := m.taskAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedID = id
	m.syncSelection()
	if m.lens == lensAll {
		m.press = &pressState{taskID: id, y: msg.Y}
	}
	return m, nil
}

func (m appModel) mouseMotion(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if !m.dragging() {
		if m.press == nil {
			return m, nil
		}
		press := m.press
		m.press = nil
		if !m.boardActive() && !m.manualSort() {
			return m, m.showMinibuffer("Switch to manual sort (s) to drag tasks")
		}
		s := dragplan.NewSession(m.db, dragplan.Config{
			SwapBias:   m.opts.Config.SwapBias(),
			ManualSort: m.manualSort(),
		})
		if !s.Start(press.taskID, press.y) {
			return m, nil
		}
		m.drag = s
	}
	m.dragOver(msg)
	return m, nil
}

func (m appModel) mouseRelease(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.press = nil
	if !m.dragging() {
		return m, nil
	}
	m.dragOver(msg)
	m.selectedID = m.drag.DraggedID()
	changed := m.drag.Drop(m.engine)
	m.drag = nil
	m.syncSelection()
	if changed {
		return m, m.showMinibuffer("Moved")
	}
	return m, nil
}

// dragOver re-plans the drop target for the pointer position.
func (m *appModel) dragOver(msg tea.MouseMsg) {
	p := dragplan.Pointer{Y: msg.Y, Shift: msg.Shift}
	if m.boardActive() {
		ci, ok := m.columnAt(msg.X)
		if !ok {
			m.drag.Leave()
			return
		}
		m.drag.OverColumn(m.columnGeometry(m.boardColumns()[ci]), p)
		return
	}
	if msg.Y < bodyTop || msg.X >= m.listWidth() {
		m.drag.Leave()
		return
	}
	m.drag.Over(m.outlineRows(), p)
}

func (m appModel) listWidth() int {
	if m.showDetail && m.width >= 80 {
		return m.width - m.width*2/5 - 1
	}
	return m.width
}

// taskAt returns the task rendered at screen position (x, y).
func (m appModel) taskAt(x, y int) (string, bool) {
	if m.boardActive() {
		id, _, ok := m.cardAt(x, y)
		return id, ok
	}
	if x >= m.listWidth() || y < bodyTop {
		return "", false
	}
	tasks := m.tasks()
	i := m.offset + y - bodyTop
	if y >= bodyTop+m.bodyHeight() || i >= len(tasks) {
		return "", false
	}
	return tasks[i].ID, true
}

func (m appModel) dragStatus() string {
	title := ""
	if t, ok := m.db.FindTask(m.drag.DraggedID()); ok {
		title = t.Title
	}
	if pl, ok := m.drag.Target(); ok {
		if pl.Mode == dragplan.ModeNest {
			return fmt.Sprintf("Drop to nest %q under %q  esc: cancel", title, m.titleOf(pl.ParentID))
		}
		where := "the top level"
		if pl.ParentID != "" {
			where = fmt.Sprintf("%q", m.titleOf(pl.ParentID))
		}
		return fmt.Sprintf("Drop to move %q to position %d in %s  shift: nest  esc: cancel", title, pl.Index+1, where)
	}
	if pl, ok := m.drag.ColumnTarget(); ok {
		name := pl.StatusID
		for _, c := range m.boardColumns() {
			if c.status.ID == pl.StatusID {
				name = c.status.Name
			}
		}
		return fmt.Sprintf("Drop to move %q to %s  esc: cancel", title, name)
	}
	return fmt.Sprintf("Dragging %q  esc: cancel", title)
}

func (m appModel) titleOf(id string) string {
	if t, ok := m.db.FindTask(id); ok {
		return t.Title
	}
	return id
}
