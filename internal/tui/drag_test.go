package tui

import (
	"reflect"
	"strings"
	"testing"

	"nexdo/internal/mutate"

	tea "github.com/charmbracelet/bubbletea"
)

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(x, y int, shift bool) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Shift: shift, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int, shift bool) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Shift: shift, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone}
}

func TestMouseDragReordersToEnd(t *testing.T) {
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	e, m, ids := newTestApp(t, "a", "b", "c")
	a, b, c := ids[0], ids[1], ids[2]

	// Rows start at bodyTop: a=2, b=3, c=4.
	m = send(t, m, press(5, 2), motion(5, 5, false))
	if !m.dragging() {
		t.Fatalf("expected drag to start on motion")
	}
	view := m.View()
	if !strings.Contains(view, `Drop to move "a" to position 3 in the top level`) {
		t.Fatalf("expected drop hint in the status line, got:\n%s", view)
	}
	if !reflect.DeepEqual(e.DB().RootTaskIDs, []string{a, b, c}) {
		t.Fatalf("hovering must not mutate the tree")
	}

	m = send(t, m, release(5, 5, false))
	if m.dragging() {
		t.Fatalf("expected drag to end on release")
	}
	if got := e.DB().RootTaskIDs; !reflect.DeepEqual(got, []string{b, c, a}) {
		t.Fatalf("expected a moved to the end, got %v", got)
	}
	if m.selectedID != a {
		t.Fatalf("expected the dropped task to stay selected")
	}
}

func TestMouseDragShiftNests(t *testing.T) {
	e, m, ids := newTestApp(t, "a", "b")
	a, b := ids[0], ids[1]

	m = send(t, m, press(5, 3), motion(5, 2, true))
	if !strings.Contains(m.View(), `Drop to nest "b" under "a"`) {
		t.Fatalf("expected nest hint")
	}
	send(t, m, release(5, 2, true))

	got := mustTask(t, e, b)
	if got.ParentID != a || got.Depth != 1 {
		t.Fatalf("expected b nested under a, got parent=%q depth=%d", got.ParentID, got.Depth)
	}
}

func TestMouseDragNestOntoDescendantIsRejected(t *testing.T) {
	e, m, ids := newTestApp(t, "a")
	a := ids[0]
	kid := e.AddTask("kid", mutate.AddOptions{ParentID: a})
	m.syncSelection()

	m = send(t, m, press(5, 2), motion(5, 3, true))
	if _, ok := m.drag.Target(); ok {
		t.Fatalf("expected no target when nesting onto a descendant")
	}
	send(t, m, release(5, 3, true))
	if mustTask(t, e, kid).ParentID != a || mustTask(t, e, a).ParentID != "" {
		t.Fatalf("expected the tree unchanged")
	}
}

func TestEscCancelsDrag(t *testing.T) {
	e, m, ids := newTestApp(t, "a", "b", "c")

	m = send(t, m, press(5, 2), motion(5, 5, false))
	if _, ok := m.drag.Target(); !ok {
		t.Fatalf("expected a drop target before cancelling")
	}
	m = send(t, m, keyEsc)
	if m.dragging() {
		t.Fatalf("expected esc to cancel the drag")
	}
	m = send(t, m, release(5, 5, false))
	if got := e.DB().RootTaskIDs; !reflect.DeepEqual(got, ids) {
		t.Fatalf("expected order unchanged after cancel, got %v", got)
	}
	if m.minibufferText != "Drag cancelled" {
		t.Fatalf("expected cancel message, got %q", m.minibufferText)
	}
}

func TestClickWithoutMotionOnlySelects(t *testing.T) {
	e, m, ids := newTestApp(t, "a", "b")
	m = send(t, m, press(5, 3), release(5, 3, false))
	if m.selectedID != ids[1] {
		t.Fatalf("expected click to select b")
	}
	if got := e.DB().RootTaskIDs; !reflect.DeepEqual(got, ids) {
		t.Fatalf("expected no move on click, got %v", got)
	}
}

func TestDragNeedsManualSort(t *testing.T) {
	e, m, ids := newTestApp(t, "a", "b")
	m = send(t, m, runes("s"))
	m = send(t, m, press(5, 2), motion(5, 4, false), release(5, 4, false))
	if m.dragging() {
		t.Fatalf("expected no drag outside manual sort")
	}
	if got := e.DB().RootTaskIDs; !reflect.DeepEqual(got, ids) {
		t.Fatalf("expected order unchanged, got %v", got)
	}
}

func TestBoardDragMovesCardToColumn(t *testing.T) {
	e, m, ids := newTestApp(t, "a", "b")
	a, b := ids[0], ids[1]
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30}, runes("v"))

	// Five columns of width 20; the first Todo card starts at firstCardY.
	m = send(t, m, press(2, firstCardY), motion(25, firstCardY, false))
	if pl, ok := m.drag.ColumnTarget(); !ok || pl.StatusID != "in-progress" {
		t.Fatalf("expected an in-progress column target, got %+v ok=%v", pl, ok)
	}
	m = send(t, m, release(25, firstCardY, false))

	if got := mustTask(t, e, a).StatusID; got != "in-progress" {
		t.Fatalf("expected in-progress, got %q", got)
	}
	if got := e.DB().RootTaskIDs; !reflect.DeepEqual(got, []string{b, a}) {
		t.Fatalf("expected a after b in manual order, got %v", got)
	}
	if m.selectedID != a || m.boardCol != 1 {
		t.Fatalf("expected selection to follow the card, got %q col=%d", m.selectedID, m.boardCol)
	}
}

func TestBoardDragWithShiftDoesNothing(t *testing.T) {
	e, m, ids := newTestApp(t, "a")
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30}, runes("v"))
	m = send(t, m, press(2, firstCardY), motion(25, firstCardY, true), release(25, firstCardY, true))
	if got := mustTask(t, e, ids[0]).StatusID; got != "todo" {
		t.Fatalf("expected status unchanged, got %q", got)
	}
}
