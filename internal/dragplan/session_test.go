package dragplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexdo/internal/mutate"
)

func TestSession_CancelLeavesTreeUnchanged(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	e.AddTask("b", mutate.AddOptions{})
	e.AddTask("c", mutate.AddOptions{})
	before := snapshot(t, e.DB())

	s := NewSession(e.DB(), Config{})
	require.True(t, s.Start(a, 0))
	assert.Equal(t, a, s.DraggedID())
	for y := 0; y <= 3; y++ {
		_, ok := s.Over(rowsOf(e), Pointer{Y: y})
		require.True(t, ok)
	}
	s.Cancel()

	assert.False(t, s.Active())
	assert.False(t, s.Drop(e))
	assert.Equal(t, before, snapshot(t, e.DB()))
}

func TestSession_DropAfterLeaveDoesNothing(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	e.AddTask("b", mutate.AddOptions{})
	e.AddTask("c", mutate.AddOptions{})
	before := snapshot(t, e.DB())

	s := NewSession(e.DB(), Config{})
	require.True(t, s.Start(a, 0))
	_, ok := s.Over(rowsOf(e), Pointer{Y: 3})
	require.True(t, ok)
	s.Leave()
	_, ok = s.Target()
	assert.False(t, ok)

	assert.False(t, s.Drop(e))
	assert.False(t, s.Active())
	assert.Equal(t, before, snapshot(t, e.DB()))
}

func TestSession_DropCommitsLastTarget(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	b := e.AddTask("b", mutate.AddOptions{})
	c := e.AddTask("c", mutate.AddOptions{})

	s := NewSession(e.DB(), Config{})
	require.True(t, s.Start(a, 0))
	s.Over(rowsOf(e), Pointer{Y: 1})
	s.Over(rowsOf(e), Pointer{Y: 2, Shift: true})
	pl, ok := s.Target()
	require.True(t, ok)
	assert.Equal(t, ModeNest, pl.Mode)
	assert.Equal(t, c, pl.ParentID)

	require.True(t, s.Drop(e))
	assert.Equal(t, []string{b, c}, e.DB().RootTaskIDs)
	got, _ := e.DB().FindTask(c)
	assert.Equal(t, []string{a}, got.ChildIDs)
}

func TestSession_InvalidOverClearsTarget(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	a1 := e.AddTask("a1", mutate.AddOptions{ParentID: a})
	e.AddTask("b", mutate.AddOptions{})

	s := NewSession(e.DB(), Config{})
	require.True(t, s.Start(a, 0))
	_, ok := s.Over(rowsOf(e), Pointer{Y: 2})
	require.True(t, ok)
	_, ok = s.Over(rowsOf(e), Pointer{Y: 1, Shift: true})
	require.False(t, ok, "nesting under %s is a cycle", a1)

	assert.False(t, s.Drop(e))
}

func TestSession_ColumnDrop(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})

	s := NewSession(e.DB(), Config{ManualSort: true})
	assert.False(t, s.Start("missing", 0))
	require.True(t, s.Start(a, 0))
	_, ok := s.OverColumn(Column{StatusID: "in-progress"}, Pointer{Y: 0})
	require.True(t, ok)
	_, ok = s.ColumnTarget()
	require.True(t, ok)

	require.True(t, s.Drop(e))
	got, _ := e.DB().FindTask(a)
	assert.Equal(t, "in-progress", got.StatusID)
}
