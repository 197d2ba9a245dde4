package dragplan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexdo/internal/mutate"
	"nexdo/internal/store"
)

func newEngine() *mutate.Engine {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	return mutate.NewEngine(store.NewDB(), mutate.WithClock(func() time.Time { return now }))
}

func rowsOf(e *mutate.Engine) []Row {
	return Layout(e.DB().VisibleTree(nil), 0, 1)
}

func snapshot(t *testing.T, db *store.DB) string {
	t.Helper()
	b, err := json.Marshal(db)
	require.NoError(t, err)
	return string(b)
}

func TestPlan_DropJustAfterSelfIsNoOp(t *testing.T) {
	e := newEngine()
	e.AddTask("a", mutate.AddOptions{})
	b := e.AddTask("b", mutate.AddOptions{})
	e.AddTask("c", mutate.AddOptions{})
	rows := rowsOf(e)

	for _, y := range []int{1, 2} {
		pl, ok := Plan(e.DB(), rows, Start{TaskID: b, Y: 1}, Pointer{Y: y}, Config{})
		require.True(t, ok)
		assert.Equal(t, ModeReorder, pl.Mode)
		assert.Equal(t, 1, pl.Index, "pointer at y=%d", y)
		assert.False(t, Commit(e, pl), "dropping next to itself must not move")
	}
}

func TestPlan_ReorderToEnd(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	b := e.AddTask("b", mutate.AddOptions{})
	c := e.AddTask("c", mutate.AddOptions{})

	pl, ok := Plan(e.DB(), rowsOf(e), Start{TaskID: a, Y: 0}, Pointer{Y: 3}, Config{})
	require.True(t, ok)
	assert.Equal(t, "", pl.ParentID)
	assert.Equal(t, 2, pl.Index)
	assert.Equal(t, 3, pl.LineY)

	require.True(t, Commit(e, pl))
	assert.Equal(t, []string{b, c, a}, e.DB().RootTaskIDs)
}

func TestPlan_TwoSiblingSwapUsesDirection(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	b := e.AddTask("b", mutate.AddOptions{})
	rows := rowsOf(e)

	pl, ok := Plan(e.DB(), rows, Start{TaskID: a, Y: 0}, Pointer{Y: 0}, Config{})
	require.True(t, ok)
	assert.Equal(t, 0, pl.Index, "no travel keeps the order")

	pl, ok = Plan(e.DB(), rows, Start{TaskID: a, Y: 0}, Pointer{Y: 1}, Config{})
	require.True(t, ok)
	assert.Equal(t, 1, pl.Index, "moving down past the bias swaps")
	assert.Equal(t, 2, pl.LineY)

	pl, ok = Plan(e.DB(), rows, Start{TaskID: b, Y: 1}, Pointer{Y: 0}, Config{})
	require.True(t, ok)
	assert.Equal(t, 0, pl.Index, "moving up past the bias swaps")

	require.True(t, Commit(e, pl))
	assert.Equal(t, []string{b, a}, e.DB().RootTaskIDs)
}

func TestPlan_SwapBiasIsAdjustable(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	e.AddTask("b", mutate.AddOptions{})
	rows := Layout(e.DB().VisibleTree(nil), 0, 2)

	pl, ok := Plan(e.DB(), rows, Start{TaskID: a, Y: 1}, Pointer{Y: 2}, Config{})
	require.True(t, ok)
	assert.Equal(t, 1, pl.Index, "half a row of travel swaps at the default bias")

	pl, ok = Plan(e.DB(), rows, Start{TaskID: a, Y: 1}, Pointer{Y: 2}, Config{SwapBias: 1})
	require.True(t, ok)
	assert.Equal(t, 0, pl.Index, "a full row is required at bias 1")
}

func TestPlan_RootTaskOverNestedRowReordersAtRoot(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	e.AddTask("a1", mutate.AddOptions{ParentID: a})
	a2 := e.AddTask("a2", mutate.AddOptions{ParentID: a})
	b := e.AddTask("b", mutate.AddOptions{})
	c := e.AddTask("c", mutate.AddOptions{})
	rows := rowsOf(e) // a0 a1 a2 b c

	pl, ok := Plan(e.DB(), rows, Start{TaskID: c, Y: 4}, Pointer{Y: 2}, Config{})
	require.True(t, ok)
	assert.Equal(t, ModeReorder, pl.Mode)
	assert.Equal(t, "", pl.ParentID)
	assert.Equal(t, 1, pl.Index)
	assert.Equal(t, 3, pl.LineY)
	assert.Equal(t, a2, pl.HoverID)

	require.True(t, Commit(e, pl))
	assert.Equal(t, []string{a, c, b}, e.DB().RootTaskIDs)

	pl, ok = Plan(e.DB(), rowsOf(e), Start{TaskID: b, Y: 4}, Pointer{Y: 2, Shift: true}, Config{})
	require.True(t, ok)
	assert.Equal(t, ModeNest, pl.Mode)
	assert.Equal(t, a2, pl.ParentID)
	assert.Equal(t, -1, pl.Index)
}

func TestPlan_ReorderIntoAnotherContainer(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	a1 := e.AddTask("a1", mutate.AddOptions{ParentID: a})
	a2 := e.AddTask("a2", mutate.AddOptions{ParentID: a})
	b := e.AddTask("b", mutate.AddOptions{})
	b1 := e.AddTask("b1", mutate.AddOptions{ParentID: b})

	pl, ok := Plan(e.DB(), rowsOf(e), Start{TaskID: b1, Y: 4}, Pointer{Y: 2}, Config{})
	require.True(t, ok)
	assert.Equal(t, a, pl.ParentID)
	assert.Equal(t, 1, pl.Index)

	require.True(t, Commit(e, pl))
	got, _ := e.DB().FindTask(a)
	assert.Equal(t, []string{a1, b1, a2}, got.ChildIDs)
	moved, _ := e.DB().FindTask(b1)
	assert.Equal(t, 1, moved.Depth)
	assert.False(t, store.CheckInvariants(e.DB()).HasErrors())
}

func TestPlan_NestRejectsSelfAndDescendants(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})
	a1 := e.AddTask("a1", mutate.AddOptions{ParentID: a})
	e.AddTask("a11", mutate.AddOptions{ParentID: a1})
	rows := rowsOf(e)

	for y := 0; y < 3; y++ {
		_, ok := Plan(e.DB(), rows, Start{TaskID: a, Y: 0}, Pointer{Y: y, Shift: true}, Config{})
		assert.False(t, ok, "nest over row %d must be rejected", y)
	}
}

func TestPlan_NoTarget(t *testing.T) {
	e := newEngine()
	a := e.AddTask("a", mutate.AddOptions{})

	_, ok := Plan(e.DB(), nil, Start{TaskID: a}, Pointer{}, Config{})
	assert.False(t, ok)

	_, ok = Plan(e.DB(), rowsOf(e), Start{TaskID: "missing"}, Pointer{}, Config{})
	assert.False(t, ok)

	e.DeleteTask(a)
	_, ok = Plan(e.DB(), []Row{{TaskID: a, Height: 1}}, Start{TaskID: a}, Pointer{}, Config{})
	assert.False(t, ok)
}
