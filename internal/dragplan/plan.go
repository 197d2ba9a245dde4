// Package dragplan decides where a dragged task lands.
//
// Every function here is pure over a tree snapshot and row geometry: nothing in this package
// mutates the tree except Commit/CommitColumn, which hand the placement to an Applier.
package dragplan

import (
	"math"

	"nexdo/internal/model"
)

// DefaultSwapBias is the fraction of the other row's height the pointer must travel, from where
// the drag started, before a two-sibling drag swaps the pair.
const DefaultSwapBias = 0.5

// Tree is the read-only view of the task tree the planner needs. *store.DB implements it.
type Tree interface {
	FindTask(id string) (*model.Task, bool)
	Container(parentID string) []string
	IsAncestor(ancestorID, id string) bool
}

// Row is one rendered task row in an outline. Y is its top edge; Height is at least 1.
type Row struct {
	TaskID   string
	ParentID string
	Depth    int
	Y        int
	Height   int
}

func (r Row) bottom() int { return r.Y + max(r.Height, 1) }

// Layout stacks tasks (in display order) into rows of the given height starting at top.
func Layout(tasks []*model.Task, top, height int) []Row {
	height = max(height, 1)
	rows := make([]Row, 0, len(tasks))
	y := top
	for _, t := range tasks {
		rows = append(rows, Row{TaskID: t.ID, ParentID: t.ParentID, Depth: t.Depth, Y: y, Height: height})
		y += height
	}
	return rows
}

type Mode int

const (
	ModeReorder Mode = iota
	ModeNest
)

func (m Mode) String() string {
	if m == ModeNest {
		return "nest"
	}
	return "reorder"
}

// Start is the drag-start context.
type Start struct {
	TaskID string
	Y      int
}

// Pointer is the live pointer state. Shift selects nest mode.
type Pointer struct {
	Y     int
	Shift bool
}

type Config struct {
	SwapBias   float64
	ManualSort bool
}

func (c Config) swapBias() float64 {
	if c.SwapBias <= 0 || c.SwapBias > 1 {
		return DefaultSwapBias
	}
	return c.SwapBias
}

// Placement is a proposed drop: move TaskID under ParentID ("" for root) at Index.
// Index is in MoveTask terms (after the task is detached); -1 appends.
// LineY is where the drop indicator goes in reorder mode.
type Placement struct {
	Mode     Mode
	TaskID   string
	ParentID string
	Index    int
	LineY    int
	HoverID  string
}

// Plan proposes where start.TaskID would land if dropped at p over rows.
// The second result is false when there is no valid target.
func Plan(tree Tree, rows []Row, start Start, p Pointer, cfg Config) (Placement, bool) {
	dragged, ok := tree.FindTask(start.TaskID)
	if !ok || dragged.IsDeleted() {
		return Placement{}, false
	}
	hi := hoveredRow(rows, p.Y)
	if hi < 0 {
		return Placement{}, false
	}
	hovered := rows[hi]

	if p.Shift {
		return planNest(tree, dragged, hovered)
	}
	return planReorder(tree, rows, hi, dragged, start, p, cfg)
}

func planNest(tree Tree, dragged *model.Task, hovered Row) (Placement, bool) {
	if tree.IsAncestor(dragged.ID, hovered.TaskID) {
		return Placement{}, false
	}
	if _, ok := tree.FindTask(hovered.TaskID); !ok {
		return Placement{}, false
	}
	return Placement{
		Mode:     ModeNest,
		TaskID:   dragged.ID,
		ParentID: hovered.TaskID,
		Index:    -1,
		HoverID:  hovered.TaskID,
	}, true
}

// planReorder targets a boundary in the container of the anchor row: the hovered row's ancestor
// at the dragged task's depth, or the hovered row itself when it is shallower. A root task over a
// nested row therefore reorders at root level next to that row's top-level ancestor.
func planReorder(tree Tree, rows []Row, hi int, dragged *model.Task, start Start, p Pointer, cfg Config) (Placement, bool) {
	ai := anchorRow(rows, hi, dragged.Depth)
	anchor := rows[ai]
	parentID := anchor.ParentID
	if parentID != "" && tree.IsAncestor(dragged.ID, parentID) {
		return Placement{}, false
	}

	sibs, bottom := siblingRows(rows, ai)
	boundaries := make([]int, 0, len(sibs)+1)
	for _, i := range sibs {
		boundaries = append(boundaries, rows[i].Y)
	}
	boundaries = append(boundaries, bottom)

	k, ok := swapBoundary(rows, sibs, dragged.ID, start, p, cfg)
	if !ok {
		k = nearest(boundaries, p.Y)
	}

	container := tree.Container(parentID)
	var index int
	if k < len(sibs) {
		index = indexOf(container, rows[sibs[k]].TaskID)
	} else {
		index = indexOf(container, rows[sibs[len(sibs)-1]].TaskID)
		if index >= 0 {
			index++
		}
	}
	if index < 0 {
		return Placement{}, false
	}
	if cur := indexOf(container, dragged.ID); cur >= 0 && cur < index {
		index--
	}

	return Placement{
		Mode:     ModeReorder,
		TaskID:   dragged.ID,
		ParentID: parentID,
		Index:    index,
		LineY:    boundaries[k],
		HoverID:  rows[hi].TaskID,
	}, true
}

// swapBoundary handles the two-row container that holds the dragged task. Both boundaries of the
// dragged row sit next to the other row, so nearest-boundary flickers; the net vertical travel
// since the drag started decides instead.
func swapBoundary(rows []Row, sibs []int, draggedID string, start Start, p Pointer, cfg Config) (int, bool) {
	if len(sibs) != 2 {
		return 0, false
	}
	self := -1
	for k, i := range sibs {
		if rows[i].TaskID == draggedID {
			self = k
		}
	}
	if self < 0 {
		return 0, false
	}
	other := rows[sibs[1-self]]
	threshold := cfg.swapBias() * float64(max(other.Height, 1))
	delta := float64(p.Y - start.Y)

	if self == 0 {
		if delta >= threshold {
			return 2, true
		}
		return 0, true
	}
	if -delta >= threshold {
		return 0, true
	}
	return 1, true
}

// hoveredRow returns the row under y. Above the first row clamps to it and at or below the last
// row's bottom clamps to the last row.
func hoveredRow(rows []Row, y int) int {
	if len(rows) == 0 {
		return -1
	}
	if y < rows[0].Y {
		return 0
	}
	for i, r := range rows {
		if y >= r.Y && y < r.bottom() {
			return i
		}
	}
	if y >= rows[len(rows)-1].bottom() {
		return len(rows) - 1
	}
	return -1
}

// anchorRow walks up from hi to the first row no deeper than depth. In pre-order that row is
// hi's ancestor at that depth, or hi itself.
func anchorRow(rows []Row, hi, depth int) int {
	for i := hi; i >= 0; i-- {
		if rows[i].Depth <= depth {
			return i
		}
	}
	return 0
}

// siblingRows returns the indexes of the rows sharing anchor's parent and depth, in order, and the
// bottom edge of the last sibling's subtree.
func siblingRows(rows []Row, ai int) ([]int, int) {
	anchor := rows[ai]
	start := ai
	for i := ai - 1; i >= 0; i-- {
		if rows[i].Depth < anchor.Depth {
			break
		}
		start = i
	}
	var sibs []int
	bottom := anchor.bottom()
	for i := start; i < len(rows); i++ {
		r := rows[i]
		if r.Depth < anchor.Depth {
			break
		}
		if r.Depth == anchor.Depth && r.ParentID == anchor.ParentID {
			sibs = append(sibs, i)
		}
		bottom = r.bottom()
	}
	return sibs, bottom
}

// nearest returns the index of the boundary closest to y; ties go to the earlier boundary.
func nearest(boundaries []int, y int) int {
	best, bestDist := 0, math.MaxInt
	for i, b := range boundaries {
		d := y - b
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func indexOf(xs []string, id string) int {
	for i, x := range xs {
		if x == id {
			return i
		}
	}
	return -1
}

func without(xs []string, id string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
