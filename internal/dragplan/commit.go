package dragplan

// Applier applies placements. *mutate.Engine implements it.
type Applier interface {
	MoveTask(id, parentID string, index int) bool
	SetStatus(id, statusID string) bool
}

// Commit applies an outline placement.
func Commit(a Applier, pl Placement) bool {
	return a.MoveTask(pl.TaskID, pl.ParentID, pl.Index)
}

// CommitColumn applies a board placement: the task takes the column's status and, under manual
// sort, moves in the root order to sit before the card at pl.Index (or after the column's last card).
func CommitColumn(a Applier, tree Tree, pl ColumnPlacement, manualSort bool) bool {
	t, ok := tree.FindTask(pl.TaskID)
	if !ok {
		return false
	}

	rootIndex := -1
	if manualSort {
		roots := without(tree.Container(""), t.ID)
		rootIndex = len(roots)
		switch {
		case pl.Index >= 0 && pl.Index < len(pl.Order):
			if i := indexOf(roots, pl.Order[pl.Index]); i >= 0 {
				rootIndex = i
			}
		case len(pl.Order) > 0:
			if i := indexOf(roots, pl.Order[len(pl.Order)-1]); i >= 0 {
				rootIndex = i + 1
			}
		}
	}

	changed := false
	if t.StatusID != pl.StatusID {
		changed = a.SetStatus(t.ID, pl.StatusID)
	}
	if manualSort {
		if a.MoveTask(t.ID, "", rootIndex) {
			changed = true
		}
	}
	return changed
}
