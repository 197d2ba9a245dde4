package mutate

import (
	"strings"
	"time"

	"nexdo/internal/store"
)

// MoveTask re-parents id under parentID ("" for root) at index within the new container.
// index < 0 or past the end appends; it is interpreted after id has been detached.
//
// Moving a task under itself or one of its descendants, or under a missing parent, is a no-op.
// Moving a task to the position it already holds is also a no-op.
func (e *Engine) MoveTask(id, parentID string, index int) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		if !moveTask(db, id, parentID, index, now.UTC()) {
			return Change{}, false
		}
		return Change{Op: OpMove, TaskID: strings.TrimSpace(id)}, true
	})
}

func moveTask(db *store.DB, id, parentID string, index int, now time.Time) bool {
	t, ok := db.FindTask(id)
	if !ok {
		return false
	}
	parentID = strings.TrimSpace(parentID)
	newDepth := 0
	if parentID != "" {
		p, ok := db.FindTask(parentID)
		if !ok {
			return false
		}
		// Cycle guard: walk up from the target parent looking for id.
		if db.IsAncestor(t.ID, p.ID) {
			return false
		}
		newDepth = p.Depth + 1
	}

	oldContainer := db.Container(t.ParentID)
	oldIndex := indexOf(oldContainer, t.ID)
	if t.ParentID == parentID && oldIndex >= 0 {
		target := index
		if target < 0 || target >= len(oldContainer) {
			target = len(oldContainer) - 1
		}
		if target == oldIndex {
			return false
		}
	}

	detach(db, t.ID, t.ParentID)

	t.ParentID = parentID
	if parentID == "" {
		db.RootTaskIDs = insertAt(db.RootTaskIDs, t.ID, index)
	} else {
		p, _ := db.FindTask(parentID)
		p.ChildIDs = insertAt(p.ChildIDs, t.ID, index)
	}
	setDepth(db, t.ID, newDepth)
	t.UpdatedAt = now
	return true
}

// detach removes id from the container named by parentID (root order when the parent is gone).
func detach(db *store.DB, id, parentID string) {
	if p, ok := db.FindTask(parentID); ok {
		p.ChildIDs = without(p.ChildIDs, id)
		return
	}
	db.RootTaskIDs = without(db.RootTaskIDs, id)
}

func setDepth(db *store.DB, id string, depth int) {
	t, ok := db.FindTask(id)
	if !ok {
		return
	}
	t.Depth = depth
	for _, cid := range t.ChildIDs {
		setDepth(db, cid, depth+1)
	}
}

func insertAt(xs []string, id string, index int) []string {
	if index < 0 || index >= len(xs) {
		return append(xs, id)
	}
	out := make([]string, 0, len(xs)+1)
	out = append(out, xs[:index]...)
	out = append(out, id)
	return append(out, xs[index:]...)
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

func indexOf(xs []string, id string) int {
	for i, x := range xs {
		if x == id {
			return i
		}
	}
	return -1
}
