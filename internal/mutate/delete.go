package mutate

import (
	"time"

	"nexdo/internal/model"
	"nexdo/internal/store"
)

// DeleteTask soft-deletes id and its whole subtree. Tree edges are kept so RestoreTask can undo it.
// A running tracker on any deleted task is stopped.
func (e *Engine) DeleteTask(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok {
			return Change{}, false
		}
		now = now.UTC()
		eachInSubtree(db, t.ID, func(x *model.Task) {
			if x.IsTracking() {
				stopTracking(db, x, now)
			}
			stamp := now
			x.DeletedAt = &stamp
			x.UpdatedAt = now
		})
		return Change{Op: OpDelete, TaskID: t.ID}, true
	})
}

// RestoreTask clears the deletion marker on id and its whole subtree.
func (e *Engine) RestoreTask(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok {
			return Change{}, false
		}
		now = now.UTC()
		eachInSubtree(db, t.ID, func(x *model.Task) {
			x.DeletedAt = nil
			x.UpdatedAt = now
		})
		return Change{Op: OpRestore, TaskID: t.ID}, true
	})
}

// HardDeleteTask removes id and its subtree for good, along with their activity and time sessions.
func (e *Engine) HardDeleteTask(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok {
			return Change{}, false
		}
		hardDelete(db, t.ID)
		return Change{Op: OpHardDelete, TaskID: t.ID}, true
	})
}

func hardDelete(db *store.DB, id string) {
	t, ok := db.FindTask(id)
	if !ok {
		return
	}
	for _, cid := range append([]string{}, t.ChildIDs...) {
		hardDelete(db, cid)
	}
	detach(db, t.ID, t.ParentID)
	db.ClearActivities(t.ID)
	sessions := db.Sessions[:0]
	for _, s := range db.Sessions {
		if s.TaskID != t.ID {
			sessions = append(sessions, s)
		}
	}
	db.Sessions = sessions
	delete(db.Tasks, t.ID)
}

// eachInSubtree visits id and all descendants, deleted or not, parents first.
func eachInSubtree(db *store.DB, id string, fn func(t *model.Task)) {
	t, ok := db.FindTask(id)
	if !ok {
		return
	}
	fn(t)
	for _, cid := range t.ChildIDs {
		eachInSubtree(db, cid, fn)
	}
}
