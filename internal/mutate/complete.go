package mutate

import (
	"time"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"
)

// ToggleComplete completes an open task or reopens a done one.
//
// Completing marks the task and its live descendants done (stopping any running tracker), then
// completes each ancestor whose live children are now all done, stopping at the first that is
// deleted, childless or still has open children. Reopening reverts the task and every done
// ancestor. Only the toggled task gets a completed/reopened record. Completing a recurring task
// spawns its next occurrence.
func (e *Engine) ToggleComplete(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok {
			return Change{}, false
		}
		now = now.UTC()
		if statusutil.IsDone(t.StatusID) {
			reopen(db, t, now)
			return Change{Op: OpReopen, TaskID: t.ID}, true
		}
		complete(db, t, now)
		return Change{Op: OpComplete, TaskID: t.ID}, true
	})
}

func complete(db *store.DB, t *model.Task, now time.Time) {
	markDone(db, t, now)
	t.UpdatedAt = now

	for cur := t.ParentID; cur != ""; {
		p, ok := db.FindTask(cur)
		if !ok || p.IsDeleted() {
			break
		}
		visible := db.ChildTasks(p.ID)
		if len(visible) == 0 || !allDone(visible) {
			break
		}
		if !statusutil.IsDone(p.StatusID) {
			finish(db, p, now)
		}
		cur = p.ParentID
	}

	db.AddActivity(t.ID, model.ActivityCompleted, now)

	if t.Recurrence != nil {
		spawnNext(db, t, now)
	}
}

// markDone completes t and its live descendants. Deleted subtrees are left as they are.
func markDone(db *store.DB, t *model.Task, now time.Time) {
	if !statusutil.IsDone(t.StatusID) || t.IsTracking() {
		finish(db, t, now)
	}
	for _, cid := range t.ChildIDs {
		c, ok := db.FindTask(cid)
		if !ok || c.IsDeleted() {
			continue
		}
		markDone(db, c, now)
	}
}

// finish moves one task to done. completedAt is stamped only on the open→done edge.
func finish(db *store.DB, t *model.Task, now time.Time) {
	if t.IsTracking() {
		stopTracking(db, t, now)
	}
	if !statusutil.IsDone(t.StatusID) {
		t.StatusID = statusutil.StatusDone
		stamp := now
		t.CompletedAt = &stamp
	}
	t.UpdatedAt = now
}

func reopen(db *store.DB, t *model.Task, now time.Time) {
	t.StatusID = openStatusID(db, t)
	t.CompletedAt = nil
	t.UpdatedAt = now

	seen := map[string]bool{t.ID: true}
	for cur := t.ParentID; cur != "" && !seen[cur]; {
		seen[cur] = true
		p, ok := db.FindTask(cur)
		if !ok {
			break
		}
		if statusutil.IsDone(p.StatusID) {
			p.StatusID = openStatusID(db, p)
			p.CompletedAt = nil
			p.UpdatedAt = now
		}
		cur = p.ParentID
	}

	db.AddActivity(t.ID, model.ActivityReopened, now)
}

func allDone(ts []*model.Task) bool {
	for _, t := range ts {
		if !statusutil.IsDone(t.StatusID) {
			return false
		}
	}
	return true
}

// openStatusID is "todo" unless the task's project has no such status.
func openStatusID(db *store.DB, t *model.Task) string {
	statuses := db.StatusesFor(t)
	if statusutil.ValidateStatusID(statuses, statusutil.StatusTodo) {
		return statusutil.StatusTodo
	}
	return statusutil.DefaultStatusID(statuses)
}
