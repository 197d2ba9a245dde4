package store

import (
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
)

// ChildTasks returns the live direct children of id, in childIds order.
func (db *DB) ChildTasks(id string) []*model.Task {
	p, ok := db.FindTask(id)
	if !ok {
		return []*model.Task{}
	}
	out := make([]*model.Task, 0, len(p.ChildIDs))
	for _, cid := range p.ChildIDs {
		if c, ok := db.FindTask(cid); ok && !c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out
}

// RootTasks returns the live roots in rootTaskIds order.
func (db *DB) RootTasks() []*model.Task {
	out := make([]*model.Task, 0, len(db.RootTaskIDs))
	for _, id := range db.RootTaskIDs {
		if t, ok := db.FindTask(id); ok && !t.IsDeleted() {
			out = append(out, t)
		}
	}
	return out
}

func (db *DB) filter(keep func(t *model.Task) bool) []*model.Task {
	out := []*model.Task{}
	db.Walk(func(t *model.Task) {
		if keep(t) {
			out = append(out, t)
		}
	})
	return out
}

func (db *DB) TasksByProject(projectID string) []*model.Task {
	projectID = strings.TrimSpace(projectID)
	return db.filter(func(t *model.Task) bool {
		return !t.IsDeleted() && t.ProjectID == projectID
	})
}

// InboxTasks are live roots with no project.
func (db *DB) InboxTasks() []*model.Task {
	return db.filter(func(t *model.Task) bool {
		return !t.IsDeleted() && t.ProjectID == "" && t.ParentID == ""
	})
}

// TodayTasks returns open tasks due on now's calendar day.
func (db *DB) TodayTasks(now time.Time) []*model.Task {
	day := now.Format("2006-01-02")
	return db.filter(func(t *model.Task) bool {
		if t.IsDeleted() || statusutil.IsDone(t.StatusID) {
			return false
		}
		return strings.HasPrefix(t.DueDate, day)
	})
}

// OverdueTasks returns open tasks whose due date has passed. A date-only due date is overdue from the
// following calendar day; a timestamp is overdue once now is past it. Unparseable dates never are.
func (db *DB) OverdueTasks(now time.Time) []*model.Task {
	day := now.Format("2006-01-02")
	return db.filter(func(t *model.Task) bool {
		if t.IsDeleted() || statusutil.IsDone(t.StatusID) || t.DueDate == "" {
			return false
		}
		if len(t.DueDate) == len(day) {
			if _, err := time.Parse("2006-01-02", t.DueDate); err != nil {
				return false
			}
			return t.DueDate < day
		}
		due, err := time.Parse(time.RFC3339, t.DueDate)
		return err == nil && due.Before(now)
	})
}

// DeletedRootTasks returns soft-deleted tasks whose parent is not deleted (the restorable tops).
func (db *DB) DeletedRootTasks() []*model.Task {
	return db.filter(func(t *model.Task) bool {
		if !t.IsDeleted() {
			return false
		}
		if p, ok := db.FindTask(t.ParentID); ok && p.IsDeleted() {
			return false
		}
		return true
	})
}

func (db *DB) TrackingTasks() []*model.Task {
	return db.filter(func(t *model.Task) bool { return t.IsTracking() })
}

// VisibleTree returns the live tasks in pre-order, skipping the subtrees of collapsed ids.
func (db *DB) VisibleTree(collapsed map[string]bool) []*model.Task {
	out := []*model.Task{}
	var walk func(id string)
	walk = func(id string) {
		t, ok := db.FindTask(id)
		if !ok || t.IsDeleted() {
			return
		}
		out = append(out, t)
		if collapsed[t.ID] {
			return
		}
		for _, cid := range t.ChildIDs {
			walk(cid)
		}
	}
	for _, id := range db.RootTaskIDs {
		walk(id)
	}
	return out
}

func (db *DB) SessionsFor(taskID string) []model.TimeSession {
	out := []model.TimeSession{}
	for _, s := range db.Sessions {
		if s.TaskID == taskID {
			out = append(out, s)
		}
	}
	return out
}
