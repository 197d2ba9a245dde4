package mutate

import (
	"fmt"
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"
)

type AddOptions struct {
	ParentID         string
	ProjectID        string
	StatusID         string
	Priority         model.Priority
	DueDate          string
	Description      string
	AssigneeIDs      []string
	Labels           []string
	EstimatedMinutes *int
	Recurrence       *model.RecurrenceRule
}

// AddTask creates a task and returns its id. A ParentID naming no task makes the new task a root.
func (e *Engine) AddTask(title string, opts AddOptions) string {
	var id string
	e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		id = addTask(db, now, title, opts)
		return Change{Op: OpAdd, TaskID: id}, true
	})
	return id
}

func addTask(db *store.DB, now time.Time, title string, opts AddOptions) string {
	now = now.UTC()
	t := &model.Task{
		ID:          store.NewID(),
		Title:       title,
		Description: opts.Description,
		ChildIDs:    []string{},
		StatusID:    statusutil.StatusTodo,
		Priority:    model.PriorityNone,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     strings.TrimSpace(opts.DueDate),
		ProjectID:   strings.TrimSpace(opts.ProjectID),
		AssigneeIDs: uniqueIDs(opts.AssigneeIDs),
		Labels:      append([]string{}, opts.Labels...),
	}
	if opts.Priority != "" {
		t.Priority = opts.Priority
	}
	if opts.EstimatedMinutes != nil && *opts.EstimatedMinutes > 0 {
		v := *opts.EstimatedMinutes
		t.EstimatedMinutes = &v
	}
	if opts.Recurrence != nil {
		r := normalizeRule(*opts.Recurrence)
		t.Recurrence = &r
	}
	if sid := strings.TrimSpace(opts.StatusID); sid != "" && statusutil.ValidateStatusID(db.StatusesFor(t), sid) {
		t.StatusID = sid
	}
	if statusutil.IsDone(t.StatusID) {
		t.CompletedAt = &now
	}

	if p, ok := db.FindTask(opts.ParentID); ok {
		t.ParentID = p.ID
		t.Depth = p.Depth + 1
		p.ChildIDs = append(p.ChildIDs, t.ID)
	} else {
		db.RootTaskIDs = append(db.RootTaskIDs, t.ID)
	}
	db.Tasks[t.ID] = t
	db.AddActivity(t.ID, model.ActivityCreated, now)
	return t.ID
}

// Patch is a partial update. Nil fields are left alone. Tree edges are changed only through MoveTask.
// An empty DueDate or ProjectID clears it; an EstimatedMinutes of 0 clears the estimate.
type Patch struct {
	Title            *string
	Description      *string
	StatusID         *string
	Priority         *model.Priority
	DueDate          *string
	AssigneeIDs      *[]string
	Labels           *[]string
	ProjectID        *string
	EstimatedMinutes *int
	Recurrence       *model.RecurrenceRule
	ClearRecurrence  bool
}

// UpdateTask merges p into the task. It records a status_change activity when the status moves
// and a single updated activity summarizing the other visible changes.
//
// Unknown status, priority or project values make the whole patch a no-op.
func (e *Engine) UpdateTask(id string, p Patch) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok {
			return Change{}, false
		}
		if !validPatch(db, t, p) {
			return Change{}, false
		}
		now = now.UTC()
		prev := *t
		prev.AssigneeIDs = append([]string{}, t.AssigneeIDs...)
		changed := false

		if p.Title != nil && *p.Title != t.Title {
			t.Title = *p.Title
			changed = true
		}
		if p.Description != nil && *p.Description != t.Description {
			t.Description = *p.Description
			changed = true
		}
		if p.Priority != nil && *p.Priority != t.Priority {
			t.Priority = *p.Priority
			changed = true
		}
		if p.DueDate != nil && strings.TrimSpace(*p.DueDate) != t.DueDate {
			t.DueDate = strings.TrimSpace(*p.DueDate)
			changed = true
		}
		if p.AssigneeIDs != nil {
			next := uniqueIDs(*p.AssigneeIDs)
			if !sameOrder(next, t.AssigneeIDs) {
				t.AssigneeIDs = next
				changed = true
			}
		}
		if p.Labels != nil && !sameOrder(*p.Labels, t.Labels) {
			t.Labels = append([]string{}, (*p.Labels)...)
			changed = true
		}
		if p.ProjectID != nil && strings.TrimSpace(*p.ProjectID) != t.ProjectID {
			t.ProjectID = strings.TrimSpace(*p.ProjectID)
			changed = true
		}
		if p.EstimatedMinutes != nil && estimate(t.EstimatedMinutes) != *p.EstimatedMinutes {
			if *p.EstimatedMinutes <= 0 {
				t.EstimatedMinutes = nil
			} else {
				v := *p.EstimatedMinutes
				t.EstimatedMinutes = &v
			}
			changed = true
		}
		if p.ClearRecurrence && t.Recurrence != nil {
			t.Recurrence = nil
			changed = true
		} else if p.Recurrence != nil {
			r := normalizeRule(*p.Recurrence)
			if t.Recurrence == nil || *t.Recurrence != r {
				t.Recurrence = &r
				changed = true
			}
		}

		statusChanged := false
		if p.StatusID != nil && strings.TrimSpace(*p.StatusID) != t.StatusID {
			setStatus(t, strings.TrimSpace(*p.StatusID), now)
			statusChanged = true
		}

		if !changed && !statusChanged {
			return Change{}, false
		}
		t.UpdatedAt = now

		if statusChanged {
			db.AddActivity(t.ID, model.ActivityStatusChange, now, store.WithStatusChange(prev.StatusID, t.StatusID))
		}
		if lines := describeChanges(&prev, t); len(lines) > 0 {
			db.AddActivity(t.ID, model.ActivityUpdated, now, store.WithContent(strings.Join(lines, "\n")))
		}
		return Change{Op: OpUpdate, TaskID: t.ID}, true
	})
}

// SetStatus moves a task to statusID. It is what a board-column drop applies.
func (e *Engine) SetStatus(id, statusID string) bool {
	return e.UpdateTask(id, Patch{StatusID: &statusID})
}

// setStatus keeps completedAt in step with done-ness. It does not cascade; ToggleComplete does.
func setStatus(t *model.Task, statusID string, now time.Time) {
	wasDone := statusutil.IsDone(t.StatusID)
	t.StatusID = statusID
	isDone := statusutil.IsDone(statusID)
	switch {
	case isDone && !wasDone:
		stamp := now
		t.CompletedAt = &stamp
	case !isDone && wasDone:
		t.CompletedAt = nil
	}
}

func validPatch(db *store.DB, t *model.Task, p Patch) bool {
	if p.Priority != nil {
		if norm, err := statusutil.NormalizePriority(string(*p.Priority)); err != nil || norm != *p.Priority {
			return false
		}
	}
	if p.ProjectID != nil {
		if pid := strings.TrimSpace(*p.ProjectID); pid != "" {
			if _, ok := db.FindProject(pid); !ok {
				return false
			}
		}
	}
	if p.StatusID != nil {
		probe := *t
		if p.ProjectID != nil {
			probe.ProjectID = strings.TrimSpace(*p.ProjectID)
		}
		if !statusutil.ValidateStatusID(db.StatusesFor(&probe), strings.TrimSpace(*p.StatusID)) {
			return false
		}
	}
	if p.Recurrence != nil && !validFrequency(p.Recurrence.Frequency) {
		return false
	}
	return true
}

func describeChanges(prev, next *model.Task) []string {
	var lines []string
	if prev.Title != next.Title {
		lines = append(lines, fmt.Sprintf("title: %q → %q", prev.Title, next.Title))
	}
	if prev.Description != next.Description {
		lines = append(lines, fmt.Sprintf("description: %s → %s", setOrEmpty(prev.Description), setOrEmpty(next.Description)))
	}
	if prev.Priority != next.Priority {
		lines = append(lines, fmt.Sprintf("priority: %s → %s", prev.Priority, next.Priority))
	}
	if prev.DueDate != next.DueDate {
		lines = append(lines, fmt.Sprintf("due date: %s → %s", orNone(prev.DueDate), orNone(next.DueDate)))
	}
	if !sameOrder(prev.AssigneeIDs, next.AssigneeIDs) {
		lines = append(lines, fmt.Sprintf("assignees: %d → %d", len(prev.AssigneeIDs), len(next.AssigneeIDs)))
	}
	if estimate(prev.EstimatedMinutes) != estimate(next.EstimatedMinutes) {
		lines = append(lines, fmt.Sprintf("estimate: %s → %s", minutesOrNone(prev.EstimatedMinutes), minutesOrNone(next.EstimatedMinutes)))
	}
	return lines
}

// AddComment appends a comment activity. Blank bodies are ignored.
func (e *Engine) AddComment(id, body string) bool {
	body = strings.TrimSpace(body)
	if body == "" {
		return false
	}
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok {
			return Change{}, false
		}
		db.AddActivity(t.ID, model.ActivityComment, now, store.WithContent(body))
		return Change{Op: OpComment, TaskID: t.ID}, true
	})
}

func setOrEmpty(s string) string {
	if s == "" {
		return "empty"
	}
	return "set"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func estimate(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func minutesOrNone(p *int) string {
	if p == nil || *p <= 0 {
		return "none"
	}
	return fmt.Sprintf("%dm", *p)
}

// uniqueIDs trims, drops blanks and keeps the first occurrence of each id.
func uniqueIDs(xs []string) []string {
	out := make([]string, 0, len(xs))
	seen := map[string]bool{}
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
