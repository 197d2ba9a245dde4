package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/mutate"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"
)

type RenderOptions struct {
	IncludeDeleted  bool
	IncludeActivity bool
	// Now is used for live tracked time; zero means time.Now().
	Now time.Time
}

func (o RenderOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// RenderTaskMarkdown renders one task page: meta, description, subtasks as a checklist, comments
// and (optionally) the rest of its activity.
func RenderTaskMarkdown(db *store.DB, taskID string, opt RenderOptions) (string, error) {
	if db == nil {
		return "", fmt.Errorf("missing db")
	}
	t, ok := db.FindTask(taskID)
	if !ok {
		return "", fmt.Errorf("task not found: %s", taskID)
	}
	if t.IsDeleted() && !opt.IncludeDeleted {
		return "", fmt.Errorf("task deleted (use --include-deleted): %s", t.ID)
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(t.Title))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + t.ID)
	writeLn("- Status: " + statusName(db, t))
	if t.Priority != "" && t.Priority != model.PriorityNone {
		writeLn("- Priority: " + string(t.Priority))
	}
	if p, ok := db.FindProject(t.ProjectID); ok {
		writeLn("- Project: " + p.Name)
	}
	if parent, ok := db.FindTask(t.ParentID); ok {
		writeLn(fmt.Sprintf("- Parent: [%s](%s.md)", strings.TrimSpace(parent.Title), parent.ID))
	}
	if len(t.AssigneeIDs) > 0 {
		writeLn("- Assignees: " + strings.Join(userNames(db, t.AssigneeIDs), ", "))
	}
	if len(t.Labels) > 0 {
		labels := append([]string{}, t.Labels...)
		sort.Strings(labels)
		writeLn("- Labels: " + strings.Join(labels, ", "))
	}
	if due := strings.TrimSpace(t.DueDate); due != "" {
		writeLn("- Due: " + due)
	}
	if r := t.Recurrence; r != nil {
		writeLn("- Repeats: " + describeRecurrence(*r))
	}
	if t.EstimatedMinutes != nil {
		writeLn(fmt.Sprintf("- Estimate: %dm", *t.EstimatedMinutes))
	}
	if secs := mutate.TrackedSeconds(t, opt.now()); secs > 0 || t.IsTracking() {
		line := "- Tracked: " + mutate.FormatDuration(secs)
		if t.IsTracking() {
			line += " (running)"
		}
		writeLn(line)
	}
	writeLn("- Created: " + t.CreatedAt.UTC().Format(time.RFC3339))
	writeLn("- Updated: " + t.UpdatedAt.UTC().Format(time.RFC3339))
	if t.CompletedAt != nil {
		writeLn("- Completed: " + t.CompletedAt.UTC().Format(time.RFC3339))
	}
	if t.DeletedAt != nil {
		writeLn("- Deleted: " + t.DeletedAt.UTC().Format(time.RFC3339))
	}

	if desc := strings.TrimSpace(t.Description); desc != "" {
		writeLn("")
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
	}

	if len(t.ChildIDs) > 0 {
		var sub bytes.Buffer
		for _, cid := range t.ChildIDs {
			renderChecklist(&sub, db, cid, 0, opt.IncludeDeleted, "")
		}
		if sub.Len() > 0 {
			writeLn("")
			writeLn("## Subtasks")
			writeLn("")
			buf.Write(sub.Bytes())
		}
	}

	acts := db.Activities(t.ID)
	var comments []model.Activity
	for _, a := range acts {
		if a.Type == model.ActivityComment {
			comments = append(comments, a)
		}
	}
	if len(comments) > 0 {
		writeLn("")
		writeLn("## Comments")
		writeLn("")
		// Oldest first reads like a thread.
		for i := len(comments) - 1; i >= 0; i-- {
			c := comments[i]
			writeLn("### " + userName(db, c.ActorUserID) + " (" + c.CreatedAt.UTC().Format(time.RFC3339) + ")")
			writeLn("")
			writeLn(strings.TrimSpace(c.Content))
			writeLn("")
		}
	}

	if opt.IncludeActivity && len(acts) > 0 {
		writeLn("")
		writeLn("## Activity")
		writeLn("")
		for _, a := range acts {
			writeLn("- " + a.CreatedAt.UTC().Format(time.RFC3339) + " " + DescribeActivity(db, a))
		}
	}

	return buf.String(), nil
}

// RenderIndexMarkdown renders the whole tree as a nested checklist linking to task pages under
// linkDir ("" links to bare <id>.md).
func RenderIndexMarkdown(db *store.DB, title string, linkDir string, opt RenderOptions) (string, error) {
	if db == nil {
		return "", fmt.Errorf("missing db")
	}
	var buf bytes.Buffer
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Tasks"
	}
	buf.WriteString("# " + title + "\n\n")
	n := buf.Len()
	for _, id := range db.RootTaskIDs {
		renderChecklist(&buf, db, id, 0, opt.IncludeDeleted, linkDir)
	}
	if buf.Len() == n {
		buf.WriteString("_No tasks._\n")
	}
	return buf.String(), nil
}

func renderChecklist(buf *bytes.Buffer, db *store.DB, id string, depth int, includeDeleted bool, linkDir string) {
	t, ok := db.FindTask(id)
	if !ok || (t.IsDeleted() && !includeDeleted) {
		return
	}
	box := " "
	if statusutil.IsDone(t.StatusID) {
		box = "x"
	}
	title := strings.TrimSpace(t.Title)
	if linkDir != "" {
		title = fmt.Sprintf("[%s](%s/%s.md)", title, linkDir, t.ID)
	}
	var tags []string
	if !statusutil.IsDone(t.StatusID) && t.StatusID != statusutil.StatusTodo {
		tags = append(tags, statusName(db, t))
	}
	if t.Priority != "" && t.Priority != model.PriorityNone {
		tags = append(tags, string(t.Priority))
	}
	if t.DueDate != "" {
		tags = append(tags, "due "+t.DueDate)
	}
	suffix := ""
	if len(tags) > 0 {
		suffix = " _(" + strings.Join(tags, ", ") + ")_"
	}
	fmt.Fprintf(buf, "%s- [%s] %s%s\n", strings.Repeat("  ", depth), box, title, suffix)
	for _, cid := range t.ChildIDs {
		renderChecklist(buf, db, cid, depth+1, includeDeleted, linkDir)
	}
}

// DescribeActivity renders one activity record as a short sentence.
func DescribeActivity(db *store.DB, a model.Activity) string {
	who := userName(db, a.ActorUserID)
	switch a.Type {
	case model.ActivityCreated:
		return who + " created the task"
	case model.ActivityComment:
		return who + " commented: " + strings.TrimSpace(a.Content)
	case model.ActivityStatusChange:
		return fmt.Sprintf("%s changed status %s → %s", who, orDash(a.FromStatusID), orDash(a.ToStatusID))
	case model.ActivityCompleted:
		return who + " completed the task"
	case model.ActivityReopened:
		return who + " reopened the task"
	case model.ActivityUpdated:
		return who + " updated " + strings.ReplaceAll(strings.TrimSpace(a.Content), "\n", "; ")
	case model.ActivityTrackingStarted:
		return who + " started tracking"
	case model.ActivityTrackingStopped:
		return who + " stopped tracking"
	}
	return who + " " + string(a.Type)
}

func describeRecurrence(r model.RecurrenceRule) string {
	unit := map[model.Frequency]string{
		model.FrequencyDaily:   "day",
		model.FrequencyWeekly:  "week",
		model.FrequencyMonthly: "month",
	}[r.Frequency]
	if unit == "" {
		unit = string(r.Frequency)
	}
	s := "every " + unit
	if r.Interval > 1 {
		s = fmt.Sprintf("every %d %ss", r.Interval, unit)
	}
	if r.EndDate != "" {
		s += " until " + r.EndDate
	}
	return s
}

func statusName(db *store.DB, t *model.Task) string {
	for _, s := range db.StatusesFor(t) {
		if s.ID == t.StatusID {
			return s.Name
		}
	}
	return t.StatusID
}

func userName(db *store.DB, id string) string {
	if u, ok := db.FindUser(id); ok && strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	if id == "" {
		return "someone"
	}
	return id
}

func userNames(db *store.DB, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, userName(db, id))
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
