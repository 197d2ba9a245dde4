package tui

import (
	"fmt"
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/mutate"
	"nexdo/internal/publish"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"

	"github.com/charmbracelet/lipgloss"
)

const detailActivityLimit = 8

// renderDetail renders the side pane for t: fields, the markdown description and recent activity.
func renderDetail(db *store.DB, t *model.Task, now time.Time, width, height int) string {
	padX := 1
	innerW := max(width-2*padX, 0)
	box := lipgloss.NewStyle().Width(innerW).Padding(0, padX)
	if t == nil {
		return box.Render(styleMuted().Render("No task selected."))
	}

	titleStyle := lipgloss.NewStyle().Bold(true)
	if statusutil.IsDone(t.StatusID) {
		titleStyle = faintIfDark(titleStyle.Foreground(colorMuted).Strikethrough(true))
	}
	labelStyle := styleMuted()

	status := t.StatusID
	for _, s := range db.StatusesFor(t) {
		if s.ID == t.StatusID {
			status = lipgloss.NewStyle().Foreground(statusColor(s.Color)).Render(s.Name)
		}
	}

	field := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		return labelStyle.Render(fmt.Sprintf("%-9s", label)) + " " + value
	}

	lines := []string{
		titleStyle.Render(t.Title),
		"",
		field("Status", status),
		field("Priority", lipgloss.NewStyle().Foreground(priorityColor(t.Priority)).Render(string(t.Priority))),
		field("Due", t.DueDate),
	}
	if p, ok := db.FindProject(t.ProjectID); ok {
		lines = append(lines, field("Project", p.Name))
	}
	if len(t.AssigneeIDs) > 0 {
		names := make([]string, 0, len(t.AssigneeIDs))
		for _, id := range t.AssigneeIDs {
			if u, ok := db.FindUser(id); ok {
				names = append(names, u.Name)
			} else {
				names = append(names, id)
			}
		}
		lines = append(lines, field("Assigned", strings.Join(names, ", ")))
	}
	if len(t.Labels) > 0 {
		lines = append(lines, field("Labels", strings.Join(t.Labels, ", ")))
	}
	if t.Recurrence != nil {
		repeat := "every " + recurrenceLabel(*t.Recurrence)
		if t.Recurrence.EndDate != "" {
			repeat += " until " + t.Recurrence.EndDate
		}
		lines = append(lines, field("Repeats", repeat))
	}
	tracked := mutate.FormatDuration(mutate.TrackedSeconds(t, now))
	if t.IsTracking() {
		tracked = lipgloss.NewStyle().Foreground(colorSuccess).Render(glyphTracking() + " " + tracked)
	}
	if t.EstimatedMinutes != nil {
		tracked += labelStyle.Render(fmt.Sprintf(" of %s", mutate.FormatDuration(int64(*t.EstimatedMinutes)*60)))
	}
	lines = append(lines, field("Tracked", tracked))

	if kids := db.ChildTasks(t.ID); len(kids) > 0 {
		done := 0
		for _, c := range kids {
			if statusutil.IsDone(c.StatusID) {
				done++
			}
		}
		lines = append(lines, field("Subtasks", fmt.Sprintf("%d/%d done", done, len(kids))))
	}

	if desc := renderMarkdown(t.Description, innerW); desc != "" {
		lines = append(lines, "", labelStyle.Render("Description"), desc)
	}

	if acts := db.Activities(t.ID); len(acts) > 0 {
		lines = append(lines, "", labelStyle.Render("Activity"))
		for i, a := range acts {
			if i == detailActivityLimit {
				lines = append(lines, labelStyle.Render(fmt.Sprintf("%s %d more", glyphBullet(), len(acts)-i)))
				break
			}
			when := labelStyle.Render(a.CreatedAt.Local().Format("Jan 2 15:04"))
			lines = append(lines, fitWidth(glyphBullet()+" "+when+" "+publish.DescribeActivity(db, a), innerW))
		}
	}

	return box.Render(truncateLines(strings.Join(lines, "\n"), height))
}

func truncateLines(s string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n")
}
