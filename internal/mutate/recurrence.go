package mutate

import (
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"
)

const dateLayout = "2006-01-02"

func validFrequency(f model.Frequency) bool {
	switch f {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
		return true
	}
	return false
}

func normalizeRule(r model.RecurrenceRule) model.RecurrenceRule {
	if r.Interval < 1 {
		r.Interval = 1
	}
	r.EndDate = strings.TrimSpace(r.EndDate)
	return r
}

// NextDueDate adds one recurrence step to from. Monthly steps clamp to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29).
func NextDueDate(rule model.RecurrenceRule, from time.Time) time.Time {
	rule = normalizeRule(rule)
	switch rule.Frequency {
	case model.FrequencyDaily:
		return from.AddDate(0, 0, rule.Interval)
	case model.FrequencyWeekly:
		return from.AddDate(0, 0, 7*rule.Interval)
	case model.FrequencyMonthly:
		y, m, d := from.Date()
		target := time.Date(y, m+time.Month(rule.Interval), 1, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
		if last := daysIn(target.Year(), target.Month()); d > last {
			d = last
		}
		return time.Date(target.Year(), target.Month(), d, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
	}
	return from
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseDue accepts YYYY-MM-DD or RFC3339. dateOnly reports which shape it was.
func parseDue(s string) (t time.Time, dateOnly bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	if v, err := time.Parse(dateLayout, s); err == nil {
		return v, true, true
	}
	if v, err := time.Parse(time.RFC3339, s); err == nil {
		return v, false, true
	}
	return time.Time{}, false, false
}

// nextOccurrence computes the next due date string for t, keeping the shape of its current due date.
// ok is false when the rule's end date has passed.
func nextOccurrence(t *model.Task, now time.Time) (string, bool) {
	if t.Recurrence == nil || !validFrequency(t.Recurrence.Frequency) {
		return "", false
	}
	base, dateOnly, ok := parseDue(t.DueDate)
	if !ok {
		base, dateOnly = now.UTC(), false
	}
	next := NextDueDate(*t.Recurrence, base)

	if end := t.Recurrence.EndDate; end != "" {
		endDay, err := time.Parse(dateLayout, end[:min(len(end), len(dateLayout))])
		if err == nil {
			nextDay, _ := time.Parse(dateLayout, next.Format(dateLayout))
			if nextDay.After(endDay) {
				return "", false
			}
		}
	}
	if dateOnly {
		return next.Format(dateLayout), true
	}
	return next.Format(time.RFC3339), true
}

// spawnNext creates the next occurrence of a just-completed recurring task as its sibling.
func spawnNext(db *store.DB, t *model.Task, now time.Time) string {
	due, ok := nextOccurrence(t, now)
	if !ok {
		return ""
	}
	rule := *t.Recurrence
	return addTask(db, now, t.Title, AddOptions{
		ParentID:    t.ParentID,
		ProjectID:   t.ProjectID,
		StatusID:    statusutil.StatusTodo,
		Priority:    t.Priority,
		DueDate:     due,
		Description: t.Description,
		AssigneeIDs: t.AssigneeIDs,
		Labels:      t.Labels,
		Recurrence:  &rule,
	})
}
