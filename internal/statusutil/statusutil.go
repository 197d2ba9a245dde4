package statusutil

import (
	"fmt"
	"strings"

	"nexdo/internal/model"
)

const (
	StatusTodo = "todo"
	StatusDone = "done"
)

// DefaultStatuses returns a fresh copy of the built-in status set.
func DefaultStatuses() []model.Status {
	return []model.Status{
		{ID: "todo", Name: "Todo", Color: "slate", Order: 0, IsDefault: true},
		{ID: "in-progress", Name: "In Progress", Color: "amber", Order: 1},
		{ID: "blocked", Name: "Blocked", Color: "red", Order: 2},
		{ID: "review", Name: "Review", Color: "purple", Order: 3},
		{ID: "done", Name: "Done", Color: "green", Order: 4, IsDone: true},
	}
}

func NormalizeStatusID(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "open":
		return "todo", nil
	case "doing", "in-progress", "in progress", "wip":
		return "in-progress", nil
	case "done", "complete", "completed":
		return "done", nil
	default:
		// Project-defined statuses are allowed as-is.
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("invalid status: empty")
		}
		return s, nil
	}
}

func ValidateStatusID(statuses []model.Status, statusID string) bool {
	sid := strings.TrimSpace(statusID)
	if sid == "" {
		return false
	}
	if len(statuses) == 0 {
		statuses = DefaultStatuses()
	}
	for _, def := range statuses {
		if def.ID == sid {
			return true
		}
	}
	return false
}

// IsDone reports whether statusID is the terminal status.
func IsDone(statusID string) bool {
	return strings.TrimSpace(statusID) == StatusDone
}

// DefaultStatusID returns the status new tasks start in.
func DefaultStatusID(statuses []model.Status) string {
	for _, def := range statuses {
		if def.IsDefault {
			return def.ID
		}
	}
	if len(statuses) > 0 {
		return strings.TrimSpace(statuses[0].ID)
	}
	return StatusTodo
}

func NormalizePriority(s string) (model.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent", "p0":
		return model.PriorityUrgent, nil
	case "high", "p1":
		return model.PriorityHigh, nil
	case "medium", "p2":
		return model.PriorityMedium, nil
	case "low", "p3":
		return model.PriorityLow, nil
	case "", "none":
		return model.PriorityNone, nil
	default:
		return "", fmt.Errorf("invalid priority: %q (expected urgent|high|medium|low|none)", s)
	}
}

// PriorityRank orders priorities from most to least urgent.
func PriorityRank(p model.Priority) int {
	switch p {
	case model.PriorityUrgent:
		return 0
	case model.PriorityHigh:
		return 1
	case model.PriorityMedium:
		return 2
	case model.PriorityLow:
		return 3
	default:
		return 4
	}
}
