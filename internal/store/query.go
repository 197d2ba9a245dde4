package store

import (
	"fmt"
	"sort"
	"strings"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
)

type Sort string

const (
	SortManual       Sort = "manual"
	SortDueDate      Sort = "due-date"
	SortPriority     Sort = "priority"
	SortCreated      Sort = "created"
	SortAlphabetical Sort = "alphabetical"
	SortAssignee     Sort = "assignee"
)

func ParseSort(s string) (Sort, error) {
	switch v := Sort(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return SortManual, nil
	case SortManual, SortDueDate, SortPriority, SortCreated, SortAlphabetical, SortAssignee:
		return v, nil
	case "due", "duedate":
		return SortDueDate, nil
	case "alpha", "title":
		return SortAlphabetical, nil
	default:
		return "", fmt.Errorf("invalid sort: %q (expected manual|due-date|priority|created|alphabetical|assignee)", s)
	}
}

// Query filters and orders a task list. Empty filter lists match everything.
type Query struct {
	Statuses   []string
	Priorities []model.Priority
	AssigneeID string
	Sort       Sort
}

func QueryFromUI(ui UIState) Query {
	return Query{
		Statuses:   ui.StatusFilters,
		Priorities: ui.PriorityFilters,
		AssigneeID: ui.AssigneeFilter,
		Sort:       ui.Sort,
	}
}

// ApplyQuery returns the matching tasks. Deleted tasks never match. SortManual keeps the input order;
// every other mode breaks ties by newest createdAt first.
func ApplyQuery(tasks []*model.Task, q Query) []*model.Task {
	statuses := map[string]bool{}
	for _, s := range q.Statuses {
		statuses[s] = true
	}
	priorities := map[model.Priority]bool{}
	for _, p := range q.Priorities {
		priorities[p] = true
	}

	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil || t.IsDeleted() {
			continue
		}
		if len(statuses) > 0 && !statuses[t.StatusID] {
			continue
		}
		if len(priorities) > 0 && !priorities[t.Priority] {
			continue
		}
		if q.AssigneeID != "" && !contains(t.AssigneeIDs, q.AssigneeID) {
			continue
		}
		out = append(out, t)
	}

	if q.Sort == "" || q.Sort == SortManual {
		return out
	}
	less := compareFor(q.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		if c := less(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func compareFor(s Sort) func(a, b *model.Task) int {
	switch s {
	case SortDueDate:
		// Undated tasks sort last.
		return func(a, b *model.Task) int {
			switch {
			case a.DueDate == b.DueDate:
				return 0
			case a.DueDate == "":
				return 1
			case b.DueDate == "":
				return -1
			}
			return strings.Compare(a.DueDate, b.DueDate)
		}
	case SortPriority:
		return func(a, b *model.Task) int {
			return statusutil.PriorityRank(a.Priority) - statusutil.PriorityRank(b.Priority)
		}
	case SortCreated:
		return func(a, b *model.Task) int {
			switch {
			case a.CreatedAt.After(b.CreatedAt):
				return -1
			case b.CreatedAt.After(a.CreatedAt):
				return 1
			}
			return 0
		}
	case SortAlphabetical:
		return func(a, b *model.Task) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortAssignee:
		return func(a, b *model.Task) int {
			return strings.Compare(firstOrEmpty(a.AssigneeIDs), firstOrEmpty(b.AssigneeIDs))
		}
	}
	return func(a, b *model.Task) int { return 0 }
}

// Unassigned tasks compare as "" and so sort first.
func firstOrEmpty(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[0]
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
