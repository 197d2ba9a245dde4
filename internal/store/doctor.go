package store

import (
	"fmt"
	"sort"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	TaskID  string           `json:"taskId,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// CheckInvariants validates the tree structure: acyclic parent links, exclusive containment
// (each task listed exactly once, by the container its parentId names) and depth consistency.
// Dangling references are errors too. Warnings cover data that is odd but harmless.
func CheckInvariants(db *DB) DoctorReport {
	var issues []DoctorIssue
	errf := func(code, taskID, format string, args ...any) {
		issues = append(issues, DoctorIssue{Level: DoctorIssueLevelError, Code: code, TaskID: taskID, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(code, taskID, format string, args ...any) {
		issues = append(issues, DoctorIssue{Level: DoctorIssueLevelWarn, Code: code, TaskID: taskID, Message: fmt.Sprintf(format, args...)})
	}

	ids := make([]string, 0, len(db.Tasks))
	for id := range db.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Where each id is listed: "" for root order, otherwise the listing parent.
	listedIn := map[string][]string{}
	for _, id := range db.RootTaskIDs {
		listedIn[id] = append(listedIn[id], "")
		if _, ok := db.Tasks[id]; !ok {
			errf("root_missing_task", id, "rootTaskIds references missing task %s", id)
		}
	}
	for _, id := range ids {
		t := db.Tasks[id]
		if t == nil {
			errf("nil_task", id, "task %s is nil", id)
			continue
		}
		if t.ID != id {
			errf("id_mismatch", id, "task stored under %s has id %s", id, t.ID)
		}
		for _, cid := range t.ChildIDs {
			listedIn[cid] = append(listedIn[cid], id)
			if _, ok := db.Tasks[cid]; !ok {
				errf("child_missing_task", id, "task %s lists missing child %s", id, cid)
			}
		}
	}

	for _, id := range ids {
		t := db.Tasks[id]
		if t == nil {
			continue
		}
		where := listedIn[id]
		switch {
		case len(where) == 0:
			errf("orphan", id, "task %s is not listed by any container", id)
		case len(where) > 1:
			errf("multiple_containers", id, "task %s is listed %d times", id, len(where))
		case where[0] != t.ParentID:
			errf("parent_mismatch", id, "task %s has parentId %q but is listed under %q", id, t.ParentID, where[0])
		}
		if t.ParentID != "" {
			if _, ok := db.Tasks[t.ParentID]; !ok {
				errf("parent_missing", id, "task %s has missing parent %s", id, t.ParentID)
			}
		}

		// Walk up: detects cycles and computes the expected depth.
		depth := 0
		seen := map[string]bool{id: true}
		cur := t.ParentID
		cyclic := false
		for cur != "" {
			if seen[cur] {
				cyclic = true
				break
			}
			seen[cur] = true
			p, ok := db.Tasks[cur]
			if !ok || p == nil {
				break
			}
			depth++
			cur = p.ParentID
		}
		if cyclic {
			errf("cycle", id, "task %s is part of a parent cycle", id)
			continue
		}
		if t.Depth != depth {
			errf("depth_mismatch", id, "task %s has depth %d, expected %d", id, t.Depth, depth)
		}

		if t.Title == "" {
			warnf("empty_title", id, "task %s has an empty title", id)
		}
		if t.TrackingStartedAt != nil && t.IsDeleted() {
			warnf("tracking_deleted", id, "deleted task %s is still tracking", id)
		}
	}

	tracking := 0
	for _, id := range ids {
		if t := db.Tasks[id]; t != nil && t.IsTracking() {
			tracking++
		}
	}
	if tracking > 1 {
		errf("multiple_trackers", "", "%d tasks are tracking at once", tracking)
	}

	for taskID := range db.ActivitiesByTaskID {
		if _, ok := db.Tasks[taskID]; !ok {
			warnf("orphan_activity", taskID, "activity recorded for missing task %s", taskID)
		}
	}

	if issues == nil {
		issues = []DoctorIssue{}
	}
	return DoctorReport{Issues: issues}
}
