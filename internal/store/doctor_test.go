package store

import (
	"testing"
	"time"
)

func issueCodes(r DoctorReport) map[string]bool {
	out := map[string]bool{}
	for _, it := range r.Issues {
		out[it.Code] = true
	}
	return out
}

func TestCheckInvariants_CleanTree(t *testing.T) {
	db := NewDB()
	put(db, "a", "")
	put(db, "a1", "a")
	put(db, "a1x", "a1")
	if r := CheckInvariants(db); len(r.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", r.Issues)
	}
}

func TestCheckInvariants_DetectsViolations(t *testing.T) {
	cases := []struct {
		name  string
		build func(db *DB)
		code  string
	}{
		{"depth", func(db *DB) {
			put(db, "a", "")
			put(db, "b", "a").Depth = 3
		}, "depth_mismatch"},
		{"listed twice", func(db *DB) {
			put(db, "a", "")
			put(db, "b", "a")
			db.RootTaskIDs = append(db.RootTaskIDs, "b")
		}, "multiple_containers"},
		{"orphan", func(db *DB) {
			put(db, "a", "")
			db.RootTaskIDs = nil
		}, "orphan"},
		{"parent mismatch", func(db *DB) {
			put(db, "a", "")
			put(db, "b", "")
			put(db, "c", "a").ParentID = "b"
		}, "parent_mismatch"},
		{"cycle", func(db *DB) {
			put(db, "a", "")
			put(db, "b", "a")
			db.Tasks["a"].ParentID = "b"
		}, "cycle"},
		{"missing child", func(db *DB) {
			put(db, "a", "").ChildIDs = []string{"ghost"}
		}, "child_missing_task"},
		{"two trackers", func(db *DB) {
			now := time.Now()
			put(db, "a", "").TrackingStartedAt = &now
			put(db, "b", "").TrackingStartedAt = &now
		}, "multiple_trackers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := NewDB()
			tc.build(db)
			r := CheckInvariants(db)
			if !r.HasErrors() || !issueCodes(r)[tc.code] {
				t.Fatalf("expected %s, got %+v", tc.code, r.Issues)
			}
		})
	}
}
