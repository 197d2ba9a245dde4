package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nexdo/internal/model"
)

func TestBundleExportWriteReadApply(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	src := NewDB()
	put(src, "a", "")
	put(src, "a1", "a")
	src.AddActivity("a", model.ActivityCreated, now)
	src.Sessions = []model.TimeSession{{ID: "s1", TaskID: "a", StartedAt: now, EndedAt: now.Add(time.Minute), DurationSeconds: 60}}
	src.CurrentUserID = "lee"

	b, err := ExportBundle(src, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if b.Version != BundleVersion || !b.ExportedAt.Equal(now) {
		t.Fatalf("unexpected header: version=%d exportedAt=%v", b.Version, b.ExportedAt)
	}

	// The bundle is a snapshot.
	src.Tasks["a"].Title = "changed"
	if b.Tasks.Tasks["a"].Title != "a" {
		t.Fatalf("bundle shares memory with the live state")
	}

	path := filepath.Join(t.TempDir(), BackupFilename(now))
	if err := WriteBundle(path, b); err != nil {
		t.Fatalf("write: %v", err)
	}
	read, err := ReadBundle(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dst := NewDB()
	put(dst, "other", "")
	ApplyBundle(dst, read)
	if _, ok := dst.FindTask("other"); ok {
		t.Fatalf("import must replace state wholesale")
	}
	if !equalIDs(dst.RootTaskIDs, []string{"a"}) {
		t.Fatalf("roots: %v", dst.RootTaskIDs)
	}
	if dst.CurrentUserID != "lee" {
		t.Fatalf("current user: %q", dst.CurrentUserID)
	}
	if len(dst.Sessions) != 1 || len(dst.Activities("a")) != 1 {
		t.Fatalf("sessions/activities not imported: %d/%d", len(dst.Sessions), len(dst.Activities("a")))
	}
	if r := CheckInvariants(dst); r.HasErrors() {
		t.Fatalf("invariants: %+v", r.Issues)
	}
}

func TestParseBundleValidation(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr error
		wantSub string
	}{
		{name: "empty", in: "  ", wantSub: "empty"},
		{name: "not json", in: "{nope", wantSub: "invalid backup json"},
		{name: "no version", in: `{"tasks":{}}`, wantErr: ErrUnsupportedBundleVersion},
		{name: "future version", in: `{"version":3,"tasks":{},"projects":{},"activities":{},"users":{},"ui":{}}`, wantErr: ErrUnsupportedBundleVersion},
		{name: "string version", in: `{"version":"2"}`, wantErr: ErrUnsupportedBundleVersion},
		{name: "missing ui", in: `{"version":2,"tasks":{},"projects":{},"activities":{},"users":{}}`, wantErr: ErrMissingBundleKeys, wantSub: "ui"},
		{name: "null task", in: `{"version":2,"tasks":{"tasks":{"a":null},"rootTaskIds":["a"]},"projects":{"projects":{}},"activities":{"activitiesByTaskId":{}},"users":{"users":{}},"ui":{}}`, wantErr: ErrInvalidBundleTask, wantSub: `"a" is null`},
		{name: "task id mismatch", in: `{"version":2,"tasks":{"tasks":{"a":{"id":"b","title":"B"}},"rootTaskIds":["a"]},"projects":{"projects":{}},"activities":{"activitiesByTaskId":{}},"users":{"users":{}},"ui":{}}`, wantErr: ErrInvalidBundleTask, wantSub: `has id "b"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBundle([]byte(tc.in))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantSub != "" && !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("expected %q in %q", tc.wantSub, err.Error())
			}
		})
	}
}

func TestApplyBundleV1DropsMissingRootsAndFixesUser(t *testing.T) {
	in := `{
		"version": 1,
		"exportedAt": "2025-05-20T10:00:00Z",
		"tasks": {"tasks": {"x": {"id": "x", "title": "X", "statusId": "todo", "childIds": [], "depth": 0}}, "rootTaskIds": ["ghost", "x"]},
		"projects": {"projects": {}},
		"activities": {"activitiesByTaskId": {}},
		"users": {"users": {"park": {"id": "park", "name": "Park"}}, "currentUserId": "nobody"},
		"ui": {"viewMode": "board"},
		"time": {"sessions": [{"id": "s", "taskId": "x", "durationSeconds": 5}]}
	}`
	b, err := ParseBundle([]byte(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	db := NewDB()
	ApplyBundle(db, b)
	if !equalIDs(db.RootTaskIDs, []string{"x"}) {
		t.Fatalf("expected ghost root dropped, got %v", db.RootTaskIDs)
	}
	if db.CurrentUserID != "park" {
		t.Fatalf("expected fallback to first user, got %q", db.CurrentUserID)
	}
	if len(db.Sessions) != 0 {
		t.Fatalf("v1 bundles carry no time sessions")
	}
	if db.UI.ViewMode != "board" || db.UI.Sort != SortManual {
		t.Fatalf("ui: %+v", db.UI)
	}
	if x, _ := db.FindTask("x"); x.Priority != model.PriorityNone {
		t.Fatalf("expected normalized priority, got %q", x.Priority)
	}
}

func TestNormalizeDropsNullTasks(t *testing.T) {
	db := NewDB()
	put(db, "a", "")
	db.Tasks["ghost"] = nil
	db.normalize()
	if _, ok := db.Tasks["ghost"]; ok {
		t.Fatalf("expected null task entry dropped")
	}
	if _, ok := db.FindTask("a"); !ok {
		t.Fatalf("expected live task kept")
	}
}
