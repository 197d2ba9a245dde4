package store

import (
	"testing"
	"time"

	"nexdo/internal/model"
)

func TestSQLiteStateStore_SaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("NEXDO_CONFIG_DIR", t.TempDir())
	s := Store{Dir: t.TempDir()}

	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	db := NewDB()
	db.CurrentUserID = "kim"
	put(db, "a", "", func(t *model.Task) { t.ProjectID = "p1"; t.Priority = model.PriorityHigh })
	put(db, "a1", "a", func(t *model.Task) {
		t.Recurrence = &model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 2, EndDate: "2025-06-01"}
		t.DueDate = "2025-05-20"
	})
	put(db, "b", "")
	db.Projects["p1"] = model.Project{ID: "p1", Name: "Work", Color: "#3b82f6", CreatedAt: now, UpdatedAt: now}
	db.AddActivity("a", model.ActivityCreated, now)
	db.AddActivity("a", model.ActivityComment, now.Add(time.Minute), WithContent("second"))
	db.Sessions = append(db.Sessions, model.TimeSession{ID: "s1", TaskID: "a1", StartedAt: now, EndedAt: now.Add(90 * time.Second), DurationSeconds: 90})
	db.UI.Sort = SortPriority
	db.UI.Collapsed = map[string]bool{"a": true}

	if err := s.Save(db); err != nil {
		t.Fatalf("save sqlite: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load sqlite: %v", err)
	}
	if got.CurrentUserID != "kim" {
		t.Fatalf("current user: %q", got.CurrentUserID)
	}
	if !equalIDs(got.RootTaskIDs, []string{"a", "b"}) {
		t.Fatalf("root order: %v", got.RootTaskIDs)
	}
	a1, ok := got.FindTask("a1")
	if !ok || a1.ParentID != "a" || a1.Depth != 1 {
		t.Fatalf("a1 not restored: %+v", a1)
	}
	if a1.Recurrence == nil || a1.Recurrence.Interval != 2 || a1.Recurrence.EndDate != "2025-06-01" {
		t.Fatalf("recurrence not restored: %+v", a1.Recurrence)
	}
	if acts := got.Activities("a"); len(acts) != 2 || acts[0].Content != "second" {
		t.Fatalf("activity order not restored: %+v", acts)
	}
	if len(got.Sessions) != 1 || got.Sessions[0].DurationSeconds != 90 {
		t.Fatalf("sessions: %+v", got.Sessions)
	}
	if p, ok := got.FindProject("p1"); !ok || p.Name != "Work" {
		t.Fatalf("project: %+v", p)
	}
	if got.UI.Sort != SortPriority || !got.UI.Collapsed["a"] {
		t.Fatalf("ui prefs: %+v", got.UI)
	}
	if len(got.Users) != 4 {
		t.Fatalf("expected default users to persist, got %d", len(got.Users))
	}
	if r := CheckInvariants(got); r.HasErrors() {
		t.Fatalf("invariants after load: %+v", r.Issues)
	}
}

func TestSQLiteStateStore_SaveReplacesPreviousRows(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	db := NewDB()
	put(db, "a", "")
	put(db, "b", "")
	if err := s.Save(db); err != nil {
		t.Fatalf("save: %v", err)
	}

	delete(db.Tasks, "b")
	db.RootTaskIDs = []string{"a"}
	if err := s.Save(db); err != nil {
		t.Fatalf("save 2: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tasks) != 1 {
		t.Fatalf("expected 1 task after replace-all save, got %d", len(got.Tasks))
	}
}

func TestSQLiteStateStore_LoadMissingIsFresh(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tasks) != 0 || got.CurrentUserID != "me" {
		t.Fatalf("expected fresh state, got %+v", got)
	}
}

func TestStoreReset(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	db := NewDB()
	put(db, "a", "")
	if err := s.Save(db); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tasks) != 0 {
		t.Fatalf("expected empty state after reset, got %d tasks", len(got.Tasks))
	}
}

func TestPersisterFlush(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	db := NewDB()
	p := NewPersister(s, db)

	put(db, "a", "")
	p.Flush()
	if err := p.Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got.FindTask("a"); !ok {
		t.Fatalf("expected flushed task")
	}
}
