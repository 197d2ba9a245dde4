package store

import (
	"testing"
	"time"

	"nexdo/internal/model"
)

// put inserts a task under parentID (or at root) with a consistent depth. Test-only shortcut
// around the mutation engine.
func put(db *DB, id, parentID string, mutate ...func(*model.Task)) *model.Task {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	t := &model.Task{
		ID:          id,
		Title:       id,
		ParentID:    parentID,
		ChildIDs:    []string{},
		StatusID:    "todo",
		Priority:    model.PriorityNone,
		CreatedAt:   now,
		UpdatedAt:   now,
		AssigneeIDs: []string{},
		Labels:      []string{},
	}
	if p, ok := db.FindTask(parentID); ok {
		t.Depth = p.Depth + 1
		p.ChildIDs = append(p.ChildIDs, id)
	} else {
		t.ParentID = ""
		db.RootTaskIDs = append(db.RootTaskIDs, id)
	}
	for _, m := range mutate {
		m(t)
	}
	db.Tasks[id] = t
	return t
}

func ids(ts []*model.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
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

func TestIsAncestor(t *testing.T) {
	db := NewDB()
	put(db, "a", "")
	put(db, "b", "a")
	put(db, "c", "b")
	put(db, "d", "")

	cases := []struct {
		anc, id string
		want    bool
	}{
		{"a", "c", true},
		{"b", "c", true},
		{"c", "c", true},
		{"c", "a", false},
		{"d", "c", false},
		{"a", "missing", false},
	}
	for _, tc := range cases {
		if got := db.IsAncestor(tc.anc, tc.id); got != tc.want {
			t.Fatalf("IsAncestor(%q,%q)=%v, want %v", tc.anc, tc.id, got, tc.want)
		}
	}
}

func TestWalkIsPreOrder(t *testing.T) {
	db := NewDB()
	put(db, "a", "")
	put(db, "a1", "a")
	put(db, "a1x", "a1")
	put(db, "a2", "a")
	put(db, "b", "")

	var got []string
	db.Walk(func(t *model.Task) { got = append(got, t.ID) })
	want := []string{"a", "a1", "a1x", "a2", "b"}
	if !equalIDs(got, want) {
		t.Fatalf("walk order: got %v want %v", got, want)
	}
}

func TestResolveTaskID(t *testing.T) {
	db := NewDB()
	put(db, "abc-1", "")
	put(db, "abd-2", "")

	if id, err := db.ResolveTaskID("abc"); err != nil || id != "abc-1" {
		t.Fatalf("prefix resolve: id=%q err=%v", id, err)
	}
	if _, err := db.ResolveTaskID("ab"); err == nil {
		t.Fatalf("expected ambiguity error")
	}
	if _, err := db.ResolveTaskID("zzz"); err == nil {
		t.Fatalf("expected not found error")
	}
	if _, err := db.ResolveTaskID("  "); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestNewIDIsUUID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if !IsValidID(a) {
		t.Fatalf("expected uuid, got %q", a)
	}
	if got := ShortID(a); len(got) != 8 {
		t.Fatalf("short id: %q", got)
	}
	if got := ShortID("custom"); got != "custom" {
		t.Fatalf("non-uuid ids are not shortened: %q", got)
	}
}
