package mutate

import (
	"strings"
	"testing"

	"nexdo/internal/model"
	"nexdo/internal/store"
)

func TestAddTask_DepthAndContainers(t *testing.T) {
	e, _ := newTestEngine()
	a := e.AddTask("A", AddOptions{})
	b := e.AddTask("B", AddOptions{ParentID: a})
	c := e.AddTask("C", AddOptions{ParentID: b, Priority: model.PriorityHigh, AssigneeIDs: []string{"kim", "kim", " lee "}})
	orphan := e.AddTask("Orphan", AddOptions{ParentID: "missing"})

	if got := task(e, c).Depth; got != 2 {
		t.Fatalf("expected depth 2, got %d", got)
	}
	if got := task(e, orphan); got.ParentID != "" || got.Depth != 0 {
		t.Fatalf("missing parent should yield a root: %+v", got)
	}
	if roots := e.DB().RootTaskIDs; len(roots) != 2 || roots[0] != a || roots[1] != orphan {
		t.Fatalf("unexpected roots: %v", roots)
	}
	if got := task(e, c).AssigneeIDs; len(got) != 2 || got[0] != "kim" || got[1] != "lee" {
		t.Fatalf("assignees should be set-like: %v", got)
	}
	if got := task(e, c).StatusID; got != "todo" {
		t.Fatalf("expected todo, got %q", got)
	}
	if got := activityTypes(e, c); len(got) != 1 || got[0] != model.ActivityCreated {
		t.Fatalf("expected a created activity, got %v", got)
	}
	mustInvariants(t, e)
}

func TestUpdateTask_BatchesChangesIntoOneActivity(t *testing.T) {
	e, c := newTestEngine()
	id := e.AddTask("Write report", AddOptions{})
	c.advance(1)

	pri := model.PriorityUrgent
	est := 45
	assignees := []string{"kim"}
	ok := e.UpdateTask(id, Patch{
		Title:            strPtr("Write final report"),
		Description:      strPtr("outline first"),
		Priority:         &pri,
		DueDate:          strPtr("2025-05-22"),
		AssigneeIDs:      &assignees,
		EstimatedMinutes: &est,
	})
	if !ok {
		t.Fatalf("expected update to apply")
	}
	if n := countType(e, id, model.ActivityUpdated); n != 1 {
		t.Fatalf("expected exactly one updated activity, got %d", n)
	}
	if n := countType(e, id, model.ActivityStatusChange); n != 0 {
		t.Fatalf("no status change expected, got %d", n)
	}
	content := e.DB().Activities(id)[0].Content
	for _, want := range []string{
		`title: "Write report" → "Write final report"`,
		"description: empty → set",
		"priority: none → urgent",
		"due date: none → 2025-05-22",
		"assignees: 0 → 1",
		"estimate: none → 45m",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("missing %q in:\n%s", want, content)
		}
	}
	if !task(e, id).UpdatedAt.After(task(e, id).CreatedAt) {
		t.Fatalf("expected updatedAt to be bumped")
	}
}

func TestUpdateTask_StatusChangeRecordsFromTo(t *testing.T) {
	e, _ := newTestEngine()
	id := e.AddTask("T", AddOptions{})

	if !e.SetStatus(id, "review") {
		t.Fatalf("expected status change")
	}
	acts := e.DB().Activities(id)
	if acts[0].Type != model.ActivityStatusChange || acts[0].FromStatusID != "todo" || acts[0].ToStatusID != "review" {
		t.Fatalf("unexpected activity: %+v", acts[0])
	}
	if countType(e, id, model.ActivityUpdated) != 0 {
		t.Fatalf("status alone should not produce an updated record")
	}

	if !e.SetStatus(id, "done") || task(e, id).CompletedAt == nil {
		t.Fatalf("moving into done should stamp completedAt")
	}
	if !e.SetStatus(id, "todo") || task(e, id).CompletedAt != nil {
		t.Fatalf("leaving done should clear completedAt")
	}
}

func TestUpdateTask_NoOps(t *testing.T) {
	e, _ := newTestEngine()
	id := e.AddTask("T", AddOptions{})
	before := len(e.DB().Activities(id))

	bogus := model.Priority("p1")
	cases := []struct {
		name string
		id   string
		p    Patch
	}{
		{"missing task", "nope", Patch{Title: strPtr("x")}},
		{"same title", id, Patch{Title: strPtr("T")}},
		{"unknown status", id, Patch{StatusID: strPtr("archived")}},
		{"alias priority", id, Patch{Priority: &bogus}},
		{"unknown project", id, Patch{ProjectID: strPtr("ghost")}},
		{"empty patch", id, Patch{}},
	}
	for _, tc := range cases {
		if e.UpdateTask(tc.id, tc.p) {
			t.Fatalf("%s: expected no-op", tc.name)
		}
	}
	if got := len(e.DB().Activities(id)); got != before {
		t.Fatalf("no-ops must not log activity (%d → %d)", before, got)
	}
}

func TestAddComment(t *testing.T) {
	e, _ := newTestEngine()
	id := e.AddTask("T", AddOptions{})
	if e.AddComment(id, "   ") {
		t.Fatalf("blank comment should be ignored")
	}
	if e.AddComment("missing", "hi") {
		t.Fatalf("comment on missing task should be a no-op")
	}
	if !e.AddComment(id, "  looks good  ") {
		t.Fatalf("expected comment")
	}
	a := e.DB().Activities(id)[0]
	if a.Type != model.ActivityComment || a.Content != "looks good" {
		t.Fatalf("unexpected comment: %+v", a)
	}
}

func TestSubscribe_OneChangePerMutation(t *testing.T) {
	e, _ := newTestEngine()
	var got []Change
	unsubscribe := e.Subscribe(func(c Change) { got = append(got, c) })

	id := e.AddTask("T", AddOptions{})
	e.ToggleComplete(id)
	e.MoveTask(id, id, 0) // rejected
	e.ToggleComplete("missing")

	if len(got) != 2 || got[0].Op != OpAdd || got[1].Op != OpComplete || got[1].TaskID != id {
		t.Fatalf("unexpected changes: %+v", got)
	}

	unsubscribe()
	e.ToggleComplete(id)
	if len(got) != 2 {
		t.Fatalf("unsubscribed observer was notified")
	}
}

func TestDirectory(t *testing.T) {
	e, _ := newTestEngine()
	pid := e.AddProject("Work", "")
	if pid == "" || e.AddProject("  ", "red") != "" {
		t.Fatalf("unexpected project ids")
	}
	if p, _ := e.DB().FindProject(pid); p.Color != "blue" || len(p.Statuses) != 5 {
		t.Fatalf("unexpected project: %+v", p)
	}
	id := e.AddTask("T", AddOptions{ProjectID: pid})
	if !e.RenameProject(pid, "Job") {
		t.Fatalf("rename")
	}
	if !e.DeleteProject(pid) || task(e, id).ProjectID != "" {
		t.Fatalf("deleting a project should move its tasks to the inbox")
	}

	if e.AddUser("me", "dup", "") {
		t.Fatalf("duplicate user id")
	}
	if !e.AddUser("choi", "Choi", "choi@example.com") || !e.UseUser("choi") {
		t.Fatalf("add/use user")
	}
	e.AddComment(id, "hello")
	if a := e.DB().Activities(id)[0]; a.ActorUserID != "choi" {
		t.Fatalf("expected actor choi, got %q", a.ActorUserID)
	}
	if e.UseUser("ghost") {
		t.Fatalf("unknown user")
	}
}

func TestSetUIAndReset(t *testing.T) {
	e, _ := newTestEngine()
	id := e.AddTask("T", AddOptions{})

	if !e.SetUI(func(ui *store.UIState) { ui.Collapsed[id] = true }) {
		t.Fatalf("collapsing should change the ui state")
	}
	if e.SetUI(func(ui *store.UIState) { ui.Collapsed[id] = true }) {
		t.Fatalf("same ui state should be a no-op")
	}
	if !e.DB().UI.Collapsed[id] {
		t.Fatalf("collapsed flag not stored")
	}

	e.UseUser("kim")
	if !e.Reset() {
		t.Fatalf("reset")
	}
	db := e.DB()
	if len(db.Tasks) != 0 || len(db.RootTaskIDs) != 0 || db.CurrentUserID != "me" || len(db.UI.Collapsed) != 0 {
		t.Fatalf("reset should leave a fresh state, got %+v", db)
	}
}
