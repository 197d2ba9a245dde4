package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, "", args)
}

func runCLIWithInput(t *testing.T, stdin string, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// cliHarness runs commands against one temp store and decodes the JSON envelope.
type cliHarness struct {
	t   *testing.T
	dir string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	t.Setenv("NEXDO_CONFIG_DIR", t.TempDir())
	t.Setenv("NEXDO_DIR", "")
	t.Setenv("NEXDO_USER", "")
	t.Setenv("NEXDO_FORMAT", "")
	return &cliHarness{t: t, dir: t.TempDir()}
}

func (h *cliHarness) run(args ...string) map[string]any {
	h.t.Helper()
	full := append([]string{"--dir", h.dir}, args...)
	stdout, stderr, err := runCLI(h.t, full)
	if err != nil {
		h.t.Fatalf("command failed: nexdo %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		h.t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	if _, ok := env["data"]; !ok {
		h.t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func (h *cliHarness) fail(args ...string) error {
	h.t.Helper()
	full := append([]string{"--dir", h.dir}, args...)
	_, _, err := runCLI(h.t, full)
	if err == nil {
		h.t.Fatalf("expected nexdo %v to fail", args)
	}
	return err
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", env["data"])
	}
	return m
}

func (h *cliHarness) add(args ...string) string {
	h.t.Helper()
	id, _ := dataMap(h.t, h.run(append([]string{"tasks", "add"}, args...)...))["id"].(string)
	if id == "" {
		h.t.Fatalf("tasks add %v returned no id", args)
	}
	return id
}

func TestCLI_MoveToRootAndTree(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("A")
	b := h.add("B", "--parent", a)
	c := h.add("C", "--parent", b, "--priority", "high")

	moved := dataMap(t, h.run("tasks", "move", c, "--root", "--index", "0"))
	if moved["depth"].(float64) != 0 || moved["parentId"] != nil {
		t.Fatalf("expected C to become a root at depth 0, got %v", moved)
	}

	roots, _ := h.run("tasks", "tree")["data"].([]any)
	if len(roots) != 2 || roots[0].(map[string]any)["id"] != c || roots[1].(map[string]any)["id"] != a {
		t.Fatalf("unexpected roots: %v", roots)
	}

	var ime invalidMoveError
	if err := h.fail("tasks", "move", a, "--parent", b); !errors.As(err, &ime) {
		t.Fatalf("expected invalidMoveError, got %v", err)
	}
	if err := h.fail("tasks", "move", a); err == nil || !strings.Contains(err.Error(), "--parent or --root") {
		t.Fatalf("expected flag error, got %v", err)
	}
}

func TestCLI_CompleteCascadesAndIsIdempotent(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("A")
	b := h.add("B", "--parent", a)

	env := h.run("tasks", "complete", b)
	if env["meta"].(map[string]any)["changed"] != true {
		t.Fatalf("expected first complete to change state")
	}
	if env := h.run("tasks", "complete", b); env["meta"].(map[string]any)["changed"] != false {
		t.Fatalf("expected repeated complete to be a no-op")
	}
	show := dataMap(t, h.run("tasks", "show", a))
	if show["task"].(map[string]any)["statusId"] != "done" {
		t.Fatalf("expected parent to cascade to done, got %v", show["task"])
	}

	h.run("tasks", "reopen", b)
	show = dataMap(t, h.run("tasks", "show", a))
	if show["task"].(map[string]any)["statusId"] == "done" {
		t.Fatalf("expected reopen to revert the done parent")
	}
}

func TestCLI_UpdateFlags(t *testing.T) {
	h := newCLIHarness(t)
	id := h.add("Write", "--due", "2025-05-20", "--repeat", "2w", "--assign", "kim")

	got := dataMap(t, h.run("tasks", "update", id, "--title", "Write docs", "--status", "in progress", "--no-repeat", "--assign", "lee,park"))
	if got["title"] != "Write docs" || got["statusId"] != "in-progress" || got["recurrence"] != nil {
		t.Fatalf("unexpected task after update: %v", got)
	}
	if as := got["assigneeIds"].([]any); len(as) != 2 || as[0] != "lee" {
		t.Fatalf("unexpected assignees: %v", as)
	}

	h.fail("tasks", "update", id, "--priority", "whenever")
	h.fail("tasks", "update", id, "--status", "archived")
	h.fail("tasks", "update", id, "--assign", "ghost")
	h.fail("tasks", "add", "X", "--repeat", "0d")
}

func TestCLI_TrackingCommentsActivity(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("A")
	b := h.add("B")

	h.run("track", "start", a)
	h.run("track", "start", b)
	running, _ := h.run("track", "status")["data"].([]any)
	if len(running) != 1 || running[0].(map[string]any)["taskId"] != b {
		t.Fatalf("expected only B to be tracking, got %v", running)
	}
	stopped := dataMap(t, h.run("track", "stop"))["stopped"].([]any)
	if len(stopped) != 1 || stopped[0] != b {
		t.Fatalf("unexpected stopped list: %v", stopped)
	}

	h.run("comments", "add", a, "--body", "looks good")
	acts, _ := h.run("activity", "list", a, "--limit", "1")["data"].([]any)
	if len(acts) != 1 {
		t.Fatalf("expected one activity entry, got %v", acts)
	}
	first := acts[0].(map[string]any)
	if first["type"] != "comment" || !strings.Contains(first["summary"].(string), "looks good") {
		t.Fatalf("unexpected latest activity: %v", first)
	}
	h.fail("comments", "add", a, "--body", "   ")
}

func TestCLI_UserOverrideDoesNotChangeSavedUser(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("A")

	h.run("--user", "kim", "comments", "add", a, "--body", "hi")
	acts, _ := h.run("activity", "list", a)["data"].([]any)
	if acts[0].(map[string]any)["actorUserId"] != "kim" {
		t.Fatalf("expected kim as actor, got %v", acts[0])
	}
	users := h.run("users", "list")
	if users["meta"].(map[string]any)["currentUserId"] != "me" {
		t.Fatalf("expected saved user to stay me, got %v", users["meta"])
	}
	var nf notFoundError
	if err := h.fail("--user", "ghost", "status"); !errors.As(err, &nf) {
		t.Fatalf("expected notFoundError, got %v", err)
	}
}

func TestCLI_ExportResetImport(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("A")
	h.add("B", "--parent", a)
	backup := filepath.Join(t.TempDir(), "backup.json")

	h.run("data", "export", "--to", backup)

	if _, _, err := runCLIWithInput(t, "n\n", []string{"--dir", h.dir, "data", "reset"}); !errors.Is(err, errAborted) {
		t.Fatalf("expected reset to abort without confirmation, got %v", err)
	}
	h.run("data", "reset", "--yes")
	counts := dataMap(t, h.run("status"))["tasks"].(map[string]any)
	if counts["open"] != nil {
		t.Fatalf("expected no tasks after reset, got %v", counts)
	}

	imported := dataMap(t, h.run("data", "import", backup, "--yes"))
	if imported["tasks"].(float64) != 2 {
		t.Fatalf("expected 2 tasks after import, got %v", imported)
	}

	if err := h.fail("data", "import", filepath.Join(t.TempDir(), "missing.json"), "--yes"); err == nil {
		t.Fatalf("expected import of a missing file to fail")
	}
}

func TestCLI_PurgeAndDeletedView(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("A")
	h.add("B", "--parent", a)

	h.run("tasks", "delete", a)
	deleted, _ := h.run("tasks", "list", "--view", "deleted")["data"].([]any)
	if len(deleted) != 1 || deleted[0].(map[string]any)["id"] != a {
		t.Fatalf("expected only A in the deleted view, got %v", deleted)
	}
	live, _ := h.run("tasks", "list")["data"].([]any)
	if len(live) != 0 {
		t.Fatalf("expected no live tasks, got %v", live)
	}

	if _, _, err := runCLIWithInput(t, "\n", []string{"--dir", h.dir, "tasks", "purge", a}); !errors.Is(err, errAborted) {
		t.Fatalf("expected purge to abort, got %v", err)
	}
	if _, _, err := runCLIWithInput(t, "y\n", []string{"--dir", h.dir, "tasks", "purge", a}); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if err := h.fail("tasks", "show", a); err == nil {
		t.Fatalf("expected purged task to be gone")
	}
}

func TestCLI_ListFiltersAndEDN(t *testing.T) {
	h := newCLIHarness(t)
	h.add("low", "--priority", "low")
	h.add("urgent", "--priority", "p0")
	h.add("done", "--status", "done")

	got, _ := h.run("tasks", "list", "--sort", "priority", "--status", "todo")["data"].([]any)
	if len(got) != 2 || got[0].(map[string]any)["title"] != "urgent" {
		t.Fatalf("unexpected list: %v", got)
	}
	h.fail("tasks", "list", "--view", "someday")

	stdout, _, err := runCLI(t, []string{"--dir", h.dir, "--format", "edn", "status"})
	if err != nil {
		t.Fatalf("status edn: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "{:data {") || !strings.Contains(string(stdout), ":current-user-id \"me\"") {
		t.Fatalf("unexpected edn output: %s", stdout)
	}
}

func TestCLI_DoctorAndPublish(t *testing.T) {
	h := newCLIHarness(t)
	a := h.add("Launch", "--description", "Ship **it**")
	h.add("Notes", "--parent", a)

	env := h.run("doctor", "--fail")
	if env["meta"].(map[string]any)["hasErrors"] != false {
		t.Fatalf("expected a clean tree, got %v", env)
	}

	out := filepath.Join(t.TempDir(), "site")
	res := h.run("publish", "--to", out, "--html")
	if files := res["meta"].(map[string]any)["files"].(float64); files != 6 {
		t.Fatalf("expected 6 files (index + 2 tasks, md and html), got %v", files)
	}
	if err := h.fail("publish", "--to", out); !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite error, got %v", err)
	}
}

func TestCLI_Docs(t *testing.T) {
	h := newCLIHarness(t)

	topics, _ := dataMap(t, h.run("docs"))["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected docs topics")
	}

	stdout, _, err := runCLI(t, []string{"--dir", h.dir, "docs", "drag", "--raw"})
	if err != nil {
		t.Fatalf("docs drag --raw: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "# Drag and drop") {
		t.Fatalf("expected raw markdown, got:\n%s", stdout)
	}

	if err := h.fail("docs", "nope"); !strings.Contains(err.Error(), "unknown docs topic") {
		t.Fatalf("expected unknown topic error, got %v", err)
	}
}

func TestCLI_OverdueViewAndReport(t *testing.T) {
	h := newCLIHarness(t)
	h.run("projects", "add", "Work")
	late := h.add("Late", "--due", "2020-01-01", "--project", "Work", "--estimate", "30")
	h.add("Later", "--due", "tomorrow", "--estimate", "45")
	h.add("Done late", "--due", "2020-01-01", "--status", "done")

	overdue, _ := h.run("tasks", "list", "--view", "overdue")["data"].([]any)
	if len(overdue) != 1 || overdue[0].(map[string]any)["id"] != late {
		t.Fatalf("expected only the open past-due task, got %v", overdue)
	}

	env := h.run("report")
	r := dataMap(t, env)
	if r["estimatedMinutes"].(float64) != 75 {
		t.Fatalf("expected 75 estimated minutes, got %v", r["estimatedMinutes"])
	}
	names := map[string]float64{}
	for _, p := range r["projects"].([]any) {
		pm := p.(map[string]any)
		names[pm["name"].(string)] = pm["estimatedMinutes"].(float64)
	}
	if names["Work"] != 30 || names["Inbox"] != 45 {
		t.Fatalf("unexpected project rollup: %v", names)
	}
	if env["meta"].(map[string]any)["estimated"] != "1h 15m" {
		t.Fatalf("unexpected formatted estimate: %v", env["meta"])
	}
}
