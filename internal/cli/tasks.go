package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/mutate"
	"nexdo/internal/publish"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Task commands",
	}
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app, "complete", "Mark a task (and its subtree) done", false))
	cmd.AddCommand(newTasksCompleteCmd(app, "reopen", "Reopen a done task", true))
	cmd.AddCommand(newTasksToggleCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksRestoreCmd(app))
	cmd.AddCommand(newTasksPurgeCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksTreeCmd(app))
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var (
		parent      string
		project     string
		status      string
		due         string
		description string
		assignees   []string
		labels      []string
		estimate    int
		until       string
		priority    priorityValue
		repeat      recurrenceValue
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return writeErr(cmd, errors.New("missing title"))
			}
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			opts := mutate.AddOptions{
				Priority:    priority.p,
				Description: description,
				Labels:      labels,
			}
			if parent != "" {
				if opts.ParentID, err = db.ResolveTaskID(parent); err != nil {
					return writeErr(cmd, err)
				}
			}
			if project != "" {
				if opts.ProjectID, err = resolveProjectID(db, project); err != nil {
					return writeErr(cmd, err)
				}
			}
			if status != "" {
				probe := &model.Task{ProjectID: opts.ProjectID}
				if opts.StatusID, err = resolveStatusID(db, probe, status); err != nil {
					return writeErr(cmd, err)
				}
			}
			if opts.DueDate, err = normalizeDue(due, ws.Engine.Now()); err != nil {
				return writeErr(cmd, err)
			}
			if opts.AssigneeIDs, err = resolveUserIDs(db, assignees); err != nil {
				return writeErr(cmd, err)
			}
			if estimate > 0 {
				opts.EstimatedMinutes = &estimate
			}
			if repeat.rule != nil {
				rule := *repeat.rule
				if rule.EndDate, err = normalizeDay(until); err != nil {
					return writeErr(cmd, err)
				}
				opts.Recurrence = &rule
			}

			id := ws.Engine.AddTask(title, opts)
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			t, _ := db.FindTask(id)
			return writeOut(cmd, app, map[string]any{
				"data":   t,
				"_hints": []string{"nexdo tasks show " + store.ShortID(id)},
			})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent task id (or unique prefix)")
	cmd.Flags().StringVar(&project, "project", "", "Project id or name")
	cmd.Flags().StringVar(&status, "status", "", "Initial status id")
	cmd.Flags().Var(&priority, "priority", "Priority (urgent|high|medium|low|none)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, RFC3339, today, tomorrow)")
	cmd.Flags().StringVar(&description, "description", "", "Markdown description")
	cmd.Flags().StringArrayVar(&assignees, "assign", nil, "Assignee user id (repeatable)")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Label (repeatable)")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "Estimated minutes")
	cmd.Flags().Var(&repeat, "repeat", "Recurrence (daily|weekly|monthly|<n>d|<n>w|<n>m)")
	cmd.Flags().StringVar(&until, "until", "", "Recurrence end date (YYYY-MM-DD)")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var (
		title       string
		description string
		status      string
		due         string
		project     string
		assignees   []string
		labels      []string
		estimate    int
		until       string
		noRepeat    bool
		priority    priorityValue
		repeat      recurrenceValue
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			t, _ := db.FindTask(id)

			var p mutate.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				v := strings.TrimSpace(title)
				if v == "" {
					return writeErr(cmd, errors.New("title cannot be empty"))
				}
				p.Title = &v
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("project") {
				v := ""
				if strings.TrimSpace(project) != "" {
					if v, err = resolveProjectID(db, project); err != nil {
						return writeErr(cmd, err)
					}
				}
				p.ProjectID = &v
			}
			if flags.Changed("status") {
				probe := *t
				if p.ProjectID != nil {
					probe.ProjectID = *p.ProjectID
				}
				v, err := resolveStatusID(db, &probe, status)
				if err != nil {
					return writeErr(cmd, err)
				}
				p.StatusID = &v
			}
			if priority.set {
				p.Priority = &priority.p
			}
			if flags.Changed("due") {
				v, err := normalizeDue(due, ws.Engine.Now())
				if err != nil {
					return writeErr(cmd, err)
				}
				p.DueDate = &v
			}
			if flags.Changed("assign") {
				ids, err := resolveUserIDs(db, assignees)
				if err != nil {
					return writeErr(cmd, err)
				}
				p.AssigneeIDs = &ids
			}
			if flags.Changed("label") {
				p.Labels = &labels
			}
			if flags.Changed("estimate") {
				p.EstimatedMinutes = &estimate
			}
			switch {
			case noRepeat || (repeat.set && repeat.clear):
				p.ClearRecurrence = true
			case repeat.set:
				rule := *repeat.rule
				if rule.EndDate, err = normalizeDay(until); err != nil {
					return writeErr(cmd, err)
				}
				p.Recurrence = &rule
			case flags.Changed("until") && t.Recurrence != nil:
				rule := *t.Recurrence
				if rule.EndDate, err = normalizeDay(until); err != nil {
					return writeErr(cmd, err)
				}
				p.Recurrence = &rule
			}

			changed := ws.Engine.UpdateTask(id, p)
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeTask(cmd, app, db, id, changed)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New markdown description")
	cmd.Flags().StringVar(&status, "status", "", "Status id")
	cmd.Flags().Var(&priority, "priority", "Priority (urgent|high|medium|low|none)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (empty clears)")
	cmd.Flags().StringVar(&project, "project", "", "Project id or name (empty moves to inbox)")
	cmd.Flags().StringArrayVar(&assignees, "assign", nil, "Assignee user id (repeatable; replaces the list)")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Label (repeatable; replaces the list)")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "Estimated minutes (0 clears)")
	cmd.Flags().Var(&repeat, "repeat", "Recurrence (daily|weekly|monthly|<n>d|<n>w|<n>m|none)")
	cmd.Flags().StringVar(&until, "until", "", "Recurrence end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noRepeat, "no-repeat", false, "Remove the recurrence rule")
	return cmd
}

// newTasksCompleteCmd builds complete (fromDone=false) and reopen (fromDone=true). Both toggle only
// when the task is in the opposite state, so repeating the command is a no-op.
func newTasksCompleteCmd(app *App, use, short string, fromDone bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			t, _ := db.FindTask(id)
			changed := false
			if statusutil.IsDone(t.StatusID) == fromDone {
				changed = ws.Engine.ToggleComplete(id)
			}
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeTask(cmd, app, db, id, changed)
		},
	}
}

func newTasksToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a task between done and open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, app, args[0], (*mutate.Engine).ToggleComplete)
		},
	}
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var (
		parent string
		root   bool
		index  int
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task under a new parent (or to the root list) at an index",
		Long: strings.TrimSpace(`
Move a task and its subtree. The index is counted after the task is taken out of its
current container; out-of-range values clamp to the end. Moving a task under itself or
one of its descendants is rejected.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == (parent != "") {
				return writeErr(cmd, errors.New("exactly one of --parent or --root is required"))
			}
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			parentID := ""
			if !root {
				if parentID, err = db.ResolveTaskID(parent); err != nil {
					return writeErr(cmd, err)
				}
				if db.IsAncestor(id, parentID) {
					return writeErr(cmd, invalidMoveError{taskID: id, parentID: parentID})
				}
			}
			if index < 0 {
				index = len(db.Container(parentID))
			}

			changed := ws.Engine.MoveTask(id, parentID, index)
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeTask(cmd, app, db, id, changed)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "New parent task id")
	cmd.Flags().BoolVar(&root, "root", false, "Move to the root list")
	cmd.Flags().IntVar(&index, "index", -1, "Position within the new container (default: end)")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a task and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, app, args[0], (*mutate.Engine).DeleteTask)
		},
	}
}

func newTasksRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a soft-deleted task and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, app, args[0], (*mutate.Engine).RestoreTask)
		},
	}
}

func newTasksPurgeCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete a task, its subtree, activity and time sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			t, _ := db.FindTask(id)
			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Permanently delete %q and its subtree?", t.Title))
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errAborted)
				}
			}
			changed := ws.Engine.HardDeleteTask(id)
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": id, "purged": changed},
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its children, activity and tracked time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if markdown {
				md, err := publish.RenderTaskMarkdown(db, id, publish.RenderOptions{IncludeActivity: true, Now: ws.Engine.Now()})
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}

			t, _ := db.FindTask(id)
			now := ws.Engine.Now()
			secs := mutate.TrackedSeconds(t, now)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"task":     t,
					"children": db.ChildTasks(id),
					"activity": db.Activities(id),
					"sessions": db.SessionsFor(id),
				},
				"meta": map[string]any{
					"trackedSeconds": secs,
					"tracked":        mutate.FormatDuration(secs),
				},
			})
		},
	}

	cmd.Flags().BoolVar(&markdown, "md", false, "Print the task as Markdown")
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var (
		view       string
		project    string
		statuses   []string
		priorities []string
		assignee   string
		sortBy     string
		useSaved   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (flat) with filters and sorting",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			var tasks []*model.Task
			switch strings.ToLower(strings.TrimSpace(view)) {
			case "", "all":
				tasks = db.VisibleTree(nil)
			case "inbox":
				tasks = db.InboxTasks()
			case "today":
				tasks = db.TodayTasks(ws.Engine.Now())
			case "overdue":
				tasks = db.OverdueTasks(ws.Engine.Now())
			case "tracking":
				tasks = db.TrackingTasks()
			case "deleted":
				// Deleted tasks never pass ApplyQuery.
				return writeOut(cmd, app, map[string]any{
					"data": db.DeletedRootTasks(),
					"meta": map[string]any{"view": "deleted"},
				})
			default:
				return writeErr(cmd, fmt.Errorf("invalid view: %q (expected all|inbox|today|overdue|tracking|deleted)", view))
			}
			if project != "" {
				pid, err := resolveProjectID(db, project)
				if err != nil {
					return writeErr(cmd, err)
				}
				var keep []*model.Task
				for _, t := range tasks {
					if t.ProjectID == pid {
						keep = append(keep, t)
					}
				}
				tasks = keep
			}

			q := store.Query{AssigneeID: strings.TrimSpace(assignee)}
			if useSaved {
				q = store.QueryFromUI(db.UI)
			}
			for _, s := range statuses {
				sid, err := statusutil.NormalizeStatusID(s)
				if err != nil {
					return writeErr(cmd, err)
				}
				q.Statuses = append(q.Statuses, sid)
			}
			for _, s := range priorities {
				p, err := statusutil.NormalizePriority(s)
				if err != nil {
					return writeErr(cmd, err)
				}
				q.Priorities = append(q.Priorities, p)
			}
			if cmd.Flags().Changed("sort") || !useSaved {
				if q.Sort, err = store.ParseSort(sortBy); err != nil {
					return writeErr(cmd, err)
				}
			}
			tasks = store.ApplyQuery(tasks, q)

			return writeOut(cmd, app, map[string]any{
				"data": tasks,
				"meta": map[string]any{"count": len(tasks), "sort": q.Sort},
			})
		},
	}

	cmd.Flags().StringVar(&view, "view", "all", "View (all|inbox|today|overdue|tracking|deleted)")
	cmd.Flags().StringVar(&project, "project", "", "Only tasks in this project (id or name)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Status filter (comma-separated or repeated)")
	cmd.Flags().StringSliceVar(&priorities, "priority", nil, "Priority filter (comma-separated or repeated)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Assignee user id")
	cmd.Flags().StringVar(&sortBy, "sort", "manual", "Sort (manual|due-date|priority|created|alphabetical|assignee)")
	cmd.Flags().BoolVar(&useSaved, "saved", false, "Start from the filters and sort saved by the TUI")
	return cmd
}

type treeNode struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	StatusID string     `json:"statusId"`
	Depth    int        `json:"depth"`
	Children []treeNode `json:"children"`
}

func newTasksTreeCmd(app *App) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the live task tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			var build func(id string) (treeNode, bool)
			build = func(id string) (treeNode, bool) {
				t, ok := db.FindTask(id)
				if !ok || t.IsDeleted() {
					return treeNode{}, false
				}
				n := treeNode{ID: t.ID, Title: t.Title, StatusID: t.StatusID, Depth: t.Depth, Children: []treeNode{}}
				for _, cid := range t.ChildIDs {
					if c, ok := build(cid); ok {
						n.Children = append(n.Children, c)
					}
				}
				return n, true
			}

			ids := db.RootTaskIDs
			if from != "" {
				id, err := db.ResolveTaskID(from)
				if err != nil {
					return writeErr(cmd, err)
				}
				ids = []string{id}
			}
			out := []treeNode{}
			for _, id := range ids {
				if n, ok := build(id); ok {
					out = append(out, n)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Only the subtree rooted at this task")
	return cmd
}

// runTaskOp resolves ref, applies op, saves and prints the task.
func runTaskOp(cmd *cobra.Command, app *App, ref string, op func(e *mutate.Engine, id string) bool) error {
	ws, err := openWorkspace(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer ws.Close()
	db := ws.Engine.DB()

	id, err := db.ResolveTaskID(ref)
	if err != nil {
		return writeErr(cmd, err)
	}
	changed := op(ws.Engine, id)
	if err := ws.saved(); err != nil {
		return writeErr(cmd, err)
	}
	return writeTask(cmd, app, db, id, changed)
}

func writeTask(cmd *cobra.Command, app *App, db *store.DB, id string, changed bool) error {
	t, ok := db.FindTask(id)
	if !ok {
		return writeErr(cmd, errNotFound("task", id))
	}
	return writeOut(cmd, app, map[string]any{
		"data": t,
		"meta": map[string]any{"changed": changed},
	})
}

func resolveProjectID(db *store.DB, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if p, ok := db.FindProject(ref); ok {
		return p.ID, nil
	}
	var matches []string
	for id, p := range db.Projects {
		if strings.EqualFold(p.Name, ref) || strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", errNotFound("project", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous project: %q matches %d projects", ref, len(matches))
	}
}

// resolveStatusID normalizes s and checks it against the status set of t's project.
func resolveStatusID(db *store.DB, t *model.Task, s string) (string, error) {
	sid, err := statusutil.NormalizeStatusID(s)
	if err != nil {
		return "", err
	}
	defs := db.StatusesFor(t)
	if !statusutil.ValidateStatusID(defs, sid) {
		ids := make([]string, 0, len(defs))
		for _, d := range defs {
			ids = append(ids, d.ID)
		}
		return "", fmt.Errorf("invalid status: %q (expected %s)", s, strings.Join(ids, "|"))
	}
	return sid, nil
}

func resolveUserIDs(db *store.DB, refs []string) ([]string, error) {
	var out []string
	for _, r := range refs {
		for _, id := range strings.Split(r, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := db.FindUser(id); !ok {
				return nil, errNotFound("user", id)
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func normalizeDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid date: %q (expected YYYY-MM-DD)", s)
	}
	return s, nil
}
