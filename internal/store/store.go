package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
)

const stateVersion = 2

// DB is the whole local state: the task tree plus everything that hangs off it.
type DB struct {
	Version       int    `json:"version"`
	CurrentUserID string `json:"currentUserId,omitempty"`

	Tasks       map[string]*model.Task `json:"tasks"`
	RootTaskIDs []string               `json:"rootTaskIds"`

	// Per-task activity, most recent first.
	ActivitiesByTaskID map[string][]model.Activity `json:"activitiesByTaskId"`
	Sessions           []model.TimeSession         `json:"sessions"`

	Users    map[string]model.User    `json:"users"`
	Projects map[string]model.Project `json:"projects"`
	UI       UIState                  `json:"ui"`
}

// UIState holds view preferences that travel with the data (and with export bundles).
type UIState struct {
	ViewMode         string           `json:"viewMode"`
	Sort             Sort             `json:"taskSort"`
	StatusFilters    []string         `json:"taskStatusFilters"`
	PriorityFilters  []model.Priority `json:"taskPriorityFilters"`
	AssigneeFilter   string           `json:"taskAssigneeFilter,omitempty"`
	Collapsed        map[string]bool  `json:"collapsed,omitempty"`
	SidebarCollapsed bool             `json:"sidebarCollapsed,omitempty"`
}

type Store struct {
	Dir string
}

// NewDB returns an empty state seeded with the default users.
func NewDB() *DB {
	return &DB{
		Version:            stateVersion,
		CurrentUserID:      "me",
		Tasks:              map[string]*model.Task{},
		RootTaskIDs:        []string{},
		ActivitiesByTaskID: map[string][]model.Activity{},
		Sessions:           []model.TimeSession{},
		Users:              DefaultUsers(),
		Projects:           map[string]model.Project{},
		UI:                 DefaultUIState(),
	}
}

func DefaultUsers() map[string]model.User {
	return map[string]model.User{
		"me":   {ID: "me", Name: "Me", Email: "me@example.com"},
		"kim":  {ID: "kim", Name: "Kim", Email: "kim@example.com"},
		"park": {ID: "park", Name: "Park", Email: "park@example.com"},
		"lee":  {ID: "lee", Name: "Lee", Email: "lee@example.com"},
	}
}

func DefaultUIState() UIState {
	return UIState{
		ViewMode:        "list",
		Sort:            SortManual,
		StatusFilters:   []string{},
		PriorityFilters: []model.Priority{},
	}
}

// normalize fills nil collections so callers never have to nil-check.
func (db *DB) normalize() {
	if db.Version == 0 {
		db.Version = stateVersion
	}
	if db.Tasks == nil {
		db.Tasks = map[string]*model.Task{}
	}
	if db.RootTaskIDs == nil {
		db.RootTaskIDs = []string{}
	}
	if db.ActivitiesByTaskID == nil {
		db.ActivitiesByTaskID = map[string][]model.Activity{}
	}
	if db.Sessions == nil {
		db.Sessions = []model.TimeSession{}
	}
	if db.Users == nil {
		db.Users = map[string]model.User{}
	}
	if db.Projects == nil {
		db.Projects = map[string]model.Project{}
	}
	if db.UI.ViewMode == "" {
		db.UI.ViewMode = "list"
	}
	if db.UI.Sort == "" {
		db.UI.Sort = SortManual
	}
	for id, t := range db.Tasks {
		if t == nil {
			delete(db.Tasks, id)
			continue
		}
		if t.ChildIDs == nil {
			t.ChildIDs = []string{}
		}
		if t.AssigneeIDs == nil {
			t.AssigneeIDs = []string{}
		}
		if t.Labels == nil {
			t.Labels = []string{}
		}
		if t.Priority == "" {
			t.Priority = model.PriorityNone
		}
	}
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".nexdo")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir resolves the store dir: a project-local .nexdo if one exists above cwd,
// otherwise the per-user data dir.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err == nil {
		if found, ok := DiscoverDir(cwd); ok {
			return found, nil
		}
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(filepath.Clean(s.Dir), "nexdo.sqlite")
}

func (s Store) Load() (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s.LoadSQLite(context.Background())
}

func (s Store) Save(db *DB) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.SaveSQLite(context.Background(), db)
}

func (db *DB) FindTask(id string) (*model.Task, bool) {
	if db == nil {
		return nil, false
	}
	t, ok := db.Tasks[strings.TrimSpace(id)]
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

func (db *DB) FindUser(id string) (model.User, bool) {
	u, ok := db.Users[strings.TrimSpace(id)]
	return u, ok
}

func (db *DB) FindProject(id string) (model.Project, bool) {
	p, ok := db.Projects[strings.TrimSpace(id)]
	return p, ok
}

// StatusesFor returns the status set that applies to a task (its project's, or the default set).
func (db *DB) StatusesFor(t *model.Task) []model.Status {
	if db != nil && t != nil && t.ProjectID != "" {
		if p, ok := db.Projects[t.ProjectID]; ok && len(p.Statuses) > 0 {
			return p.Statuses
		}
	}
	return statusutil.DefaultStatuses()
}

// Container returns the ordered id list that holds a task: its parent's childIds or the root order.
func (db *DB) Container(parentID string) []string {
	if parentID == "" {
		return db.RootTaskIDs
	}
	if p, ok := db.FindTask(parentID); ok {
		return p.ChildIDs
	}
	return nil
}

// IsAncestor reports whether ancestorID appears on the parent chain of id (or equals it).
func (db *DB) IsAncestor(ancestorID, id string) bool {
	seen := map[string]bool{}
	cur := id
	for cur != "" && !seen[cur] {
		if cur == ancestorID {
			return true
		}
		seen[cur] = true
		t, ok := db.FindTask(cur)
		if !ok {
			return false
		}
		cur = t.ParentID
	}
	return false
}

// Walk visits live and deleted tasks in tree pre-order, roots first.
func (db *DB) Walk(fn func(t *model.Task)) {
	seen := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		t, ok := db.FindTask(id)
		if !ok {
			return
		}
		fn(t)
		for _, cid := range t.ChildIDs {
			walk(cid)
		}
	}
	for _, id := range db.RootTaskIDs {
		walk(id)
	}
}
