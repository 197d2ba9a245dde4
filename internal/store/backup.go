package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"nexdo/internal/model"
)

const BundleVersion = 2

var (
	ErrUnsupportedBundleVersion = errors.New("unsupported backup version")
	ErrMissingBundleKeys        = errors.New("missing required keys in backup")
	ErrInvalidBundleTask        = errors.New("invalid task in backup")
)

// Bundle is the portable export format. Version 1 bundles have no time section.
type Bundle struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Tasks      *BundleTasks    `json:"tasks"`
	Projects   *BundleProjects `json:"projects"`
	Activities *BundleActivity `json:"activities"`
	Users      *BundleUsers    `json:"users"`
	UI         *UIState        `json:"ui"`
	Time       *BundleTime     `json:"time,omitempty"`
}

type BundleTasks struct {
	Tasks       map[string]*model.Task `json:"tasks"`
	RootTaskIDs []string               `json:"rootTaskIds"`
}

type BundleProjects struct {
	Projects map[string]model.Project `json:"projects"`
}

type BundleActivity struct {
	ActivitiesByTaskID map[string][]model.Activity `json:"activitiesByTaskId"`
}

type BundleUsers struct {
	Users         map[string]model.User `json:"users"`
	CurrentUserID string                `json:"currentUserId"`
}

type BundleTime struct {
	Sessions []model.TimeSession `json:"sessions"`
}

// ExportBundle snapshots db as a version 2 bundle. The bundle shares no memory with db.
func ExportBundle(db *DB, now time.Time) (*Bundle, error) {
	raw, err := json.Marshal(db)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	var cp DB
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	cp.normalize()
	ui := cp.UI
	return &Bundle{
		Version:    BundleVersion,
		ExportedAt: now.UTC(),
		Tasks:      &BundleTasks{Tasks: cp.Tasks, RootTaskIDs: cp.RootTaskIDs},
		Projects:   &BundleProjects{Projects: cp.Projects},
		Activities: &BundleActivity{ActivitiesByTaskID: cp.ActivitiesByTaskID},
		Users:      &BundleUsers{Users: cp.Users, CurrentUserID: cp.CurrentUserID},
		UI:         &ui,
		Time:       &BundleTime{Sessions: cp.Sessions},
	}, nil
}

// ParseBundle decodes and validates a bundle. It never touches any state.
func ParseBundle(b []byte) (*Bundle, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, errors.New("invalid backup: empty input")
	}
	var probe struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("invalid backup json: %w", err)
	}
	var version int
	if err := json.Unmarshal(probe.Version, &version); err != nil || (version != 1 && version != 2) {
		return nil, ErrUnsupportedBundleVersion
	}

	var bundle Bundle
	if err := json.Unmarshal(b, &bundle); err != nil {
		return nil, fmt.Errorf("invalid backup json: %w", err)
	}
	var missing []string
	if bundle.Tasks == nil {
		missing = append(missing, "tasks")
	}
	if bundle.Projects == nil {
		missing = append(missing, "projects")
	}
	if bundle.Activities == nil {
		missing = append(missing, "activities")
	}
	if bundle.Users == nil {
		missing = append(missing, "users")
	}
	if bundle.UI == nil {
		missing = append(missing, "ui")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingBundleKeys, missing)
	}
	ids := make([]string, 0, len(bundle.Tasks.Tasks))
	for id := range bundle.Tasks.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := bundle.Tasks.Tasks[id]
		if t == nil {
			return nil, fmt.Errorf("%w: %q is null", ErrInvalidBundleTask, id)
		}
		if t.ID != id {
			return nil, fmt.Errorf("%w: %q has id %q", ErrInvalidBundleTask, id, t.ID)
		}
	}
	return &bundle, nil
}

// ApplyBundle replaces db's contents wholesale with the bundle. Root ids that name no task are dropped.
func ApplyBundle(db *DB, b *Bundle) {
	tasks := b.Tasks.Tasks
	if tasks == nil {
		tasks = map[string]*model.Task{}
	}
	roots := []string{}
	for _, id := range b.Tasks.RootTaskIDs {
		if t, ok := tasks[id]; ok && t != nil {
			roots = append(roots, id)
		}
	}

	users := b.Users.Users
	if users == nil {
		users = map[string]model.User{}
	}
	current := b.Users.CurrentUserID
	if _, ok := users[current]; !ok {
		current = firstUserID(users)
	}

	*db = DB{
		Version:            stateVersion,
		CurrentUserID:      current,
		Tasks:              tasks,
		RootTaskIDs:        roots,
		ActivitiesByTaskID: b.Activities.ActivitiesByTaskID,
		Users:              users,
		Projects:           b.Projects.Projects,
		UI:                 *b.UI,
	}
	if b.Version == 2 && b.Time != nil {
		db.Sessions = b.Time.Sessions
	}
	db.normalize()
}

// firstUserID falls back to "me" for an empty user set.
func firstUserID(users map[string]model.User) string {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return "me"
	}
	sort.Strings(ids)
	return ids[0]
}

func WriteBundle(path string, b *Bundle) error {
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return atomicWriteFile(dir, filepath.Base(path)+".*.tmp", path, append(raw, '\n'), 0o644)
}

func ReadBundle(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBundle(raw)
}

// BackupFilename is the default export name, e.g. nexdo-backup-2025-05-20T10-00-00Z.json.
func BackupFilename(now time.Time) string {
	return "nexdo-backup-" + now.UTC().Format("2006-01-02T15-04-05Z") + ".json"
}
