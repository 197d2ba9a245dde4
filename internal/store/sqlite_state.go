package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nexdo/internal/model"

	_ "modernc.org/sqlite"
)

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL allows a TUI and a CLI invocation to read while the other writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// LoadSQLite loads the full state. A missing database yields a fresh state.
func (s Store) LoadSQLite(ctx context.Context) (*DB, error) {
	if _, err := os.Stat(s.sqlitePath()); errors.Is(err, os.ErrNotExist) {
		return NewDB(), nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	st, err := loadStateFromSQLite(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return st, nil
}

func (s Store) SaveSQLite(ctx context.Context, st *DB) error {
	if st == nil {
		return errors.New("nil db")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rootIDs, _ := json.Marshal(st.RootTaskIDs)
	ui, _ := json.Marshal(st.UI)
	meta := map[string]string{
		"version":         strconv.Itoa(st.Version),
		"current_user_id": strings.TrimSpace(st.CurrentUserID),
		"root_task_ids":   string(rootIDs),
		"ui":              string(ui),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, k, v); err != nil {
			return err
		}
	}

	// Replace-all: the state is small and this keeps every save a consistent snapshot.
	for _, t := range []string{"tasks", "activities", "sessions", "users", "projects"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	nowMs := time.Now().UTC().UnixMilli()

	for _, t := range st.Tasks {
		if t == nil {
			continue
		}
		raw, _ := json.Marshal(t)
		deleted := 0
		if t.DeletedAt != nil {
			deleted = 1
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(
			id, parent_id, project_id, status_id, priority, due_date, deleted, json, updated_at_unixms
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.ParentID, t.ProjectID, t.StatusID, string(t.Priority), t.DueDate, deleted, string(raw), nowMs,
		); err != nil {
			return err
		}
	}
	for taskID, acts := range st.ActivitiesByTaskID {
		for i, a := range acts {
			raw, _ := json.Marshal(a)
			if _, err := tx.ExecContext(ctx, `INSERT INTO activities(id, task_id, seq, type, created_at_unixms, json) VALUES(?, ?, ?, ?, ?, ?)`,
				a.ID, taskID, i, string(a.Type), a.CreatedAt.UTC().UnixMilli(), string(raw)); err != nil {
				return err
			}
		}
	}
	for i, ses := range st.Sessions {
		raw, _ := json.Marshal(ses)
		if _, err := tx.ExecContext(ctx, `INSERT INTO sessions(id, task_id, seq, duration_seconds, json) VALUES(?, ?, ?, ?, ?)`,
			ses.ID, ses.TaskID, i, ses.DurationSeconds, string(raw)); err != nil {
			return err
		}
	}
	for _, u := range st.Users {
		raw, _ := json.Marshal(u)
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(id, json) VALUES(?, ?)`, u.ID, string(raw)); err != nil {
			return err
		}
	}
	for _, p := range st.Projects {
		raw, _ := json.Marshal(p)
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id, name, json, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			p.ID, p.Name, string(raw), nowMs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			status_id TEXT NOT NULL,
			priority TEXT NOT NULL,
			due_date TEXT NOT NULL,
			deleted INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date);`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_task ON activities(task_id, seq);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func loadStateFromSQLite(ctx context.Context, db *sql.DB) (*DB, error) {
	out := NewDB()
	out.Users = map[string]model.User{}

	readMeta := func(k string) string {
		var v string
		_ = db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, k).Scan(&v)
		return strings.TrimSpace(v)
	}
	if v := readMeta("version"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.Version = n
		}
	}
	out.CurrentUserID = readMeta("current_user_id")
	if v := readMeta("root_task_ids"); v != "" {
		if err := json.Unmarshal([]byte(v), &out.RootTaskIDs); err != nil {
			return nil, fmt.Errorf("root_task_ids: %w", err)
		}
	}
	if v := readMeta("ui"); v != "" {
		if err := json.Unmarshal([]byte(v), &out.UI); err != nil {
			return nil, fmt.Errorf("ui: %w", err)
		}
	}

	tasks, err := readJSONRows[model.Task](ctx, db, `SELECT json FROM tasks`)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		t := tasks[i]
		out.Tasks[t.ID] = &t
	}

	acts, err := readJSONRows[model.Activity](ctx, db, `SELECT json FROM activities ORDER BY task_id, seq`)
	if err != nil {
		return nil, err
	}
	for _, a := range acts {
		out.ActivitiesByTaskID[a.TaskID] = append(out.ActivitiesByTaskID[a.TaskID], a)
	}

	if out.Sessions, err = readJSONRows[model.TimeSession](ctx, db, `SELECT json FROM sessions ORDER BY seq`); err != nil {
		return nil, err
	}

	users, err := readJSONRows[model.User](ctx, db, `SELECT json FROM users`)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out.Users[u.ID] = u
	}

	projects, err := readJSONRows[model.Project](ctx, db, `SELECT json FROM projects`)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		out.Projects[p.ID] = p
	}

	out.normalize()
	return out, nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset removes the database files, leaving an empty store dir behind.
func (s Store) Reset() error {
	base := s.sqlitePath()
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reset %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}
