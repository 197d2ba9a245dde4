package mutate

import (
	"reflect"
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"
	"nexdo/internal/store"
)

// AddProject creates a project with the default status set and returns its id ("" for a blank name).
func (e *Engine) AddProject(name, color string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.TrimSpace(color) == "" {
		color = "blue"
	}
	var id string
	e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		now = now.UTC()
		id = store.NewID()
		db.Projects[id] = model.Project{
			ID:        id,
			Name:      name,
			Color:     strings.TrimSpace(color),
			Statuses:  statusutil.DefaultStatuses(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return Change{Op: OpProjectAdd}, true
	})
	return id
}

func (e *Engine) RenameProject(id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		p, ok := db.FindProject(id)
		if !ok || p.Name == name {
			return Change{}, false
		}
		p.Name = name
		p.UpdatedAt = now.UTC()
		db.Projects[p.ID] = p
		return Change{Op: OpProjectUpdate}, true
	})
}

// DeleteProject removes the project and moves its tasks to the inbox (no project).
func (e *Engine) DeleteProject(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		p, ok := db.FindProject(id)
		if !ok {
			return Change{}, false
		}
		delete(db.Projects, p.ID)
		for _, t := range db.Tasks {
			if t.ProjectID == p.ID {
				t.ProjectID = ""
				t.UpdatedAt = now.UTC()
			}
		}
		return Change{Op: OpProjectDelete}, true
	})
}

func (e *Engine) AddUser(id, name, email string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	return e.apply(func(db *store.DB, _ time.Time) (Change, bool) {
		if _, exists := db.Users[id]; exists {
			return Change{}, false
		}
		if strings.TrimSpace(name) == "" {
			name = id
		}
		db.Users[id] = model.User{ID: id, Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
		return Change{Op: OpUserAdd}, true
	})
}

// UseUser sets the acting user for future activity records.
func (e *Engine) UseUser(id string) bool {
	return e.apply(func(db *store.DB, _ time.Time) (Change, bool) {
		u, ok := db.FindUser(id)
		if !ok || db.CurrentUserID == u.ID {
			return Change{}, false
		}
		db.CurrentUserID = u.ID
		return Change{Op: OpUserUse}, true
	})
}

// Import replaces the whole state with a validated bundle.
func (e *Engine) Import(b *store.Bundle) bool {
	if b == nil {
		return false
	}
	return e.apply(func(db *store.DB, _ time.Time) (Change, bool) {
		store.ApplyBundle(db, b)
		return Change{Op: OpImport}, true
	})
}

// Reset replaces the whole state with a fresh, empty one.
func (e *Engine) Reset() bool {
	return e.apply(func(db *store.DB, _ time.Time) (Change, bool) {
		*db = *store.NewDB()
		return Change{Op: OpReset}, true
	})
}

// SetUI applies fn to a copy of the saved view preferences and commits the result if it differs.
func (e *Engine) SetUI(fn func(ui *store.UIState)) bool {
	return e.apply(func(db *store.DB, _ time.Time) (Change, bool) {
		next := db.UI
		next.StatusFilters = append([]string(nil), db.UI.StatusFilters...)
		next.PriorityFilters = append([]model.Priority(nil), db.UI.PriorityFilters...)
		next.Collapsed = make(map[string]bool, len(db.UI.Collapsed))
		for k, v := range db.UI.Collapsed {
			if v {
				next.Collapsed[k] = true
			}
		}
		fn(&next)
		if reflect.DeepEqual(normalizeUI(next), normalizeUI(db.UI)) {
			return Change{}, false
		}
		db.UI = next
		return Change{Op: OpUI}, true
	})
}

func normalizeUI(ui store.UIState) store.UIState {
	if len(ui.StatusFilters) == 0 {
		ui.StatusFilters = nil
	}
	if len(ui.PriorityFilters) == 0 {
		ui.PriorityFilters = nil
	}
	collapsed := map[string]bool{}
	for k, v := range ui.Collapsed {
		if v {
			collapsed[k] = true
		}
	}
	ui.Collapsed = collapsed
	return ui
}
