package store

import (
	"strings"
	"time"

	"nexdo/internal/model"
)

// AddActivity records a new activity for taskID, newest first.
func (db *DB) AddActivity(taskID string, typ model.ActivityType, now time.Time, opts ...ActivityOption) model.Activity {
	a := model.Activity{
		ID:          NewID(),
		TaskID:      taskID,
		Type:        typ,
		ActorUserID: db.actor(),
		CreatedAt:   now.UTC(),
	}
	for _, o := range opts {
		o(&a)
	}
	if db.ActivitiesByTaskID == nil {
		db.ActivitiesByTaskID = map[string][]model.Activity{}
	}
	db.ActivitiesByTaskID[taskID] = append([]model.Activity{a}, db.ActivitiesByTaskID[taskID]...)
	return a
}

type ActivityOption func(*model.Activity)

func WithContent(content string) ActivityOption {
	return func(a *model.Activity) { a.Content = content }
}

func WithStatusChange(from, to string) ActivityOption {
	return func(a *model.Activity) {
		a.FromStatusID = from
		a.ToStatusID = to
	}
}

// Activities returns the log for taskID, most recent first.
func (db *DB) Activities(taskID string) []model.Activity {
	xs := db.ActivitiesByTaskID[strings.TrimSpace(taskID)]
	out := make([]model.Activity, len(xs))
	copy(out, xs)
	return out
}

func (db *DB) ClearActivities(taskID string) {
	delete(db.ActivitiesByTaskID, taskID)
}

func (db *DB) actor() string {
	if id := strings.TrimSpace(db.CurrentUserID); id != "" {
		return id
	}
	return "me"
}
