package mutate

import (
	"fmt"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/store"
)

// StartTracking makes id the only tracking task. Every other running session is closed first,
// each with its own tracking_stopped record.
func (e *Engine) StartTracking(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok || t.IsDeleted() || t.IsTracking() {
			return Change{}, false
		}
		now = now.UTC()
		for _, other := range db.TrackingTasks() {
			if other.ID != t.ID {
				stopTracking(db, other, now)
			}
		}
		started := now
		t.TrackingStartedAt = &started
		if t.TrackedSeconds == nil {
			var zero int64
			t.TrackedSeconds = &zero
		}
		t.UpdatedAt = now
		db.AddActivity(t.ID, model.ActivityTrackingStarted, now)
		return Change{Op: OpTrackStart, TaskID: t.ID}, true
	})
}

func (e *Engine) StopTracking(id string) bool {
	return e.apply(func(db *store.DB, now time.Time) (Change, bool) {
		t, ok := db.FindTask(id)
		if !ok || !t.IsTracking() {
			return Change{}, false
		}
		stopTracking(db, t, now.UTC())
		return Change{Op: OpTrackStop, TaskID: t.ID}, true
	})
}

// stopTracking closes t's session: accumulates whole elapsed seconds, records a TimeSession when
// any time passed, and logs tracking_stopped.
func stopTracking(db *store.DB, t *model.Task, now time.Time) {
	if t.TrackingStartedAt == nil {
		return
	}
	started := *t.TrackingStartedAt
	elapsed := elapsedSeconds(started, now)
	total := elapsed
	if t.TrackedSeconds != nil {
		total += *t.TrackedSeconds
	}
	t.TrackedSeconds = &total
	t.TrackingStartedAt = nil
	t.UpdatedAt = now
	if elapsed > 0 {
		db.Sessions = append([]model.TimeSession{{
			ID:              store.NewID(),
			TaskID:          t.ID,
			StartedAt:       started,
			EndedAt:         now,
			DurationSeconds: elapsed,
		}}, db.Sessions...)
	}
	db.AddActivity(t.ID, model.ActivityTrackingStopped, now)
}

func elapsedSeconds(from, to time.Time) int64 {
	d := int64(to.Sub(from) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// TrackedSeconds is the live display value: the accumulated total plus the open session, if any.
func TrackedSeconds(t *model.Task, now time.Time) int64 {
	if t == nil {
		return 0
	}
	var base int64
	if t.TrackedSeconds != nil {
		base = *t.TrackedSeconds
	}
	if t.TrackingStartedAt == nil {
		return base
	}
	return base + elapsedSeconds(*t.TrackingStartedAt, now)
}

// FormatDuration renders seconds as "1h 5m", "12m" or "40s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}
