package mutate

import (
	"testing"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/store"
)

// clock is a settable test clock.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine() (*Engine, *clock) {
	c := &clock{t: time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)}
	return NewEngine(store.NewDB(), WithClock(c.now)), c
}

func task(e *Engine, id string) *model.Task {
	t, _ := e.DB().FindTask(id)
	return t
}

func mustInvariants(t *testing.T, e *Engine) {
	t.Helper()
	if r := store.CheckInvariants(e.DB()); r.HasErrors() {
		t.Fatalf("invariants broken: %+v", r.Issues)
	}
}

func activityTypes(e *Engine, id string) []model.ActivityType {
	var out []model.ActivityType
	for _, a := range e.DB().Activities(id) {
		out = append(out, a.Type)
	}
	return out
}

func countType(e *Engine, id string, typ model.ActivityType) int {
	n := 0
	for _, a := range e.DB().Activities(id) {
		if a.Type == typ {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }
