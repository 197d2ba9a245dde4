package mutate

import (
	"sync"
	"time"

	"nexdo/internal/store"
)

type Op string

const (
	OpAdd           Op = "task.add"
	OpUpdate        Op = "task.update"
	OpComplete      Op = "task.complete"
	OpReopen        Op = "task.reopen"
	OpMove          Op = "task.move"
	OpDelete        Op = "task.delete"
	OpRestore       Op = "task.restore"
	OpHardDelete    Op = "task.purge"
	OpComment       Op = "task.comment"
	OpTrackStart    Op = "track.start"
	OpTrackStop     Op = "track.stop"
	OpProjectAdd    Op = "project.add"
	OpProjectUpdate Op = "project.update"
	OpProjectDelete Op = "project.delete"
	OpUserAdd       Op = "user.add"
	OpUserUse       Op = "user.use"
	OpImport        Op = "data.import"
	OpReset         Op = "data.reset"
	OpUI            Op = "ui.update"
)

// Change describes one committed mutation.
type Change struct {
	Op     Op
	TaskID string
}

// Engine owns a DB and applies every mutation to it as one uninterrupted step.
//
// Mutations never fail: a call on a missing id or one that would break the tree is a no-op,
// reported through its bool (or empty id) result. Observers are notified once per mutation that
// changed something, after the change is complete and while the engine is still locked, so an
// observer must not call back into the engine.
type Engine struct {
	mu        sync.Mutex
	db        *store.DB
	now       func() time.Time
	observers []observer
	nextObsID int
}

type observer struct {
	id int
	fn func(Change)
}

type Option func(*Engine)

// WithClock replaces time.Now, for tests and replays.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(db *store.DB, opts ...Option) *Engine {
	if db == nil {
		db = store.NewDB()
	}
	e := &Engine{db: db, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// View runs fn with the engine locked. fn must only read.
func (e *Engine) View(fn func(db *store.DB)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.db)
}

// DB returns the underlying state. Callers that may race with mutations should use View.
func (e *Engine) DB() *store.DB { return e.db }

func (e *Engine) Now() time.Time { return e.now() }

// Subscribe registers fn for change notifications and returns a func that removes it.
func (e *Engine) Subscribe(fn func(Change)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextObsID++
	id := e.nextObsID
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

// apply runs one mutation under the lock and publishes its change if it reported one.
func (e *Engine) apply(fn func(db *store.DB, now time.Time) (Change, bool)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, changed := fn(e.db, e.now())
	if !changed {
		return false
	}
	for _, o := range e.observers {
		o.fn(ch)
	}
	return true
}
