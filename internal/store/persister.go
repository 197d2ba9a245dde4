package store

import (
	"context"
	"log"
	"sync"
)

// Persister saves a live DB after each change. Saves are fire-and-forget from the caller's
// point of view: a failure is logged and kept for Err, and the in-memory state stays authoritative.
type Persister struct {
	Store Store
	DB    *DB

	mu  sync.Mutex
	err error
}

func NewPersister(s Store, db *DB) *Persister {
	return &Persister{Store: s, DB: db}
}

// Flush writes the current state. Meant to be registered as a change observer.
func (p *Persister) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Store.SaveSQLite(context.Background(), p.DB); err != nil {
		log.Printf("nexdo: save %s: %v", p.Store.Dir, err)
		p.err = err
		return
	}
	p.err = nil
}

// Err returns the error from the most recent save, if it failed.
func (p *Persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
