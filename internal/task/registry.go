// Package task keeps the in-memory registry of background work started by
// the debug feature. Records are numbered from 1 for the life of the process
// and vanish on restart.
package task

import (
	"context"
	"sync"

	"github.com/majorcontext/aniflax/internal/command"
)

// Record is one registered unit of work.
type Record struct {
	Index      int
	Invocation command.Invocation
	// Handle cancels the work. Nil when the work has not started or has
	// already finished.
	Handle context.CancelFunc
}

// cancel asks the work to stop. Work past its own cancellation checks keeps
// running to completion.
func (r *Record) cancel() {
	if r.Handle != nil {
		r.Handle()
	}
}

// Registry is an ordered collection of records. Handlers run on their own
// goroutines, so access is serialized with a mutex.
type Registry struct {
	mu      sync.Mutex
	records []*Record
	next    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{next: 1}
}

// Add registers work for inv and returns its record.
func (r *Registry) Add(inv command.Invocation, handle context.CancelFunc) Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &Record{Index: r.next, Invocation: inv, Handle: handle}
	r.next++
	r.records = append(r.records, rec)
	return *rec
}

// List returns a copy of every record in insertion order.
func (r *Registry) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	for i, rec := range r.records {
		out[i] = *rec
	}
	return out
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Remove drops a record without cancelling it. It reports whether the index
// was registered.
func (r *Registry) Remove(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.removeLocked(index)
	return ok
}

// Cancel removes the record with the given index and cancels its work.
func (r *Registry) Cancel(index int) (Record, bool) {
	r.mu.Lock()
	rec, ok := r.removeLocked(index)
	r.mu.Unlock()
	if !ok {
		return Record{}, false
	}
	rec.cancel()
	return *rec, true
}

// CancelLatest removes and cancels the most recently added record.
func (r *Registry) CancelLatest() (Record, bool) {
	r.mu.Lock()
	if len(r.records) == 0 {
		r.mu.Unlock()
		return Record{}, false
	}
	rec := r.records[len(r.records)-1]
	r.records = r.records[:len(r.records)-1]
	r.mu.Unlock()

	rec.cancel()
	return *rec, true
}

// CancelAll cancels every record, empties the registry, and returns how many
// records there were.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	records := r.records
	r.records = nil
	r.mu.Unlock()

	for _, rec := range records {
		rec.cancel()
	}
	return len(records)
}

func (r *Registry) removeLocked(index int) (*Record, bool) {
	for i, rec := range r.records {
		if rec.Index == index {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return rec, true
		}
	}
	return nil, false
}

// Submit runs fn as registered work. fn receives a context that is cancelled
// when the record is cancelled or ctx ends; the record is removed when fn
// returns, whichever way it returns.
func (r *Registry) Submit(ctx context.Context, inv command.Invocation, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rec := r.Add(inv, cancel)
	defer r.Remove(rec.Index)

	return fn(ctx)
}
