// Package tracker records field-level circuit mutations for audit and
// dirty-state decisions. The log is append-only per circuit id and is never
// replayed to reconstruct state; the circuit provider stays the source of
// truth for current values.
package tracker

import (
	"sync"
	"time"

	"github.com/sells-group/voltdrop-cli/internal/model"
)

// Tracker keeps an append-only change log per circuit id.
type Tracker struct {
	mu      sync.RWMutex
	changes map[string][]model.ChangeRecord
	now     func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		changes: make(map[string][]model.ChangeRecord),
		now:     time.Now,
	}
}

// WithNow sets the timestamp source. For tests.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// TrackChange appends one field mutation to the circuit's log.
func (t *Tracker) TrackChange(circuitID, field string, oldValue, newValue any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changes[circuitID] = append(t.changes[circuitID], model.ChangeRecord{
		CircuitID: circuitID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: t.now(),
	})
}

// History returns the circuit's change records in insertion order. The
// returned slice is a fresh copy on every call; callers may iterate or
// retain it freely.
func (t *Tracker) History(circuitID string) []model.ChangeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	records := t.changes[circuitID]
	out := make([]model.ChangeRecord, len(records))
	copy(out, records)
	return out
}

// IsDirty reports whether the circuit has unflushed changes.
func (t *Tracker) IsDirty(circuitID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.changes[circuitID]) > 0
}

// Clear drops the circuit's log. Called explicitly, e.g. after a successful
// save.
func (t *Tracker) Clear(circuitID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.changes, circuitID)
}
