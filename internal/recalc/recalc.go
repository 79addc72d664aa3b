// Package recalc is the reactive core: it accepts recalculation requests by
// circuit id, debounces bursts so only the freshest snapshot is ever
// computed, resolves circuit data through an injected provider, runs the
// cache-wrapped kernel, and fans completion events out to listeners.
package recalc

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/voltdrop-cli/internal/cache"
	"github.com/sells-group/voltdrop-cli/internal/model"
)

// DefaultDebounce is the coalescing window applied when Options.Debounce is
// zero.
const DefaultDebounce = 300 * time.Millisecond

// Provider resolves the current snapshot of a circuit. It must return the
// live value, not a cached one; the recalculator assumes the call is cheap
// and synchronous. The second return is false when the id is unknown.
type Provider func(circuitID string) (model.CircuitInput, bool)

// Listener receives every emitted recalculation event; listeners filter by
// circuit id themselves.
type Listener func(model.RecalculationEvent)

// CircuitNotFoundError reports that the provider had no circuit for a
// requested id. It is surfaced in the event's Errors map, never thrown at
// the caller of Request.
type CircuitNotFoundError struct {
	CircuitID string
}

func (e *CircuitNotFoundError) Error() string {
	return fmt.Sprintf("recalc: circuit %q not found", e.CircuitID)
}

// Options configures a Recalculator.
type Options struct {
	Debounce time.Duration
	Disabled bool
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

type registration struct {
	id int
	fn Listener
}

// Recalculator schedules debounced recalculations per circuit id. All
// dependencies are constructor-injected so tests can run isolated instances;
// there is no process-wide state.
type Recalculator struct {
	provider Provider
	compute  cache.ComputeFunc
	debounce time.Duration

	mu      sync.Mutex // guards timers, enabled, gen
	timers  map[string]pendingTimer
	enabled bool
	gen     uint64

	// inflight serializes fires per circuit id so at most one computation
	// is ever running for a given circuit.
	inflightMu sync.Mutex
	inflight   map[string]*sync.Mutex

	listenerMu sync.Mutex
	listeners  []registration
	nextID     int
}

// New creates a Recalculator around a circuit provider and a kernel-shaped
// compute function (typically the cache-wrapped kernel).
func New(provider Provider, compute cache.ComputeFunc, opts Options) *Recalculator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Recalculator{
		provider: provider,
		compute:  compute,
		debounce: debounce,
		timers:   make(map[string]pendingTimer),
		enabled:  !opts.Disabled,
		inflight: make(map[string]*sync.Mutex),
	}
}

// Request arms (or re-arms) the debounce timer for a circuit id. A new
// request before the timer fires cancels and restarts it: only the freshest
// snapshot at fire time is computed, intermediate values are intentionally
// dropped. While the recalculator is disabled, requests are accepted but no
// timer is armed, and re-enabling does not retroactively fire them.
func (r *Recalculator) Request(circuitID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}

	if p, ok := r.timers[circuitID]; ok {
		p.timer.Stop()
	}

	r.gen++
	gen := r.gen
	timer := time.AfterFunc(r.debounce, func() {
		r.fire(circuitID, gen)
	})
	r.timers[circuitID] = pendingTimer{timer: timer, gen: gen}
}

// ClearPending cancels every armed timer without firing it. Computations
// already past the provider-resolve step are not cancelled and will emit
// normally.
func (r *Recalculator) ClearPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearPendingLocked()
}

func (r *Recalculator) clearPendingLocked() {
	for id, p := range r.timers {
		p.timer.Stop()
		delete(r.timers, id)
	}
}

// SetEnabled flips the global scheduling switch. Disabling also cancels any
// armed timers; pending work does not survive a disable/enable cycle.
func (r *Recalculator) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
	if !enabled {
		r.clearPendingLocked()
	}
}

// Enabled reports whether scheduling is currently active.
func (r *Recalculator) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Pending returns the number of armed debounce timers.
func (r *Recalculator) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// AddListener registers a listener and returns its unsubscribe function.
// Listeners are invoked synchronously, in registration order, for every
// emitted event. Unsubscribe removes exactly that registration and is
// idempotent.
func (r *Recalculator) AddListener(fn Listener) func() {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()

	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, registration{id: id, fn: fn})

	return func() {
		r.listenerMu.Lock()
		defer r.listenerMu.Unlock()
		for i, reg := range r.listeners {
			if reg.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// fire runs when a debounce timer elapses. It resolves the current snapshot,
// computes, and emits one event. A kernel failure is caught and surfaced in
// the event's Errors map; it never escapes and never affects other circuits.
func (r *Recalculator) fire(circuitID string, gen uint64) {
	lock := r.inflightLock(circuitID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	if p, ok := r.timers[circuitID]; ok && p.gen == gen {
		delete(r.timers, circuitID)
	}
	r.mu.Unlock()

	event := model.RecalculationEvent{
		CircuitIDs: map[string]struct{}{circuitID: {}},
		Completed:  true,
		Results:    make(map[string]*model.VoltageDropResult),
		Errors:     make(map[string]error),
	}

	input, ok := r.provider(circuitID)
	if !ok {
		event.Errors[circuitID] = &CircuitNotFoundError{CircuitID: circuitID}
		zap.L().Warn("recalc: circuit not found", zap.String("circuit_id", circuitID))
	} else if result, err := r.compute(input); err != nil {
		event.Errors[circuitID] = err
		zap.L().Warn("recalc: computation failed",
			zap.String("circuit_id", circuitID),
			zap.Error(err),
		)
	} else {
		event.Results[circuitID] = result
		zap.L().Debug("recalc: computation complete",
			zap.String("circuit_id", circuitID),
			zap.Float64("drop_percent", result.DropPercent),
			zap.String("compliance", string(result.Compliance)),
		)
	}

	r.emit(event)
}

func (r *Recalculator) inflightLock(circuitID string) *sync.Mutex {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	lock, ok := r.inflight[circuitID]
	if !ok {
		lock = &sync.Mutex{}
		r.inflight[circuitID] = lock
	}
	return lock
}

// emit notifies a snapshot of the listener slice, so listeners that
// subscribe or unsubscribe during an emission are neither skipped nor
// double-invoked.
func (r *Recalculator) emit(event model.RecalculationEvent) {
	r.listenerMu.Lock()
	snapshot := make([]registration, len(r.listeners))
	copy(snapshot, r.listeners)
	r.listenerMu.Unlock()

	for _, reg := range snapshot {
		reg.fn(event)
	}
}
