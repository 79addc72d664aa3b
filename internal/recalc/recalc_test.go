package recalc

import (
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/voltdrop-cli/internal/cache"
	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/model"
)

const testDebounce = 20 * time.Millisecond

// circuitStore is a mutable provider backing for tests.
type circuitStore struct {
	mu       sync.Mutex
	circuits map[string]model.CircuitInput
	resolved int
}

func newCircuitStore() *circuitStore {
	return &circuitStore{circuits: make(map[string]model.CircuitInput)}
}

func (s *circuitStore) set(in model.CircuitInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuits[in.ID] = in
}

func (s *circuitStore) provider(circuitID string) (model.CircuitInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved++
	in, ok := s.circuits[circuitID]
	return in, ok
}

func (s *circuitStore) resolveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// eventSink collects emitted events.
type eventSink struct {
	mu     sync.Mutex
	events []model.RecalculationEvent
}

func (s *eventSink) listener(e model.RecalculationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *eventSink) all() []model.RecalculationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RecalculationEvent, len(s.events))
	copy(out, s.events)
	return out
}

func testCircuit(id string) model.CircuitInput {
	return model.CircuitInput{
		ID:              id,
		SystemVoltage:   230,
		LoadCurrent:     20,
		ConductorLength: 50,
		ConductorSize:   "12 AWG",
		Material:        model.MaterialCopper,
		Phase:           model.PhaseSingle,
		Config:          model.CircuitConfig{Type: model.CircuitBranch},
	}
}

func newTestRecalculator(store *circuitStore) (*Recalculator, *eventSink) {
	c := cache.New()
	r := New(store.provider, c.Memoize(calc.Compute), Options{Debounce: testDebounce})
	sink := &eventSink{}
	r.AddListener(sink.listener)
	return r, sink
}

func TestRequest_DebounceCoalescing(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))
	r, sink := newTestRecalculator(store)
	defer r.ClearPending()

	for range 10 {
		r.Request("ckt-1")
	}

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	// One fired computation: the provider was resolved exactly once, and no
	// further events trickle in.
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, store.resolveCount())

	event := sink.all()[0]
	assert.True(t, event.Completed)
	assert.Contains(t, event.CircuitIDs, "ckt-1")
	require.Contains(t, event.Results, "ckt-1")
	assert.Empty(t, event.Errors)
	assert.Equal(t, model.Compliant, event.Results["ckt-1"].Compliance)
}

func TestRequest_UsesFreshestSnapshot(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))
	r, sink := newTestRecalculator(store)
	defer r.ClearPending()

	r.Request("ckt-1")

	// Mutate the circuit before the debounce window closes; the fired
	// computation must see the new value, not the one at request time.
	updated := testCircuit("ckt-1")
	updated.ConductorLength = 200
	updated.ConductorSize = "14 AWG"
	store.set(updated)
	r.Request("ckt-1")

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	result := sink.all()[0].Results["ckt-1"]
	require.NotNil(t, result)
	assert.Equal(t, model.NonCompliant, result.Compliance)
}

func TestRequest_CircuitNotFound(t *testing.T) {
	store := newCircuitStore()
	r, sink := newTestRecalculator(store)
	defer r.ClearPending()

	r.Request("ghost")

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	event := sink.all()[0]
	assert.True(t, event.Completed)
	assert.Empty(t, event.Results)
	require.Contains(t, event.Errors, "ghost")

	var nfe *CircuitNotFoundError
	require.ErrorAs(t, event.Errors["ghost"], &nfe)
	assert.Equal(t, "ghost", nfe.CircuitID)
}

func TestRequest_ComputeFailureIsolated(t *testing.T) {
	store := newCircuitStore()
	good := testCircuit("good")
	store.set(good)
	bad := testCircuit("bad")
	bad.SystemVoltage = -1 // fails kernel validation
	store.set(bad)

	r, sink := newTestRecalculator(store)
	defer r.ClearPending()

	r.Request("good")
	r.Request("bad")

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	var goodResults, badErrors int
	for _, e := range sink.all() {
		if _, ok := e.Results["good"]; ok {
			goodResults++
		}
		if err, ok := e.Errors["bad"]; ok {
			badErrors++
			var verr *calc.ValidationError
			assert.ErrorAs(t, err, &verr)
		}
	}
	assert.Equal(t, 1, goodResults, "the failing circuit must not affect the good one")
	assert.Equal(t, 1, badErrors)
}

func TestRequest_IndependentCircuits(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("a"))
	store.set(testCircuit("b"))
	r, sink := newTestRecalculator(store)
	defer r.ClearPending()

	r.Request("a")
	r.Request("b")

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	ids := make(map[string]bool)
	for _, e := range sink.all() {
		for id := range e.CircuitIDs {
			ids[id] = true
		}
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["b"])
}

func TestSetEnabled_GatesScheduling(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))
	r, sink := newTestRecalculator(store)
	defer r.ClearPending()

	r.SetEnabled(false)
	assert.False(t, r.Enabled())

	r.Request("ckt-1")
	assert.Equal(t, 0, r.Pending(), "no timer armed while disabled")

	// Re-enabling does not retroactively fire accepted-but-unscheduled requests.
	r.SetEnabled(true)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, sink.count())

	// New requests after re-enable work normally.
	r.Request("ckt-1")
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDisable_CancelsArmedTimers(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))
	r, sink := newTestRecalculator(store)

	r.Request("ckt-1")
	require.Equal(t, 1, r.Pending())

	r.SetEnabled(false)
	assert.Equal(t, 0, r.Pending())

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, sink.count())
}

func TestClearPending(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("a"))
	store.set(testCircuit("b"))
	r, sink := newTestRecalculator(store)

	r.Request("a")
	r.Request("b")
	require.Equal(t, 2, r.Pending())

	r.ClearPending()
	assert.Equal(t, 0, r.Pending())

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, sink.count())
}

func TestAddListener_OrderAndUnsubscribe(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))

	c := cache.New()
	r := New(store.provider, c.Memoize(calc.Compute), Options{Debounce: testDebounce})
	defer r.ClearPending()

	var mu sync.Mutex
	var order []string

	unsubA := r.AddListener(func(model.RecalculationEvent) {
		mu.Lock()
		order = append(order, "a")
		mu.Unlock()
	})
	r.AddListener(func(model.RecalculationEvent) {
		mu.Lock()
		order = append(order, "b")
		mu.Unlock()
	})

	r.Request("ckt-1")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a", "b"}, order, "listeners run in registration order")
	order = nil
	mu.Unlock()

	// Unsubscribe is exact and idempotent.
	unsubA()
	unsubA()

	r.Request("ckt-1")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"b"}, order)
	mu.Unlock()
}

func TestEmit_UnsubscribeDuringEmission(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))

	c := cache.New()
	r := New(store.provider, c.Memoize(calc.Compute), Options{Debounce: testDebounce})
	defer r.ClearPending()

	var mu sync.Mutex
	var calls []string
	var unsubB func()

	r.AddListener(func(model.RecalculationEvent) {
		mu.Lock()
		calls = append(calls, "a")
		mu.Unlock()
		unsubB() // removes b mid-emission; b was already snapshotted for this event
	})
	unsubB = r.AddListener(func(model.RecalculationEvent) {
		mu.Lock()
		calls = append(calls, "b")
		mu.Unlock()
	})

	r.Request("ckt-1")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a", "b"}, calls, "snapshot-then-iterate: b still sees the in-flight event")
	mu.Unlock()

	// The next emission no longer includes b.
	r.Request("ckt-1")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a", "b", "a"}, calls)
	mu.Unlock()
}

func TestRequest_ResultsComeFromCache(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))

	c := cache.New()
	kernelCalls := 0
	var mu sync.Mutex
	compute := c.Memoize(func(in model.CircuitInput) (*model.VoltageDropResult, error) {
		mu.Lock()
		kernelCalls++
		mu.Unlock()
		return calc.Compute(in)
	})

	r := New(store.provider, compute, Options{Debounce: testDebounce})
	defer r.ClearPending()
	sink := &eventSink{}
	r.AddListener(sink.listener)

	r.Request("ckt-1")
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	// Same snapshot again: the cache answers, the kernel is not re-invoked.
	r.Request("ckt-1")
	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, kernelCalls)
	mu.Unlock()
	assert.Equal(t, 1, c.Size())
}

func TestNew_DefaultDebounce(t *testing.T) {
	r := New(func(string) (model.CircuitInput, bool) { return model.CircuitInput{}, false }, nil, Options{})
	assert.Equal(t, DefaultDebounce, r.debounce)
	assert.True(t, r.Enabled())

	r = New(func(string) (model.CircuitInput, bool) { return model.CircuitInput{}, false }, nil, Options{Disabled: true})
	assert.False(t, r.Enabled())
}

func TestRequest_ErrorEventStillEmitted(t *testing.T) {
	store := newCircuitStore()
	store.set(testCircuit("ckt-1"))

	failing := func(model.CircuitInput) (*model.VoltageDropResult, error) {
		return nil, eris.New("kernel exploded")
	}
	r := New(store.provider, failing, Options{Debounce: testDebounce})
	defer r.ClearPending()
	sink := &eventSink{}
	r.AddListener(sink.listener)

	r.Request("ckt-1")
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	event := sink.all()[0]
	require.Contains(t, event.Errors, "ckt-1")
	assert.NotContains(t, event.Results, "ckt-1")
}
