// Package cache provides content-addressed memoization of voltage-drop
// results. Keys are deterministic fingerprints of the electrically-relevant
// input fields, so structurally equal inputs share one cached result.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/sells-group/voltdrop-cli/internal/model"
)

// ComputeFunc is the kernel-shaped function the cache wraps.
type ComputeFunc func(model.CircuitInput) (*model.VoltageDropResult, error)

// Fingerprint returns a deterministic digest of every electrically-relevant
// field of the input. Identity fields (ID, Name) are excluded: two circuits
// with different names but identical electrical parameters share a key.
// The field order is fixed, so freshly constructed copies hash identically.
func Fingerprint(input model.CircuitInput) string {
	var b strings.Builder

	writeF := func(v float64) {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('|')
	}
	writeS := func(v string) {
		b.WriteString(v)
		b.WriteByte('|')
	}

	writeF(input.SystemVoltage)
	writeF(input.LoadCurrent)
	writeF(input.LoadPowerW)
	writeF(input.PowerFactor)
	writeF(input.ConductorLength)
	writeS(input.ConductorSize)
	writeS(string(input.Material))
	writeS(string(input.ConduitType))
	writeS(string(input.Phase))
	writeF(input.AmbientTempC)
	writeF(float64(input.BundledConductors))

	writeS(string(input.Config.Type))
	writeF(float64(input.Config.Outlets))
	writeF(input.Config.DemandFactor)
	writeF(input.Config.MainBreakerA)
	writeF(input.Config.HP)
	writeF(input.Config.StartingCurrentMult)
	writeF(input.Config.ServiceFactor)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Cache is a fingerprint-keyed result store. Entries are replaced, never
// patched, so reads are safe to interleave with writes. There is no TTL or
// size bound; the entry set is bounded by the distinct circuits a session
// touches.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*model.VoltageDropResult
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*model.VoltageDropResult)}
}

// Get returns the cached result for a structurally equal input, or nil.
func (c *Cache) Get(input model.CircuitInput) *model.VoltageDropResult {
	return c.get(Fingerprint(input))
}

func (c *Cache) get(key string) *model.VoltageDropResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

// Has reports whether a result is cached for the input.
func (c *Cache) Has(input model.CircuitInput) bool {
	return c.Get(input) != nil
}

// Put stores a result under the input's fingerprint, replacing any previous
// entry.
func (c *Cache) Put(input model.CircuitInput, result *model.VoltageDropResult) {
	c.put(Fingerprint(input), result)
}

func (c *Cache) put(key string, result *model.VoltageDropResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
}

// Clear drops every entry. Intended for test isolation and explicit resets.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*model.VoltageDropResult)
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Memoize wraps fn so repeated calls with structurally equal inputs return
// the cached result without re-invoking fn. The first call per distinct
// fingerprint invokes fn exactly once; errors are not cached, so a failing
// input fails again on the next call.
func (c *Cache) Memoize(fn ComputeFunc) ComputeFunc {
	var mu sync.Mutex
	locks := make(map[string]*sync.Mutex)

	return func(input model.CircuitInput) (*model.VoltageDropResult, error) {
		key := Fingerprint(input)

		mu.Lock()
		lock, ok := locks[key]
		if !ok {
			lock = &sync.Mutex{}
			locks[key] = lock
		}
		mu.Unlock()

		// Serialize per fingerprint: concurrent calls with the same input
		// cannot invoke fn twice, while distinct inputs compute in parallel.
		lock.Lock()
		defer lock.Unlock()

		if cached := c.get(key); cached != nil {
			return cached, nil
		}

		result, err := fn(input)
		if err != nil {
			return nil, err
		}
		c.put(key, result)
		return result, nil
	}
}
