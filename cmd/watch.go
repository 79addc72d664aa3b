package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voltdrop-cli/internal/cache"
	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/model"
	"github.com/sells-group/voltdrop-cli/internal/recalc"
	"github.com/sells-group/voltdrop-cli/internal/tracker"
)

var watchCmd = &cobra.Command{
	Use:   "watch <circuits.yaml>",
	Short: "Watch a circuits file and recompute on change",
	Long:  "Recomputes affected circuits whenever the file changes. Rapid edits are coalesced, so saving five times in a row produces one recalculation per changed circuit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, args[0])
	},
}

func runWatch(ctx context.Context, path string) error {
	circuits, err := loadCircuitsFile(path)
	if err != nil {
		return err
	}

	limits := cfg.Standards.Limits()
	resultCache := cache.New()
	track := tracker.New()

	// The provider runs on debounce-timer goroutines while the watch loop
	// swaps in reloaded snapshots, so the current map lives behind a lock.
	snapshot := newCircuitSet(circuits)
	provider := snapshot.get
	engine := recalc.New(provider, resultCache.Memoize(func(in model.CircuitInput) (*model.VoltageDropResult, error) {
		return calc.ComputeWithLimits(in, limits)
	}), recalc.Options{
		Debounce: time.Duration(cfg.Recalc.DebounceMs) * time.Millisecond,
		Disabled: !cfg.Recalc.Enabled,
	})

	unsubscribe := engine.AddListener(func(event model.RecalculationEvent) {
		for id, result := range event.Results {
			fmt.Printf("%s: %.2f%% (%s)\n", id, result.DropPercent, result.Compliance)
			track.Clear(id)
		}
		for id, err := range event.Errors {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
		}
	})
	defer unsubscribe()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save,
	// which would otherwise drop the watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return eris.Wrapf(err, "watch %s", dir)
	}
	target := filepath.Clean(path)

	zap.L().Info("watching circuits file",
		zap.String("path", target),
		zap.Int("circuits", len(circuits)),
	)

	for {
		select {
		case <-ctx.Done():
			engine.ClearPending()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			updated, err := loadCircuitsFile(target)
			if err != nil {
				zap.L().Warn("reload failed", zap.Error(err))
				continue
			}

			prev := snapshot.replace(updated)
			for _, change := range diffCircuits(prev, updated) {
				track.TrackChange(change.circuitID, change.field, change.oldValue, change.newValue)
				engine.Request(change.circuitID)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("watcher error", zap.Error(err))
		}
	}
}

// circuitSet is the mutable current snapshot of the watched circuits file.
// The recalculator's provider reads it from timer goroutines; the watch
// loop replaces it on reload.
type circuitSet struct {
	mu       sync.RWMutex
	circuits map[string]model.CircuitInput
}

func newCircuitSet(circuits map[string]model.CircuitInput) *circuitSet {
	return &circuitSet{circuits: circuits}
}

func (s *circuitSet) get(id string) (model.CircuitInput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.circuits[id]
	return c, ok
}

// replace swaps in the new snapshot and returns the previous one for diffing.
func (s *circuitSet) replace(next map[string]model.CircuitInput) map[string]model.CircuitInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.circuits
	s.circuits = next
	return prev
}

type circuitChange struct {
	circuitID string
	field     string
	oldValue  any
	newValue  any
}

// diffCircuits reports field-level differences between two snapshots of the
// circuits file. Added circuits report a single "circuit" change; removed
// circuits are ignored since there is nothing left to recompute.
func diffCircuits(old, updated map[string]model.CircuitInput) []circuitChange {
	var changes []circuitChange
	for id, next := range updated {
		prev, ok := old[id]
		if !ok {
			changes = append(changes, circuitChange{id, "circuit", nil, next})
			continue
		}
		if cache.Fingerprint(prev) == cache.Fingerprint(next) && prev.Name == next.Name {
			continue
		}
		changes = append(changes, fieldDiffs(id, prev, next)...)
	}
	return changes
}

func fieldDiffs(id string, prev, next model.CircuitInput) []circuitChange {
	var changes []circuitChange
	add := func(field string, oldValue, newValue any) {
		if oldValue != newValue {
			changes = append(changes, circuitChange{id, field, oldValue, newValue})
		}
	}

	add("name", prev.Name, next.Name)
	add("system_voltage", prev.SystemVoltage, next.SystemVoltage)
	add("load_current", prev.LoadCurrent, next.LoadCurrent)
	add("load_power_w", prev.LoadPowerW, next.LoadPowerW)
	add("power_factor", prev.PowerFactor, next.PowerFactor)
	add("conductor_length", prev.ConductorLength, next.ConductorLength)
	add("conductor_size", prev.ConductorSize, next.ConductorSize)
	add("material", prev.Material, next.Material)
	add("conduit_type", prev.ConduitType, next.ConduitType)
	add("phase", prev.Phase, next.Phase)
	add("ambient_temp_c", prev.AmbientTempC, next.AmbientTempC)
	add("bundled_conductors", prev.BundledConductors, next.BundledConductors)
	add("config.type", prev.Config.Type, next.Config.Type)
	add("config.outlets", prev.Config.Outlets, next.Config.Outlets)
	add("config.demand_factor", prev.Config.DemandFactor, next.Config.DemandFactor)
	add("config.main_breaker_a", prev.Config.MainBreakerA, next.Config.MainBreakerA)
	add("config.hp", prev.Config.HP, next.Config.HP)
	add("config.starting_current_mult", prev.Config.StartingCurrentMult, next.Config.StartingCurrentMult)
	add("config.service_factor", prev.Config.ServiceFactor, next.Config.ServiceFactor)
	return changes
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
