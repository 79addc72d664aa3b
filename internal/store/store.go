// Package store persists saved what-if scenarios. The calculation core
// never inspects the stored format; it only hands over an
// input/result/timestamp envelope and reads it back.
package store

import (
	"context"
	"time"

	"github.com/sells-group/voltdrop-cli/internal/model"
)

// Scenario is the persisted envelope for one saved calculation.
type Scenario struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Input     model.CircuitInput       `json:"input"`
	Result    *model.VoltageDropResult `json:"result,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// ScenarioFilter specifies criteria for listing scenarios.
type ScenarioFilter struct {
	Name   string `json:"name,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for saved scenarios.
type Store interface {
	SaveScenario(ctx context.Context, name string, input model.CircuitInput, result *model.VoltageDropResult) (*Scenario, error)
	GetScenario(ctx context.Context, id string) (*Scenario, error)
	ListScenarios(ctx context.Context, filter ScenarioFilter) ([]Scenario, error)
	DeleteScenario(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
