package model

import "time"

// ChangeRecord is a single field-level mutation on a circuit, recorded by the
// change tracker. Records are audit data only; they are never replayed to
// reconstruct state (the circuit provider is the source of truth).
type ChangeRecord struct {
	CircuitID string    `json:"circuit_id"`
	Field     string    `json:"field"`
	OldValue  any       `json:"old_value"`
	NewValue  any       `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
}
