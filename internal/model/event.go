package model

// RecalculationEvent is broadcast once per fired (non-coalesced)
// recalculation. A circuit id appears in exactly one of Results or Errors.
type RecalculationEvent struct {
	CircuitIDs map[string]struct{}
	Completed  bool
	Results    map[string]*VoltageDropResult
	Errors     map[string]error
}
