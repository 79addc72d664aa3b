package calc

import "fmt"

// ValidationError reports a malformed or out-of-range input field. It is
// returned synchronously by the kernel and is never cached.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("calc: invalid field %q: %s", e.Field, e.Reason)
}

// NoCompliantSizeError reports that the optimizer exhausted the standard
// size table without finding a size that is both compliant and adequate.
type NoCompliantSizeError struct {
	LargestTried string
}

func (e *NoCompliantSizeError) Error() string {
	return fmt.Sprintf("calc: no standard conductor size up to %s satisfies the voltage-drop and ampacity constraints", e.LargestTried)
}
