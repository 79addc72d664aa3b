package calc

import "github.com/sells-group/voltdrop-cli/internal/model"

// optimalMarginHeadroom is the extra compliance margin (as a fraction of the
// limit) the optimal size must keep. A size that barely clears the limit
// passes the minimum search but not the optimal one.
const optimalMarginHeadroom = 0.10

// FindMinimumSize walks the standard size table in ascending area order and
// returns the first conductor size for which the circuit is both
// voltage-drop compliant and ampacity adequate. It returns a
// *NoCompliantSizeError when no candidate satisfies the constraints; callers
// decide whether that is a hard error or a use-largest-available fallback.
func FindMinimumSize(input model.CircuitInput) (string, error) {
	return FindMinimumSizeWithLimits(input, DefaultLimits)
}

// FindMinimumSizeWithLimits is FindMinimumSize against specific limits.
func FindMinimumSizeWithLimits(input model.CircuitInput, limits Limits) (string, error) {
	return searchSizes(input, limits, func(r *model.VoltageDropResult) bool {
		return r.Compliance == model.Compliant && r.WireRating.Adequate
	})
}

// FindOptimalSize returns the smallest standard size that is compliant,
// ampacity adequate, and keeps at least a 10% compliance-margin headroom so
// routine load growth does not immediately tip the circuit over the limit.
// Ties break toward the smaller size because the table is walked in
// ascending order. When no candidate has headroom it falls back to the
// minimum compliant size.
func FindOptimalSize(input model.CircuitInput) (string, error) {
	return FindOptimalSizeWithLimits(input, DefaultLimits)
}

// FindOptimalSizeWithLimits is FindOptimalSize against specific limits.
func FindOptimalSizeWithLimits(input model.CircuitInput, limits Limits) (string, error) {
	size, err := searchSizes(input, limits, func(r *model.VoltageDropResult) bool {
		return r.Compliance == model.Compliant &&
			r.WireRating.Adequate &&
			r.Margin() >= optimalMarginHeadroom*r.MaxAllowedDrop
	})
	if err == nil {
		return size, nil
	}
	if _, exhausted := err.(*NoCompliantSizeError); exhausted {
		return FindMinimumSizeWithLimits(input, limits)
	}
	return "", err
}

// searchSizes evaluates the kernel for each candidate size in ascending
// order and returns the first one accepted by ok.
func searchSizes(input model.CircuitInput, limits Limits, ok func(*model.VoltageDropResult) bool) (string, error) {
	for _, size := range StandardSizes {
		candidate := input
		candidate.ConductorSize = size

		result, err := ComputeWithLimits(candidate, limits)
		if err != nil {
			return "", err
		}
		if ok(result) {
			return size, nil
		}
	}
	return "", &NoCompliantSizeError{LargestTried: StandardSizes[len(StandardSizes)-1]}
}
