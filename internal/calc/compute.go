// Package calc implements the voltage-drop calculation kernel and the
// conductor size optimizer. Everything here is pure computation: no I/O,
// no shared state, deterministic for a given input.
package calc

import (
	"fmt"
	"math"

	"github.com/sells-group/voltdrop-cli/internal/model"
)

// Compute runs the voltage-drop analysis for one circuit input using the
// default PEC limits. See ComputeWithLimits.
func Compute(input model.CircuitInput) (*model.VoltageDropResult, error) {
	return ComputeWithLimits(input, DefaultLimits)
}

// ComputeWithLimits runs the voltage-drop analysis against a specific set of
// per-circuit-type limits. It validates the input first and returns a
// *ValidationError naming the offending field for anything malformed or
// out of range; it never panics on numerically valid input.
func ComputeWithLimits(input model.CircuitInput, limits Limits) (*model.VoltageDropResult, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	loadCurrent := resolveLoadCurrent(input)

	pf := input.PowerFactor
	if pf == 0 {
		pf = 1.0
	}
	sinPhi := math.Sqrt(1 - pf*pf)

	ambient := input.AmbientTempC
	if ambient == 0 {
		ambient = defaultTempC
	}

	cm := circularMils[input.ConductorSize]
	rPerFt := effectiveK(input.Material, ambient) / cm

	conduit := input.ConduitType
	if conduit == "" {
		conduit = model.ConduitPVC
	}
	xPerFt := conduitReactance[conduit] / 1000.0

	// k = 2 for single-phase (out and back), sqrt(3) for three-phase
	// (line-to-line drop).
	kFactor := 2.0
	lossConductors := 2.0
	if input.Phase == model.PhaseThree {
		kFactor = math.Sqrt(3)
		lossConductors = 3.0
	}

	zPerFt := rPerFt*pf + xPerFt*sinPhi
	dropVolts := kFactor * loadCurrent * zPerFt * input.ConductorLength
	dropPercent := dropVolts / input.SystemVoltage * 100

	resistiveLoss := lossConductors * loadCurrent * loadCurrent * rPerFt * input.ConductorLength
	reactiveLoss := lossConductors * loadCurrent * loadCurrent * xPerFt * input.ConductorLength
	totalLoss := math.Hypot(resistiveLoss, reactiveLoss)

	rating := wireRating(input, loadCurrent, ambient)

	maxAllowed := limits.maxAllowed(input.Config.Type)
	compliant := dropPercent <= maxAllowed

	var startingPercent float64
	startingOK := true
	if input.Config.Type == model.CircuitMotor {
		mult := input.Config.StartingCurrentMult
		if mult <= 0 {
			mult = 6.0
		}
		startingVolts := kFactor * loadCurrent * mult * zPerFt * input.ConductorLength
		startingPercent = round2(startingVolts / input.SystemVoltage * 100)
		startingOK = startingPercent <= limits.MotorStartingPct
		compliant = compliant && startingOK
	}

	result := &model.VoltageDropResult{
		DropVolts:           round2(dropVolts),
		DropPercent:         round2(dropPercent),
		ReceivingVoltage:    round2(input.SystemVoltage - dropVolts),
		ResistiveLossW:      round2(resistiveLoss),
		ReactiveLossVAR:     round2(reactiveLoss),
		TotalLossVA:         round2(totalLoss),
		MaxAllowedDrop:      maxAllowed,
		StartingDropPercent: startingPercent,
		WireRating:          rating,
	}
	if compliant {
		result.Compliance = model.Compliant
	} else {
		result.Compliance = model.NonCompliant
	}
	result.Recommendations = recommendations(result, limits, startingOK)

	return result, nil
}

// effectiveK returns the resistivity constant (ohm-cmil/ft) adjusted from the
// 75 degC reference to the conductor temperature, which is approximated by
// the ambient temperature.
func effectiveK(material model.Material, tempC float64) float64 {
	k, alpha := kCopper75, alphaCopper
	if material == model.MaterialAluminum {
		k, alpha = kAluminum75, alphaAluminum
	}
	return k * (1 + alpha*(tempC-referenceTempC))
}

// resolveLoadCurrent resolves the operating current from either the direct
// current field or the power+PF alternative.
func resolveLoadCurrent(input model.CircuitInput) float64 {
	if input.LoadCurrent > 0 {
		return input.LoadCurrent
	}

	pf := input.PowerFactor
	if pf == 0 {
		pf = 1.0
	}
	denom := input.SystemVoltage * pf
	if input.Phase == model.PhaseThree {
		denom *= math.Sqrt(3)
	}
	return input.LoadPowerW / denom
}

func wireRating(input model.CircuitInput, loadCurrent, ambient float64) model.WireRating {
	base := ampacity75[input.Material][input.ConductorSize]
	derated := base * tempCorrection(ambient) * bundlingAdjustment(input.BundledConductors)
	return model.WireRating{
		AmpacityA:        base,
		DeratedAmpacityA: round2(derated),
		Adequate:         derated >= loadCurrent,
	}
}

// recommendations produces the ordered advisory strings for a result.
// Compliance advice comes first, then motor starting, then ampacity.
func recommendations(r *model.VoltageDropResult, limits Limits, startingOK bool) []string {
	var recs []string

	switch {
	case r.DropPercent > 1.5*r.MaxAllowedDrop:
		recs = append(recs, fmt.Sprintf(
			"critical: voltage drop %.2f%% is more than 1.5x the %.1f%% limit; resize the conductor immediately",
			r.DropPercent, r.MaxAllowedDrop))
	case r.DropPercent > r.MaxAllowedDrop:
		recs = append(recs, fmt.Sprintf(
			"voltage drop %.2f%% exceeds the %.1f%% limit; increase conductor size or shorten the run",
			r.DropPercent, r.MaxAllowedDrop))
	case r.Margin() < 0.2*r.MaxAllowedDrop:
		recs = append(recs, fmt.Sprintf(
			"compliance margin is only %.2f%%; monitor this circuit for added load",
			r.Margin()))
	}

	if !startingOK {
		recs = append(recs, fmt.Sprintf(
			"motor starting voltage drop %.2f%% exceeds the %.1f%% starting limit; consider a larger conductor or reduced-voltage starting",
			r.StartingDropPercent, limits.MotorStartingPct))
	}

	if !r.WireRating.Adequate {
		recs = append(recs, fmt.Sprintf(
			"load current exceeds the derated ampacity of %.1f A; the conductor is undersized for this load",
			r.WireRating.DeratedAmpacityA))
	}

	return recs
}

func validate(input model.CircuitInput) error {
	if !isFinite(input.SystemVoltage) || input.SystemVoltage <= 0 {
		return &ValidationError{Field: "system_voltage", Reason: "must be a positive finite voltage"}
	}
	if !isFinite(input.LoadCurrent) || input.LoadCurrent < 0 {
		return &ValidationError{Field: "load_current", Reason: "must be a non-negative finite current"}
	}
	if !isFinite(input.LoadPowerW) || input.LoadPowerW < 0 {
		return &ValidationError{Field: "load_power_w", Reason: "must be a non-negative finite power"}
	}
	if input.LoadCurrent == 0 && input.LoadPowerW == 0 {
		return &ValidationError{Field: "load_current", Reason: "either load_current or load_power_w is required"}
	}
	if !isFinite(input.PowerFactor) || input.PowerFactor < 0 || input.PowerFactor > 1 {
		return &ValidationError{Field: "power_factor", Reason: "must be between 0 and 1"}
	}
	if !isFinite(input.ConductorLength) || input.ConductorLength <= 0 {
		return &ValidationError{Field: "conductor_length", Reason: "must be a positive finite length in feet"}
	}
	if _, ok := circularMils[input.ConductorSize]; !ok {
		return &ValidationError{Field: "conductor_size", Reason: fmt.Sprintf("unknown conductor size %q", input.ConductorSize)}
	}
	if _, ok := ampacity75[input.Material]; !ok {
		return &ValidationError{Field: "material", Reason: fmt.Sprintf("unknown conductor material %q", input.Material)}
	}
	if input.ConduitType != "" {
		if _, ok := conduitReactance[input.ConduitType]; !ok {
			return &ValidationError{Field: "conduit_type", Reason: fmt.Sprintf("unknown conduit type %q", input.ConduitType)}
		}
	}
	if input.Phase != model.PhaseSingle && input.Phase != model.PhaseThree {
		return &ValidationError{Field: "phase", Reason: fmt.Sprintf("unknown phase configuration %q", input.Phase)}
	}
	if !isFinite(input.AmbientTempC) || input.AmbientTempC < -40 || input.AmbientTempC > 90 {
		return &ValidationError{Field: "ambient_temp_c", Reason: "must be between -40 and 90 degC"}
	}
	if input.BundledConductors < 0 {
		return &ValidationError{Field: "bundled_conductors", Reason: "must be non-negative"}
	}
	switch input.Config.Type {
	case model.CircuitBranch, model.CircuitFeeder, model.CircuitService, model.CircuitMotor:
	default:
		return &ValidationError{Field: "config.type", Reason: fmt.Sprintf("unknown circuit type %q", input.Config.Type)}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
