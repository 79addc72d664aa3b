package model

// Phase identifies the phase configuration of a circuit.
type Phase string

const (
	PhaseSingle Phase = "single-phase"
	PhaseThree  Phase = "three-phase"
)

// Material identifies the conductor material.
type Material string

const (
	MaterialCopper   Material = "copper"
	MaterialAluminum Material = "aluminum"
)

// ConduitType identifies the raceway material, which determines conductor reactance.
type ConduitType string

const (
	ConduitPVC      ConduitType = "pvc"
	ConduitAluminum ConduitType = "aluminum"
	ConduitSteel    ConduitType = "steel"
)

// CircuitType identifies which voltage-drop limit applies.
type CircuitType string

const (
	CircuitBranch  CircuitType = "branch"
	CircuitFeeder  CircuitType = "feeder"
	CircuitService CircuitType = "service"
	CircuitMotor   CircuitType = "motor"
)

// CircuitConfig is the tagged per-type configuration variant. Type selects
// which of the remaining fields are meaningful.
type CircuitConfig struct {
	Type CircuitType `json:"type" yaml:"type"`

	// branch
	Outlets int `json:"outlets,omitempty" yaml:"outlets,omitempty"`

	// feeder
	DemandFactor float64 `json:"demand_factor,omitempty" yaml:"demand_factor,omitempty"`

	// service
	MainBreakerA float64 `json:"main_breaker_a,omitempty" yaml:"main_breaker_a,omitempty"`

	// motor
	HP                  float64 `json:"hp,omitempty" yaml:"hp,omitempty"`
	StartingCurrentMult float64 `json:"starting_current_mult,omitempty" yaml:"starting_current_mult,omitempty"`
	ServiceFactor       float64 `json:"service_factor,omitempty" yaml:"service_factor,omitempty"`
}

// CircuitInput is the immutable input to a voltage-drop calculation.
// ID and Name are identity fields only; they are excluded from cache
// fingerprints and play no part in the electrical result.
//
// Load is specified either as LoadCurrent directly, or as LoadPowerW plus
// PowerFactor (the kernel derives current). ConductorLength is in feet.
// Zero values for PowerFactor and AmbientTempC mean unspecified: the kernel
// substitutes unity power factor and 30 degC ambient. A true zero power
// factor carries no load and is not a meaningful circuit.
type CircuitInput struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	SystemVoltage     float64     `json:"system_voltage" yaml:"system_voltage"`
	LoadCurrent       float64     `json:"load_current,omitempty" yaml:"load_current,omitempty"`
	LoadPowerW        float64     `json:"load_power_w,omitempty" yaml:"load_power_w,omitempty"`
	PowerFactor       float64     `json:"power_factor,omitempty" yaml:"power_factor,omitempty"`
	ConductorLength   float64     `json:"conductor_length" yaml:"conductor_length"`
	ConductorSize     string      `json:"conductor_size" yaml:"conductor_size"`
	Material          Material    `json:"material" yaml:"material"`
	ConduitType       ConduitType `json:"conduit_type,omitempty" yaml:"conduit_type,omitempty"`
	Phase             Phase       `json:"phase" yaml:"phase"`
	AmbientTempC      float64     `json:"ambient_temp_c,omitempty" yaml:"ambient_temp_c,omitempty"`
	BundledConductors int         `json:"bundled_conductors,omitempty" yaml:"bundled_conductors,omitempty"`

	Config CircuitConfig `json:"config" yaml:"config"`
}
