package model

// CircuitVariation is a partial overlay applied to a base CircuitInput when
// building what-if batch jobs. Nil fields inherit the base value; set fields
// replace it. The per-type Config overlay merges field-by-field rather than
// replacing the whole variant, so a variation can, say, change only a motor's
// starting multiplier while keeping the base HP.
type CircuitVariation struct {
	Name *string `json:"name,omitempty" yaml:"name,omitempty"`

	SystemVoltage     *float64     `json:"system_voltage,omitempty" yaml:"system_voltage,omitempty"`
	LoadCurrent       *float64     `json:"load_current,omitempty" yaml:"load_current,omitempty"`
	LoadPowerW        *float64     `json:"load_power_w,omitempty" yaml:"load_power_w,omitempty"`
	PowerFactor       *float64     `json:"power_factor,omitempty" yaml:"power_factor,omitempty"`
	ConductorLength   *float64     `json:"conductor_length,omitempty" yaml:"conductor_length,omitempty"`
	ConductorSize     *string      `json:"conductor_size,omitempty" yaml:"conductor_size,omitempty"`
	Material          *Material    `json:"material,omitempty" yaml:"material,omitempty"`
	ConduitType       *ConduitType `json:"conduit_type,omitempty" yaml:"conduit_type,omitempty"`
	Phase             *Phase       `json:"phase,omitempty" yaml:"phase,omitempty"`
	AmbientTempC      *float64     `json:"ambient_temp_c,omitempty" yaml:"ambient_temp_c,omitempty"`
	BundledConductors *int         `json:"bundled_conductors,omitempty" yaml:"bundled_conductors,omitempty"`

	Config *ConfigVariation `json:"config,omitempty" yaml:"config,omitempty"`
}

// ConfigVariation is the overlay for the per-type circuit configuration.
type ConfigVariation struct {
	Type                *CircuitType `json:"type,omitempty" yaml:"type,omitempty"`
	Outlets             *int         `json:"outlets,omitempty" yaml:"outlets,omitempty"`
	DemandFactor        *float64     `json:"demand_factor,omitempty" yaml:"demand_factor,omitempty"`
	MainBreakerA        *float64     `json:"main_breaker_a,omitempty" yaml:"main_breaker_a,omitempty"`
	HP                  *float64     `json:"hp,omitempty" yaml:"hp,omitempty"`
	StartingCurrentMult *float64     `json:"starting_current_mult,omitempty" yaml:"starting_current_mult,omitempty"`
	ServiceFactor       *float64     `json:"service_factor,omitempty" yaml:"service_factor,omitempty"`
}

// Apply returns a copy of base with every set variation field replaced.
// The base is never mutated.
func (v CircuitVariation) Apply(base CircuitInput) CircuitInput {
	out := base

	if v.Name != nil {
		out.Name = *v.Name
	}
	if v.SystemVoltage != nil {
		out.SystemVoltage = *v.SystemVoltage
	}
	if v.LoadCurrent != nil {
		out.LoadCurrent = *v.LoadCurrent
	}
	if v.LoadPowerW != nil {
		out.LoadPowerW = *v.LoadPowerW
	}
	if v.PowerFactor != nil {
		out.PowerFactor = *v.PowerFactor
	}
	if v.ConductorLength != nil {
		out.ConductorLength = *v.ConductorLength
	}
	if v.ConductorSize != nil {
		out.ConductorSize = *v.ConductorSize
	}
	if v.Material != nil {
		out.Material = *v.Material
	}
	if v.ConduitType != nil {
		out.ConduitType = *v.ConduitType
	}
	if v.Phase != nil {
		out.Phase = *v.Phase
	}
	if v.AmbientTempC != nil {
		out.AmbientTempC = *v.AmbientTempC
	}
	if v.BundledConductors != nil {
		out.BundledConductors = *v.BundledConductors
	}
	if v.Config != nil {
		out.Config = v.Config.apply(base.Config)
	}

	return out
}

func (cv ConfigVariation) apply(base CircuitConfig) CircuitConfig {
	out := base

	if cv.Type != nil {
		out.Type = *cv.Type
	}
	if cv.Outlets != nil {
		out.Outlets = *cv.Outlets
	}
	if cv.DemandFactor != nil {
		out.DemandFactor = *cv.DemandFactor
	}
	if cv.MainBreakerA != nil {
		out.MainBreakerA = *cv.MainBreakerA
	}
	if cv.HP != nil {
		out.HP = *cv.HP
	}
	if cv.StartingCurrentMult != nil {
		out.StartingCurrentMult = *cv.StartingCurrentMult
	}
	if cv.ServiceFactor != nil {
		out.ServiceFactor = *cv.ServiceFactor
	}

	return out
}
