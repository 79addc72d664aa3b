package model

// Compliance is the verdict of a voltage-drop check against the applicable limit.
type Compliance string

const (
	Compliant    Compliance = "compliant"
	NonCompliant Compliance = "non-compliant"
)

// WireRating describes whether the conductor's ampacity covers the load.
type WireRating struct {
	AmpacityA        float64 `json:"ampacity_a"`
	DeratedAmpacityA float64 `json:"derated_ampacity_a"`
	Adequate         bool    `json:"adequate"`
}

// VoltageDropResult is the output of a voltage-drop calculation. It is
// immutable once produced; a changed input always yields a newly allocated
// result, never an in-place mutation.
type VoltageDropResult struct {
	DropVolts        float64    `json:"drop_volts"`
	DropPercent      float64    `json:"drop_percent"`
	ReceivingVoltage float64    `json:"receiving_voltage"`
	ResistiveLossW   float64    `json:"resistive_loss_w"`
	ReactiveLossVAR  float64    `json:"reactive_loss_var"`
	TotalLossVA      float64    `json:"total_loss_va"`
	Compliance       Compliance `json:"compliance"`
	MaxAllowedDrop   float64    `json:"max_allowed_drop"`

	// StartingDropPercent is populated for motor circuits only.
	StartingDropPercent float64 `json:"starting_drop_percent,omitempty"`

	Recommendations []string   `json:"recommendations,omitempty"`
	WireRating      WireRating `json:"wire_rating"`
}

// Margin returns the compliance margin: the distance between the allowed
// limit and the computed drop, in percentage points. Negative when
// non-compliant.
func (r *VoltageDropResult) Margin() float64 {
	return r.MaxAllowedDrop - r.DropPercent
}
