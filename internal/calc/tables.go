package calc

import "github.com/sells-group/voltdrop-cli/internal/model"

// Conductor constants. The K values are resistivity in ohm-cmil/ft at the
// 75 degC reference; resistance at other conductor temperatures is derived
// through the per-material temperature coefficient.
const (
	kCopper75   = 12.9
	kAluminum75 = 21.2

	alphaCopper   = 0.00323 // per degC
	alphaAluminum = 0.00330

	referenceTempC = 75.0
	defaultTempC   = 30.0
)

// StandardSizes lists the candidate conductor sizes in ascending
// circular-mil area. The optimizer walks this list in order.
var StandardSizes = []string{
	"14 AWG", "12 AWG", "10 AWG", "8 AWG", "6 AWG", "4 AWG", "3 AWG",
	"2 AWG", "1 AWG", "1/0 AWG", "2/0 AWG", "3/0 AWG", "4/0 AWG",
	"250 kcmil", "300 kcmil", "350 kcmil", "400 kcmil", "500 kcmil",
}

// circularMils maps conductor size to cross-sectional area in circular mils.
var circularMils = map[string]float64{
	"14 AWG":    4110,
	"12 AWG":    6530,
	"10 AWG":    10380,
	"8 AWG":     16510,
	"6 AWG":     26240,
	"4 AWG":     41740,
	"3 AWG":     52620,
	"2 AWG":     66360,
	"1 AWG":     83690,
	"1/0 AWG":   105600,
	"2/0 AWG":   133100,
	"3/0 AWG":   167800,
	"4/0 AWG":   211600,
	"250 kcmil": 250000,
	"300 kcmil": 300000,
	"350 kcmil": 350000,
	"400 kcmil": 400000,
	"500 kcmil": 500000,
}

// ampacity75 holds the rated ampacity (75 degC insulation column) per size
// and material, before temperature and bundling derating.
var ampacity75 = map[model.Material]map[string]float64{
	model.MaterialCopper: {
		"14 AWG": 20, "12 AWG": 25, "10 AWG": 35, "8 AWG": 50,
		"6 AWG": 65, "4 AWG": 85, "3 AWG": 100, "2 AWG": 115,
		"1 AWG": 130, "1/0 AWG": 150, "2/0 AWG": 175, "3/0 AWG": 200,
		"4/0 AWG": 230, "250 kcmil": 255, "300 kcmil": 285,
		"350 kcmil": 310, "400 kcmil": 335, "500 kcmil": 380,
	},
	model.MaterialAluminum: {
		"14 AWG": 15, "12 AWG": 20, "10 AWG": 30, "8 AWG": 40,
		"6 AWG": 50, "4 AWG": 65, "3 AWG": 75, "2 AWG": 90,
		"1 AWG": 100, "1/0 AWG": 120, "2/0 AWG": 135, "3/0 AWG": 155,
		"4/0 AWG": 180, "250 kcmil": 205, "300 kcmil": 230,
		"350 kcmil": 250, "400 kcmil": 270, "500 kcmil": 310,
	},
}

// conduitReactance is the approximate conductor reactance in ohm per 1000 ft
// by raceway material. An empty conduit type falls back to PVC.
var conduitReactance = map[model.ConduitType]float64{
	model.ConduitPVC:      0.050,
	model.ConduitAluminum: 0.050,
	model.ConduitSteel:    0.062,
}

// tempCorrection returns the ampacity correction factor for the given
// ambient temperature (75 degC insulation column, 30 degC base).
func tempCorrection(ambientC float64) float64 {
	switch {
	case ambientC <= 30:
		return 1.00
	case ambientC <= 35:
		return 0.94
	case ambientC <= 40:
		return 0.88
	case ambientC <= 45:
		return 0.82
	case ambientC <= 50:
		return 0.75
	case ambientC <= 55:
		return 0.67
	case ambientC <= 60:
		return 0.58
	case ambientC <= 70:
		return 0.33
	default:
		return 0
	}
}

// bundlingAdjustment returns the ampacity adjustment factor for the number of
// current-carrying conductors grouped in one raceway. Zero means unspecified
// and is treated as three or fewer.
func bundlingAdjustment(conductors int) float64 {
	switch {
	case conductors <= 3:
		return 1.00
	case conductors <= 6:
		return 0.80
	case conductors <= 9:
		return 0.70
	case conductors <= 20:
		return 0.50
	case conductors <= 30:
		return 0.45
	default:
		return 0.40
	}
}

// Limits holds the maximum allowed voltage-drop percentages per circuit type.
// The values default to the PEC figures; deployments may override them
// through configuration.
type Limits struct {
	BranchPct        float64
	FeederPct        float64
	ServicePct       float64
	MotorRunningPct  float64
	MotorStartingPct float64
}

// DefaultLimits are the PEC voltage-drop thresholds: 3% branch, 2% feeder,
// 5% combined at the service, 3% motor running with 15% allowed during
// starting.
var DefaultLimits = Limits{
	BranchPct:        3.0,
	FeederPct:        2.0,
	ServicePct:       5.0,
	MotorRunningPct:  3.0,
	MotorStartingPct: 15.0,
}

// maxAllowed returns the applicable running-drop limit for a circuit type.
func (l Limits) maxAllowed(t model.CircuitType) float64 {
	switch t {
	case model.CircuitFeeder:
		return l.FeederPct
	case model.CircuitService:
		return l.ServicePct
	case model.CircuitMotor:
		return l.MotorRunningPct
	default:
		return l.BranchPct
	}
}

// CircularMils returns the circular-mil area for a standard conductor size,
// or false when the size is not in the table.
func CircularMils(size string) (float64, bool) {
	cm, ok := circularMils[size]
	return cm, ok
}
