package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/model"
	"github.com/sells-group/voltdrop-cli/internal/store"
)

func reportInput() model.CircuitInput {
	return model.CircuitInput{
		Name:            "panel run",
		SystemVoltage:   230,
		LoadCurrent:     20,
		ConductorLength: 50,
		ConductorSize:   "12 AWG",
		Material:        model.MaterialCopper,
		Phase:           model.PhaseSingle,
		Config:          model.CircuitConfig{Type: model.CircuitBranch},
	}
}

func TestWriteResult(t *testing.T) {
	input := reportInput()
	result, err := calc.Compute(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteResult(&buf, input, result)
	out := buf.String()

	assert.Contains(t, out, "panel run")
	assert.Contains(t, out, "12 AWG")
	assert.Contains(t, out, "6,530 cmil")
	assert.Contains(t, out, "compliant")
	assert.Contains(t, out, "Ampacity")
}

func TestWriteResultNonCompliantShowsRecommendations(t *testing.T) {
	input := reportInput()
	input.ConductorSize = "14 AWG"
	input.ConductorLength = 200
	result, err := calc.Compute(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteResult(&buf, input, result)
	out := buf.String()

	assert.Contains(t, out, "non-compliant")
	assert.Contains(t, out, "  - ")
}

func TestWriteScenarioTable(t *testing.T) {
	scenarios := []store.Scenario{
		{
			ID:        "s1",
			Name:      "baseline",
			Input:     reportInput(),
			Result:    &model.VoltageDropResult{DropPercent: 1.47, Compliance: model.Compliant},
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "s2",
			Name:      "no result yet",
			Input:     reportInput(),
			CreatedAt: time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	WriteScenarioTable(&buf, scenarios)
	out := buf.String()

	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "1.47")
	assert.Contains(t, out, "2026-08-01 12:00")
	assert.Contains(t, out, "no result yet")
}

func TestWriteBatchSummary(t *testing.T) {
	jobs := []*model.BatchJob{
		{ID: "j1", Status: model.JobCompleted, Result: &model.VoltageDropResult{DropPercent: 2.1, Compliance: model.Compliant}},
		{ID: "j2", Status: model.JobError, Err: "system_voltage must be positive"},
	}

	var buf bytes.Buffer
	WriteBatchSummary(&buf, jobs)
	out := buf.String()

	assert.Contains(t, out, "j1")
	assert.Contains(t, out, "2.10")
	assert.Contains(t, out, "system_voltage")
	assert.Contains(t, out, "2 jobs: 1 completed, 1 failed")
}
