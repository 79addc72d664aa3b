package batch

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/voltdrop-cli/internal/cache"
	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/model"
)

func ptr[T any](v T) *T { return &v }

func baseCircuit() model.CircuitInput {
	return model.CircuitInput{
		ID:              "ckt-1",
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

func TestCreateJobs(t *testing.T) {
	base := baseCircuit()
	variations := []model.CircuitVariation{
		{ConductorLength: ptr(100.0)},
		{ConductorSize: ptr("10 AWG")},
		{Config: &model.ConfigVariation{Type: ptr(model.CircuitFeeder)}},
	}

	jobs := CreateJobs(base, variations)
	require.Len(t, jobs, 3)

	seen := make(map[string]bool)
	for _, job := range jobs {
		assert.Equal(t, model.JobPending, job.Status)
		assert.NotEmpty(t, job.ID)
		assert.False(t, seen[job.ID], "job ids must be unique")
		seen[job.ID] = true
	}

	assert.Equal(t, 100.0, jobs[0].Input.ConductorLength)
	assert.Equal(t, "12 AWG", jobs[0].Input.ConductorSize)
	assert.Equal(t, "10 AWG", jobs[1].Input.ConductorSize)
	assert.Equal(t, 50.0, jobs[1].Input.ConductorLength)
	assert.Equal(t, model.CircuitFeeder, jobs[2].Input.Config.Type)
}

func TestProcess_AllComplete(t *testing.T) {
	p := NewProcessor(calc.Compute)
	jobs := CreateJobs(baseCircuit(), []model.CircuitVariation{
		{ConductorLength: ptr(25.0)},
		{ConductorLength: ptr(50.0)},
		{ConductorLength: ptr(75.0)},
	})

	out, err := p.Process(context.Background(), jobs, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, out, 3)

	for _, job := range out {
		assert.Equal(t, model.JobCompleted, job.Status)
		require.NotNil(t, job.Result)
		assert.Empty(t, job.Err)
	}
}

func TestProcess_FailingJobIsolated(t *testing.T) {
	p := NewProcessor(calc.Compute)
	jobs := CreateJobs(baseCircuit(), []model.CircuitVariation{
		{ConductorLength: ptr(25.0)},
		{SystemVoltage: ptr(-5.0)}, // job 2 fails validation
		{ConductorLength: ptr(75.0)},
	})

	var mu sync.Mutex
	var progress [][2]int
	completions := 0

	out, err := p.Process(context.Background(), jobs, Options{
		Concurrency: 1, // deterministic order
		OnProgress: func(done, total int) {
			mu.Lock()
			progress = append(progress, [2]int{done, total})
			mu.Unlock()
		},
		OnJobComplete: func(job *model.BatchJob) {
			mu.Lock()
			completions++
			mu.Unlock()
			assert.NotEqual(t, model.JobPending, job.Status)
			assert.NotEqual(t, model.JobProcessing, job.Status)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobCompleted, out[0].Status)
	assert.Equal(t, model.JobError, out[1].Status)
	assert.Nil(t, out[1].Result)
	assert.Contains(t, out[1].Err, "system_voltage")
	assert.Equal(t, model.JobCompleted, out[2].Status)

	assert.Equal(t, 3, completions)
	require.Len(t, progress, 3)
	assert.Equal(t, [2]int{1, 3}, progress[0])
	assert.Equal(t, [2]int{2, 3}, progress[1])
	assert.Equal(t, [2]int{3, 3}, progress[2])
}

func TestProcess_UnboundedConcurrency(t *testing.T) {
	p := NewProcessor(calc.Compute)

	variations := make([]model.CircuitVariation, 20)
	for i := range variations {
		variations[i] = model.CircuitVariation{ConductorLength: ptr(10.0 + float64(i))}
	}
	jobs := CreateJobs(baseCircuit(), variations)

	out, err := p.Process(context.Background(), jobs, Options{})
	require.NoError(t, err)
	for _, job := range out {
		assert.Equal(t, model.JobCompleted, job.Status)
	}
}

func TestProcess_EmptyBatch(t *testing.T) {
	p := NewProcessor(calc.Compute)
	called := false

	out, err := p.Process(context.Background(), nil, Options{
		OnProgress: func(done, total int) { called = true },
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, called)
}

func TestProcess_SharedCacheDeduplicates(t *testing.T) {
	c := cache.New()
	kernelCalls := 0
	var mu sync.Mutex
	p := NewProcessor(c.Memoize(func(in model.CircuitInput) (*model.VoltageDropResult, error) {
		mu.Lock()
		kernelCalls++
		mu.Unlock()
		return calc.Compute(in)
	}))

	// Two jobs with identical electrical inputs, one distinct.
	jobs := CreateJobs(baseCircuit(), []model.CircuitVariation{
		{ConductorLength: ptr(60.0)},
		{ConductorLength: ptr(60.0)},
		{ConductorLength: ptr(90.0)},
	})

	_, err := p.Process(context.Background(), jobs, Options{Concurrency: 2})
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, 2, kernelCalls)
	mu.Unlock()
	assert.Equal(t, 2, c.Size())
}

func TestProcess_ContextCancelled(t *testing.T) {
	p := NewProcessor(calc.Compute)
	jobs := CreateJobs(baseCircuit(), []model.CircuitVariation{
		{ConductorLength: ptr(25.0)},
		{ConductorLength: ptr(50.0)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := p.Process(ctx, jobs, Options{Concurrency: 1})
	require.NoError(t, err)

	// Every job still reaches a terminal state.
	for _, job := range out {
		assert.Contains(t, []model.JobStatus{model.JobCompleted, model.JobError}, job.Status)
	}
}

func TestProcess_PacedStarts(t *testing.T) {
	p := NewProcessor(calc.Compute)
	jobs := CreateJobs(baseCircuit(), []model.CircuitVariation{
		{ConductorLength: ptr(25.0)},
		{ConductorLength: ptr(50.0)},
		{ConductorLength: ptr(75.0)},
	})

	out, err := p.Process(context.Background(), jobs, Options{
		Concurrency:   1,
		JobsPerSecond: 1000, // fast enough for tests, still exercises the limiter
	})
	require.NoError(t, err)
	for _, job := range out {
		assert.Equal(t, model.JobCompleted, job.Status)
	}
}
