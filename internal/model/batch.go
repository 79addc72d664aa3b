package model

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// BatchJob is one independent what-if calculation in a batch run.
// Lifecycle: pending -> processing -> completed|error. Jobs never share
// mutable state; each owns its input and result.
type BatchJob struct {
	ID     string             `json:"id"`
	Input  CircuitInput       `json:"input"`
	Status JobStatus          `json:"status"`
	Result *VoltageDropResult `json:"result,omitempty"`
	Err    string             `json:"error,omitempty"`
}
