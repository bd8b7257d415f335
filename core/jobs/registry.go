// Package jobs implements the JobExecutor: a registry of runners dispatched
// by jobType, plus the reference SAFE_REPORT runner.
package jobs

import (
	"github.com/accord-protocol/solverd/core/artifactstore"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// RunContext is the per-execution, read-only environment passed to a
// runner: spec.md §3 RunContext.
type RunContext struct {
	IntentID  string
	RunID     string
	JobType   string
	DataDir   string
	Store     *artifactstore.Store // rooted at dataDir/runs/{runId}
	Requester string
}

// ArtifactInfo is one artifact a runner reports as committed.
type ArtifactInfo struct {
	Path  string
	Bytes int64
}

// RunResult is the outcome of a single job execution.
type RunResult struct {
	Status    string
	Artifacts []ArtifactInfo
	Error     string // sanitized: no absolute paths, no stack frames
}

// Runner executes one NormalizedIntent's job. Inputs is the intent's
// inputs map, already validated by core/intent for the matching jobType.
type Runner func(rc RunContext, inputs map[string]any) RunResult

// Registry dispatches a jobType tag to its registered Runner.
type Registry struct {
	runners map[string]Runner
}

func NewRegistry() *Registry {
	return &Registry{runners: map[string]Runner{}}
}

// Register adds or replaces the runner for jobType.
func (r *Registry) Register(jobType string, runner Runner) {
	r.runners[jobType] = runner
}

// Execute dispatches rc.JobType to its registered runner. An unregistered
// jobType is a programming error at this layer — the PolicyEngine's
// jobType_allowlist check is the place unregistered types are meant to be
// refused before execution is ever attempted.
func (r *Registry) Execute(rc RunContext, inputs map[string]any) RunResult {
	runner, ok := r.runners[rc.JobType]
	if !ok {
		return RunResult{Status: StatusFailed, Error: "no runner registered for this jobType"}
	}
	return runner(rc, inputs)
}

// DefaultRegistry returns a Registry with SAFE_REPORT already registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("SAFE_REPORT", RunSafeReport)
	return r
}
