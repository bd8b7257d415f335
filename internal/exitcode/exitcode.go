// Package exitcode names the process exit codes of spec.md §6's CLI surface
// table so commands agree on one vocabulary instead of scattering literals.
package exitcode

const (
	// OK is returned by every command on success.
	OK = 0

	// Other is the catch-all failure code: config errors, parse/validation
	// errors, and anything run-fixture fails at that isn't a policy refusal
	// or an execution failure.
	Other = 1

	// PolicyRefusal is run-fixture's exit code when the policy gate refuses
	// the intent.
	PolicyRefusal = 2

	// ExecutionFailure is run-fixture's exit code when the job runner itself
	// reports failure after the policy gate allowed the intent through.
	ExecutionFailure = 3
)
