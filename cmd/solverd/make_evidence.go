package main

import (
	"io"

	"github.com/spf13/pflag"

	"github.com/accord-protocol/solverd/core/evidence"
)

type makeEvidenceOutput struct {
	OK             bool             `json:"ok"`
	ManifestDigest string           `json:"manifestSha256,omitempty"`
	ManifestPath   string           `json:"manifestPath,omitempty"`
	Error          *structuredError `json:"error,omitempty"`
}

// runMakeEvidence rebuilds a run's manifest from the artifacts already on
// disk under <runDir>/artifacts. It is for recovering a manifest after the
// cancellation window spec.md §5 describes: the manifest rename did not
// happen, but the artifacts did land.
func runMakeEvidence(arguments []string) int {
	flagSet := pflag.NewFlagSet("make-evidence", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var intentID, runID, jobType, createdAt string
	var helpFlag bool
	flagSet.StringVar(&intentID, "intent-id", "", "intentId to stamp into the manifest")
	flagSet.StringVar(&runID, "run-id", "", "runId to stamp into the manifest")
	flagSet.StringVar(&jobType, "job-type", "", "jobType to stamp into the manifest")
	flagSet.StringVar(&createdAt, "created-at", "", "RFC 3339 createdAt to stamp (informational only)")
	flagSet.BoolVarP(&helpFlag, "help", "h", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONWithExit(makeEvidenceOutput{Error: newStructuredError("flag_parse_error", "", err)}, exitOther)
	}
	if helpFlag {
		printUsage()
		return exitOK
	}

	args := flagSet.Args()
	if len(args) != 1 {
		return writeJSONWithExit(makeEvidenceOutput{Error: newStructuredErrorMsg("missing_argument", "", "expected exactly one <runDir> argument")}, exitOther)
	}
	if intentID == "" || runID == "" || jobType == "" {
		return writeJSONWithExit(makeEvidenceOutput{Error: newStructuredErrorMsg("missing_argument", "", "--intent-id, --run-id, and --job-type are required")}, exitOther)
	}

	builder := evidence.NewBuilder(args[0])
	result, err := builder.Build(evidence.BuildInput{
		IntentID:         intentID,
		RunID:            runID,
		JobType:          jobType,
		CreatedAt:        createdAt,
		PolicyDecision:   evidence.PolicyDecision{Allowed: true},
		ExecutionSummary: evidence.ExecutionSummary{Status: evidence.StatusSuccess},
		Solver:           evidence.SolverIdentity{Service: "solverd", ServiceVersion: version, GitCommit: gitCommit},
	})
	if err != nil {
		return writeJSONWithExit(makeEvidenceOutput{Error: newStructuredError("build_failed", "", err)}, exitOther)
	}

	return writeJSONWithExit(makeEvidenceOutput{OK: true, ManifestDigest: result.ManifestDigest, ManifestPath: result.ManifestPath}, exitOK)
}
