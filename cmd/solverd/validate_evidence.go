package main

import (
	"io"

	"github.com/spf13/pflag"

	"github.com/accord-protocol/solverd/core/evidence"
)

type validateEvidenceOutput struct {
	OK             bool                      `json:"ok"`
	Valid          bool                      `json:"valid"`
	Errors         []evidenceValidationError `json:"errors,omitempty"`
	DigestMatches  bool                      `json:"digestMatches"`
	ComputedDigest string                    `json:"computedDigest,omitempty"`
	StoredDigest   string                    `json:"storedDigest,omitempty"`
	Error          *structuredError          `json:"error,omitempty"`
}

type evidenceValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func runValidateEvidence(arguments []string) int {
	flagSet := pflag.NewFlagSet("validate-evidence", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var helpFlag bool
	flagSet.BoolVarP(&helpFlag, "help", "h", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONWithExit(validateEvidenceOutput{Error: newStructuredError("flag_parse_error", "", err)}, exitOther)
	}
	if helpFlag {
		printUsage()
		return exitOK
	}

	args := flagSet.Args()
	if len(args) != 1 {
		return writeJSONWithExit(validateEvidenceOutput{Error: newStructuredErrorMsg("missing_argument", "", "expected exactly one <runDir> argument")}, exitOther)
	}
	runDir := args[0]

	schema, err := evidence.CompileManifestSchema()
	if err != nil {
		return writeJSONWithExit(validateEvidenceOutput{Error: newStructuredError("schema_compile_failed", "", err)}, exitOther)
	}

	report := evidence.NewValidator(schema).Validate(runDir)
	out := make([]evidenceValidationError, 0, len(report.Errors))
	for _, e := range report.Errors {
		out = append(out, evidenceValidationError{Code: string(e.Code), Message: e.Message, Path: e.Path})
	}

	digestMatches, computed, stored, digestErr := evidence.VerifyManifestDigest(runDir)
	if digestErr != nil {
		out = append(out, evidenceValidationError{Code: "MANIFEST_PARSE_ERROR", Message: digestErr.Error()})
		report.Valid = false
	}

	exitCode := exitOK
	if !report.Valid || !digestMatches {
		exitCode = exitOther
	}

	return writeJSONWithExit(validateEvidenceOutput{
		OK:             report.Valid && digestMatches,
		Valid:          report.Valid,
		Errors:         out,
		DigestMatches:  digestMatches,
		ComputedDigest: computed,
		StoredDigest:   stored,
	}, exitCode)
}
