package main

import (
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/accord-protocol/solverd/core/intent"
)

type printIntentOutput struct {
	OK       bool             `json:"ok"`
	IntentID string           `json:"intentId,omitempty"`
	JobType  string           `json:"jobType,omitempty"`
	Warning  string           `json:"warning,omitempty"`
	Errors   []fieldError     `json:"errors,omitempty"`
	Error    *structuredError `json:"error,omitempty"`
}

type fieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func runPrintIntent(arguments []string) int {
	flagSet := pflag.NewFlagSet("print-intent", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var strict bool
	var helpFlag bool
	flagSet.BoolVar(&strict, "strict-intent-id", false, "reject a supplied intentId that does not match the computed value")
	flagSet.BoolVarP(&helpFlag, "help", "h", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONWithExit(printIntentOutput{Error: newStructuredError("flag_parse_error", "", err)}, exitOther)
	}
	if helpFlag {
		printUsage()
		return exitOK
	}

	args := flagSet.Args()
	if len(args) != 1 {
		return writeJSONWithExit(printIntentOutput{Error: newStructuredErrorMsg("missing_argument", "", "expected exactly one <file> argument")}, exitOther)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return writeJSONWithExit(printIntentOutput{Error: newStructuredError("read_failed", "", err)}, exitOther)
	}

	normalized, verrs := intent.Validate(raw, intent.ValidatorConfig{StrictIntentID: strict})
	if len(verrs) > 0 {
		out := make([]fieldError, 0, len(verrs))
		for _, e := range verrs {
			out = append(out, fieldError{Path: e.Path, Message: e.Message})
		}
		return writeJSONWithExit(printIntentOutput{Errors: out}, exitOther)
	}

	return writeJSONWithExit(printIntentOutput{
		OK:       true,
		IntentID: normalized.IntentID,
		JobType:  normalized.JobType,
		Warning:  normalized.Warning,
	}, exitOK)
}
