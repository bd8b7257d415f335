package main

import (
	"encoding/json"
	"errors"
	"fmt"

	accorderrors "github.com/accord-protocol/solverd/core/errors"
)

// structuredError is the single structured block spec.md §7 requires per
// failure: a stable code, an optional path, and a human-readable message,
// plus the category/retryable/hint triple populated from the error
// taxonomy of spec.md §7, in the manner of
// davidahmann-gait/cmd/gait/error_output.go. No stack traces are ever
// attached.
type structuredError struct {
	Code      string `json:"code"`
	Path      string `json:"path,omitempty"`
	Message   string `json:"message"`
	Category  string `json:"category,omitempty"`
	Retryable bool   `json:"retryable"`
	Hint      string `json:"hint,omitempty"`
}

// newStructuredError classifies err against the taxonomy: when err (or a
// cause it wraps) was produced by core/errors.Wrap, its category/hint/
// retryable travel through unchanged via errors.As; otherwise code supplies
// a default category and hint, the same fallback role the teacher's
// defaultErrorCategory/defaultHint play keyed off exit code.
func newStructuredError(code, path string, err error) *structuredError {
	category := accorderrors.CategoryOf(err)
	if category == "" {
		category = defaultCategoryForCode(code)
	}
	hint := accorderrors.HintOf(err)
	if hint == "" {
		hint = defaultHintForCode(code)
	}
	return &structuredError{
		Code:      code,
		Path:      path,
		Message:   err.Error(),
		Category:  string(category),
		Retryable: accorderrors.RetryableOf(err),
		Hint:      hint,
	}
}

// newStructuredErrorMsg is newStructuredError for the call sites with no
// underlying error value to classify — just a literal diagnostic message.
func newStructuredErrorMsg(code, path, message string) *structuredError {
	return newStructuredError(code, path, errors.New(message))
}

func defaultCategoryForCode(code string) accorderrors.Category {
	switch code {
	case "flag_parse_error", "missing_argument", "config_invalid":
		return accorderrors.CategoryValidation
	case "read_failed", "config_load_error", "listen_failed":
		return accorderrors.CategoryIO
	case "signer_init_failed":
		return accorderrors.CategorySigner
	case "schema_compile_failed", "build_failed", "card_marshal_failed", "encode_failed":
		return accorderrors.CategoryIntegrity
	case "pipeline_error":
		return accorderrors.CategoryExecutionFailed
	default:
		return accorderrors.CategoryIO
	}
}

func defaultHintForCode(code string) string {
	switch code {
	case "flag_parse_error":
		return "check command usage and flags with --help"
	case "missing_argument":
		return "provide the required arguments; see --help"
	case "config_invalid":
		return "fix the reported config fields and retry"
	case "read_failed":
		return "verify the file path is correct and readable"
	case "config_load_error":
		return "check the config file path and YAML syntax"
	case "signer_init_failed":
		return "check the signing key material and retry"
	case "schema_compile_failed", "card_marshal_failed", "encode_failed":
		return "this indicates a corrupted build; rebuild the binary"
	case "build_failed":
		return "verify the run directory's artifacts are present and readable"
	case "listen_failed":
		return "check that the listen address is free and retry"
	case "pipeline_error":
		return "check logs for the underlying cause and retry"
	default:
		return "retry after checking local environment and logs"
	}
}

func writeJSON(output any) {
	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Println(`{"ok":false,"error":{"code":"encode_failed","message":"failed to encode output"}}`)
		return
	}
	fmt.Println(string(encoded))
}

func writeJSONWithExit(output any, exitCode int) int {
	writeJSON(output)
	return exitCode
}
