package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/accord-protocol/solverd/core/ids"
)

// ValidationError is one entry of the structured error list Validate
// returns. Path uses a dotted/bracket notation rooted at "$".
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidatorConfig controls the one behavior spec.md leaves open: whether a
// caller-supplied intentId that does not match the recomputed value is
// rejected (strict) or accepted with a warning (lenient, the default).
type ValidatorConfig struct {
	StrictIntentID bool
}

// Validate consumes arbitrary decoded JSON bytes and produces a
// NormalizedIntent, or a non-empty list of ValidationErrors. malformed JSON
// itself is reported as a single ValidationError at path "$".
func Validate(raw []byte, cfg ValidatorConfig) (*NormalizedIntent, []ValidationError) {
	var asMap map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&asMap); err != nil {
		return nil, []ValidationError{{Path: "$", Message: "not well-formed JSON: " + err.Error()}}
	}

	if errs := checkUnknownFields(asMap); len(errs) > 0 {
		return nil, errs
	}

	var in Intent
	inDec := json.NewDecoder(bytes.NewReader(raw))
	inDec.UseNumber()
	if err := inDec.Decode(&in); err != nil {
		return nil, []ValidationError{{Path: "$", Message: "does not match Intent shape: " + err.Error()}}
	}

	var errs []ValidationError

	if in.IntentVersion != SupportedIntentVersion {
		errs = append(errs, ValidationError{
			Path:    "$.intentVersion",
			Message: fmt.Sprintf("unsupported intentVersion %q, expected %q", in.IntentVersion, SupportedIntentVersion),
		})
	}
	if in.Requester == "" {
		errs = append(errs, ValidationError{Path: "$.requester", Message: "must be a non-empty string"})
	}
	if in.JobType == "" {
		errs = append(errs, ValidationError{Path: "$.jobType", Message: "must be a non-empty string"})
	}
	if _, err := time.Parse(time.RFC3339, in.CreatedAt); err != nil {
		errs = append(errs, ValidationError{Path: "$.createdAt", Message: "must be RFC 3339: " + err.Error()})
	}
	if in.ExpiresAt != "" {
		if _, err := time.Parse(time.RFC3339, in.ExpiresAt); err != nil {
			errs = append(errs, ValidationError{Path: "$.expiresAt", Message: "must be RFC 3339: " + err.Error()})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if inputErrs := validateInputs(in.JobType, in.Inputs); len(inputErrs) > 0 {
		return nil, inputErrs
	}

	computedID, err := ids.IntentID(in.IntentVersion, in.Requester, in.JobType, in.Inputs, constraintsOrEmpty(in.Constraints))
	if err != nil {
		return nil, []ValidationError{{Path: "$.inputs", Message: "could not canonicalize: " + err.Error()}}
	}

	normalized := &NormalizedIntent{Intent: in}
	switch {
	case in.IntentID == "":
		normalized.IntentID = computedID
	case in.IntentID == computedID:
		normalized.IntentID = computedID
	case cfg.StrictIntentID:
		return nil, []ValidationError{{
			Path:    "$.intentId",
			Message: fmt.Sprintf("provided intentId %q does not match computed %q", in.IntentID, computedID),
		}}
	default:
		normalized.IntentID = computedID
		normalized.Warning = fmt.Sprintf("provided intentId %q did not match computed %q; computed value used", in.IntentID, computedID)
	}

	return normalized, nil
}

func constraintsOrEmpty(c map[string]any) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return c
}

func checkUnknownFields(m map[string]any) []ValidationError {
	var errs []ValidationError
	for key := range m {
		if _, ok := knownTopLevelFields[key]; !ok {
			errs = append(errs, ValidationError{Path: "$." + key, Message: "unknown field"})
		}
	}
	return errs
}

// validateInputs dispatches input validation by jobType tag. SAFE_REPORT
// requires a non-empty string `subject` and a mapping `data` of string to
// arbitrary JSON value. A jobType with no registered validator is not a
// validation error at this layer: enforcing which job types may actually
// execute is PolicyEngine's jobType_allowlist check, not the validator's —
// an intent naming an unrecognized jobType still normalizes so it can be
// refused, with reasons, rather than rejected as malformed.
func validateInputs(jobType string, inputs map[string]any) []ValidationError {
	switch jobType {
	case JobTypeSafeReport:
		return validateSafeReportInputs(inputs)
	default:
		return nil
	}
}

func validateSafeReportInputs(inputs map[string]any) []ValidationError {
	var errs []ValidationError

	subject, ok := inputs["subject"]
	if !ok {
		errs = append(errs, ValidationError{Path: "$.inputs.subject", Message: "required"})
	} else if s, ok := subject.(string); !ok || s == "" {
		errs = append(errs, ValidationError{Path: "$.inputs.subject", Message: "must be a non-empty string"})
	}

	data, ok := inputs["data"]
	if !ok {
		errs = append(errs, ValidationError{Path: "$.inputs.data", Message: "required"})
	} else if _, ok := data.(map[string]any); !ok {
		errs = append(errs, ValidationError{Path: "$.inputs.data", Message: "must be a mapping"})
	}

	for key := range inputs {
		if key != "subject" && key != "data" {
			errs = append(errs, ValidationError{Path: "$.inputs." + key, Message: "unknown field for jobType SAFE_REPORT"})
		}
	}

	return errs
}
