package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/accord-protocol/solverd/core/artifactstore"
	"github.com/accord-protocol/solverd/core/canon"
)

// ValidationErrorCode enumerates spec.md §4.8's eight check codes.
type ValidationErrorCode string

const (
	ManifestNotFound      ValidationErrorCode = "MANIFEST_NOT_FOUND"
	ManifestParseError    ValidationErrorCode = "MANIFEST_PARSE_ERROR"
	SchemaValidationError ValidationErrorCode = "SCHEMA_VALIDATION_ERROR"
	UnsafePath            ValidationErrorCode = "UNSAFE_PATH"
	PathEscape            ValidationErrorCode = "PATH_ESCAPE"
	ArtifactNotFound      ValidationErrorCode = "ARTIFACT_NOT_FOUND"
	SizeMismatch          ValidationErrorCode = "SIZE_MISMATCH"
	HashMismatch          ValidationErrorCode = "HASH_MISMATCH"
)

// ValidationError is one finding from Validate.
type ValidationError struct {
	Code    ValidationErrorCode
	Message string
	Path    string
}

// Report is the aggregate outcome: Valid is true iff Errors is empty.
type Report struct {
	Valid  bool
	Errors []ValidationError
}

// Validator checks a run directory's evidence bundle for internal
// consistency: schema-valid manifest, path-safe and present artifacts,
// matching sizes and hashes. It streams every hash; it never loads a whole
// artifact file into memory.
type Validator struct {
	schema *CompiledSchema
}

func NewValidator(schema *CompiledSchema) *Validator {
	return &Validator{schema: schema}
}

// Validate runs every check in the order spec.md §4.8 lists them, except
// that later checks on a file only run when the earlier structural checks
// for that file passed — there is nothing to hash if the artifact is
// absent, for instance.
func (v *Validator) Validate(runDir string) Report {
	manifestPath := filepath.Join(runDir, "evidence", "manifest.json")

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Report{Errors: []ValidationError{{Code: ManifestNotFound, Message: "evidence/manifest.json is missing"}}}
		}
		return Report{Errors: []ValidationError{{Code: ManifestNotFound, Message: err.Error()}}}
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return Report{Errors: []ValidationError{{Code: ManifestParseError, Message: err.Error()}}}
	}

	var errs []ValidationError
	if v.schema != nil {
		if schemaErrs := v.schema.Validate(raw); len(schemaErrs) > 0 {
			for _, msg := range schemaErrs {
				errs = append(errs, ValidationError{Code: SchemaValidationError, Message: msg})
			}
		}
	}

	for _, artifact := range manifest.Artifacts {
		if !artifactstore.IsSafeRelativePath(artifact.Path) {
			errs = append(errs, ValidationError{Code: UnsafePath, Message: "artifact path fails path-safety predicate", Path: artifact.Path})
			continue
		}
		absPath, ok := artifactstore.SafeJoin(runDir, artifact.Path)
		if !ok {
			errs = append(errs, ValidationError{Code: PathEscape, Message: "artifact path escapes run directory", Path: artifact.Path})
			continue
		}

		info, statErr := os.Stat(absPath)
		if statErr != nil {
			errs = append(errs, ValidationError{Code: ArtifactNotFound, Message: "referenced artifact is absent", Path: artifact.Path})
			continue
		}
		if info.Size() != artifact.Bytes {
			errs = append(errs, ValidationError{Code: SizeMismatch, Message: "filesystem size does not match manifest", Path: artifact.Path})
			continue
		}

		actualHash, hashErr := streamingSHA256(absPath)
		if hashErr != nil {
			errs = append(errs, ValidationError{Code: ArtifactNotFound, Message: hashErr.Error(), Path: artifact.Path})
			continue
		}
		if actualHash != artifact.SHA256 {
			errs = append(errs, ValidationError{Code: HashMismatch, Message: "recomputed SHA-256 does not match manifest", Path: artifact.Path})
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

func streamingSHA256(absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyManifestDigest recomputes ManifestDigest from the on-disk manifest
// and compares it against the stored manifest.sha256 file. It is a
// separate check from Validate's structural checks because it requires
// re-canonicalizing the manifest, which is only meaningful once the
// manifest has already parsed successfully.
func VerifyManifestDigest(runDir string) (bool, string, string, error) {
	manifestPath := filepath.Join(runDir, "evidence", "manifest.json")
	digestPath := filepath.Join(runDir, "evidence", "manifest.sha256")

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return false, "", "", err
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return false, "", "", err
	}

	computed, err := canon.Digest(manifest.forDigest())
	if err != nil {
		return false, "", "", err
	}

	storedRaw, err := os.ReadFile(digestPath)
	if err != nil {
		return false, computed, "", err
	}
	stored := trimNewline(string(storedRaw))
	return stored == computed, computed, stored, nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
