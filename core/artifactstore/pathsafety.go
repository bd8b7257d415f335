package artifactstore

import (
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned (wrapped in core/errors) whenever a relative
// path fails the predicate below.
const notAllowedSentinel = ""

// IsSafeRelativePath reports whether p satisfies the path-safety contract
// of spec.md §4.5: non-empty, not absolute, no ".." segment, no NUL byte,
// and normalizes to a prefix-free descendant of its base.
func IsSafeRelativePath(p string) bool {
	if p == "" {
		return false
	}
	if strings.ContainsRune(p, 0) {
		return false
	}
	if filepath.IsAbs(p) {
		return false
	}
	slashPath := filepath.ToSlash(p)
	for _, segment := range strings.Split(slashPath, "/") {
		if segment == ".." {
			return false
		}
	}
	cleaned := filepath.ToSlash(filepath.Clean(p))
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return false
	}
	return true
}

// SafeJoin resolves rel against base and returns the joined path, or "" and
// false if resolution would escape base. Both the ArtifactStore writer and
// the EvidenceValidator use this single primitive.
func SafeJoin(base, rel string) (string, bool) {
	if !IsSafeRelativePath(rel) {
		return notAllowedSentinel, false
	}
	joined := filepath.Join(base, filepath.FromSlash(rel))
	baseClean := filepath.Clean(base)
	relToBase, err := filepath.Rel(baseClean, joined)
	if err != nil {
		return notAllowedSentinel, false
	}
	if relToBase == ".." || strings.HasPrefix(filepath.ToSlash(relToBase), "../") {
		return notAllowedSentinel, false
	}
	return joined, true
}
