// Package artifactstore implements the two invariants spec.md §4.5
// requires of every filesystem operation in the pipeline: no partially
// written file is ever observable at its target name (I1), and no write
// escapes its base directory via path traversal (I2).
package artifactstore

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	accorderrors "github.com/accord-protocol/solverd/core/errors"
)

// WrittenArtifact is the result of a single writeArtifact/writeArtifactsBatch
// call: the relative path and final size in bytes.
type WrittenArtifact struct {
	Path  string
	Bytes int64
}

// Store roots every operation at a base directory (typically
// dataDir/runs/{runId}). Relative paths are always validated against
// IsSafeRelativePath before any filesystem call is made.
type Store struct {
	base string
}

func New(base string) *Store {
	return &Store{base: base}
}

// EnsureDir recursively creates dir (relative to base) if absent.
func (s *Store) EnsureDir(relDir string) error {
	target, ok := SafeJoin(s.base, relDir)
	if !ok {
		return accorderrors.Wrap(fmt.Errorf("unsafe directory path %q", relDir), accorderrors.CategoryIO, "unsafe_path", "use a relative path with no parent traversal", false)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return accorderrors.Wrap(err, accorderrors.CategoryIO, "mkdir_failed", "check filesystem permissions", true)
	}
	return nil
}

// WriteArtifact writes content to relPath via the write-temp-then-rename
// pattern: the temp file lives beside the target so rename is POSIX-atomic
// within the same directory. The written file and its parent directory are
// fsynced after rename for audit durability (spec.md §9 Open Question 2).
func (s *Store) WriteArtifact(relPath string, content []byte) (WrittenArtifact, error) {
	target, ok := SafeJoin(s.base, relPath)
	if !ok {
		return WrittenArtifact{}, accorderrors.Wrap(fmt.Errorf("unsafe artifact path %q", relPath), accorderrors.CategoryIO, "unsafe_path", "use a relative path with no parent traversal", false)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return WrittenArtifact{}, accorderrors.Wrap(err, accorderrors.CategoryIO, "mkdir_failed", "check filesystem permissions", true)
	}

	tempPath, err := writeTemp(filepath.Dir(target), content)
	if err != nil {
		return WrittenArtifact{}, accorderrors.Wrap(err, accorderrors.CategoryIO, "temp_write_failed", "check disk space", true)
	}

	if err := atomicRename(tempPath, target); err != nil {
		_ = os.Remove(tempPath)
		return WrittenArtifact{}, accorderrors.Wrap(err, accorderrors.CategoryIO, "rename_failed", "check filesystem permissions", true)
	}
	fsyncPathAndParent(target)

	return WrittenArtifact{Path: relPath, Bytes: int64(len(content))}, nil
}

// BatchEntry is one input to WriteArtifactsBatch.
type BatchEntry struct {
	Path    string
	Content []byte
}

// WriteArtifactsBatch writes every entry to a temp file (phase 1), then
// renames all of them into place (phase 2). If any phase-1 write fails, all
// temp files already created are unlinked and the call fails with none of
// the batch committed.
func (s *Store) WriteArtifactsBatch(entries []BatchEntry) ([]WrittenArtifact, error) {
	type staged struct {
		target   string
		tempPath string
		relPath  string
		size     int64
	}

	staged_ := make([]staged, 0, len(entries))
	cleanup := func() {
		for _, st := range staged_ {
			_ = os.Remove(st.tempPath)
		}
	}

	for _, entry := range entries {
		target, ok := SafeJoin(s.base, entry.Path)
		if !ok {
			cleanup()
			return nil, accorderrors.Wrap(fmt.Errorf("unsafe artifact path %q", entry.Path), accorderrors.CategoryIO, "unsafe_path", "use a relative path with no parent traversal", false)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			cleanup()
			return nil, accorderrors.Wrap(err, accorderrors.CategoryIO, "mkdir_failed", "check filesystem permissions", true)
		}
		tempPath, err := writeTemp(filepath.Dir(target), entry.Content)
		if err != nil {
			cleanup()
			return nil, accorderrors.Wrap(err, accorderrors.CategoryIO, "temp_write_failed", "check disk space", true)
		}
		staged_ = append(staged_, staged{target: target, tempPath: tempPath, relPath: entry.Path, size: int64(len(entry.Content))})
	}

	results := make([]WrittenArtifact, 0, len(staged_))
	for _, st := range staged_ {
		if err := atomicRename(st.tempPath, st.target); err != nil {
			return results, accorderrors.Wrap(err, accorderrors.CategoryIO, "rename_failed", "check filesystem permissions", true)
		}
		fsyncPathAndParent(st.target)
		results = append(results, WrittenArtifact{Path: st.relPath, Bytes: st.size})
	}
	return results, nil
}

// ListFilesRecursive returns every regular file under root (relative to
// base), sorted ascending, skipping any path segment beginning with
// ".tmp-".
func (s *Store) ListFilesRecursive(relRoot string) ([]string, error) {
	root, ok := SafeJoin(s.base, relRoot)
	if !ok {
		return nil, accorderrors.Wrap(fmt.Errorf("unsafe root path %q", relRoot), accorderrors.CategoryIO, "unsafe_path", "use a relative path with no parent traversal", false)
	}

	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".tmp-") {
			return nil
		}
		rel, relErr := filepath.Rel(s.base, path)
		if relErr != nil {
			return relErr
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, accorderrors.Wrap(err, accorderrors.CategoryIO, "walk_failed", "check filesystem permissions", true)
	}
	sort.Strings(out)
	return out, nil
}

// SizeOf returns the size in bytes of relPath.
func (s *Store) SizeOf(relPath string) (int64, error) {
	target, ok := SafeJoin(s.base, relPath)
	if !ok {
		return 0, accorderrors.Wrap(fmt.Errorf("unsafe path %q", relPath), accorderrors.CategoryIO, "unsafe_path", "use a relative path with no parent traversal", false)
	}
	info, err := os.Stat(target)
	if err != nil {
		return 0, accorderrors.Wrap(err, accorderrors.CategoryIO, "stat_failed", "check the path exists", false)
	}
	return info.Size(), nil
}

// ReapOrphans sweeps orphan ".tmp-*" files under base older than olderThan.
// Permitted (MAY) by spec.md §4.5; run at startup as housekeeping.
func (s *Store) ReapOrphans(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	swept := 0
	err := filepath.Walk(s.base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasPrefix(filepath.Base(path), ".tmp-") {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if removeErr := os.Remove(path); removeErr == nil {
			swept++
		}
		return nil
	})
	if err != nil {
		return swept, accorderrors.Wrap(err, accorderrors.CategoryIO, "reap_failed", "check filesystem permissions", true)
	}
	return swept, nil
}

func writeTemp(dir string, content []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	tempPath := f.Name()
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}
	return tempPath, nil
}

func atomicRename(tempPath, target string) error {
	if err := os.Rename(tempPath, target); err != nil {
		if runtime.GOOS != "windows" {
			return err
		}
		if removeErr := os.Remove(target); removeErr != nil && !os.IsNotExist(removeErr) {
			return removeErr
		}
		return os.Rename(tempPath, target)
	}
	return nil
}

func fsyncPathAndParent(target string) {
	if f, err := os.Open(target); err == nil {
		_ = f.Sync()
		_ = f.Close()
	}
	// #nosec G304 -- parent directory is derived from a path-safety-checked target.
	if dirHandle, err := os.Open(filepath.Dir(target)); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}
}
