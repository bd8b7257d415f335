// Package appendlog implements the refusal/receipt log: append a single
// JSON line to a shared file with at-least-once-durable semantics under
// concurrent writers within and across processes.
package appendlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	accorderrors "github.com/accord-protocol/solverd/core/errors"
)

const (
	lockTimeout    = 30 * time.Second
	lockRetry      = 10 * time.Millisecond
	lockStaleAfter = 2 * time.Minute
)

// Append writes line (no embedded newline) as one more line of target,
// following the protocol of spec.md §4.9: acquire a cross-process lock,
// read the existing file, concatenate, write to a sibling temp file, and
// rename over the target. The read-rewrite-rename keeps the observable
// file atomic even if the process crashes mid-append, at O(N) cost per
// append.
func Append(target string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return accorderrors.Wrap(err, accorderrors.CategoryIO, "mkdir_failed", "check filesystem permissions", true)
	}

	return withFileLock(target, func() error {
		existing, err := os.ReadFile(target)
		if err != nil && !os.IsNotExist(err) {
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "read_failed", "check filesystem permissions", true)
		}

		payload := make([]byte, 0, len(existing)+len(line)+1)
		payload = append(payload, existing...)
		payload = append(payload, line...)
		payload = append(payload, '\n')

		tempFile, err := os.CreateTemp(filepath.Dir(target), ".tmp-append-*")
		if err != nil {
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "temp_write_failed", "check disk space", true)
		}
		tempPath := tempFile.Name()
		if _, err := tempFile.Write(payload); err != nil {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "write_failed", "check disk space", true)
		}
		if err := tempFile.Sync(); err != nil {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "sync_failed", "check disk health", true)
		}
		if err := tempFile.Close(); err != nil {
			_ = os.Remove(tempPath)
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "close_failed", "check disk health", true)
		}
		if err := os.Rename(tempPath, target); err != nil {
			_ = os.Remove(tempPath)
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "rename_failed", "check filesystem permissions", true)
		}
		if dirHandle, err := os.Open(filepath.Dir(target)); err == nil {
			_ = dirHandle.Sync()
			_ = dirHandle.Close()
		}
		return nil
	})
}

// AppendFast bypasses the lock/rewrite protocol: it opens target with
// O_APPEND and writes line directly. It is unsafe for concurrent writers
// (spec.md §4.9's named high-throughput variant) and is only wired to the
// CLI's single-writer local-iteration path (run-fixture --no-lock).
func AppendFast(target string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return accorderrors.Wrap(err, accorderrors.CategoryIO, "mkdir_failed", "check filesystem permissions", true)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return accorderrors.Wrap(err, accorderrors.CategoryIO, "open_failed", "check filesystem permissions", true)
	}
	defer f.Close()
	payload := append(append([]byte{}, line...), '\n')
	if _, err := f.Write(payload); err != nil {
		return accorderrors.Wrap(err, accorderrors.CategoryIO, "write_failed", "check disk space", true)
	}
	return f.Sync()
}

// ErrLockTimeout is returned when the lock cannot be acquired within the
// retry budget.
var ErrLockTimeout = fmt.Errorf("appendlog: lock acquisition timed out")

func withFileLock(target string, fn func() error) error {
	lockPath := target + ".lock"
	start := time.Now()
	for {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = lockFile.Close()
			defer os.Remove(lockPath)
			return fn()
		}
		if !os.IsExist(err) {
			return accorderrors.Wrap(err, accorderrors.CategoryIO, "lock_acquire_failed", "check filesystem permissions", true)
		}
		if staleLock(lockPath) {
			_ = os.Remove(lockPath)
			continue
		}
		if time.Since(start) >= lockTimeout {
			return accorderrors.Wrap(ErrLockTimeout, accorderrors.CategoryStateContention, "lock_timeout", "retry after the current writer finishes", true)
		}
		time.Sleep(lockRetry)
	}
}

func staleLock(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > lockStaleAfter
}
