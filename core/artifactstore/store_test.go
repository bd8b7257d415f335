package artifactstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteArtifactProducesReadableFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	written, err := s.WriteArtifact("artifacts/report.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	require.Equal(t, "artifacts/report.json", written.Path)
	require.EqualValues(t, 7, written.Bytes)

	content, err := os.ReadFile(filepath.Join(dir, "artifacts", "report.json"))
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(content))
}

func TestWriteArtifactRejectsTraversal(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.WriteArtifact("../escape.txt", []byte("x"))
	require.Error(t, err)
}

func TestWriteArtifactsBatchWritesAllOrNone(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	results, err := s.WriteArtifactsBatch([]BatchEntry{
		{Path: "artifacts/a.txt", Content: []byte("a")},
		{Path: "artifacts/b.txt", Content: []byte("b")},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	_, err = os.Stat(filepath.Join(dir, "artifacts", "a.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "artifacts", "b.txt"))
	require.NoError(t, err)
}

func TestWriteArtifactsBatchRollsBackOnUnsafePath(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	_, err := s.WriteArtifactsBatch([]BatchEntry{
		{Path: "artifacts/a.txt", Content: []byte("a")},
		{Path: "../escape.txt", Content: []byte("b")},
	})
	require.Error(t, err)

	entries, _ := os.ReadDir(filepath.Join(dir, "artifacts"))
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestListFilesRecursiveSortsAscendingAndSkipsTemp(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	_, err := s.WriteArtifactsBatch([]BatchEntry{
		{Path: "artifacts/b.txt", Content: []byte("b")},
		{Path: "artifacts/a.txt", Content: []byte("a")},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "artifacts", ".tmp-orphan"), []byte("x"), 0o644))

	files, err := s.ListFilesRecursive("artifacts")
	require.NoError(t, err)
	require.Equal(t, []string{"artifacts/a.txt", "artifacts/b.txt"}, files)
}

func TestSizeOfMatchesWrittenBytes(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	_, err := s.WriteArtifact("artifacts/x.bin", []byte("hello world"))
	require.NoError(t, err)

	size, err := s.SizeOf("artifacts/x.bin")
	require.NoError(t, err)
	require.EqualValues(t, 11, size)
}

func TestReapOrphansSweepsOldTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "runs", "r1", "artifacts"), 0o755))
	orphan := filepath.Join(dir, "runs", "r1", "artifacts", ".tmp-old")
	require.NoError(t, os.WriteFile(orphan, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(orphan, old, old))

	swept, err := s.ReapOrphans(time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, swept)
	_, statErr := os.Stat(orphan)
	require.True(t, os.IsNotExist(statErr))
}

func TestIsSafeRelativePathRejectsTraversalAndAbsolute(t *testing.T) {
	require.True(t, IsSafeRelativePath("artifacts/report.json"))
	require.False(t, IsSafeRelativePath("../etc/passwd"))
	require.False(t, IsSafeRelativePath("/etc/passwd"))
	require.False(t, IsSafeRelativePath(""))
	require.False(t, IsSafeRelativePath("a/../../b"))
}

func TestSafeJoinReturnsNotAllowedOnEscape(t *testing.T) {
	_, ok := SafeJoin("/data/runs/abc", "../../etc/passwd")
	require.False(t, ok)

	joined, ok := SafeJoin("/data/runs/abc", "artifacts/report.json")
	require.True(t, ok)
	require.Equal(t, "/data/runs/abc/artifacts/report.json", joined)
}
