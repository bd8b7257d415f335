package appendlog

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendWritesFirstLine(t *testing.T) {
	target := filepath.Join(t.TempDir(), "refusals.jsonl")
	require.NoError(t, Append(target, []byte(`{"a":1}`)))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "{\"a\":1}\n", string(content))
}

func TestAppendConcatenatesSubsequentLines(t *testing.T) {
	target := filepath.Join(t.TempDir(), "refusals.jsonl")
	require.NoError(t, Append(target, []byte(`{"a":1}`)))
	require.NoError(t, Append(target, []byte(`{"a":2}`)))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "{\"a\":1}\n{\"a\":2}\n", string(content))
}

func TestAppendConcurrentWritersProduceNoPartialLines(t *testing.T) {
	target := filepath.Join(t.TempDir(), "refusals.jsonl")
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = Append(target, []byte(fmt.Sprintf(`{"i":%d}`, i)))
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(target)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	lines := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		require.True(t, bytes.HasPrefix(line, []byte("{")), "line must be a complete JSON object, got %q", line)
		require.True(t, bytes.HasSuffix(line, []byte("}")))
		lines++
	}
	require.Equal(t, n, lines)
}

func TestAppendFastWritesLine(t *testing.T) {
	target := filepath.Join(t.TempDir(), "receipts.jsonl")
	require.NoError(t, AppendFast(target, []byte(`{"r":1}`)))
	require.NoError(t, AppendFast(target, []byte(`{"r":2}`)))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "{\"r\":1}\n{\"r\":2}\n", string(content))
}

func TestAppendCreatesParentDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "dir", "log.jsonl")
	require.NoError(t, Append(target, []byte(`{"a":1}`)))
	_, err := os.Stat(target)
	require.NoError(t, err)
}
