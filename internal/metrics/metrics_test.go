package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncAndSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Inc("requests_total")
	r.Inc("requests_total")
	r.Add("bytes_total", 100)

	snap := r.Snapshot()
	require.Equal(t, int64(2), snap["requests_total"])
	require.Equal(t, int64(100), snap["bytes_total"])
}

func TestWriteTextIsSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Inc("zzz")
	r.Inc("aaa")

	text := string(r.WriteText())
	require.True(t, strings.Index(text, "aaa") < strings.Index(text, "zzz"))
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Inc("concurrent")
		}()
	}
	wg.Wait()
	require.Equal(t, int64(100), r.Snapshot()["concurrent"])
}
