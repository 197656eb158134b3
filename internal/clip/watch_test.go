package clip

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatcherSignalsOnChange(t *testing.T) {
	var calls atomic.Int32
	w := startWatcher(time.Millisecond, func() bool { return calls.Add(1) == 3 })
	defer w.Close()

	select {
	case <-w.Watch():
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWatcherCloseStopsPolling(t *testing.T) {
	var calls atomic.Int32
	w := startWatcher(time.Millisecond, func() bool { calls.Add(1); return false })
	time.Sleep(10 * time.Millisecond)
	w.Close()
	w.Close()
	time.Sleep(5 * time.Millisecond)
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
}
