package pollword

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTakeClears(t *testing.T) {
	c := New()
	assert.Equal(t, None, c.Take())
	assert.True(t, c.Raise(HostChanged))
	assert.Equal(t, HostChanged, c.Peek())
	assert.Equal(t, HostChanged, c.Take())
	assert.Equal(t, None, c.Take())
}

func TestRaiseNeverDowngrades(t *testing.T) {
	c := New()
	c.Raise(HostChanged)
	assert.False(t, c.Raise(Tick))
	assert.Equal(t, HostChanged, c.Take())

	c.Raise(Tick)
	assert.True(t, c.Raise(HostChanged))
	assert.Equal(t, HostChanged, c.Take())
}

func TestRaiseIfIdle(t *testing.T) {
	c := New()
	assert.True(t, c.RaiseIfIdle(Tick))
	assert.False(t, c.RaiseIfIdle(HostChanged))
	assert.Equal(t, Tick, c.Take())
	assert.False(t, c.RaiseIfIdle(None))
	assert.False(t, c.Raise(None))
}

func TestWakeChannel(t *testing.T) {
	c := New()
	c.Raise(Tick)
	c.Raise(HostChanged)
	select {
	case <-c.C():
	default:
		t.Fatal("expected wake")
	}
	select {
	case <-c.C():
		t.Fatal("wake channel should hold one token")
	default:
	}
	assert.Equal(t, HostChanged, c.Take())
}

func TestConcurrentRaiseTake(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	seen := 0
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Raise(HostChanged)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if c.Take() == HostChanged {
				mu.Lock()
				seen++
				mu.Unlock()
			}
		}
	}()
	wg.Wait()
	if c.Take() == HostChanged {
		seen++
	}
	assert.GreaterOrEqual(t, seen, 1)
}
