package clip

import (
	"sync"
	"time"
)

// watcher polls a change check and raises a coalescing signal when the check
// reports a change.
type watcher struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

func startWatcher(every time.Duration, changed func() bool) *watcher {
	w := &watcher{ch: make(chan struct{}, 1), done: make(chan struct{})}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-w.done:
				return
			case <-t.C:
				if changed() {
					signal(w.ch)
				}
			}
		}
	}()
	return w
}

func (w *watcher) Watch() <-chan struct{} { return w.ch }

// Close stops polling. Safe to call more than once.
func (w *watcher) Close() { w.once.Do(func() { close(w.done) }) }
