package agent

import (
	"context"
	"time"
)

// Run is the task's event loop. It returns nil after a Quit message or when
// the bus closes the inbox, and ctx.Err() on cancellation. The agent is
// closed on return.
func (a *Agent) Run(ctx context.Context) error {
	defer a.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var deadline <-chan time.Time
		if at, ok := a.Deadline(); ok {
			timer.Reset(max(at.Sub(a.opts.Now()), 0))
			deadline = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-a.port.Inbox():
			if !ok {
				return nil
			}
			a.HandleMessage(msg)
			if a.quitting() {
				return nil
			}
		case <-a.cell.C():
			a.HandlePollword()
		case <-deadline:
			a.HandleDeadline(a.opts.Now())
		}
		timer.Stop()
	}
}

func (a *Agent) quitting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quit
}
