//go:build linux

package clip

import "time"

// New returns the X11/Wayland clipboard, or a headless backend when there is
// no display. There is no change notification, so the contents are polled
// and compared.
func New() Backend {
	return newSystem("Linux clipboard (poll)", 250*time.Millisecond, func() func() bool {
		last := readSystem()
		return func() bool {
			items := readSystem()
			if Equal(items, last) {
				return false
			}
			last = items
			return true
		}
	})
}
