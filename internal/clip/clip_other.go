//go:build !darwin && !windows && !linux

package clip

// New returns a no-op backend; there is no system clipboard support on this
// platform.
func New() Backend {
	return newHeadless()
}
