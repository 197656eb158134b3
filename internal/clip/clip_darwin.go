//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger clipbridge_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import "time"

// New returns the macOS pasteboard. The change count is polled instead of
// the contents.
func New() Backend {
	return newSystem("macOS NSPasteboard", 100*time.Millisecond, func() func() bool {
		last := C.clipbridge_changeCount()
		return func() bool {
			cc := C.clipbridge_changeCount()
			if cc == last {
				return false
			}
			last = cc
			return true
		}
	})
}
