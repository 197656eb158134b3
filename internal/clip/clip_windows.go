//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
//
// #define CLIPBRIDGE_CHANGED (WM_APP + 7)
//
// static LRESULT CALLBACK clipbridge_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, CLIPBRIDGE_CHANGED, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipbridge_listen(void) {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = clipbridge_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipbridgeListener";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, wc.lpszClassName, NULL, 0, 0, 0, 0, 0,
//         HWND_MESSAGE, NULL, wc.hInstance, NULL);
//     AddClipboardFormatListener(hwnd);
//     return hwnd;
// }
//
// static int clipbridge_drain(HWND hwnd) {
//     MSG msg;
//     int changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == CLIPBRIDGE_CHANGED) changed = 1;
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
//     return changed;
// }
import "C"

import (
	"runtime"
	"time"
)

// New returns the Windows clipboard. WM_CLIPBOARDUPDATE is delivered to a
// message-only window whose queue the polling goroutine drains.
func New() Backend {
	return newSystem("Windows clipboard", 50*time.Millisecond, func() func() bool {
		var hwnd C.HWND
		return func() bool {
			// The window and its queue belong to the polling thread.
			if hwnd == nil {
				runtime.LockOSThread()
				hwnd = C.clipbridge_listen()
			}
			return C.clipbridge_drain(hwnd) != 0
		}
	})
}
