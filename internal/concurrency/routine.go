package concurrency

import (
	"log/slog"
	"runtime/debug"
)

// SafeGo starts fn on its own goroutine and keeps a panic in fn from killing
// the process. Used for fire-and-forget work such as the paired continuation
// fetches, where one misbehaving fetch must not take out its sibling. The
// recovered value and stack are logged; onPanic, when non-nil, gets the
// recovered value.
func SafeGo(fn func(), onPanic func(any)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Recovered panic in background goroutine", "panic", r, "stack", string(debug.Stack()))
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}
