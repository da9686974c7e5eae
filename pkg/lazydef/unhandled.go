package lazydef

import (
	"log/slog"
	"sync"
)

var (
	unhandledMu sync.RWMutex
	unhandledFn func(error)
)

// SetUnhandledErrorHandler installs the process-wide handler for errors that
// end a pipeline attempt: resolution failures, load failures and rejected
// definitions. Observers have no per-instance error callback. A nil handler
// restores the default, which logs at error level with slog.Default().
// SetUnhandledErrorHandler returns the previous handler.
func SetUnhandledErrorHandler(fn func(error)) func(error) {
	unhandledMu.Lock()
	defer unhandledMu.Unlock()
	prev := unhandledFn
	unhandledFn = fn
	return prev
}

func reportUnhandled(err error) {
	unhandledMu.RLock()
	fn := unhandledFn
	unhandledMu.RUnlock()

	if fn == nil {
		slog.Error("lazydef: unhandled error", "error", err)
		return
	}
	fn(err)
}
