package observability

import "runtime/debug"

// RecoverPanic recovers a panic in a background goroutine and logs it
// with the full stack trace. Intended for defer at the top of goroutines
// that outlive a request (watchers, sweepers); the HTTP path has its own
// recovery middleware. The panic is not re-raised, so the goroutine ends
// but the process survives.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}
