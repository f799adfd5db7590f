// internal/browser/context_utils.go
package browser

import "context"

// CombineContext derives a context from tab, so it keeps the CDP target
// values, that is also canceled when op is done. op usually carries the
// caller's deadline.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tab)
	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// Detach returns a context that keeps the values of ctx but ignores its
// cancellation. The browser allocator uses it so a launch deadline does not
// kill the browser process once it is running.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
