package async

import "sync"

// Waker is notified when a pending future may be able to make progress.
// Wake may be called any number of times, from any goroutine.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to the Waker interface.
type WakerFunc func()

// Wake calls f.
func (f WakerFunc) Wake() { f() }

// Noop is a waker that does nothing.
var Noop Waker = WakerFunc(func() {})

// Context is handed to a future on every poll.
type Context struct {
	waker Waker
}

// NewContext returns a context carrying w. A nil waker is replaced by Noop.
func NewContext(w Waker) *Context {
	if w == nil {
		w = Noop
	}
	return &Context{waker: w}
}

// Waker returns the waker of the task being polled.
func (cx *Context) Waker() Waker {
	return cx.waker
}

// Future is a value that becomes available after zero or more polls.
// Poll returns the value and true once ready.
type Future[T any] interface {
	Poll(cx *Context) (T, bool)
}

// FutureFunc adapts a poll function to the Future interface.
type FutureFunc[T any] func(cx *Context) (T, bool)

// Poll calls f.
func (f FutureFunc[T]) Poll(cx *Context) (T, bool) { return f(cx) }

// Ready returns a future that is ready on its first poll.
func Ready[T any](v T) Future[T] {
	return FutureFunc[T](func(*Context) (T, bool) { return v, true })
}

// Pending returns a future that never completes.
func Pending[T any]() Future[T] {
	return FutureFunc[T](func(*Context) (T, bool) {
		var zero T
		return zero, false
	})
}

// Then runs first to completion and then the future returned by next.
func Then[A, B any](first Future[A], next func(A) Future[B]) Future[B] {
	var second Future[B]
	return FutureFunc[B](func(cx *Context) (B, bool) {
		if second == nil {
			a, ok := first.Poll(cx)
			if !ok {
				var zero B
				return zero, false
			}
			second = next(a)
		}
		return second.Poll(cx)
	})
}

// Erase discards the output of fut.
func Erase[T any](fut Future[T]) Future[struct{}] {
	return FutureFunc[struct{}](func(cx *Context) (struct{}, bool) {
		_, ok := fut.Poll(cx)
		return struct{}{}, ok
	})
}

// Flag is a waker that records whether it has been woken. It is used to
// drive futures by hand in tests and in blocking helpers.
type Flag struct {
	mu    sync.Mutex
	woken int
}

// Wake records a wake-up.
func (f *Flag) Wake() {
	f.mu.Lock()
	f.woken++
	f.mu.Unlock()
}

// Count returns how many times the flag has been woken.
func (f *Flag) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.woken
}

// Take returns whether the flag was woken since the last Take, and resets it.
func (f *Flag) Take() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	woken := f.woken > 0
	f.woken = 0
	return woken
}
