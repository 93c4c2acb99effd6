package reactive

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/liveui/pkg/async"
)

// Side selects which waker set an invalidation reaches.
//
// Inside wakers belong to observers nested in the same reactive subtree as
// the writer; outside wakers belong to observers that only care about the
// externally visible value.
type Side uint8

const (
	Inside Side = 1 << iota
	Outside

	Both = Inside | Outside
)

// debugLogger receives one record per invalidation when set.
var debugLogger atomic.Pointer[slog.Logger]

// SetDebugLogger enables debug logging of invalidations. Pass nil to disable.
func SetDebugLogger(l *slog.Logger) {
	debugLogger.Store(l)
}

// Listeners is the per-observable registry of pending wakers and the version
// counter. The zero value is ready to use and reports FirstVersion.
type Listeners struct {
	mu      sync.Mutex
	inside  []async.Waker
	outside []async.Waker

	// bumps counts invalidations; the version is FirstVersion + bumps.
	bumps atomic.Uint64
}

// Version returns the current version.
func (l *Listeners) Version() Version {
	return FirstVersion + Version(l.bumps.Load())
}

// AddInsideWaker registers w for the next inside invalidation.
func (l *Listeners) AddInsideWaker(w async.Waker) {
	l.mu.Lock()
	l.inside = append(l.inside, w)
	l.mu.Unlock()
}

// AddOutsideWaker registers w for the next outside invalidation.
func (l *Listeners) AddOutsideWaker(w async.Waker) {
	l.mu.Lock()
	l.outside = append(l.outside, w)
	l.mu.Unlock()
}

// InvalidateInside bumps the version and wakes every inside waker.
func (l *Listeners) InvalidateInside() {
	l.Invalidate(Inside)
}

// InvalidateOutside bumps the version and wakes every outside waker.
func (l *Listeners) InvalidateOutside() {
	l.Invalidate(Outside)
}

// Invalidate bumps the version once and wakes the wakers of every selected
// side, in registration order. Wakers are drained before any is called, so a
// waker may register again on the same registry.
func (l *Listeners) Invalidate(sides Side) {
	v := FirstVersion + Version(l.bumps.Add(1))

	l.mu.Lock()
	var wake []async.Waker
	if sides&Inside != 0 {
		wake = append(wake, l.inside...)
		l.inside = nil
	}
	if sides&Outside != 0 {
		wake = append(wake, l.outside...)
		l.outside = nil
	}
	l.mu.Unlock()

	if logger := debugLogger.Load(); logger != nil {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "invalidate",
			slog.String("version", v.String()),
			slog.Int("sides", int(sides)),
			slog.Int("wakers", len(wake)))
	}

	for _, w := range wake {
		w.Wake()
	}
}

// Pending returns the number of registered inside and outside wakers.
func (l *Listeners) Pending() (inside, outside int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inside), len(l.outside)
}
