package scoped

import (
	"log/slog"

	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/metrics"
)

// Option configures the scope of a Root.
type Option func(*Scope)

// WithLogger sets the logger of the root scope.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scope) { s.SetLogger(l) }
}

// WithMetrics sets the recorder of the root scope.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scope) { s.SetMetrics(m) }
}

// Root wraps a future that owns everything it references. It owns a fresh
// scope and enters it on every poll, so futures it creates can spawn
// scoped work.
type Root[T any] struct {
	scope *Scope
	fut   async.Future[T]
}

// NewRoot creates a root for fut.
func NewRoot[T any](fut async.Future[T], opts ...Option) *Root[T] {
	s := NewScope(nil)
	for _, opt := range opts {
		opt(s)
	}
	return &Root[T]{scope: s, fut: fut}
}

// Scope returns the root scope.
func (r *Root[T]) Scope() *Scope {
	return r.scope
}

// Poll polls the wrapped future with the root scope entered.
func (r *Root[T]) Poll(cx *async.Context) (out T, ok bool) {
	if r.scope.IsDisposed() {
		errors.Panic("S003", "root is closed")
	}
	r.scope.Enter(func() {
		out, ok = r.fut.Poll(cx)
	})
	return out, ok
}

// Close disposes the root scope, aborting everything spawned in it.
func (r *Root[T]) Close() {
	r.scope.Dispose()
}
