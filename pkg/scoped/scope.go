package scoped

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/liveui/pkg/metrics"
)

var scopeIDs atomic.Uint64

// closer is anything a scope must abort when it is disposed.
type closer interface {
	Close()
}

// Scope bounds the lifetime of the futures spawned in it. Disposing a
// scope aborts everything it owns, children first.
type Scope struct {
	id     uint64
	parent *Scope

	logger  *slog.Logger
	metrics *metrics.Recorder

	mu       sync.Mutex
	children []*Scope
	owned    []closer
	cleanups []func()

	disposed atomic.Bool
}

// NewScope creates a scope. A child inherits the logger and metrics of its
// parent and is disposed with it.
func NewScope(parent *Scope) *Scope {
	s := &Scope{
		id:     scopeIDs.Add(1),
		parent: parent,
		logger: slog.Default(),
	}
	if parent != nil {
		s.logger = parent.logger
		s.metrics = parent.metrics
		parent.addChild(s)
	}
	return s
}

// ID returns the unique identifier of the scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether Dispose has been called.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// SetLogger sets the logger used by the scope and the children created
// after the call.
func (s *Scope) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetMetrics sets the recorder used by the scope and the children created
// after the call.
func (s *Scope) SetMetrics(m *metrics.Recorder) {
	s.metrics = m
}

// Logger returns the scope's logger.
func (s *Scope) Logger() *slog.Logger {
	return s.logger
}

// Metrics returns the scope's recorder, which may be nil.
func (s *Scope) Metrics() *metrics.Recorder {
	return s.metrics
}

// Active reports whether the scope is entered on the current goroutine.
func (s *Scope) Active() bool {
	return active(s)
}

// Enter runs fn with the scope entered on the current goroutine.
func (s *Scope) Enter(fn func()) {
	push(s)
	defer pop(s)
	fn()
}

// OnCleanup registers fn to run when the scope is disposed. On a disposed
// scope fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}
	s.mu.Lock()
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

func (s *Scope) addChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// own registers c to be closed with the scope. It returns false if the
// scope is already disposed.
func (s *Scope) own(c closer) bool {
	if s.disposed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = append(s.owned, c)
	return true
}

func (s *Scope) forget(c closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.owned {
		if o == c {
			s.owned = append(s.owned[:i], s.owned[i+1:]...)
			return
		}
	}
}

// Dispose aborts every child scope in reverse creation order, then every
// owned future, then runs the cleanups in reverse order. It returns after
// all of them are done.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.mu.Lock()
	children := s.children
	s.children = nil
	s.mu.Unlock()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.mu.Lock()
	owned := s.owned
	s.owned = nil
	s.mu.Unlock()
	for i := len(owned) - 1; i >= 0; i-- {
		owned[i].Close()
	}

	s.mu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
