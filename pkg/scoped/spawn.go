package scoped

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
)

// Task is the handle an executor returns for a spawned future.
type Task interface {
	Cancel()
}

// SpawnFunc hands a remote to an executor.
type SpawnFunc func(r *Remote) Task

type state uint32

const (
	stateCreated state = iota
	stateSpawned
	stateFinished
	stateAborted
)

func (s state) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateSpawned:
		return "spawned"
	case stateFinished:
		return "finished"
	default:
		return "aborted"
	}
}

// cell is the state shared by an owner and its remote. Only one side may
// hold it at a time.
type cell[T any] struct {
	busy  atomic.Bool
	st    atomic.Uint32
	fut   async.Future[T]
	scope *Scope
	waker async.Waker
	out   T
	taken bool
}

func newCell[T any](fut async.Future[T]) *cell[T] {
	return &cell[T]{fut: fut}
}

func (c *cell[T]) state() state {
	return state(c.st.Load())
}

func (c *cell[T]) setState(s state) {
	c.st.Store(uint32(s))
}

// start gives the future its own child scope of parent and moves the cell
// to spawned. Remotes are only handed out after start.
func (c *cell[T]) start(parent *Scope) {
	c.scope = NewScope(parent)
	c.setState(stateSpawned)
}

func (c *cell[T]) acquire(op string) {
	if !c.busy.CompareAndSwap(false, true) {
		errors.Panic("S005", "%s while the future is in use", op)
	}
}

func (c *cell[T]) release() {
	c.busy.Store(false)
}

func (c *cell[T]) pollRemote(cx *async.Context) bool {
	c.acquire("remote poll")

	var (
		wake async.Waker
		done *Scope
	)
	ready := func() bool {
		defer c.release()
		switch c.state() {
		case stateCreated:
			// Unreachable through Spawned and Guard, which start the cell
			// before building the remote.
			errors.Panic("S004", "")
		case stateFinished:
			errors.Panic("S002", "remote handle polled after completion")
		case stateAborted:
			return true
		}

		var (
			out T
			ok  bool
		)
		c.scope.Enter(func() {
			out, ok = c.fut.Poll(cx)
		})
		if !ok {
			return false
		}
		c.out = out
		c.fut = nil
		c.setState(stateFinished)
		wake, c.waker = c.waker, nil
		done = c.scope
		return true
	}()

	if done != nil {
		done.Dispose()
	}
	if wake != nil {
		wake.Wake()
	}
	return ready
}

// abort flips the cell to aborted and reports whether the computation was
// still running.
func (c *cell[T]) abort() bool {
	c.acquire("abort")

	var (
		live bool
		sc   *Scope
	)
	func() {
		defer c.release()
		s := c.state()
		live = s == stateCreated || s == stateSpawned
		c.setState(stateAborted)
		var zero T
		c.fut = nil
		c.waker = nil
		c.out = zero
		sc = c.scope
	}()

	if sc != nil {
		sc.Dispose()
	}
	return live
}

func (c *cell[T]) finished() bool {
	s := c.state()
	return s == stateFinished || s == stateAborted
}

type remoteCell interface {
	pollRemote(cx *async.Context) bool
	abort() bool
	finished() bool
}

var remoteIDs atomic.Uint64

// Remote is the executor side of a scoped future. It completes when the
// wrapped future completes or as soon as its owner is closed.
type Remote struct {
	id      uint64
	cell    remoteCell
	owner   *Scope
	onAbort func(*Remote)
}

func newRemote(c remoteCell, owner *Scope) *Remote {
	return &Remote{id: remoteIDs.Add(1), cell: c, owner: owner}
}

// ID returns the unique identifier of the remote.
func (r *Remote) ID() uint64 {
	return r.id
}

// Poll polls the wrapped future unless the owner is gone.
func (r *Remote) Poll(cx *async.Context) (struct{}, bool) {
	return struct{}{}, r.cell.pollRemote(cx)
}

// Done reports whether the remote has finished or been aborted.
func (r *Remote) Done() bool {
	return r.cell.finished()
}

// Abort aborts the remote. It is meant for the owning side; executors
// cancel tasks instead.
func (r *Remote) Abort() {
	if r.cell.abort() && r.owner != nil {
		r.owner.metrics.RemoteAborted()
		r.owner.logger.Debug("scoped: remote aborted", "remote", r.id, "scope", r.owner.id)
	}
	if r.onAbort != nil {
		r.onAbort(r)
	}
}

// Spawned owns a future running on an executor. It must be polled inside
// its scope; the first poll hands the remote to the executor.
type Spawned[T any] struct {
	scope  *Scope
	cell   *cell[T]
	spawn  SpawnFunc
	remote *Remote
	task   Task
	closed atomic.Bool
}

// NewSpawned creates an owner for fut in scope. Nothing runs until the
// owner is first polled.
func NewSpawned[T any](scope *Scope, fut async.Future[T], spawn SpawnFunc) *Spawned[T] {
	if scope == nil {
		errors.Panic("S001", "no scope is active")
	}
	s := &Spawned[T]{
		scope: scope,
		cell:  newCell(fut),
		spawn: spawn,
	}
	if !scope.own(s) {
		errors.Panic("S006", "scope %d", scope.id)
	}
	return s
}

// Spawn is NewSpawned in the current scope.
func Spawn[T any](fut async.Future[T], spawn SpawnFunc) *Spawned[T] {
	return NewSpawned(Current(), fut, spawn)
}

// Scope returns the owning scope.
func (s *Spawned[T]) Scope() *Scope {
	return s.scope
}

// Remote returns the handle given to the executor, or nil before the first
// poll.
func (s *Spawned[T]) Remote() *Remote {
	return s.remote
}

// Poll starts the future on the first call and returns its output once.
func (s *Spawned[T]) Poll(cx *async.Context) (T, bool) {
	if s.closed.Load() {
		errors.Panic("S003", "")
	}

	c := s.cell
	c.acquire("owner poll")

	var start bool
	out, ok := func() (T, bool) {
		defer c.release()
		var zero T
		switch c.state() {
		case stateCreated:
			if !s.scope.Active() {
				errors.Panic("S001", "scope %d is not active on this goroutine", s.scope.id)
			}
			c.waker = cx.Waker()
			c.start(s.scope)
			start = true
		case stateSpawned:
			c.waker = cx.Waker()
		case stateFinished:
			if c.taken {
				errors.Panic("S002", "owner polled after completion")
			}
			c.taken = true
			out := c.out
			c.out = zero
			return out, true
		default:
			errors.Panic("S003", "")
		}
		return zero, false
	}()

	if start {
		s.remote = newRemote(c, s.scope)
		s.task = s.spawn(s.remote)
		s.scope.metrics.ScopedSpawn()
		s.scope.logger.Debug("scoped: spawned", "remote", s.remote.id, "scope", s.scope.id)
	}
	return out, ok
}

// Close aborts the future and cancels its task. After Close returns the
// remote never touches the wrapped future again.
func (s *Spawned[T]) Close() {
	if s.closed.Load() {
		return
	}
	// abort panics if the future is mid-poll; the owner stays open then.
	live := s.cell.abort()
	if s.closed.Swap(true) {
		return
	}
	if live && s.remote != nil {
		s.scope.metrics.RemoteAborted()
		s.scope.logger.Debug("scoped: remote aborted", "remote", s.remote.id, "scope", s.scope.id)
	}
	if s.task != nil {
		s.task.Cancel()
	}
	s.scope.forget(s)
}

// Guard owns any number of remotes in one scope and aborts them together.
type Guard struct {
	scope *Scope
	mu    sync.Mutex

	// remotes is in conversion order.
	remotes []*Remote
	closed  atomic.Bool
}

// NewGuard creates a guard owned by scope.
func NewGuard(scope *Scope) *Guard {
	if scope == nil {
		errors.Panic("S001", "no scope is active")
	}
	g := &Guard{scope: scope}
	if !scope.own(g) {
		errors.Panic("S006", "scope %d", scope.id)
	}
	return g
}

// Scope returns the owning scope.
func (g *Guard) Scope() *Scope {
	return g.scope
}

// Len returns the number of live remotes.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.remotes)
}

// Convert wraps fut into a remote ready to be spawned. The guard's scope
// must be active.
func (g *Guard) Convert(fut async.Future[struct{}]) *Remote {
	if g.closed.Load() {
		errors.Panic("S003", "guard is closed")
	}
	if !g.scope.Active() {
		errors.Panic("S001", "scope %d is not active on this goroutine", g.scope.id)
	}

	c := newCell(fut)
	c.start(g.scope)

	r := newRemote(c, g.scope)
	r.onAbort = g.forget

	g.mu.Lock()
	g.remotes = append(g.remotes, r)
	g.mu.Unlock()

	g.scope.metrics.ScopedSpawn()
	return r
}

func (g *Guard) forget(r *Remote) {
	g.mu.Lock()
	if i := slices.Index(g.remotes, r); i >= 0 {
		g.remotes = slices.Delete(g.remotes, i, i+1)
	}
	g.mu.Unlock()
}

// Close aborts every remote still owned by the guard, newest first.
func (g *Guard) Close() {
	if g.closed.Swap(true) {
		return
	}
	g.mu.Lock()
	remotes := g.remotes
	g.remotes = nil
	g.mu.Unlock()

	for i := len(remotes) - 1; i >= 0; i-- {
		remotes[i].Abort()
	}
	g.scope.forget(g)
}
