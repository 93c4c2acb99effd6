package reactive

import (
	"sync"

	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
)

// Cell is an observable value with runtime-checked borrows.
type Cell[T any] struct {
	listeners Listeners

	// mu guards the borrow counters and the value.
	mu        sync.Mutex
	shared    int
	exclusive bool
	value     T
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Borrow takes a shared borrow. It panics if the cell is exclusively
// borrowed.
func (c *Cell[T]) Borrow() *Ref[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exclusive {
		errors.Panic("L002", "cell is exclusively borrowed")
	}
	c.shared++
	return &Ref[T]{value: c.value, release: c.releaseShared}
}

func (c *Cell[T]) releaseShared() {
	c.mu.Lock()
	c.shared--
	c.mu.Unlock()
}

// BorrowMut takes the exclusive borrow. It panics if any borrow is
// outstanding. Releasing the returned guard invalidates the cell.
func (c *Cell[T]) BorrowMut() *RefMut[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exclusive || c.shared > 0 {
		errors.Panic("L001", "%d shared borrows, exclusive=%t", c.shared, c.exclusive)
	}
	c.exclusive = true
	return &RefMut[T]{cell: c}
}

func (c *Cell[T]) releaseExclusive() {
	c.mu.Lock()
	c.exclusive = false
	c.mu.Unlock()

	c.listeners.Invalidate(Both)
}

// Version returns the current version of the cell.
func (c *Cell[T]) Version() Version {
	return c.listeners.Version()
}

// AddWaker registers w as an outside waker.
func (c *Cell[T]) AddWaker(w async.Waker) {
	c.listeners.AddOutsideWaker(w)
}

// AddInsideWaker registers w as an inside waker.
func (c *Cell[T]) AddInsideWaker(w async.Waker) {
	c.listeners.AddInsideWaker(w)
}

// Listeners exposes the registry of the cell.
func (c *Cell[T]) Listeners() *Listeners {
	return &c.listeners
}

// Get returns a copy of the current value.
func (c *Cell[T]) Get() T {
	r := c.Borrow()
	defer r.Release()
	return r.Value()
}

// Set replaces the value and invalidates.
func (c *Cell[T]) Set(v T) {
	c.Update(func(p *T) { *p = v })
}

// Update runs fn with exclusive access to the value. The cell is
// invalidated on every exit path, including a panic in fn.
func (c *Cell[T]) Update(fn func(*T)) {
	m := c.BorrowMut()
	defer m.Release()
	fn(m.Value())
}

// Read runs fn with a shared borrow of the value.
func (c *Cell[T]) Read(fn func(T)) {
	r := c.Borrow()
	defer r.Release()
	fn(r.Value())
}

// Ref is a shared borrow. It must not be kept across a suspension point.
type Ref[T any] struct {
	value    T
	release  func()
	released bool
}

// NewRef returns a borrow of a detached value, as produced by derived
// observables. release may be nil.
func NewRef[T any](v T, release func()) *Ref[T] {
	return &Ref[T]{value: v, release: release}
}

// Value returns the borrowed value.
func (r *Ref[T]) Value() T {
	if r.released {
		errors.Panic("L003", "shared borrow read after release")
	}
	return r.value
}

// Release ends the borrow. Calling it more than once is a no-op.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.release != nil {
		r.release()
	}
}

// RefMut is the exclusive borrow of a Cell.
type RefMut[T any] struct {
	cell     *Cell[T]
	released bool
}

// Value returns a pointer to the value for in-place mutation. The pointer
// must not be used after Release.
func (m *RefMut[T]) Value() *T {
	if m.released {
		errors.Panic("L003", "exclusive borrow used after release")
	}
	return &m.cell.value
}

// Set replaces the borrowed value.
func (m *RefMut[T]) Set(v T) {
	*m.Value() = v
}

// Release ends the borrow and invalidates the cell. Calling it more than
// once is a no-op.
func (m *RefMut[T]) Release() {
	if m.released {
		return
	}
	m.released = true
	m.cell.releaseExclusive()
}
