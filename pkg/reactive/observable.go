package reactive

import "github.com/vango-dev/liveui/pkg/async"

// Listenable is the change-notification half of an observable.
type Listenable interface {
	// AddWaker registers w to be woken on the next change.
	AddWaker(w async.Waker)

	// Version returns the current version.
	Version() Version
}

// Observable is a readable, listenable value.
type Observable[T any] interface {
	Listenable

	// Borrow takes a shared borrow of the current value.
	Borrow() *Ref[T]
}

// Get returns a copy of the current value of o.
func Get[T any](o Observable[T]) T {
	r := o.Borrow()
	defer r.Release()
	return r.Value()
}

type mapped[T, U any] struct {
	src Observable[T]
	fn  func(T) U
}

// Map derives an observable whose value is fn applied to src. It shares
// the version and wakers of src.
func Map[T, U any](src Observable[T], fn func(T) U) Observable[U] {
	return &mapped[T, U]{src: src, fn: fn}
}

func (m *mapped[T, U]) AddWaker(w async.Waker) { m.src.AddWaker(w) }
func (m *mapped[T, U]) Version() Version      { return m.src.Version() }

func (m *mapped[T, U]) Borrow() *Ref[U] {
	r := m.src.Borrow()
	defer r.Release()
	return NewRef(m.fn(r.Value()), nil)
}

type zipped[A, B, U any] struct {
	a  Observable[A]
	b  Observable[B]
	fn func(A, B) U
}

// Zip derives an observable from two upstreams. Its version is the sum of
// the upstream versions, so it moves whenever either of them does.
func Zip[A, B, U any](a Observable[A], b Observable[B], fn func(A, B) U) Observable[U] {
	return &zipped[A, B, U]{a: a, b: b, fn: fn}
}

func (z *zipped[A, B, U]) AddWaker(w async.Waker) {
	z.a.AddWaker(w)
	z.b.AddWaker(w)
}

func (z *zipped[A, B, U]) Version() Version {
	return z.a.Version() + z.b.Version()
}

func (z *zipped[A, B, U]) Borrow() *Ref[U] {
	ra := z.a.Borrow()
	defer ra.Release()
	rb := z.b.Borrow()
	defer rb.Release()
	return NewRef(z.fn(ra.Value(), rb.Value()), nil)
}

type constant[T any] struct {
	value T
}

// Constant returns an observable that never changes.
func Constant[T any](v T) Observable[T] {
	return constant[T]{value: v}
}

func (constant[T]) AddWaker(async.Waker) {}
func (constant[T]) Version() Version     { return FirstVersion }

func (c constant[T]) Borrow() *Ref[T] {
	return NewRef(c.value, nil)
}
