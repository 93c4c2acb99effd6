package list

import (
	stderrors "errors"
	"iter"
	"slices"
	"sync"

	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/reactive"
)

var (
	// ErrResyncRequired is returned when the requested history is not
	// retained. The reader must rebuild its mirror from a snapshot.
	ErrResyncRequired = stderrors.New("list: changes not retained, resync required")

	// ErrCursorClosed is returned by a closed cursor.
	ErrCursorClosed = stderrors.New("list: cursor closed")
)

// entry is a change record keyed by the version it was applied to.
type entry[T any] struct {
	at     reactive.Version
	change Change[T]
}

// Model is a reactive list.
type Model[T any] struct {
	cell *reactive.Cell[[]T]

	// mu guards the log and the cursors.
	mu sync.Mutex

	// log holds the retained records in order.
	log []entry[T]

	// base is the oldest version ChangesSince can answer.
	base reactive.Version

	cursors    map[uint64]*Cursor[T]
	nextCursor uint64

	// maxRetained caps the log regardless of cursors; 0 means no cap.
	maxRetained int
}

// New creates a list holding items.
func New[T any](items ...T) *Model[T] {
	return &Model[T]{
		cell:    reactive.NewCell(slices.Clone(items)),
		base:    reactive.FirstVersion,
		cursors: make(map[uint64]*Cursor[T]),
	}
}

// Version returns the current version of the list.
func (m *Model[T]) Version() reactive.Version {
	return m.cell.Version()
}

// AddWaker registers w to be woken on the next edit.
func (m *Model[T]) AddWaker(w async.Waker) {
	m.cell.AddWaker(w)
}

// Observable exposes the items as a plain observable slice.
func (m *Model[T]) Observable() reactive.Observable[[]T] {
	return m.cell
}

// Borrow takes a shared borrow of the list.
func (m *Model[T]) Borrow() *View[T] {
	return &View[T]{model: m, ref: m.cell.Borrow(), version: m.cell.Version()}
}

// BorrowMut takes the exclusive borrow of the list. Every operation on the
// returned editor is recorded in the change log; releasing it invalidates
// the list.
func (m *Model[T]) BorrowMut() *Editor[T] {
	return &Editor[T]{model: m, ref: m.cell.BorrowMut(), at: m.cell.Version()}
}

// Edit runs fn with the exclusive borrow and releases it on every exit path.
func (m *Model[T]) Edit(fn func(e *Editor[T])) {
	e := m.BorrowMut()
	defer e.Release()
	fn(e)
}

// Snapshot returns a copy of the current items.
func (m *Model[T]) Snapshot() []T {
	v := m.Borrow()
	defer v.Release()
	return v.Items()
}

// Subscribe registers a cursor at the current version and returns it with
// a snapshot of the items at that version.
func (m *Model[T]) Subscribe() (*Cursor[T], []T) {
	v := m.Borrow()
	defer v.Release()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextCursor++
	c := &Cursor[T]{model: m, id: m.nextCursor, last: v.version}
	m.cursors[c.id] = c
	return c, v.Items()
}

// Subscribers returns the number of open cursors.
func (m *Model[T]) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cursors)
}

// Retained returns the number of change records currently kept.
func (m *Model[T]) Retained() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

// SetMaxRetained caps the number of retained change records. When the cap
// is exceeded the oldest records are dropped and cursors that had not
// pulled them get ErrResyncRequired. Zero removes the cap.
func (m *Model[T]) SetMaxRetained(n int) {
	m.mu.Lock()
	m.maxRetained = max(n, 0)
	m.mu.Unlock()
	m.trim()
}

func (m *Model[T]) record(at reactive.Version, c Change[T]) {
	m.mu.Lock()
	m.log = append(m.log, entry[T]{at: at, change: c})
	m.mu.Unlock()
}

// trim drops every record all open cursors have already pulled.
func (m *Model[T]) trim() {
	current := m.cell.Version()

	m.mu.Lock()
	defer m.mu.Unlock()

	floor := current
	for _, c := range m.cursors {
		if c.last < floor {
			floor = c.last
		}
	}

	i := 0
	for i < len(m.log) && m.log[i].at < floor {
		i++
	}
	m.log = slices.Delete(m.log, 0, i)
	m.base = max(m.base, floor)

	if m.maxRetained > 0 && len(m.log) > m.maxRetained {
		// An edit session records every change under one version, so a
		// session is dropped whole or not at all.
		cut := len(m.log) - m.maxRetained
		dropped := m.log[cut-1].at
		for cut < len(m.log) && m.log[cut].at == dropped {
			cut++
		}
		m.log = slices.Delete(m.log, 0, cut)
		m.base = max(m.base, dropped.Next())
	}
}

// changesSince must be called with a shared borrow held.
func (m *Model[T]) changesSince(since, current reactive.Version) ([]Change[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if since.IsNull() || since.After(current) || since < m.base {
		return nil, ErrResyncRequired
	}

	var out []Change[T]
	for _, e := range m.log {
		if e.at >= since {
			out = append(out, e.change)
		}
	}
	return out, nil
}

// View is a shared borrow of a list.
type View[T any] struct {
	model   *Model[T]
	ref     *reactive.Ref[[]T]
	version reactive.Version
}

// Len returns the number of items.
func (v *View[T]) Len() int {
	return len(v.ref.Value())
}

// At returns the item at index i.
func (v *View[T]) At(i int) T {
	return v.ref.Value()[i]
}

// Items returns a copy of the items.
func (v *View[T]) Items() []T {
	return slices.Clone(v.ref.Value())
}

// All iterates over index, item pairs.
func (v *View[T]) All() iter.Seq2[int, T] {
	return slices.All(v.ref.Value())
}

// Version returns the version the view was borrowed at.
func (v *View[T]) Version() reactive.Version {
	return v.version
}

// ChangesSince returns the records that turn the list at version since into
// the list seen by this view, and the view's version.
func (v *View[T]) ChangesSince(since reactive.Version) ([]Change[T], reactive.Version, error) {
	changes, err := v.model.changesSince(since, v.version)
	return changes, v.version, err
}

// Release ends the borrow.
func (v *View[T]) Release() {
	v.ref.Release()
}

// Editor is the exclusive borrow of a list.
type Editor[T any] struct {
	model *Model[T]
	ref   *reactive.RefMut[[]T]
	at    reactive.Version
}

func (e *Editor[T]) apply(c Change[T]) {
	items := e.ref.Value()
	*items = c.applyTo(*items)
	e.model.record(e.at, c)
}

func (e *Editor[T]) checkIndex(i, n int) {
	if i < 0 || i >= n {
		errors.Panic("L011", "index %d, length %d", i, n)
	}
}

// Len returns the number of items.
func (e *Editor[T]) Len() int {
	return len(*e.ref.Value())
}

// At returns the item at index i.
func (e *Editor[T]) At(i int) T {
	e.checkIndex(i, e.Len())
	return (*e.ref.Value())[i]
}

// Insert inserts v at index i.
func (e *Editor[T]) Insert(i int, v T) {
	if i < 0 || i > e.Len() {
		errors.Panic("L011", "insert at %d, length %d", i, e.Len())
	}
	e.apply(Insert(i, v))
}

// Push appends v.
func (e *Editor[T]) Push(v T) {
	e.apply(Insert(e.Len(), v))
}

// Remove removes and returns the item at index i.
func (e *Editor[T]) Remove(i int) T {
	v := e.At(i)
	e.apply(Remove[T](i))
	return v
}

// Pop removes and returns the last item.
func (e *Editor[T]) Pop() (T, bool) {
	n := e.Len()
	if n == 0 {
		var zero T
		return zero, false
	}
	return e.Remove(n - 1), true
}

// Set replaces the item at index i.
func (e *Editor[T]) Set(i int, v T) {
	e.checkIndex(i, e.Len())
	e.apply(Splice(i, i+1, v))
}

// Splice removes [start, end) and inserts values at start.
func (e *Editor[T]) Splice(start, end int, values ...T) {
	if start < 0 || start > end || end > e.Len() {
		errors.Panic("L011", "splice [%d:%d], length %d", start, end, e.Len())
	}
	e.apply(Splice(start, end, slices.Clone(values)...))
}

// Reset replaces every item.
func (e *Editor[T]) Reset(values ...T) {
	e.Splice(0, e.Len(), values...)
}

// Clear removes every item.
func (e *Editor[T]) Clear() {
	if e.Len() > 0 {
		e.Splice(0, e.Len())
	}
}

// Retain keeps the items for which keep returns true. It records a single
// splice, or nothing if every item is kept.
func (e *Editor[T]) Retain(keep func(T) bool) {
	items := *e.ref.Value()
	kept := make([]T, 0, len(items))
	for _, v := range items {
		if keep(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) != len(items) {
		e.Splice(0, len(items), kept...)
	}
}

// Sort stably sorts the items with cmp and records a single splice.
func (e *Editor[T]) Sort(cmp func(a, b T) int) {
	sorted := slices.Clone(*e.ref.Value())
	slices.SortStableFunc(sorted, cmp)
	e.Splice(0, len(sorted), sorted...)
}

// Swap exchanges the items at i and j.
func (e *Editor[T]) Swap(i, j int) {
	a, b := e.At(i), e.At(j)
	if i == j {
		return
	}
	e.Set(i, b)
	e.Set(j, a)
}

// Release ends the exclusive borrow and invalidates the list.
func (e *Editor[T]) Release() {
	e.ref.Release()
	e.model.trim()
}
