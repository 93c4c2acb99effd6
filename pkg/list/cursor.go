package list

import (
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/reactive"
)

// Cursor is a registered reader of a list. While open it pins every change
// record it has not pulled yet.
type Cursor[T any] struct {
	model  *Model[T]
	id     uint64
	last   reactive.Version
	closed bool
}

// Version returns the version of the last state the cursor caught up to.
func (c *Cursor[T]) Version() reactive.Version {
	c.model.mu.Lock()
	defer c.model.mu.Unlock()
	return c.last
}

// Pending reports whether the list has moved since the last pull.
func (c *Cursor[T]) Pending() bool {
	return c.model.Version().After(c.Version())
}

// AddWaker registers w to be woken on the next edit of the list.
func (c *Cursor[T]) AddWaker(w async.Waker) {
	c.model.AddWaker(w)
}

// Pull returns the changes since the cursor's version and advances it.
func (c *Cursor[T]) Pull() ([]Change[T], error) {
	if c.closed {
		return nil, ErrCursorClosed
	}

	view := c.model.Borrow()
	changes, current, err := view.ChangesSince(c.Version())
	view.Release()
	if err != nil {
		return nil, err
	}

	c.advance(current)
	return changes, nil
}

// Resync moves the cursor to the current version and returns a snapshot.
func (c *Cursor[T]) Resync() []T {
	view := c.model.Borrow()
	items, current := view.Items(), view.Version()
	view.Release()

	c.advance(current)
	return items
}

func (c *Cursor[T]) advance(to reactive.Version) {
	c.model.mu.Lock()
	c.last = to
	c.model.mu.Unlock()
	c.model.trim()
}

// Close unregisters the cursor and releases the history it pinned.
func (c *Cursor[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.model.mu.Lock()
	delete(c.model.cursors, c.id)
	c.model.mu.Unlock()
	c.model.trim()
}
