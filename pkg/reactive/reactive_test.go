package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
)

func requireViolation(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		v, ok := errors.IsViolation(recover())
		require.True(t, ok, "expected violation %s", code)
		assert.Equal(t, code, v.Code())
	}()
	fn()
}

func TestVersion(t *testing.T) {
	assert.True(t, NullVersion.IsNull())
	assert.True(t, FirstVersion.After(NullVersion))
	assert.Equal(t, Version(2), FirstVersion.Next())
	assert.Equal(t, "null", NullVersion.String())
	assert.Equal(t, "v3", Version(3).String())
}

func TestVersionStrictlyIncreasesPerExclusiveBorrow(t *testing.T) {
	c := NewCell(0)
	prev := c.Version()
	for i := 0; i < 50; i++ {
		m := c.BorrowMut()
		if i%2 == 0 {
			*m.Value() = i
		}
		m.Release()

		v := c.Version()
		assert.True(t, v.After(prev), "borrow %d: %s not after %s", i, v, prev)
		prev = v
	}
}

func TestThreeReadersOneWriter(t *testing.T) {
	c := NewCell(5)

	flags := make([]*async.Flag, 3)
	var v0 Version
	for i := range flags {
		r := c.Borrow()
		assert.Equal(t, 5, r.Value())
		v0 = c.Version()
		r.Release()

		flags[i] = &async.Flag{}
		c.AddWaker(flags[i])
	}

	m := c.BorrowMut()
	m.Set(6)
	m.Release()

	assert.Equal(t, v0+1, c.Version())
	assert.Equal(t, 6, c.Get())
	for i, f := range flags {
		assert.Equal(t, 1, f.Count(), "reader %d", i)
	}

	// Wakers are one-shot.
	c.Set(7)
	for _, f := range flags {
		assert.Equal(t, 1, f.Count())
	}
}

func TestBorrowConflicts(t *testing.T) {
	t.Run("exclusive while shared", func(t *testing.T) {
		c := NewCell("a")
		r := c.Borrow()
		defer r.Release()
		requireViolation(t, "L001", func() { c.BorrowMut() })
	})

	t.Run("exclusive while exclusive", func(t *testing.T) {
		c := NewCell("a")
		m := c.BorrowMut()
		defer m.Release()
		requireViolation(t, "L001", func() { c.BorrowMut() })
	})

	t.Run("shared while exclusive", func(t *testing.T) {
		c := NewCell("a")
		m := c.BorrowMut()
		defer m.Release()
		requireViolation(t, "L002", func() { c.Borrow() })
	})

	t.Run("use after release", func(t *testing.T) {
		c := NewCell("a")
		r := c.Borrow()
		r.Release()
		requireViolation(t, "L003", func() { r.Value() })
	})

	t.Run("many shared borrows coexist", func(t *testing.T) {
		c := NewCell(1)
		a, b := c.Borrow(), c.Borrow()
		assert.Equal(t, a.Value(), b.Value())
		a.Release()
		b.Release()
		c.Set(2)
		assert.Equal(t, 2, c.Get())
	})
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := NewCell(0)
	m := c.BorrowMut()
	m.Release()
	m.Release()
	assert.Equal(t, FirstVersion+1, c.Version())
}

func TestUpdateInvalidatesOnPanic(t *testing.T) {
	c := NewCell(0)
	func() {
		defer func() { _ = recover() }()
		c.Update(func(p *int) {
			*p = 9
			panic("boom")
		})
	}()

	assert.Equal(t, FirstVersion+1, c.Version())
	// The exclusive borrow was released.
	c.Set(1)
	assert.Equal(t, 1, c.Get())
}

func TestInsideOutsideSides(t *testing.T) {
	var l Listeners
	in, out := &async.Flag{}, &async.Flag{}
	l.AddInsideWaker(in)
	l.AddOutsideWaker(out)

	l.InvalidateInside()
	assert.Equal(t, 1, in.Count())
	assert.Equal(t, 0, out.Count())
	assert.Equal(t, FirstVersion+1, l.Version())

	l.InvalidateOutside()
	assert.Equal(t, 1, out.Count())
	assert.Equal(t, FirstVersion+2, l.Version())

	pi, po := l.Pending()
	assert.Zero(t, pi)
	assert.Zero(t, po)
}

func TestWakerMayReRegister(t *testing.T) {
	var l Listeners
	calls := 0
	var w async.WakerFunc
	w = func() {
		calls++
		l.AddOutsideWaker(w)
	}
	l.AddOutsideWaker(w)

	l.InvalidateOutside()
	l.InvalidateOutside()
	assert.Equal(t, 2, calls)
}

func TestWakeOrder(t *testing.T) {
	var l Listeners
	var order []int
	for i := 0; i < 4; i++ {
		l.AddOutsideWaker(async.WakerFunc(func() { order = append(order, i) }))
	}
	l.InvalidateOutside()
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestDerivedObservables(t *testing.T) {
	a := NewCell(2)
	b := NewCell("x")

	doubled := Map[int, int](a, func(n int) int { return n * 2 })
	label := Zip[int, string, string](a, b, func(n int, s string) string {
		return s + string(rune('0'+n))
	})

	assert.Equal(t, 4, Get(doubled))
	assert.Equal(t, "x2", Get(label))

	dv, lv := doubled.Version(), label.Version()
	b.Set("y")
	assert.Equal(t, dv, doubled.Version())
	assert.True(t, label.Version().After(lv))

	a.Set(3)
	assert.True(t, doubled.Version().After(dv))
	assert.Equal(t, 6, Get(doubled))
	assert.Equal(t, "y3", Get(label))

	k := Constant("fixed")
	k.AddWaker(async.Noop)
	assert.Equal(t, FirstVersion, k.Version())
	assert.Equal(t, "fixed", Get(k))
}

func TestUntilChange(t *testing.T) {
	c := NewCell(0)
	fut := UntilChange(c)
	flag := &async.Flag{}
	cx := async.NewContext(flag)

	_, ok := fut.Poll(cx)
	assert.False(t, ok)

	c.Set(1)
	assert.Equal(t, 1, flag.Count())

	v, ok := fut.Poll(cx)
	assert.True(t, ok)
	assert.Equal(t, c.Version(), v)
}

func TestWatch(t *testing.T) {
	c := NewCell("a")
	var seen []string
	fut := Watch[string](c, func(s string) { seen = append(seen, s) })
	flag := &async.Flag{}
	cx := async.NewContext(flag)

	_, ok := fut.Poll(cx)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, seen)

	// A spurious poll does not call fn again.
	fut.Poll(cx)
	assert.Equal(t, []string{"a"}, seen)

	c.Set("b")
	c.Set("c")
	assert.True(t, flag.Take())
	fut.Poll(cx)
	assert.Equal(t, []string{"a", "c"}, seen)
}
