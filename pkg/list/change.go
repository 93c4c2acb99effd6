package list

import (
	"fmt"
	"slices"

	"github.com/vango-dev/liveui/internal/errors"
)

// Kind identifies the shape of a change record.
type Kind uint8

const (
	KindSplice Kind = iota + 1
	KindInsert
	KindRemove
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSplice:
		return "splice"
	case KindInsert:
		return "insert"
	case KindRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is one incremental mutation of a list.
//
//   - Splice removes [Index, End) and inserts Values at Index.
//   - Insert inserts Value at Index.
//   - Remove removes the item at Index.
type Change[T any] struct {
	Kind   Kind
	Index  int
	End    int
	Value  T
	Values []T
}

// Splice returns a splice record.
func Splice[T any](start, end int, values ...T) Change[T] {
	return Change[T]{Kind: KindSplice, Index: start, End: end, Values: values}
}

// Insert returns an insert record.
func Insert[T any](index int, v T) Change[T] {
	return Change[T]{Kind: KindInsert, Index: index, Value: v}
}

// Remove returns a remove record.
func Remove[T any](index int) Change[T] {
	return Change[T]{Kind: KindRemove, Index: index}
}

// Delta returns how much the change grows the list.
func (c Change[T]) Delta() int {
	switch c.Kind {
	case KindSplice:
		return len(c.Values) - (c.End - c.Index)
	case KindInsert:
		return 1
	case KindRemove:
		return -1
	default:
		return 0
	}
}

// String renders the change for logs and test failures.
func (c Change[T]) String() string {
	switch c.Kind {
	case KindSplice:
		return fmt.Sprintf("splice[%d:%d]%v", c.Index, c.End, c.Values)
	case KindInsert:
		return fmt.Sprintf("insert[%d]%v", c.Index, c.Value)
	case KindRemove:
		return fmt.Sprintf("remove[%d]", c.Index)
	default:
		return "unknown"
	}
}

// check panics if c cannot be applied to a list of length n.
func (c Change[T]) check(n int) {
	var ok bool
	switch c.Kind {
	case KindSplice:
		ok = 0 <= c.Index && c.Index <= c.End && c.End <= n
	case KindInsert:
		ok = 0 <= c.Index && c.Index <= n
	case KindRemove:
		ok = 0 <= c.Index && c.Index < n
	}
	if !ok {
		errors.Panic("L010", "%s on length %d", c, n)
	}
}

// applyTo applies c to items in place and returns the resulting slice.
func (c Change[T]) applyTo(items []T) []T {
	c.check(len(items))
	switch c.Kind {
	case KindSplice:
		return slices.Replace(items, c.Index, c.End, c.Values...)
	case KindInsert:
		return slices.Insert(items, c.Index, c.Value)
	default:
		return slices.Delete(items, c.Index, c.Index+1)
	}
}

// Apply replays changes in order against a copy of mirror and returns the
// result. mirror itself is not modified.
func Apply[T any](mirror []T, changes ...Change[T]) []T {
	out := slices.Clone(mirror)
	for _, c := range changes {
		out = c.applyTo(out)
	}
	return out
}
