package scoped

import (
	"sync"

	"github.com/petermattis/goid"
)

// frames stores the stack of entered scopes per goroutine.
var frames sync.Map

type frame struct {
	scopes []*Scope
}

func currentFrame(create bool) *frame {
	gid := goid.Get()
	if f, ok := frames.Load(gid); ok {
		return f.(*frame)
	}
	if !create {
		return nil
	}
	f := &frame{}
	frames.Store(gid, f)
	return f
}

func push(s *Scope) {
	f := currentFrame(true)
	f.scopes = append(f.scopes, s)
}

func pop(s *Scope) {
	f := currentFrame(false)
	if f == nil || len(f.scopes) == 0 {
		return
	}
	// Scopes are entered and left strictly nested; tolerate a mismatch
	// left behind by a recovered panic by unwinding to s.
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if f.scopes[i] == s {
			f.scopes = f.scopes[:i]
			break
		}
	}
	if len(f.scopes) == 0 {
		frames.Delete(goid.Get())
	}
}

// Current returns the innermost scope entered on the current goroutine, or
// nil.
func Current() *Scope {
	f := currentFrame(false)
	if f == nil || len(f.scopes) == 0 {
		return nil
	}
	return f.scopes[len(f.scopes)-1]
}

// active reports whether s is entered on the current goroutine.
func active(s *Scope) bool {
	f := currentFrame(false)
	if f == nil {
		return false
	}
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if f.scopes[i] == s {
			return true
		}
	}
	return false
}
