// Package executor runs futures on a single goroutine.
//
// Tasks are polled in the order they were woken. A task woken several
// times before it is polled is polled once. Wakers may be called from any
// goroutine; polling only happens inside RunUntilStalled or Run, on the
// goroutine that calls them.
package executor
