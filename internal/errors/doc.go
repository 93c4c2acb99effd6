// Package errors provides structured errors for liveui.
//
// Two kinds of failure exist in the engine:
//   - contract violations: borrow conflicts, polling a finished or aborted
//     task, spawning outside an active scope. These are bugs in the caller
//     and are raised with [Panic], never returned.
//   - configuration and backend errors: returned as *Error values built
//     from the code registry, wrapping the underlying cause.
//
// # Error Codes
//
// Each error has a unique code mapped to a category, a short message and a
// longer explanation:
//   - L001-L099: observable and list protocol
//   - S001-S099: scoped spawning
//   - X001-X099: executor
//   - C001-C099: configuration
//
// # Usage
//
//	errors.Panic("S001", "scope %d is not active on this goroutine", id)
//
//	err := errors.New("C001").Wrap(cause).
//	    WithSuggestion("Check that liveui.json is valid JSON")
//	fmt.Fprint(os.Stderr, err.Format())
package errors
