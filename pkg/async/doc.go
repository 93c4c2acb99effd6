// Package async defines the poll-based future vocabulary shared by the
// reactive engine and its executors.
//
// A [Future] is a state machine that is advanced by calling Poll. When it
// cannot make progress it returns not-ready after arranging for the
// [Waker] found in the [Context] to be woken once progress is possible. The
// executor that owns the task then polls it again.
//
// Futures here are not goroutines. They run on whichever goroutine drives
// them, one poll at a time, which is what lets a future safely reference
// data owned by the caller as long as it is aborted before that data goes
// away (see package scoped).
package async
