// Package live serves lists over WebSocket.
//
// Every connection gets its own list, executor and reconciler. The
// reconciler renders into a patch stream; after each executor run the
// recorded patches are flushed as one frame and written to the socket,
// binary by default or JSON with ?format=json. A ticker edits the list so
// clients see a steady flow of insertions and removals.
package live
