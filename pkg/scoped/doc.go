// Package scoped spawns futures that borrow data from the scope that
// created them into executors that expect independent tasks.
//
// An executor's Spawn assumes the task it is given owns everything it
// touches. A future that references data owned by a caller does not, so it
// is split in two:
//
//   - the owner ([Spawned], or a [Guard] for many futures) lives exactly as
//     long as its [Scope] and holds the only handle that can finish or abort
//     the computation;
//   - the [Remote] is a type-erased future handed to the executor. Every
//     poll of it goes through a state cell shared with the owner.
//
// When the owner is closed, directly or because its scope is disposed, the
// cell flips to aborted before Close returns. From then on polling the
// remote reports completion without touching the wrapped future, so an
// executor that polls late never reaches data that is gone.
//
// # Scope membership
//
// Owners may only start inside the dynamic extent of their scope: the
// first poll of a [Spawned] (and every [Guard.Convert]) checks that the
// scope has been entered on the current goroutine with [Scope.Enter] or by
// polling a [Root]. Anything else panics, because nothing would guarantee
// the abort happens in time.
//
//	root := scoped.NewRoot(async.FutureFunc[int](func(cx *async.Context) (int, bool) {
//	    if child == nil {
//	        child = scoped.NewSpawned(scoped.Current(), work, spawn)
//	    }
//	    return child.Poll(cx)
//	}))
//	defer root.Close()
package scoped
