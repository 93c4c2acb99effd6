// Package reconcile keeps the children of a backend element in step with a
// reactive list.
//
// A reconciler owns one element and one render task per list item. It
// applies the list's change records incrementally: removed items have
// their task aborted and their element removed, inserted items get a new
// element placed right after their predecessor and a task running the
// item's render future. The order of the table always matches the order
// of the children in the backend.
//
//	rec := reconcile.List(model, renderItem, doc, doc.Root(), reconcile.Config{
//	    Spawn: func(r *scoped.Remote) scoped.Task { return ex.Spawn(r) },
//	})
//	ex.Spawn(rec)
//	defer rec.Close()
package reconcile
