// Package list implements a reactive ordered collection with an
// incremental change log.
//
// Every mutation made through an [Editor] is recorded as a [Change]
// (Splice, Insert or Remove) keyed by the version of the list it was
// applied to. A reader that mirrors the list asks for the changes since the
// version it last saw and replays them with [Apply]:
//
//	cur, mirror := model.Subscribe()
//	defer cur.Close()
//	...
//	changes, err := cur.Pull()
//	if errors.Is(err, list.ErrResyncRequired) {
//	    mirror = cur.Resync()
//	} else {
//	    mirror = list.Apply(mirror, changes...)
//	}
//
// # Retention
//
// The log keeps every record that some open [Cursor] has not pulled yet and
// nothing else. A reader without a cursor, or one whose version predates the
// retained log, gets [ErrResyncRequired] and must rebuild from a snapshot.
package list
