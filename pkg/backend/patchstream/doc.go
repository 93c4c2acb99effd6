// Package patchstream is a render backend that records element operations
// as patches instead of applying them.
//
// Recorded patches are cut into frames with Flush. A frame is sent to a
// remote renderer as binary or JSON:
//
//	varint  sequence number
//	varint  patch count
//	patch*  op byte, varint node id, op-specific fields
//
// InsertNode carries the parent id and the id of the sibling the node goes
// after (0 for first). SetText carries a length-prefixed UTF-8 string.
package patchstream
