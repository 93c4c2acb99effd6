package patchstream

import (
	"fmt"
	"sync"
)

// Stream records backend operations as patches. Node ids are allocated
// from 1; the root is NodeID 0.
type Stream struct {
	mu      sync.Mutex
	next    NodeID
	seq     uint64
	pending []Patch
	parents map[NodeID]NodeID
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{next: 1, parents: make(map[NodeID]NodeID)}
}

// Root returns the id of the root node.
func (s *Stream) Root() NodeID {
	return 0
}

// CreateElement allocates a node.
func (s *Stream) CreateElement() (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.pending = append(s.pending, Patch{Op: OpCreateNode, ID: id})
	return id, nil
}

// InsertFirst records child as the first child of parent.
func (s *Stream) InsertFirst(parent, child NodeID) error {
	return s.insert(parent, child, 0)
}

// InsertAfter records child after sibling in parent.
func (s *Stream) InsertAfter(parent, child, sibling NodeID) error {
	s.mu.Lock()
	p, ok := s.parents[sibling]
	s.mu.Unlock()
	if !ok || p != parent {
		return fmt.Errorf("patchstream: node %d is not a child of %d", sibling, parent)
	}
	return s.insert(parent, child, sibling)
}

func (s *Stream) insert(parent, child, after NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents[child] = parent
	s.pending = append(s.pending, Patch{Op: OpInsertNode, ID: child, ParentID: parent, AfterID: after})
	return nil
}

// Remove records the removal of child.
func (s *Stream) Remove(parent, child NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parents[child]; !ok || p != parent {
		return fmt.Errorf("patchstream: node %d is not a child of %d", child, parent)
	}
	delete(s.parents, child)
	s.pending = append(s.pending, Patch{Op: OpRemoveNode, ID: child})
	return nil
}

// SetText records a text update.
func (s *Stream) SetText(n NodeID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, Patch{Op: OpSetText, ID: n, Text: text})
	return nil
}

// Pending returns the number of patches recorded since the last Flush.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush cuts the recorded patches into a frame. It returns nil when there
// is nothing to send.
func (s *Stream) Flush() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	s.seq++
	f := &Frame{Seq: s.seq, Patches: s.pending}
	s.pending = nil
	return f
}
