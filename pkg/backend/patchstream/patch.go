package patchstream

import (
	"encoding/json"
	"fmt"
)

// NodeID identifies a node on the remote side. The root is 0.
type NodeID uint64

// Op is the kind of a patch.
type Op uint8

const (
	OpSetText    Op = 0x01
	OpInsertNode Op = 0x04
	OpRemoveNode Op = 0x05
	OpCreateNode Op = 0x0E
)

func (op Op) String() string {
	switch op {
	case OpSetText:
		return "SetText"
	case OpInsertNode:
		return "InsertNode"
	case OpRemoveNode:
		return "RemoveNode"
	case OpCreateNode:
		return "CreateNode"
	default:
		return fmt.Sprintf("Op(%#x)", uint8(op))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Op) UnmarshalText(b []byte) error {
	switch string(b) {
	case "SetText":
		*op = OpSetText
	case "InsertNode":
		*op = OpInsertNode
	case "RemoveNode":
		*op = OpRemoveNode
	case "CreateNode":
		*op = OpCreateNode
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, b)
	}
	return nil
}

// Patch is one recorded operation.
type Patch struct {
	Op       Op     `json:"op"`
	ID       NodeID `json:"id"`
	ParentID NodeID `json:"parent,omitempty"`
	AfterID  NodeID `json:"after,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (p Patch) String() string {
	switch p.Op {
	case OpInsertNode:
		return fmt.Sprintf("%s #%d in #%d after #%d", p.Op, p.ID, p.ParentID, p.AfterID)
	case OpSetText:
		return fmt.Sprintf("%s #%d %q", p.Op, p.ID, p.Text)
	default:
		return fmt.Sprintf("%s #%d", p.Op, p.ID)
	}
}

// Frame is a batch of patches with a sequence number.
type Frame struct {
	Seq     uint64  `json:"seq"`
	Patches []Patch `json:"patches"`
}

// Encode returns the binary form of f.
func (f *Frame) Encode() []byte {
	e := NewEncoder()
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo appends the binary form of f to e.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteUvarint(f.Seq)
	e.WriteUvarint(uint64(len(f.Patches)))
	for i := range f.Patches {
		encodePatch(e, &f.Patches[i])
	}
}

func encodePatch(e *Encoder, p *Patch) {
	e.WriteByte(byte(p.Op))
	e.WriteUvarint(uint64(p.ID))

	switch p.Op {
	case OpInsertNode:
		e.WriteUvarint(uint64(p.ParentID))
		e.WriteUvarint(uint64(p.AfterID))
	case OpSetText:
		e.WriteString(p.Text)
	case OpRemoveNode, OpCreateNode:
		// id only
	}
}

// DecodeFrame parses the binary form of a frame.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > MaxPatches {
		return nil, ErrTooLarge
	}

	f := &Frame{Seq: seq, Patches: make([]Patch, 0, n)}
	for i := uint64(0); i < n; i++ {
		p, err := decodePatch(d)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		f.Patches = append(f.Patches, p)
	}
	return f, nil
}

func decodePatch(d *Decoder) (Patch, error) {
	var p Patch
	op, err := d.ReadByte()
	if err != nil {
		return p, err
	}
	p.Op = Op(op)
	id, err := d.ReadUvarint()
	if err != nil {
		return p, err
	}
	p.ID = NodeID(id)

	switch p.Op {
	case OpInsertNode:
		parent, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		after, err := d.ReadUvarint()
		if err != nil {
			return p, err
		}
		p.ParentID, p.AfterID = NodeID(parent), NodeID(after)
	case OpSetText:
		if p.Text, err = d.ReadString(); err != nil {
			return p, err
		}
	case OpRemoveNode, OpCreateNode:
	default:
		return p, fmt.Errorf("%w: %#x", ErrUnknownOp, op)
	}
	return p, nil
}

// MarshalJSON returns the JSON form of f, with an empty patch list encoded
// as [].
func (f *Frame) MarshalJSON() ([]byte, error) {
	type frame Frame
	out := frame(*f)
	if out.Patches == nil {
		out.Patches = []Patch{}
	}
	return json.Marshal(out)
}
