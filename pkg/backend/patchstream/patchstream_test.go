package patchstream

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRecordsOperations(t *testing.T) {
	s := NewStream()
	a, _ := s.CreateElement()
	b, _ := s.CreateElement()
	require.NoError(t, s.InsertFirst(s.Root(), a))
	require.NoError(t, s.InsertAfter(s.Root(), b, a))
	require.NoError(t, s.SetText(b, "hi"))
	require.NoError(t, s.Remove(s.Root(), a))

	assert.Error(t, s.Remove(s.Root(), a))
	assert.Error(t, s.InsertAfter(s.Root(), a, 99))

	f := s.Flush()
	require.NotNil(t, f)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, []Patch{
		{Op: OpCreateNode, ID: 1},
		{Op: OpCreateNode, ID: 2},
		{Op: OpInsertNode, ID: 1},
		{Op: OpInsertNode, ID: 2, AfterID: 1},
		{Op: OpSetText, ID: 2, Text: "hi"},
		{Op: OpRemoveNode, ID: 1},
	}, f.Patches)

	assert.Nil(t, s.Flush())
	_ = s.SetText(b, "again")
	assert.Equal(t, uint64(2), s.Flush().Seq)
}

func TestFrameBinaryRoundTrip(t *testing.T) {
	f := &Frame{Seq: 300, Patches: []Patch{
		{Op: OpCreateNode, ID: 7},
		{Op: OpInsertNode, ID: 7, ParentID: 0, AfterID: 200},
		{Op: OpSetText, ID: 7, Text: "héllo"},
		{Op: OpRemoveNode, ID: 7},
	}}
	got, err := DecodeFrame(f.Encode())
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestDecodeFrameErrors(t *testing.T) {
	data := (&Frame{Seq: 1, Patches: []Patch{{Op: OpSetText, ID: 1, Text: "abc"}}}).Encode()

	_, err := DecodeFrame(data[:len(data)-1])
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodeFrame([]byte{1, 1, 0x7F, 1})
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = DecodeFrame([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrVarintOverflow)
}

func TestFrameJSON(t *testing.T) {
	f := &Frame{Seq: 2, Patches: []Patch{{Op: OpInsertNode, ID: 3, ParentID: 1, AfterID: 2}}}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":2,"patches":[{"op":"InsertNode","id":3,"parent":1,"after":2}]}`, string(b))

	var back Frame
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, *f, back)

	empty, err := json.Marshal(&Frame{Seq: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":1,"patches":[]}`, string(empty))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "InsertNode", OpInsertNode.String())
	assert.Equal(t, "Op(0x7f)", Op(0x7F).String())
	assert.Equal(t, `SetText #4 "x"`, Patch{Op: OpSetText, ID: 4, Text: "x"}.String())
}
