package memdom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndRemove(t *testing.T) {
	d := New("li")
	root := d.Root()
	a, _ := d.CreateElement()
	b, _ := d.CreateElement()
	c, _ := d.CreateElement()
	for n, text := range map[*Node]string{a: "a", b: "b", c: "c"} {
		require.NoError(t, d.SetText(n, text))
	}

	require.NoError(t, d.InsertFirst(root, a))
	require.NoError(t, d.InsertAfter(root, c, a))
	require.NoError(t, d.InsertAfter(root, b, a))
	assert.Equal(t, []string{"a", "b", "c"}, d.Texts(root))

	require.NoError(t, d.Remove(root, b))
	assert.Equal(t, []string{"a", "c"}, d.Texts(root))
	assert.Nil(t, b.Parent)
	assert.ErrorIs(t, d.Remove(root, b), ErrNotFound)
	assert.ErrorIs(t, d.InsertAfter(root, c, b), ErrDetached)
}

func TestInsertMovesAttachedNode(t *testing.T) {
	d := New("")
	root := d.Root()
	a, _ := d.CreateElement()
	b, _ := d.CreateElement()
	require.NoError(t, d.InsertFirst(root, a))
	require.NoError(t, d.InsertAfter(root, b, a))
	require.NoError(t, d.InsertFirst(root, b))
	assert.Equal(t, []*Node{b, a}, d.Children(root))
}

func TestFailInserts(t *testing.T) {
	d := New("")
	boom := errors.New("boom")
	d.FailInserts(func(*Node) error { return boom })
	a, _ := d.CreateElement()
	assert.ErrorIs(t, d.InsertFirst(d.Root(), a), boom)
	assert.Empty(t, d.Children(d.Root()))

	d.FailInserts(nil)
	assert.NoError(t, d.InsertFirst(d.Root(), a))
}

func TestRenderAndDigest(t *testing.T) {
	d := New("li")
	a, _ := d.CreateElement()
	_ = d.SetText(a, "hello")
	_ = d.InsertFirst(d.Root(), a)

	assert.Equal(t, "<root #0>\n  <li #1> \"hello\"\n", d.Render())

	before := d.Digest()
	assert.Equal(t, before, d.Digest())
	_ = d.SetText(a, "bye")
	assert.NotEqual(t, before, d.Digest())
}

func TestOpsLog(t *testing.T) {
	d := New("")
	a, _ := d.CreateElement()
	_ = d.InsertFirst(d.Root(), a)
	_ = d.Remove(d.Root(), a)

	ops := d.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, "create #1", ops[0].String())
	assert.Equal(t, "insert #1 first in #0", ops[1].String())
	assert.Equal(t, "remove #1 from #0", ops[2].String())

	d.ResetOps()
	assert.Empty(t, d.Ops())
}
