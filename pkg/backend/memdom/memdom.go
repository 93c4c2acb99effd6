// Package memdom is an in-memory element tree used as a render backend in
// tests, the demo command and benchmarks.
package memdom

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrNotFound is returned when a node is not a child of the given parent.
	ErrNotFound = stderrors.New("memdom: node not found")

	// ErrDetached is returned when an insertion anchor is not a child of the
	// given parent.
	ErrDetached = stderrors.New("memdom: anchor is not attached to parent")
)

// Node is an element of a Document.
type Node struct {
	ID       int
	Tag      string
	Text     string
	Parent   *Node
	Children []*Node
}

func (n *Node) index(child *Node) int {
	return slices.Index(n.Children, child)
}

func (n *Node) detach() {
	if n.Parent == nil {
		return
	}
	p := n.Parent
	if i := p.index(n); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = nil
}

// Op is an entry of the document's operation log.
type Op struct {
	Kind    string
	Node    int
	Parent  int
	Sibling int
	Text    string
}

func (o Op) String() string {
	switch o.Kind {
	case "create":
		return fmt.Sprintf("create #%d", o.Node)
	case "insert-first":
		return fmt.Sprintf("insert #%d first in #%d", o.Node, o.Parent)
	case "insert-after":
		return fmt.Sprintf("insert #%d after #%d in #%d", o.Node, o.Sibling, o.Parent)
	case "remove":
		return fmt.Sprintf("remove #%d from #%d", o.Node, o.Parent)
	case "text":
		return fmt.Sprintf("text #%d %q", o.Node, o.Text)
	default:
		return o.Kind
	}
}

// Document is a tree of nodes. It implements the list reconciler's backend
// and the text renderer's backend with *Node handles.
type Document struct {
	mu         sync.Mutex
	root       *Node
	tag        string
	next       int
	ops        []Op
	failInsert func(child *Node) error
}

// New creates an empty document whose elements get tag.
func New(tag string) *Document {
	if tag == "" {
		tag = "div"
	}
	return &Document{
		root: &Node{ID: 0, Tag: "root"},
		tag:  tag,
		next: 1,
	}
}

// Root returns the root node.
func (d *Document) Root() *Node {
	return d.root
}

// FailInserts makes insertions fail with the error fn returns. A nil fn
// restores normal behavior.
func (d *Document) FailInserts(fn func(child *Node) error) {
	d.mu.Lock()
	d.failInsert = fn
	d.mu.Unlock()
}

// CreateElement creates a detached node.
func (d *Document) CreateElement() (*Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := &Node{ID: d.next, Tag: d.tag}
	d.next++
	d.ops = append(d.ops, Op{Kind: "create", Node: n.ID})
	return n, nil
}

func (d *Document) insertErr(child *Node) error {
	if d.failInsert == nil {
		return nil
	}
	return d.failInsert(child)
}

// InsertFirst makes child the first child of parent, moving it if it is
// attached elsewhere.
func (d *Document) InsertFirst(parent, child *Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.insertErr(child); err != nil {
		return err
	}
	child.detach()
	child.Parent = parent
	parent.Children = slices.Insert(parent.Children, 0, child)
	d.ops = append(d.ops, Op{Kind: "insert-first", Node: child.ID, Parent: parent.ID})
	return nil
}

// InsertAfter places child right after sibling in parent.
func (d *Document) InsertAfter(parent, child, sibling *Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.insertErr(child); err != nil {
		return err
	}
	if sibling == nil || sibling.Parent != parent || sibling == child {
		return fmt.Errorf("insert #%d: %w", child.ID, ErrDetached)
	}
	child.detach()
	i := parent.index(sibling)
	child.Parent = parent
	parent.Children = slices.Insert(parent.Children, i+1, child)
	d.ops = append(d.ops, Op{Kind: "insert-after", Node: child.ID, Parent: parent.ID, Sibling: sibling.ID})
	return nil
}

// Remove detaches child from parent.
func (d *Document) Remove(parent, child *Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if child == nil || child.Parent != parent {
		return ErrNotFound
	}
	child.detach()
	d.ops = append(d.ops, Op{Kind: "remove", Node: child.ID, Parent: parent.ID})
	return nil
}

// SetText replaces the text of n.
func (d *Document) SetText(n *Node, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n.Text = text
	d.ops = append(d.ops, Op{Kind: "text", Node: n.ID, Text: text})
	return nil
}

// Ops returns a copy of the operation log.
func (d *Document) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.ops)
}

// ResetOps clears the operation log.
func (d *Document) ResetOps() {
	d.mu.Lock()
	d.ops = nil
	d.mu.Unlock()
}

// Children returns the children of n in document order.
func (d *Document) Children(n *Node) []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(n.Children)
}

// Texts returns the text of every child of n in document order.
func (d *Document) Texts(n *Node) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.Text
	}
	return out
}

// Render returns an indented textual form of the tree.
func (d *Document) Render() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	render(&b, d.root, 0)
	return b.String()
}

func render(b *strings.Builder, n *Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(b, "<%s #%d>", n.Tag, n.ID)
	if n.Text != "" {
		fmt.Fprintf(b, " %q", n.Text)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		render(b, c, depth+1)
	}
}

// Digest returns a hash of the rendered tree.
func (d *Document) Digest() uint64 {
	return xxhash.Sum64String(d.Render())
}
