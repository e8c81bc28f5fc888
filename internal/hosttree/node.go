// Package hosttree is a minimal composition tree that hosts components.
//
// Components embed Host to become component.Hostable: the coordinator calls
// AttachUnder with the configured root (a *Node) or, for submodules of a
// hosting parent, with the parent component, whose node then becomes the
// parent node.
package hosttree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/zjrosen/modkit/internal/domain/component"
)

// Tree errors
var (
	ErrNotANode        = errors.New("parent handle is not a host node")
	ErrAlreadyAttached = errors.New("node already has a parent")
	ErrCycle           = errors.New("attaching would create a cycle")
	ErrNilNode         = errors.New("node is nil")
)

// Node is one entry in the host tree. Safe for concurrent use.
type Node struct {
	mu       sync.RWMutex
	name     string
	parent   *Node
	children []*Node
}

// NewNode creates a detached node.
func NewNode(name string) *Node {
	return &Node{name: name}
}

// NewRoot is NewNode for the top of a tree.
func NewRoot(name string) *Node {
	return NewNode(name)
}

// HostNode lets a handle expose the node it owns.
type HostNode interface {
	HostNode() *Node
}

// NodeOf resolves a coordinator handle to a node. It accepts a *Node or any
// value implementing HostNode.
func NodeOf(h component.Handle) (*Node, error) {
	switch v := h.(type) {
	case *Node:
		if v == nil {
			return nil, ErrNilNode
		}
		return v, nil
	case HostNode:
		n := v.HostNode()
		if n == nil {
			return nil, ErrNilNode
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotANode, h)
	}
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a copy of the child list in attach order.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

// Add attaches child under n.
func (n *Node) Add(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	for a := n; a != nil; a = a.Parent() {
		if a == child {
			return fmt.Errorf("%w: %s under %s", ErrCycle, child.name, n.Path())
		}
	}

	child.mu.Lock()
	if child.parent != nil {
		child.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, child.name)
	}
	child.parent = n
	child.mu.Unlock()

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return nil
}

// Remove detaches n from its parent. Detached nodes are ignored.
func (n *Node) Remove() {
	n.mu.Lock()
	p := n.parent
	n.parent = nil
	n.mu.Unlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
	p.mu.Unlock()
}

// Path is the slash-joined chain of names from the root, e.g. "root/Game/Stats".
func (n *Node) Path() string {
	var names []string
	for a := n; a != nil; a = a.Parent() {
		names = append(names, a.name)
	}
	slices.Reverse(names)
	return strings.Join(names, "/")
}

// Depth is 0 for a root.
func (n *Node) Depth() int {
	d := 0
	for a := n.Parent(); a != nil; a = a.Parent() {
		d++
	}
	return d
}

// Flatten returns n and its descendants in depth-first pre-order.
func (n *Node) Flatten() []*Node {
	out := []*Node{n}
	for _, c := range n.Children() {
		out = append(out, c.Flatten()...)
	}
	return out
}

// Find returns the node at path relative to n ("Game/Stats").
func (n *Node) Find(path string) (*Node, bool) {
	cur := n
	for part := range strings.SplitSeq(path, "/") {
		if part == "" {
			continue
		}
		var next *Node
		for _, c := range cur.Children() {
			if c.name == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Host gives a component a node and makes it component.Hostable.
// The zero value is usable; the node is created on first use with the name
// passed to SetHostName or "component".
type Host struct {
	once sync.Once
	name string
	node *Node
}

var (
	_ component.Hostable = (*Host)(nil)
	_ HostNode           = (*Host)(nil)
)

// SetHostName sets the node name. Call it before the node is first used.
func (h *Host) SetHostName(name string) {
	h.name = name
}

// HostNode returns the component's node.
func (h *Host) HostNode() *Node {
	h.once.Do(func() {
		name := h.name
		if name == "" {
			name = "component"
		}
		h.node = NewNode(name)
	})
	return h.node
}

// AttachUnder adds the component's node under the node of parent.
func (h *Host) AttachUnder(parent component.Handle) error {
	p, err := NodeOf(parent)
	if err != nil {
		return err
	}
	return p.Add(h.HostNode())
}

// Detach removes the component's node from the tree.
func (h *Host) Detach() {
	h.HostNode().Remove()
}
