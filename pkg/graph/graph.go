// Package graph implements the scene graph as an arena of nodes.
//
// Nodes are addressed by NodeID. Parent and child links are ids into the
// arena, so the graph never holds mutual pointers between nodes.
package graph

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeID identifies a node in a Graph.
type NodeID int

// Nil represents an invalid NodeID.
const Nil NodeID = 0

// ErrNoNode is returned when an id does not name a live node.
var ErrNoNode = errors.New("graph: no such node")

type slot struct {
	node     *Node
	parent   NodeID
	children []NodeID
	live     bool
}

// Graph is a tree of nodes rooted at a single node owned by the graph.
// Ids are never reused, even after Remove.
type Graph struct {
	slots []slot // slots[0] is unused so that Nil stays invalid
	root  NodeID
	live  int
}

// New creates a graph whose root node is named rootName.
func New(rootName string) *Graph {
	g := &Graph{slots: make([]slot, 1, 16)}
	g.root = g.alloc(NewNode(rootName), Nil)
	return g
}

func (g *Graph) alloc(n *Node, parent NodeID) NodeID {
	id := NodeID(len(g.slots))
	g.slots = append(g.slots, slot{node: n, parent: parent, live: true})
	g.live++
	return id
}

func (g *Graph) slot(id NodeID) *slot {
	if id <= Nil || int(id) >= len(g.slots) || !g.slots[id].live {
		return nil
	}
	return &g.slots[id]
}

// Root returns the root node id.
func (g *Graph) Root() NodeID { return g.root }

// Len returns the number of live nodes, root included.
func (g *Graph) Len() int { return g.live }

// Add inserts n as the last child of parent.
// A node value can only be in one graph position at a time.
func (g *Graph) Add(parent NodeID, n *Node) (NodeID, error) {
	if n == nil {
		return Nil, fmt.Errorf("add to %d: nil node", parent)
	}
	if g.slot(parent) == nil {
		return Nil, fmt.Errorf("add %q: parent %d: %w", n.Name, parent, ErrNoNode)
	}
	if g.Contains(n) {
		return Nil, fmt.Errorf("add %q: node is already in the graph", n.Name)
	}
	id := g.alloc(n, parent)
	g.slots[parent].children = append(g.slots[parent].children, id)
	return id, nil
}

// MustAdd is like Add but panics on error. It is meant for static scene
// assembly where the parent is known to exist.
func (g *Graph) MustAdd(parent NodeID, n *Node) NodeID {
	id, err := g.Add(parent, n)
	if err != nil {
		panic(err)
	}
	return id
}

// Contains reports whether n is live in the graph.
func (g *Graph) Contains(n *Node) bool {
	for i := range g.slots {
		if g.slots[i].live && g.slots[i].node == n {
			return true
		}
	}
	return false
}

// Node returns the node for id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if s := g.slot(id); s != nil {
		return s.node
	}
	return nil
}

// Parent returns the parent of id. The root and invalid ids return Nil.
func (g *Graph) Parent(id NodeID) NodeID {
	if s := g.slot(id); s != nil {
		return s.parent
	}
	return Nil
}

// Children returns the children of id in insertion order.
// The returned slice is a copy.
func (g *Graph) Children(id NodeID) []NodeID {
	s := g.slot(id)
	if s == nil {
		return nil
	}
	return append([]NodeID(nil), s.children...)
}

// Remove detaches id and its whole subtree. The root cannot be removed.
func (g *Graph) Remove(id NodeID) error {
	s := g.slot(id)
	if s == nil {
		return fmt.Errorf("remove %d: %w", id, ErrNoNode)
	}
	if id == g.root {
		return fmt.Errorf("remove %d: cannot remove the root", id)
	}
	p := &g.slots[s.parent]
	for i, c := range p.children {
		if c == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	g.kill(id)
	return nil
}

func (g *Graph) kill(id NodeID) {
	s := &g.slots[id]
	for _, c := range s.children {
		g.kill(c)
	}
	s.live = false
	s.node = nil
	s.children = nil
	g.live--
}

// Find returns the first node named name in pre-order, or Nil.
func (g *Graph) Find(name string) NodeID {
	found := Nil
	g.Walk(func(id NodeID, n *Node) bool {
		if n.Name == name {
			found = id
			return false
		}
		return true
	})
	return found
}

// Walk calls f for every node in depth-first pre-order, children in
// insertion order. If f returns false, Walk returns immediately.
// The graph must not be changed until Walk returns.
func (g *Graph) Walk(f func(NodeID, *Node) bool) {
	g.walk(g.root, f)
}

func (g *Graph) walk(id NodeID, f func(NodeID, *Node) bool) bool {
	s := &g.slots[id]
	if !f(id, s.node) {
		return false
	}
	for _, c := range s.children {
		if !g.walk(c, f) {
			return false
		}
	}
	return true
}

// WalkWorld calls f for every node in pre-order along with its world
// transform, composing parent transforms during the traversal.
func (g *Graph) WalkWorld(f func(id NodeID, n *Node, world mgl32.Mat4)) {
	g.walkWorld(g.root, mgl32.Ident4(), f)
}

func (g *Graph) walkWorld(id NodeID, parent mgl32.Mat4, f func(NodeID, *Node, mgl32.Mat4)) {
	s := &g.slots[id]
	world := parent.Mul4(s.node.Local())
	f(id, s.node, world)
	for _, c := range s.children {
		g.walkWorld(c, world, f)
	}
}

// World returns the world transform of id, or identity for invalid ids.
func (g *Graph) World(id NodeID) mgl32.Mat4 {
	s := g.slot(id)
	if s == nil {
		return mgl32.Ident4()
	}
	m := s.node.Local()
	for p := s.parent; p != Nil; p = g.slots[p].parent {
		m = g.slots[p].node.Local().Mul4(m)
	}
	return m
}

// WorldPosition returns the world-space origin of id.
func (g *Graph) WorldPosition(id NodeID) mgl32.Vec3 {
	return g.World(id).Col(3).Vec3()
}
