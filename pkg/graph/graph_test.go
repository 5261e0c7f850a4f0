package graph

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphAddKeepsInsertionOrder(t *testing.T) {
	g := New("scene")
	a := g.MustAdd(g.Root(), NewNode("a"))
	b := g.MustAdd(g.Root(), NewNode("b"))
	c := g.MustAdd(g.Root(), NewNode("c"))
	a1 := g.MustAdd(a, NewNode("a1"))

	assert.Equal(t, []NodeID{a, b, c}, g.Children(g.Root()))
	assert.Equal(t, []NodeID{a1}, g.Children(a))
	assert.Equal(t, a, g.Parent(a1))
	assert.Equal(t, Nil, g.Parent(g.Root()))
	assert.Equal(t, 5, g.Len())

	var names []string
	g.Walk(func(_ NodeID, n *Node) bool {
		names = append(names, n.Name)
		return true
	})
	assert.Equal(t, []string{"scene", "a", "a1", "b", "c"}, names)
}

func TestGraphAddErrors(t *testing.T) {
	g := New("scene")
	n := NewNode("n")
	g.MustAdd(g.Root(), n)

	_, err := g.Add(NodeID(99), NewNode("orphan"))
	assert.ErrorIs(t, err, ErrNoNode)

	_, err = g.Add(g.Root(), n)
	assert.Error(t, err, "a node value cannot be added twice")

	_, err = g.Add(g.Root(), nil)
	assert.Error(t, err)
}

func TestGraphRemoveSubtree(t *testing.T) {
	g := New("scene")
	a := g.MustAdd(g.Root(), NewNode("a"))
	a1 := g.MustAdd(a, NewNode("a1"))
	b := g.MustAdd(g.Root(), NewNode("b"))

	require.NoError(t, g.Remove(a))
	assert.Nil(t, g.Node(a))
	assert.Nil(t, g.Node(a1))
	assert.Equal(t, []NodeID{b}, g.Children(g.Root()))
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, Nil, g.Find("a1"))

	assert.ErrorIs(t, g.Remove(a), ErrNoNode)
	assert.Error(t, g.Remove(g.Root()))
}

func TestGraphFind(t *testing.T) {
	g := New("scene")
	orbit := g.MustAdd(g.Root(), NewNode("orbit"))
	moon := g.MustAdd(orbit, NewNode("moon"))

	assert.Equal(t, moon, g.Find("moon"))
	assert.Equal(t, g.Root(), g.Find("scene"))
	assert.Equal(t, Nil, g.Find("pluto"))
}

func TestGraphWorldComposesParents(t *testing.T) {
	g := New("scene")
	orbit := g.MustAdd(g.Root(), NewNode("orbit").SetPosition(10, 0, 0))
	moon := g.MustAdd(orbit, NewNode("moon").SetPosition(2, 0, 0))

	assert.True(t, g.WorldPosition(moon).ApproxEqual(mgl32.Vec3{12, 0, 0}))

	// A quarter turn of the parent about Y swings the child from +X to -Z
	g.Node(orbit).Rotation = mgl32.Vec3{0, math.Pi / 2, 0}
	assert.True(t, g.WorldPosition(moon).ApproxEqualThreshold(mgl32.Vec3{10, 0, -2}, 1e-5),
		"got %v", g.WorldPosition(moon))

	// WalkWorld must agree with World
	g.WalkWorld(func(id NodeID, _ *Node, world mgl32.Mat4) {
		assert.True(t, world.ApproxEqualThreshold(g.World(id), 1e-5), "node %d", id)
	})
}

func TestNodeDefaults(t *testing.T) {
	n := NewNode("n")
	assert.True(t, n.Visible)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, n.Scale)
	assert.True(t, n.Local().ApproxEqual(mgl32.Ident4()))

	n.SetScale(5, 5, 5)
	p := n.Local().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 5, p.X(), 1e-6)
}
