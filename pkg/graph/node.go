package graph

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Node is a transform with an optional renderable.
// Children are owned by the Graph, not by the node.
type Node struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Euler angles in radians, applied X then Y then Z
	Scale    mgl32.Vec3

	// Visible controls whether this node's own renderable is drawn.
	// It does not hide children.
	Visible bool

	Renderable core.Renderable
	UserData   map[string]any
}

// NewNode creates a visible node with unit scale
func NewNode(name string) *Node {
	return &Node{
		Name:    name,
		Scale:   mgl32.Vec3{1, 1, 1},
		Visible: true,
	}
}

// NewRenderableNode creates a node carrying r
func NewRenderableNode(name string, r core.Renderable) *Node {
	n := NewNode(name)
	n.Renderable = r
	return n
}

// SetPosition sets the position and returns n for chaining
func (n *Node) SetPosition(x, y, z float32) *Node {
	n.Position = mgl32.Vec3{x, y, z}
	return n
}

// SetScale sets the scale and returns n for chaining
func (n *Node) SetScale(x, y, z float32) *Node {
	n.Scale = mgl32.Vec3{x, y, z}
	return n
}

// SetRotation sets the Euler rotation and returns n for chaining
func (n *Node) SetRotation(x, y, z float32) *Node {
	n.Rotation = mgl32.Vec3{x, y, z}
	return n
}

// Local returns the local transform T * Rx * Ry * Rz * S
func (n *Node) Local() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := mgl32.HomogRotate3DX(n.Rotation.X()).
		Mul4(mgl32.HomogRotate3DY(n.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(n.Rotation.Z()))
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}
