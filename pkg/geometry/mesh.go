package geometry

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Mesh is an indexed triangle list in local space
type Mesh struct {
	Positions []mgl32.Vec3
	Indices   []uint32 // Three per triangle, counter-clockwise front faces
}

// NewMesh creates a mesh from positions and triangle indices.
// It returns an error if the index list is not a whole number of
// triangles or references a missing vertex.
func NewMesh(positions []mgl32.Vec3, indices []uint32) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("index %d at %d out of range for %d vertices", idx, i, len(positions))
		}
	}
	return &Mesh{Positions: positions, Indices: indices}, nil
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the three corners of triangle i
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	return m.Positions[m.Indices[i*3]], m.Positions[m.Indices[i*3+1]], m.Positions[m.Indices[i*3+2]]
}

// Bounds returns the axis-aligned bounding box of the vertices.
// An empty mesh returns zero vectors.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	min, max = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}

// AABB returns Bounds as a box
func (m *Mesh) AABB() core.AABB {
	return core.NewAABB(m.Bounds())
}

// FaceNormal returns the unit normal of a triangle from its winding.
// Degenerate triangles return the zero vector.
func FaceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}
