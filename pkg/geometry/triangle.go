package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// TriangleHit is a ray intersection with one triangle of a mesh
type TriangleHit struct {
	T        float32    // Ray parameter of the hit
	Point    mgl32.Vec3 // Hit point
	Normal   mgl32.Vec3 // Unit face normal, facing the ray origin
	Triangle int        // Triangle index in the mesh
}

// IntersectTriangle tests the ray against triangle (a, b, c) with the
// Möller-Trumbore algorithm. Both faces are hit.
func IntersectTriangle(ray core.Ray, a, b, c mgl32.Vec3, tMin, tMax float32) (float32, bool) {
	const epsilon = 1e-7

	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	// Ray lies in the plane of the triangle
	if det > -epsilon && det < epsilon {
		return 0, false
	}

	f := 1 / det
	s := ray.Origin.Sub(a)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return 0, false
	}
	return t, true
}

// Intersect returns the nearest hit of a ray given in the mesh's local space
func (m *Mesh) Intersect(ray core.Ray, tMin, tMax float32) (TriangleHit, bool) {
	var best TriangleHit
	found := false
	if _, ok := m.AABB().Hit(ray, tMin, tMax); !ok {
		return best, false
	}
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		t, ok := IntersectTriangle(ray, a, b, c, tMin, tMax)
		if !ok {
			continue
		}
		tMax = t
		n := FaceNormal(a, b, c)
		if n.Dot(ray.Direction) > 0 {
			n = n.Mul(-1)
		}
		best = TriangleHit{T: t, Point: ray.At(t), Normal: n, Triangle: i}
		found = true
	}
	return best, found
}
