package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl32.Vec3 // Minimum corner
	Max mgl32.Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max mgl32.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...mgl32.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	min, max := points[0], points[0]
	for _, p := range points[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math32.Min(min[k], p[k])
			max[k] = math32.Max(max[k], p[k])
		}
	}
	return AABB{Min: min, Max: max}
}

// Hit tests if a ray intersects with this AABB using the slab method and
// returns the entry distance, clamped to tMin
func (aabb AABB) Hit(ray Ray, tMin, tMax float32) (float32, bool) {
	for axis := 0; axis < 3; axis++ {
		origin, direction := ray.Origin[axis], ray.Direction[axis]

		// Ray is parallel to this slab
		if math32.Abs(direction) < 1e-8 {
			if origin < aabb.Min[axis] || origin > aabb.Max[axis] {
				return 0, false
			}
			continue
		}

		inv := 1 / direction
		t1 := (aabb.Min[axis] - origin) * inv
		t2 := (aabb.Max[axis] - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return NewAABBFromPoints(aabb.Min, aabb.Max, other.Min, other.Max)
}

// Center returns the center point of the AABB
func (aabb AABB) Center() mgl32.Vec3 {
	return aabb.Min.Add(aabb.Max).Mul(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() mgl32.Vec3 {
	return aabb.Max.Sub(aabb.Min)
}

// IsValid returns true if min <= max on every axis
func (aabb AABB) IsValid() bool {
	return aabb.Min.X() <= aabb.Max.X() &&
		aabb.Min.Y() <= aabb.Max.Y() &&
		aabb.Min.Z() <= aabb.Max.Z()
}

// Expand returns an AABB expanded by the given amount in all directions
func (aabb AABB) Expand(amount float32) AABB {
	e := mgl32.Vec3{amount, amount, amount}
	return AABB{Min: aabb.Min.Sub(e), Max: aabb.Max.Add(e)}
}

// Transform returns the box bounding the eight corners of aabb under m
func (aabb AABB) Transform(m mgl32.Mat4) AABB {
	corners := make([]mgl32.Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := aabb.Min
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				c[k] = aabb.Max[k]
			}
		}
		corners = append(corners, mgl32.TransformCoordinate(c, m))
	}
	return NewAABBFromPoints(corners...)
}
