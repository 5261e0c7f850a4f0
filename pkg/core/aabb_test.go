package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAABBFromPoints(t *testing.T) {
	box := NewAABBFromPoints(mgl32.Vec3{1, -2, 3}, mgl32.Vec3{-1, 4, 0}, mgl32.Vec3{0, 0, 5})
	assert.Equal(t, mgl32.Vec3{-1, -2, 0}, box.Min)
	assert.Equal(t, mgl32.Vec3{1, 4, 5}, box.Max)
	assert.True(t, box.IsValid())
	assert.Equal(t, mgl32.Vec3{0, 1, 2.5}, box.Center())
	assert.Equal(t, mgl32.Vec3{2, 6, 5}, box.Size())
	assert.Equal(t, AABB{}, NewAABBFromPoints())
}

func TestAABBHit(t *testing.T) {
	box := NewAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		entry float32
	}{
		{"head on", NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}), true, 4},
		{"miss", NewRay(mgl32.Vec3{3, 0, 5}, mgl32.Vec3{0, 0, -1}), false, 0},
		{"pointing away", NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}), false, 0},
		{"parallel inside slab", NewRay(mgl32.Vec3{0.5, 0, 5}, mgl32.Vec3{0, 0, -1}), true, 4},
		{"parallel outside slab", NewRay(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{0, 0, -1}), false, 0},
		{"origin inside", NewRay(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := box.Hit(tt.ray, 0, 100)
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, tt.entry, entry, 1e-5)
			}
		})
	}
}

func TestAABBUnionExpandTransform(t *testing.T) {
	a := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	b := NewAABB(mgl32.Vec3{-2, 0.5, 0}, mgl32.Vec3{0, 3, 0.5})

	u := a.Union(b)
	assert.Equal(t, mgl32.Vec3{-2, 0, 0}, u.Min)
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, u.Max)

	e := a.Expand(0.5)
	assert.Equal(t, mgl32.Vec3{-0.5, -0.5, -0.5}, e.Min)
	assert.Equal(t, mgl32.Vec3{1.5, 1.5, 1.5}, e.Max)

	moved := a.Transform(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2)))
	assert.True(t, moved.Min.ApproxEqual(mgl32.Vec3{10, 0, 0}))
	assert.True(t, moved.Max.ApproxEqual(mgl32.Vec3{12, 2, 2}))
}

func TestRayAt(t *testing.T) {
	r := NewRay(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -2})
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, r.At(1))
}
