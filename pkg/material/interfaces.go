package material

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Material decides the flat color of a rasterized triangle
type Material interface {
	// Shade returns the lit color of a surface described by in
	Shade(in ShadeInput) colorful.Color
}

// LightSample is one light as seen from a surface point
type LightSample struct {
	Direction mgl32.Vec3     // Unit vector from the surface toward the light
	Radiance  colorful.Color // Light color already scaled by intensity
}

// ShadeInput contains everything a material needs to shade a triangle
type ShadeInput struct {
	Position   mgl32.Vec3 // World-space centroid
	Normal     mgl32.Vec3 // World-space unit normal, facing the viewer
	ViewDir    mgl32.Vec3 // Unit vector from the surface toward the camera
	Lights     []LightSample
	Background colorful.Color
}

// TextureSampler is a repeat-wrapped 2D color lookup
type TextureSampler interface {
	Sample(u, v float64) core.Color
}

// addScaled returns a + b*s without clamping
func addScaled(a, b colorful.Color, s float64) colorful.Color {
	return colorful.Color{R: a.R + b.R*s, G: a.G + b.G*s, B: a.B + b.B*s}
}

// modulate multiplies two colors channel by channel
func modulate(a, b colorful.Color) colorful.Color {
	return colorful.Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B}
}
