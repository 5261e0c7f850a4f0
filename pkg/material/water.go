package material

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Water is an animated reflective surface material. Time drives the
// scrolling of the normal map and is advanced by the owning scene.
type Water struct {
	Time            float32
	SunColor        core.Color
	WaterColor      core.Color
	SunDirection    mgl32.Vec3
	Alpha           float32 // Blend factor against the background
	DistortionScale float32
	TextureWidth    int
	TextureHeight   int

	// Normals is the tiling normal map. Nil until its load resolves, in
	// which case procedural ripples are used.
	Normals TextureSampler
}

// WaterOptions configures NewWater
type WaterOptions struct {
	SunColor        core.Color
	WaterColor      core.Color
	SunDirection    mgl32.Vec3
	Alpha           float32
	DistortionScale float32
	TextureWidth    int
	TextureHeight   int
}

// NewWater creates a water material with the given options
func NewWater(opts WaterOptions) *Water {
	if opts.TextureWidth <= 0 {
		opts.TextureWidth = 512
	}
	if opts.TextureHeight <= 0 {
		opts.TextureHeight = 512
	}
	// A zero sun direction stays zero and gives no glint
	dir := opts.SunDirection
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return &Water{
		SunColor:        opts.SunColor,
		WaterColor:      opts.WaterColor,
		SunDirection:    dir,
		Alpha:           opts.Alpha,
		DistortionScale: opts.DistortionScale,
		TextureWidth:    opts.TextureWidth,
		TextureHeight:   opts.TextureHeight,
	}
}

// perturbedNormal tilts the geometric normal by the animated normal map
func (w *Water) perturbedNormal(in ShadeInput) mgl32.Vec3 {
	// World-space tiling of the texture, repeated every TextureWidth units
	scale := 1.0 / float64(w.TextureWidth) * 32
	u := float64(in.Position.X()) * scale
	v := float64(in.Position.Z()) * scale
	t := float64(w.Time)

	var nx, nz float64
	if w.Normals != nil {
		// Two layers scrolling in different directions
		a := w.Normals.Sample(u+t*0.05, v+t*0.03)
		b := w.Normals.Sample(u*0.7-t*0.04, v*0.7+t*0.06)
		nx = (float64(a.R)+float64(b.R))/255.0 - 1
		nz = (float64(a.G)+float64(b.G))/255.0 - 1
	} else {
		nx = 0.5 * (math.Sin(u*9+t*1.7) + math.Sin(v*7-t*1.3))
		nz = 0.5 * (math.Cos(v*8+t*1.1) + math.Cos(u*6-t*1.5))
	}

	d := float64(w.DistortionScale) * 0.05
	n := in.Normal.Add(mgl32.Vec3{float32(nx * d), 0, float32(nz * d)})
	if n.Len() == 0 {
		return in.Normal
	}
	return n.Normalize()
}

// Shade implements Material
func (w *Water) Shade(in ShadeInput) colorful.Color {
	n := w.perturbedNormal(in)
	water := w.WaterColor.Colorful()
	sun := w.SunColor.Colorful()

	// Fresnel-weighted reflection of the background
	cosTheta := math.Max(0, float64(n.Dot(in.ViewDir)))
	fresnel := 0.02 + 0.98*math.Pow(1-cosTheta, 5)
	result := water.BlendRgb(in.Background, fresnel)

	// Sun glint
	if w.SunDirection.Len() > 0 {
		reflected := in.ViewDir.Mul(-1).Sub(n.Mul(2 * n.Dot(in.ViewDir.Mul(-1))))
		glint := math.Pow(math.Max(0, float64(reflected.Dot(w.SunDirection))), 100)
		result = addScaled(result, sun, glint*2)
	}

	for _, light := range in.Lights {
		nDotL := math.Max(0, float64(n.Dot(light.Direction)))
		result = addScaled(result, modulate(water, light.Radiance), nDotL*0.5)
	}

	return in.Background.BlendRgb(result.Clamped(), float64(w.Alpha)).Clamped()
}
