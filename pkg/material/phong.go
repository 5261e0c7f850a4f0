package material

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Phong is a diffuse + specular + emissive material
type Phong struct {
	Color     core.Color // Diffuse color
	Emissive  core.Color // Emitted color, independent of lighting
	Specular  core.Color // Specular highlight color
	Shininess float64    // Specular exponent
}

// NewPhong creates a Phong material with white diffuse color and a faint
// specular highlight
func NewPhong() *Phong {
	return &Phong{
		Color:     core.ColorFromHex(0xFFFFFF),
		Specular:  core.ColorFromHex(0x111111),
		Shininess: 30,
	}
}

// WithColor sets the diffuse color and returns p for chaining
func (p *Phong) WithColor(c core.Color) *Phong {
	p.Color = c
	return p
}

// WithEmissive sets the emissive color and returns p for chaining
func (p *Phong) WithEmissive(c core.Color) *Phong {
	p.Emissive = c
	return p
}

// Shade implements Material
func (p *Phong) Shade(in ShadeInput) colorful.Color {
	diffuse := p.Color.Colorful()
	specular := p.Specular.Colorful()
	result := p.Emissive.Colorful()

	for _, light := range in.Lights {
		nDotL := float64(in.Normal.Dot(light.Direction))
		if nDotL <= 0 {
			continue
		}
		// Blinn-Phong half vector
		half := light.Direction.Add(in.ViewDir).Normalize()
		spec := math.Pow(math.Max(0, float64(in.Normal.Dot(half))), p.Shininess)

		result = addScaled(result, modulate(diffuse, light.Radiance), nDotL)
		result = addScaled(result, modulate(specular, light.Radiance), spec)
	}

	return result.Clamped()
}
