package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"

	"github.com/df07/go-animated-scenes/pkg/core"
)

func upInput(lights ...LightSample) ShadeInput {
	return ShadeInput{
		Normal:  mgl32.Vec3{0, 1, 0},
		ViewDir: mgl32.Vec3{0, 1, 0},
		Lights:  lights,
	}
}

func TestPhongEmissiveWithoutLights(t *testing.T) {
	p := NewPhong().WithColor(core.ColorFromHex(0x2233FF)).WithEmissive(core.ColorFromHex(0x112244))
	got := core.ColorFromColorful(p.Shade(upInput()))
	assert.Equal(t, core.ColorFromHex(0x112244), got)
}

func TestPhongLitFromBehindIsUnlit(t *testing.T) {
	p := NewPhong()
	behind := LightSample{Direction: mgl32.Vec3{0, -1, 0}, Radiance: colorful.Color{R: 1, G: 1, B: 1}}
	got := core.ColorFromColorful(p.Shade(upInput(behind)))
	assert.Equal(t, core.Color{}, got)
}

func TestPhongDiffuseScalesWithAngle(t *testing.T) {
	p := NewPhong().WithColor(core.ColorFromHex(0x808080))
	p.Specular = core.Color{}
	white := colorful.Color{R: 1, G: 1, B: 1}

	head := p.Shade(upInput(LightSample{Direction: mgl32.Vec3{0, 1, 0}, Radiance: white}))
	slant := p.Shade(upInput(LightSample{Direction: mgl32.Vec3{1, 1, 0}.Normalize(), Radiance: white}))

	assert.InDelta(t, 128.0/255.0, head.R, 1e-6)
	assert.Less(t, slant.R, head.R)
	assert.InDelta(t, head.R*0.70710678, slant.R, 1e-3)
}

func TestPhongClampsHighRadiance(t *testing.T) {
	p := NewPhong()
	bright := LightSample{Direction: mgl32.Vec3{0, 1, 0}, Radiance: colorful.Color{R: 3, G: 3, B: 3}}
	c := p.Shade(upInput(bright))
	assert.LessOrEqual(t, c.R, 1.0)
	assert.True(t, c.IsValid())
}

type flatNormals struct{}

func (flatNormals) Sample(u, v float64) core.Color { return core.NewColor(128, 128, 255) }

func TestWaterAlphaBlendsTowardBackground(t *testing.T) {
	opts := WaterOptions{
		SunColor:        core.ColorFromHex(0xFFFFFF),
		WaterColor:      core.ColorFromHex(0x001E0F),
		Alpha:           0,
		DistortionScale: 3.7,
	}
	w := NewWater(opts)
	bg := core.ColorFromHex(0x1E5A99)
	in := upInput()
	in.Background = bg.Colorful()

	assert.Equal(t, bg, core.ColorFromColorful(w.Shade(in)), "alpha 0 shows only the background")

	w.Alpha = 0.4
	got := core.ColorFromColorful(w.Shade(in))
	assert.NotEqual(t, bg, got)
}

func TestWaterIsDeterministicInTime(t *testing.T) {
	w := NewWater(WaterOptions{WaterColor: core.ColorFromHex(0x001E0F), Alpha: 0.4, DistortionScale: 3.7})
	in := upInput()
	in.Position = mgl32.Vec3{12, 0, -7}
	in.ViewDir = mgl32.Vec3{0, 1, 1}.Normalize()

	w.Time = 1.5
	a := w.Shade(in)
	b := w.Shade(in)
	assert.Equal(t, a, b)

	w.Normals = flatNormals{}
	assert.True(t, w.Shade(in).IsValid())
}

func TestNewWaterDefaults(t *testing.T) {
	w := NewWater(WaterOptions{})
	assert.Equal(t, 512, w.TextureWidth)
	assert.Equal(t, 512, w.TextureHeight)
	assert.Equal(t, mgl32.Vec3{}, w.SunDirection)
	assert.Nil(t, w.Normals)

	w = NewWater(WaterOptions{SunDirection: mgl32.Vec3{0, 3, 4}})
	assert.InDelta(t, 1.0, w.SunDirection.Len(), 1e-5)
}

func TestWaterGlintNeedsSunDirection(t *testing.T) {
	// Looking straight down at a flat surface reflects straight up
	in := ShadeInput{
		Normal:     mgl32.Vec3{0, 1, 0},
		ViewDir:    mgl32.Vec3{0, 1, 0},
		Background: colorful.Color{},
	}
	opts := WaterOptions{SunColor: core.ColorFromHex(0xFFFFFF), Alpha: 1}

	dark := NewWater(opts).Shade(in)
	assert.Equal(t, colorful.Color{}, dark, "no sun direction, no glint")

	opts.SunDirection = mgl32.Vec3{0, 1, 0}
	lit := NewWater(opts).Shade(in)
	assert.Greater(t, lit.R, 0.9)
}
