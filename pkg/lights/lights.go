// Package lights provides the light sources placed in a scene graph.
package lights

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/material"
)

// Directional is a light shining from its node's world position toward
// the world position of Target, like sunlight.
type Directional struct {
	Color     core.Color
	Intensity float32
	Target    graph.NodeID
}

// NewDirectional creates a new directional light aimed at target
func NewDirectional(color core.Color, intensity float32, target graph.NodeID) *Directional {
	return &Directional{Color: color, Intensity: intensity, Target: target}
}

// Kind implements core.Renderable
func (d *Directional) Kind() string { return "directional-light" }

// Point is an omnidirectional light at its node's world position.
// Distance 0 means no falloff.
type Point struct {
	Color     core.Color
	Intensity float32
	Distance  float32
}

// NewPoint creates a new point light with no falloff
func NewPoint(color core.Color, intensity float32) *Point {
	return &Point{Color: color, Intensity: intensity}
}

// Kind implements core.Renderable
func (p *Point) Kind() string { return "point-light" }

// Emitter is a light resolved to world space for one frame
type Emitter interface {
	Sample(p mgl32.Vec3) (material.LightSample, bool)
}

type directionalEmitter struct {
	dir      mgl32.Vec3 // toward the light
	radiance colorful.Color
}

func (e directionalEmitter) Sample(mgl32.Vec3) (material.LightSample, bool) {
	return material.LightSample{Direction: e.dir, Radiance: e.radiance}, true
}

type pointEmitter struct {
	position mgl32.Vec3
	radiance colorful.Color
	distance float32
}

func (e pointEmitter) Sample(p mgl32.Vec3) (material.LightSample, bool) {
	to := e.position.Sub(p)
	d := to.Len()
	if d == 0 {
		return material.LightSample{}, false
	}
	r := e.radiance
	if e.distance > 0 {
		f := 1 - d/e.distance
		if f <= 0 {
			return material.LightSample{}, false
		}
		f *= f
		r = colorful.Color{R: r.R * float64(f), G: r.G * float64(f), B: r.B * float64(f)}
	}
	return material.LightSample{Direction: to.Mul(1 / d), Radiance: r}, true
}

func radiance(c core.Color, intensity float32) colorful.Color {
	cf := c.Colorful()
	s := float64(intensity)
	return colorful.Color{R: cf.R * s, G: cf.G * s, B: cf.B * s}
}

// Collect resolves every visible light in g to world space.
// A directional light whose target is missing points at the world origin.
func Collect(g *graph.Graph) []Emitter {
	var out []Emitter
	g.WalkWorld(func(_ graph.NodeID, n *graph.Node, world mgl32.Mat4) {
		if !n.Visible || n.Renderable == nil {
			return
		}
		pos := world.Col(3).Vec3()
		switch l := n.Renderable.(type) {
		case *Directional:
			target := mgl32.Vec3{}
			if g.Node(l.Target) != nil {
				target = g.WorldPosition(l.Target)
			}
			dir := pos.Sub(target)
			if dir.Len() == 0 {
				return
			}
			out = append(out, directionalEmitter{dir: dir.Normalize(), radiance: radiance(l.Color, l.Intensity)})
		case *Point:
			out = append(out, pointEmitter{position: pos, radiance: radiance(l.Color, l.Intensity), distance: l.Distance})
		}
	})
	return out
}

// Samples evaluates every emitter at p
func Samples(emitters []Emitter, p mgl32.Vec3) []material.LightSample {
	samples := make([]material.LightSample, 0, len(emitters))
	for _, e := range emitters {
		if s, ok := e.Sample(p); ok {
			samples = append(samples, s)
		}
	}
	return samples
}
