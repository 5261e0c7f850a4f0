package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/lights"
	"github.com/df07/go-animated-scenes/pkg/material"
	"github.com/df07/go-animated-scenes/pkg/renderer"
)

// SolarSystem is a sun, an earth and a moon spinning on nested orbit pivots
type SolarSystem struct {
	*Base

	Pivots  []graph.NodeID // solarsystem, earthorbit, moonOrbit
	Planets []graph.NodeID // sun, earth, moon
	Light   graph.NodeID
	Helpers []graph.NodeID // one axis grid per spinning node, in the same order

	spinning []graph.NodeID // every node rotating with time, in creation order
}

// NewSolarSystem creates the solar system scene
func NewSolarSystem(host renderer.Host, width, height int, opts Options) (*SolarSystem, error) {
	base, err := newBase("solar-system", host, width, height, lens{fov: 40, near: 0.1, far: 1000}, opts)
	if err != nil {
		return nil, err
	}
	s := &SolarSystem{Base: base}
	s.background = core.ColorFromHex(0x000000)

	// Camera above the system looking down, with +Z as up
	s.camera.SetPosition(0, 50, 0)
	s.camera.Up = mgl32.Vec3{0, 0, 1}
	s.camera.LookAt(mgl32.Vec3{0, 0, 0})

	g := s.graph
	sphere := geometry.NewSphere(1, 6, 6)

	// Pivots. Orbit offsets repeat x in z, so the earth sits at (10,0,10).
	system := graph.NewNode("solarsystem")
	system.UserData = map[string]any{"divisions": 26}
	systemID := s.addSpinning(g.Root(), system)
	earthOrbitID := s.addSpinning(systemID, graph.NewNode("earthorbit").SetPosition(10, 0, 10))
	moonOrbitID := s.addSpinning(earthOrbitID, graph.NewNode("moonOrbit").SetPosition(2, 0, 2))
	s.Pivots = []graph.NodeID{systemID, earthOrbitID, moonOrbitID}

	// Planets share one sphere mesh
	sun := material.NewPhong().WithEmissive(core.ColorFromHex(0xFFE285))
	earth := material.NewPhong().WithColor(core.ColorFromHex(0x2233FF)).WithEmissive(core.ColorFromHex(0x112244))
	moon := material.NewPhong().WithColor(core.ColorFromHex(0x888888)).WithEmissive(core.ColorFromHex(0x222222))

	s.Planets = []graph.NodeID{
		s.addSpinning(systemID, graph.NewRenderableNode("sun", geometry.NewSolid(sphere, sun)).SetScale(5, 5, 5)),
		s.addSpinning(earthOrbitID, graph.NewRenderableNode("earth", geometry.NewSolid(sphere, earth))),
		s.addSpinning(moonOrbitID, graph.NewRenderableNode("moon", geometry.NewSolid(sphere, moon)).SetScale(0.5, 0.5, 0.5)),
	}

	// The sun's light
	s.Light = g.MustAdd(g.Root(), graph.NewRenderableNode("light", lights.NewPoint(core.ColorFromHex(0xFFFFFF), 3)))

	// One axis grid and one visibility toggle per spinning node
	for _, id := range s.spinning {
		n := g.Node(id)
		s.Helpers = append(s.Helpers, g.MustAdd(id, graph.NewRenderableNode(n.Name+" axes", geometry.NewAxisGrid(gridUnits(n)))))
		s.panel.AddToggle(n.Name, &n.Visible)
	}

	return s, nil
}

func (s *SolarSystem) addSpinning(parent graph.NodeID, n *graph.Node) graph.NodeID {
	id := s.graph.MustAdd(parent, n)
	s.spinning = append(s.spinning, id)
	return id
}

// gridUnits reads the grid size a node asks for in its user data
func gridUnits(n *graph.Node) int {
	if units, ok := n.UserData["divisions"].(int); ok {
		return units
	}
	return geometry.DefaultGridUnits
}

// OrbitAngle is the rotation about Y of every pivot and planet at elapsed
func OrbitAngle(elapsed time.Duration) float32 {
	return seconds(elapsed)
}

// RenderFrame implements Scene
func (s *SolarSystem) RenderFrame(elapsed time.Duration) renderer.FrameStats {
	s.resolvePending()

	angle := OrbitAngle(elapsed)
	for _, id := range s.spinning {
		s.graph.Node(id).Rotation[1] = angle
	}

	return s.draw()
}
