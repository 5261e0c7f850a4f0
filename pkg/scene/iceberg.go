package scene

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/lights"
	"github.com/df07/go-animated-scenes/pkg/loaders"
	"github.com/df07/go-animated-scenes/pkg/material"
	"github.com/df07/go-animated-scenes/pkg/renderer"
)

// Default asset locations of the iceberg scene
const (
	IcebergModelURL = "/data/iceberg2/iceberg.gltf"
	WaterNormalsURL = "https://threejs.org/examples/textures/waternormals.jpg"
)

// WaveSpeed is how fast the water time advances, in units per second.
// At 60 frames per second this is 1/160 per frame.
const WaveSpeed = 60.0 / 160.0

// Iceberg is a floating model bobbing on an animated water surface, lit
// by a directional light whose target can be moved from the panel
type Iceberg struct {
	*Base

	Orbit *renderer.OrbitControls
	Water *material.Water
	Light *lights.Directional

	WaterNode  graph.NodeID
	LightNode  graph.NodeID
	TargetNode graph.NodeID
	ModelNode  graph.NodeID // Nil until the model load resolves
	ModelErr   error        // Set if the model load failed
}

// NewIceberg creates the iceberg scene and starts its asset loads. The
// model attaches on the first frame after its load completes.
func NewIceberg(host renderer.Host, width, height int, opts Options) (*Iceberg, error) {
	base, err := newBase("iceberg", host, width, height, lens{fov: 75, near: 0.1, far: 500}, opts)
	if err != nil {
		return nil, err
	}
	s := &Iceberg{Base: base}
	s.background = core.ColorFromHex(0x1E5A99)

	// Camera and orbit controls
	s.camera.SetPosition(0, 3, 12)
	s.Orbit = renderer.NewOrbitControls(s.camera)
	s.Orbit.Target = mgl32.Vec3{0, 5, 0}
	s.Orbit.Update()

	g := s.graph
	root := g.Root()

	// Water surface lying in the XZ plane
	s.Water = material.NewWater(material.WaterOptions{
		SunColor:        core.ColorFromHex(0xFFFFFF),
		WaterColor:      core.ColorFromHex(0x001E0F),
		Alpha:           0.4,
		DistortionScale: 3.7,
		TextureWidth:    512,
		TextureHeight:   512,
	})
	water := graph.NewRenderableNode("water", geometry.NewSolid(geometry.NewPlane(1000, 1000, 40, 40), s.Water))
	water.SetRotation(-math32.Pi/2, 0, 0)
	s.WaterNode = g.MustAdd(root, water)

	// Directional light and its target
	s.TargetNode = g.MustAdd(root, graph.NewNode("light-target").SetPosition(-5, 0, 0))
	s.Light = lights.NewDirectional(core.ColorFromHex(0xFFFFFF), 1, s.TargetNode)
	s.LightNode = g.MustAdd(root, graph.NewRenderableNode("light", s.Light).SetPosition(0, 10, 0))

	s.bindPanel()

	s.load(loaders.KindTexture, opts.assetURL(AssetWaterNormals, WaterNormalsURL),
		func(a loaders.Asset) {
			if tex, ok := a.(*loaders.Texture); ok {
				s.Water.Normals = tex
			}
		},
		func(err error) {
			s.logger.Warn("water normals unavailable", "error", err)
		})

	s.load(loaders.KindModel, opts.assetURL(AssetModel, IcebergModelURL), s.attachModel,
		func(err error) {
			s.ModelErr = err
			s.logger.Warn("iceberg model unavailable, rendering without it", "error", err)
		})

	return s, nil
}

func (s *Iceberg) bindPanel() {
	p := s.panel
	target := s.graph.Node(s.TargetNode)

	p.AddColor("color", &s.Light.Color)
	p.AddRange("intensity", &s.Light.Intensity, 0, 2, 0.01)
	p.AddRange("target x", &target.Position[0], -10, 10, 0)
	p.AddRange("target z", &target.Position[2], -10, 10, 0)
	p.AddRange("target y", &target.Position[1], 0, 10, 0)

	p.AddRange("fov", &s.camera.FOV, 1, 180, 0).OnChange(func(float32) {
		s.OnCameraParameterChanged()
	})
	p.AddMinMax("near", "far", &s.camera.Near, &s.camera.Far, 0.1, 50, 0.1, 0.1).OnChange(s.OnCameraParameterChanged)
}

func (s *Iceberg) attachModel(a loaders.Asset) {
	m, ok := a.(*loaders.Model)
	if !ok {
		s.ModelErr = fmt.Errorf("model asset is a %s", a.AssetKind())
		s.logger.Warn("iceberg model unavailable", "error", s.ModelErr)
		return
	}
	id, err := m.Attach(s.graph, s.graph.Root())
	if err != nil {
		s.ModelErr = err
		s.logger.Warn("failed to attach iceberg model", "error", err)
		return
	}
	s.graph.Node(id).SetPosition(-60, -2.2, -70)
	s.ModelNode = id
	s.logger.Info("iceberg model attached", "triangles", m.TriangleCount())
}

// WaveTime is the water time uniform at elapsed
func WaveTime(elapsed time.Duration) float32 {
	return seconds(elapsed) * WaveSpeed
}

// IcebergHeight is the model's vertical position t seconds in
func IcebergHeight(t float32) float32 {
	return math32.Sin(t)*0.7 - 2.1
}

// RenderFrame implements Scene
func (s *Iceberg) RenderFrame(elapsed time.Duration) renderer.FrameStats {
	s.resolvePending()

	s.Water.Time = WaveTime(elapsed)
	if n := s.graph.Node(s.ModelNode); n != nil {
		n.Position[1] = IcebergHeight(seconds(elapsed))
	}

	return s.draw()
}

// OrbitControls returns the camera's orbit controls
func (s *Iceberg) OrbitControls() *renderer.OrbitControls { return s.Orbit }
