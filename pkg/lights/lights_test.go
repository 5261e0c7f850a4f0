package lights

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/graph"
)

func TestDirectionalPointsAtTarget(t *testing.T) {
	g := graph.New("scene")
	target := g.MustAdd(g.Root(), graph.NewNode("target").SetPosition(-5, 0, 0))
	light := NewDirectional(core.ColorFromHex(0xFFFFFF), 1, target)
	g.MustAdd(g.Root(), graph.NewRenderableNode("light", light).SetPosition(0, 10, 0))

	emitters := Collect(g)
	require.Len(t, emitters, 1)

	s, ok := emitters[0].Sample(mgl32.Vec3{100, 0, 100})
	require.True(t, ok)
	want := mgl32.Vec3{5, 10, 0}.Normalize()
	assert.True(t, s.Direction.ApproxEqualThreshold(want, 1e-5), "got %v", s.Direction)
	assert.InDelta(t, 1.0, s.Radiance.R, 1e-9)

	// Moving the target changes the direction on the next collection
	g.Node(target).Position = mgl32.Vec3{0, 0, 0}
	s, _ = Collect(g)[0].Sample(mgl32.Vec3{})
	assert.True(t, s.Direction.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5))
}

func TestPointLightIntensityAndFalloff(t *testing.T) {
	g := graph.New("scene")
	p := NewPoint(core.ColorFromHex(0xFFFFFF), 3)
	g.MustAdd(g.Root(), graph.NewRenderableNode("light", p))

	s, ok := Collect(g)[0].Sample(mgl32.Vec3{10, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 3.0, s.Radiance.G, 1e-9)
	assert.True(t, s.Direction.ApproxEqual(mgl32.Vec3{-1, 0, 0}))

	p.Distance = 5
	_, ok = Collect(g)[0].Sample(mgl32.Vec3{10, 0, 0})
	assert.False(t, ok, "beyond distance the light contributes nothing")
}

func TestCollectSkipsHiddenLights(t *testing.T) {
	g := graph.New("scene")
	id := g.MustAdd(g.Root(), graph.NewRenderableNode("light", NewPoint(core.ColorFromHex(0xFFFFFF), 1)))
	g.Node(id).Visible = false

	assert.Empty(t, Collect(g))
	assert.Empty(t, Samples(Collect(g), mgl32.Vec3{}))
}
