package loaders

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/material"
)

// triangleBin holds three float32 VEC3 positions followed by three
// uint16 indices and two bytes of padding
const triangleBin = "AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAgD8AAAAAAAABAAIAAAA="

const triangleGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "berg", "mesh": 0, "translation": [1, 2, 3], "children": [1]},
    {"name": "tip", "scale": [2, 2, 2]}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1]}}],
  "buffers": [{"byteLength": 44, "uri": "triangle.bin"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ]
}`

func testFS(t *testing.T) fstest.MapFS {
	t.Helper()
	bin, err := base64.StdEncoding.DecodeString(triangleBin)
	require.NoError(t, err)
	return fstest.MapFS{
		"data/iceberg2/iceberg.gltf":  {Data: []byte(triangleGLTF)},
		"data/iceberg2/triangle.bin":  {Data: bin},
		"textures/quad.png":           {Data: encodeQuadPNG(t)},
		"data/broken/broken.gltf":     {Data: []byte("{not json")},
		"data/missing-bin/model.gltf": {Data: []byte(triangleGLTF)},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wait(t *testing.T, p *Pending) (Asset, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Wait(ctx)
}

func TestLoadModelFromRoot(t *testing.T) {
	l := NewLoader(testFS(t), quietLogger())
	a, err := wait(t, l.Load(context.Background(), KindModel, "/data/iceberg2/iceberg.gltf"))
	require.NoError(t, err)

	m, ok := a.(*Model)
	require.True(t, ok)
	assert.Equal(t, "iceberg.gltf", m.Name)
	assert.Equal(t, []int{0}, m.Roots)
	require.Len(t, m.Nodes, 2)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, m.Nodes[0].Position)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, m.Nodes[1].Scale)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.Nodes[0].Scale)
	assert.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, core.NewColor(255, 0, 0), m.Nodes[0].Meshes[0].Color)
}

func TestModelAttach(t *testing.T) {
	l := NewLoader(testFS(t), quietLogger())
	a, err := wait(t, l.Load(context.Background(), KindModel, "data/iceberg2/iceberg.gltf"))
	require.NoError(t, err)
	m := a.(*Model)

	g := graph.New("scene")
	id, err := m.Attach(g, g.Root())
	require.NoError(t, err)
	assert.Equal(t, "iceberg.gltf", g.Node(id).Name)

	berg := g.Find("berg")
	require.NotEqual(t, graph.Nil, berg)
	assert.Equal(t, id, g.Parent(berg))
	assert.NotEqual(t, graph.Nil, g.Find("tip"))

	solid, ok := g.Node(g.Find("berg.mesh0")).Renderable.(*geometry.Solid)
	require.True(t, ok)
	assert.Equal(t, core.NewColor(255, 0, 0), solid.Material.(*material.Phong).Color)

	// wrapper + berg + mesh + tip
	assert.Equal(t, 5, g.Len())

	_, err = m.Attach(g, graph.NodeID(99))
	assert.ErrorIs(t, err, graph.ErrNoNode)
}

func TestLoadFailures(t *testing.T) {
	l := NewLoader(testFS(t), quietLogger())
	tests := []struct {
		name string
		kind Kind
		url  string
		is   error
	}{
		{"missing file", KindModel, "/data/nope/nope.gltf", fs.ErrNotExist},
		{"unknown kind", Kind(42), "/textures/quad.png", ErrUnknownKind},
		{"bad json", KindModel, "/data/broken/broken.gltf", nil},
		{"missing buffer", KindModel, "/data/missing-bin/model.gltf", nil},
		{"texture is not a ply", KindPLY, "/textures/quad.png", nil},
		{"texture is not an obj", KindAltModel, "/textures/quad.png", nil},
		{"escaping path", KindTexture, "../secrets.png", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := wait(t, l.Load(context.Background(), tt.kind, tt.url))
			assert.Nil(t, a)
			var le *LoadError
			require.True(t, errors.As(err, &le), "want *LoadError, got %v", err)
			assert.Equal(t, tt.url, le.URL)
			assert.Equal(t, tt.kind, le.Kind)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoadTextureOverHTTP(t *testing.T) {
	pngData := encodeQuadPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/examples/textures/waternormals.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData)
	}))
	defer srv.Close()

	l := NewLoader(nil, quietLogger())
	l.Client = srv.Client()

	a, err := wait(t, l.Load(context.Background(), KindTexture, srv.URL+"/examples/textures/waternormals.png"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.(*Texture).Width)

	_, err = wait(t, l.Load(context.Background(), KindTexture, srv.URL+"/examples/textures/missing.png"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestPendingResolvesOnce(t *testing.T) {
	p := newPending(KindTexture, "x")
	_, done, err := p.Poll()
	assert.False(t, done)
	assert.NoError(t, err)

	tex := &Texture{Width: 1, Height: 1, Pixels: []core.Color{{}}}
	p.resolve(tex, nil)

	a, done, err := p.Poll()
	assert.True(t, done)
	assert.NoError(t, err)
	assert.Same(t, tex, a)

	select {
	case <-p.Done():
	default:
		t.Fatal("Done should be closed")
	}
	a, err = p.Result()
	assert.Same(t, tex, a)
	assert.NoError(t, err)
}

// resolved returns a Pending that has already completed
func resolved(kind Kind, url string, a Asset, err error) *Pending {
	p := newPending(kind, url)
	p.resolve(a, err)
	return p
}

func TestPendingWaitHonorsContext(t *testing.T) {
	p := newPending(KindModel, "slow")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	r := resolved(KindModel, "fast", nil, errors.New("boom"))
	_, err = r.Wait(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestEulerXYZRoundTrip(t *testing.T) {
	want := mgl32.Vec3{0.3, -0.7, 1.1}
	m := mgl32.HomogRotate3DX(want.X()).
		Mul4(mgl32.HomogRotate3DY(want.Y())).
		Mul4(mgl32.HomogRotate3DZ(want.Z()))
	got := EulerXYZ(m)
	assert.True(t, got.ApproxEqualThreshold(want, 1e-5), "got %v", got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "model", KindModel.String())
	assert.Equal(t, "alt-model", KindAltModel.String())
	assert.Equal(t, "ply", KindPLY.String())
	assert.Equal(t, "texture", KindTexture.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
