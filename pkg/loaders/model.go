package loaders

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/material"
)

// ModelNode is one node of a decoded model hierarchy
type ModelNode struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Euler XYZ radians
	Scale    mgl32.Vec3
	Meshes   []ModelMesh
	Children []int // indices into Model.Nodes
}

// ModelMesh is a mesh with its base color
type ModelMesh struct {
	Mesh  *geometry.Mesh
	Color core.Color
}

// Model is a decoded node hierarchy ready to be attached to a graph
type Model struct {
	Name  string
	Nodes []ModelNode
	Roots []int
}

// AssetKind implements Asset
func (m *Model) AssetKind() Kind { return KindModel }

// TriangleCount returns the total triangles across all meshes
func (m *Model) TriangleCount() int {
	n := 0
	for _, node := range m.Nodes {
		for _, mm := range node.Meshes {
			n += mm.Mesh.TriangleCount()
		}
	}
	return n
}

// Attach builds the model under parent as a single wrapper node named
// after the model and returns the wrapper id. Each call creates new
// graph nodes, so a model can be attached more than once.
func (m *Model) Attach(g *graph.Graph, parent graph.NodeID) (graph.NodeID, error) {
	root, err := g.Add(parent, graph.NewNode(m.Name))
	if err != nil {
		return graph.Nil, fmt.Errorf("attach model %q: %w", m.Name, err)
	}
	for _, r := range m.Roots {
		if err := m.attachNode(g, root, r, 0); err != nil {
			_ = g.Remove(root)
			return graph.Nil, err
		}
	}
	return root, nil
}

func (m *Model) attachNode(g *graph.Graph, parent graph.NodeID, idx, depth int) error {
	if idx < 0 || idx >= len(m.Nodes) || depth > len(m.Nodes) {
		return fmt.Errorf("attach model %q: bad node index %d", m.Name, idx)
	}
	src := m.Nodes[idx]
	n := graph.NewNode(src.Name)
	n.Position, n.Rotation, n.Scale = src.Position, src.Rotation, src.Scale
	id, err := g.Add(parent, n)
	if err != nil {
		return err
	}
	for i, mm := range src.Meshes {
		mat := material.NewPhong().WithColor(mm.Color)
		name := fmt.Sprintf("%s.mesh%d", src.Name, i)
		if _, err := g.Add(id, graph.NewRenderableNode(name, geometry.NewSolid(mm.Mesh, mat))); err != nil {
			return err
		}
	}
	for _, c := range src.Children {
		if err := m.attachNode(g, id, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// DecodeGLTF decodes a glTF document from r. External buffers are read
// from dir.
func DecodeGLTF(r io.Reader, dir fs.FS, name string) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(r, dir).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	model := &Model{Name: name, Nodes: make([]ModelNode, len(doc.Nodes))}
	for i, src := range doc.Nodes {
		node := ModelNode{
			Name:     src.Name,
			Position: vec3Of(src.Translation),
			Rotation: eulerOfQuat(src.Rotation),
			Scale:    scaleOf(src.Scale),
		}
		if node.Name == "" {
			node.Name = fmt.Sprintf("node%d", i)
		}
		if !isIdentity(src.Matrix) {
			node.Position, node.Rotation, node.Scale = decompose(src.Matrix)
		}
		for _, c := range src.Children {
			node.Children = append(node.Children, int(c))
		}
		if src.Mesh != nil {
			meshes, err := readMesh(doc, int(*src.Mesh))
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", node.Name, err)
			}
			node.Meshes = meshes
		}
		model.Nodes[i] = node
	}

	model.Roots = sceneRoots(doc)
	return model, nil
}

// sceneRoots returns the root nodes of the default scene, or every node
// without a parent when the document has no scenes
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil {
			s = int(*doc.Scene)
		}
		if s >= 0 && s < len(doc.Scenes) {
			roots := make([]int, 0, len(doc.Scenes[s].Nodes))
			for _, n := range doc.Scenes[s].Nodes {
				roots = append(roots, int(n))
			}
			return roots
		}
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			hasParent[int(c)] = true
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots
}

func readMesh(doc *gltf.Document, idx int) ([]ModelMesh, error) {
	if idx < 0 || idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", idx)
	}
	var out []ModelMesh
	for i, prim := range doc.Meshes[idx].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		raw, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("primitive %d positions: %w", i, err)
		}
		positions := make([]mgl32.Vec3, len(raw))
		for j, p := range raw {
			positions[j] = mgl32.Vec3(p)
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d indices: %w", i, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for j := range indices {
				indices[j] = uint32(j)
			}
		}

		mesh, err := geometry.NewMesh(positions, indices)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		out = append(out, ModelMesh{Mesh: mesh, Color: baseColor(doc, prim)})
	}
	return out, nil
}

func baseColor(doc *gltf.Document, prim *gltf.Primitive) core.Color {
	white := core.ColorFromHex(0xFFFFFF)
	if prim.Material == nil || int(*prim.Material) >= len(doc.Materials) {
		return white
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return white
	}
	return colorOf(pbr.BaseColorFactor)
}

type float interface{ ~float32 | ~float64 }

func colorOf[T float](f *[4]T) core.Color {
	c := func(v T) uint8 {
		return uint8(mgl32.Clamp(float32(v), 0, 1)*255 + 0.5)
	}
	return core.NewColor(c(f[0]), c(f[1]), c(f[2]))
}

func vec3Of[T float](v [3]T) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// scaleOf treats an all-zero scale as the glTF default of one
func scaleOf[T float](v [3]T) mgl32.Vec3 {
	if v[0] == 0 && v[1] == 0 && v[2] == 0 {
		return mgl32.Vec3{1, 1, 1}
	}
	return vec3Of(v)
}

// eulerOfQuat converts a glTF XYZW quaternion to Euler XYZ angles
func eulerOfQuat[T float](q [4]T) mgl32.Vec3 {
	quat := mgl32.Quat{W: float32(q[3]), V: mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])}}
	if quat.Len() == 0 {
		return mgl32.Vec3{}
	}
	return EulerXYZ(quat.Normalize().Mat4())
}

// isIdentity reports whether m is the identity or unset
func isIdentity[T float](m [16]T) bool {
	unset, ident := true, true
	for i, v := range m {
		if v != 0 {
			unset = false
		}
		if (i%5 == 0 && v != 1) || (i%5 != 0 && v != 0) {
			ident = false
		}
	}
	return unset || ident
}

// decompose splits a column-major TRS matrix
func decompose[T float](m [16]T) (pos, rot, scale mgl32.Vec3) {
	var mat mgl32.Mat4
	for i, v := range m {
		mat[i] = float32(v)
	}
	pos = mat.Col(3).Vec3()
	c0, c1, c2 := mat.Col(0).Vec3(), mat.Col(1).Vec3(), mat.Col(2).Vec3()
	scale = mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}
	for k := 0; k < 3; k++ {
		if scale[k] == 0 {
			return pos, mgl32.Vec3{}, scale
		}
	}
	r := mgl32.Ident4()
	r.SetCol(0, c0.Mul(1/scale[0]).Vec4(0))
	r.SetCol(1, c1.Mul(1/scale[1]).Vec4(0))
	r.SetCol(2, c2.Mul(1/scale[2]).Vec4(0))
	return pos, EulerXYZ(r), scale
}

// EulerXYZ extracts the angles x, y, z such that
// m = Rx(x) * Ry(y) * Rz(z), the order graph nodes compose in
func EulerXYZ(m mgl32.Mat4) mgl32.Vec3 {
	m13 := mgl32.Clamp(m.At(0, 2), -1, 1)
	y := math32.Asin(m13)
	if math32.Abs(m13) < 0.9999999 {
		return mgl32.Vec3{
			math32.Atan2(-m.At(1, 2), m.At(2, 2)),
			y,
			math32.Atan2(-m.At(0, 1), m.At(0, 0)),
		}
	}
	return mgl32.Vec3{math32.Atan2(m.At(2, 1), m.At(1, 1)), y, 0}
}
