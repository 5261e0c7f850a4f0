package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
)

// DecodeOBJ parses a Wavefront OBJ stream. Every "o" or "g" statement
// starts a new node; faces are split into triangle fans. Materials are
// ignored and meshes are white.
func DecodeOBJ(r io.Reader, name string) (*Model, error) {
	type group struct {
		name    string
		indices []uint32
	}

	var positions []mgl32.Vec3
	groups := []*group{{name: strings.TrimSuffix(name, ".obj")}}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var v mgl32.Vec3
			for k := 0; k < 3; k++ {
				f, err := strconv.ParseFloat(fields[k+1], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				v[k] = float32(f)
			}
			positions = append(positions, v)
		case "o", "g":
			label := strings.Join(fields[1:], " ")
			if label == "" {
				label = fmt.Sprintf("group%d", len(groups))
			}
			cur := groups[len(groups)-1]
			if len(cur.indices) == 0 {
				cur.name = label
			} else {
				groups = append(groups, &group{name: label})
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs 3 vertices", line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := objIndex(ref, len(positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				corners = append(corners, idx)
			}
			cur := groups[len(groups)-1]
			for k := 1; k+1 < len(corners); k++ {
				cur.indices = append(cur.indices, corners[0], corners[k], corners[k+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	model := &Model{Name: name}
	for _, g := range groups {
		if len(g.indices) == 0 {
			continue
		}
		mesh, err := geometry.NewMesh(positions, g.indices)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.name, err)
		}
		model.Roots = append(model.Roots, len(model.Nodes))
		model.Nodes = append(model.Nodes, ModelNode{
			Name:   g.name,
			Scale:  mgl32.Vec3{1, 1, 1},
			Meshes: []ModelMesh{{Mesh: mesh, Color: core.ColorFromHex(0xFFFFFF)}},
		})
	}
	if len(model.Nodes) == 0 {
		return nil, fmt.Errorf("obj %q has no faces", name)
	}
	return model, nil
}

// objIndex resolves a "v", "v/vt", "v//vn" or "v/vt/vn" reference,
// including negative indices relative to the end
func objIndex(ref string, count int) (uint32, error) {
	v, _, _ := strings.Cut(ref, "/")
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q", ref)
	}
	if i < 0 {
		i = count + i + 1
	}
	if i < 1 || i > count {
		return 0, fmt.Errorf("face index %q out of range", ref)
	}
	return uint32(i - 1), nil
}
