package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// buildBinaryPLY writes a unit square as two triangles
func buildBinaryPLY(t *testing.T, order binary.ByteOrder, includeColors bool) []byte {
	t.Helper()
	var buf bytes.Buffer

	format := "binary_little_endian"
	if order == binary.BigEndian {
		format = "binary_big_endian"
	}
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment generated\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	buf.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	if includeColors {
		buf.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := []struct {
		x, y, z float32
		r, g, b uint8
	}{
		{0, 0, 0, 255, 0, 0},
		{1, 0, 0, 0, 255, 0},
		{1, 1, 0, 0, 0, 255},
		{0, 1, 0, 255, 255, 0},
	}
	for _, v := range vertices {
		require.NoError(t, binary.Write(&buf, order, [6]float32{v.x, v.y, v.z, 0, 0, 1}))
		if includeColors {
			buf.Write([]byte{v.r, v.g, v.b})
		}
	}
	for _, f := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
		buf.WriteByte(3)
		require.NoError(t, binary.Write(&buf, order, f))
	}
	return buf.Bytes()
}

var unitSquare = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}

func TestParsePLYBinary(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			data, err := ParsePLY(bytes.NewReader(buildBinaryPLY(t, order, false)))
			require.NoError(t, err)
			assert.Equal(t, unitSquare, data.Vertices)
			assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, data.Faces)
			assert.Empty(t, data.Colors)
		})
	}
}

func TestParsePLYColors(t *testing.T) {
	data, err := ParsePLY(bytes.NewReader(buildBinaryPLY(t, binary.LittleEndian, true)))
	require.NoError(t, err)
	assert.Equal(t, []core.Color{
		core.NewColor(255, 0, 0),
		core.NewColor(0, 255, 0),
		core.NewColor(0, 0, 255),
		core.NewColor(255, 255, 0),
	}, data.Colors)
	assert.Equal(t, core.NewColor(127, 127, 63), data.AverageColor())
}

func TestParsePLYASCIIFan(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`
	data, err := ParsePLY(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, unitSquare, data.Vertices)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, data.Faces, "quads are split into a fan")
}

func TestParsePLYErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not ply", "obj\n"},
		{"no end_header", "ply\nformat ascii 1.0\n"},
		{"bad format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"bad count", "ply\nformat ascii 1.0\nelement vertex many\nend_header\n"},
		{"truncated", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nend_header\n1\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0\n3 0 0 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLY(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadPLYFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.ply")
	require.NoError(t, os.WriteFile(path, buildBinaryPLY(t, binary.LittleEndian, false), 0o644))

	data, err := LoadPLY(path)
	require.NoError(t, err)
	assert.Len(t, data.Vertices, 4)

	_, err = LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPLYModel(t *testing.T) {
	data, err := ParsePLY(bytes.NewReader(buildBinaryPLY(t, binary.LittleEndian, true)))
	require.NoError(t, err)

	m, err := data.Model("square.ply")
	require.NoError(t, err)
	assert.Equal(t, "square.ply", m.Name)
	require.Len(t, m.Nodes, 1)
	assert.Equal(t, "square", m.Nodes[0].Name)
	assert.Equal(t, 2, m.TriangleCount())
}

func TestGetTypeSize(t *testing.T) {
	tests := []struct {
		dataType string
		expected int
	}{
		{"float", 4},
		{"int32", 4},
		{"uint", 4},
		{"double", 8},
		{"short", 2},
		{"uint16", 2},
		{"char", 1},
		{"uchar", 1},
		{"unknown", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, getTypeSize(tt.dataType), tt.dataType)
	}
}
