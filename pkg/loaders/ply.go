package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the vertex and face data loaded from a PLY file
type PLYData struct {
	Vertices []mgl32.Vec3
	Faces    []uint32     // Triangle indices, 3 per triangle
	Colors   []core.Color // Per-vertex colors, empty if not present
}

// LoadPLY loads a PLY file from disk
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()
	return ParsePLY(file)
}

// ParsePLY parses an ascii or binary PLY stream. Polygons with more than
// three corners are split into triangle fans.
func ParsePLY(r io.Reader) (*PLYData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}

	header, body, err := parsePLYHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var src plySource
	switch header.Format {
	case "binary_little_endian":
		src = &binarySource{data: body, order: binary.LittleEndian}
	case "binary_big_endian":
		src = &binarySource{data: body, order: binary.BigEndian}
	case "ascii":
		src = newASCIISource(body)
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	data, err := readPLYElements(src, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return data, nil
}

// parsePLYHeader returns the header and the bytes following end_header
func parsePLYHeader(raw []byte) (*PLYHeader, []byte, error) {
	header := &PLYHeader{}
	var currentElement string
	offset := 0
	first := true

	for {
		nl := bytes.IndexByte(raw[offset:], '\n')
		if nl < 0 {
			return nil, nil, fmt.Errorf("missing end_header")
		}
		line := strings.TrimSpace(string(raw[offset : offset+nl]))
		offset += nl + 1

		if first {
			if line != "ply" {
				return nil, nil, fmt.Errorf("not a PLY file")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "element":
			if len(parts) < 3 {
				return nil, nil, fmt.Errorf("invalid element line %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, nil, err
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	return header, raw[offset:], nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// plySource yields scalar values in file order
type plySource interface {
	next(dataType string) (float64, error)
}

type binarySource struct {
	data  []byte
	order binary.ByteOrder
	pos   int
}

func (s *binarySource) next(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	if s.pos+size > len(s.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := s.data[s.pos : s.pos+size]
	s.pos += size

	switch dataType {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(s.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(s.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(s.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(s.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(s.order.Uint32(b))), nil
	default: // double
		return math.Float64frombits(s.order.Uint64(b)), nil
	}
}

type asciiSource struct {
	scanner *bufio.Scanner
}

func newASCIISource(body []byte) *asciiSource {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Split(bufio.ScanWords)
	return &asciiSource{scanner: sc}
}

func (s *asciiSource) next(dataType string) (float64, error) {
	if getTypeSize(dataType) == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(s.scanner.Text(), 64)
}

func readPLYElements(src plySource, header *PLYHeader) (*PLYData, error) {
	data := &PLYData{
		Vertices: make([]mgl32.Vec3, 0, header.VertexCount),
		Faces:    make([]uint32, 0, header.FaceCount*3),
	}

	hasColor := false
	for _, p := range header.VertexProps {
		if p.Name == "red" || p.Name == "r" {
			hasColor = true
		}
	}
	if hasColor {
		data.Colors = make([]core.Color, 0, header.VertexCount)
	}

	for i := 0; i < header.VertexCount; i++ {
		var v mgl32.Vec3
		var c core.Color
		for _, prop := range header.VertexProps {
			if prop.IsList {
				if err := skipList(src, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			val, err := src.next(prop.Type)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			switch prop.Name {
			case "x":
				v[0] = float32(val)
			case "y":
				v[1] = float32(val)
			case "z":
				v[2] = float32(val)
			case "red", "r":
				c.R = colorChannel(val, prop.Type)
			case "green", "g":
				c.G = colorChannel(val, prop.Type)
			case "blue", "b":
				c.B = colorChannel(val, prop.Type)
			}
		}
		data.Vertices = append(data.Vertices, v)
		if hasColor {
			data.Colors = append(data.Colors, c)
		}
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
				if err := skipProperty(src, prop); err != nil {
					return nil, fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
				}
				continue
			}
			n, err := src.next(prop.ListType)
			if err != nil {
				return nil, fmt.Errorf("face %d count: %w", i, err)
			}
			if n < 3 {
				return nil, fmt.Errorf("face %d has %v vertices", i, n)
			}
			corners := make([]uint32, int(n))
			for k := range corners {
				idx, err := src.next(prop.DataType)
				if err != nil {
					return nil, fmt.Errorf("face %d index %d: %w", i, k, err)
				}
				if idx < 0 || int(idx) >= header.VertexCount {
					return nil, fmt.Errorf("face %d index %v out of range", i, idx)
				}
				corners[k] = uint32(idx)
			}
			for k := 1; k+1 < len(corners); k++ {
				data.Faces = append(data.Faces, corners[0], corners[k], corners[k+1])
			}
		}
	}

	return data, nil
}

func skipProperty(src plySource, prop PLYProperty) error {
	if prop.IsList {
		return skipList(src, prop)
	}
	_, err := src.next(prop.Type)
	return err
}

func skipList(src plySource, prop PLYProperty) error {
	n, err := src.next(prop.ListType)
	if err != nil {
		return err
	}
	for k := 0; k < int(n); k++ {
		if _, err := src.next(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

// colorChannel maps integer channels as-is and float channels from [0,1]
func colorChannel(v float64, dataType string) uint8 {
	if dataType == "float" || dataType == "float32" || dataType == "double" || dataType == "float64" {
		v *= 255
	}
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// Mesh converts the PLY data into a mesh
func (d *PLYData) Mesh() (*geometry.Mesh, error) {
	return geometry.NewMesh(d.Vertices, d.Faces)
}

// AverageColor returns the mean vertex color, or white without colors
func (d *PLYData) AverageColor() core.Color {
	if len(d.Colors) == 0 {
		return core.ColorFromHex(0xFFFFFF)
	}
	var r, g, b int
	for _, c := range d.Colors {
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	n := len(d.Colors)
	return core.NewColor(uint8(r/n), uint8(g/n), uint8(b/n))
}

// Model wraps the PLY mesh as a single-node model
func (d *PLYData) Model(name string) (*Model, error) {
	mesh, err := d.Mesh()
	if err != nil {
		return nil, err
	}
	node := strings.TrimSuffix(name, filepath.Ext(name))
	return &Model{
		Name: name,
		Nodes: []ModelNode{{
			Name:   node,
			Scale:  mgl32.Vec3{1, 1, 1},
			Meshes: []ModelMesh{{Mesh: mesh, Color: d.AverageColor()}},
		}},
		Roots: []int{0},
	}, nil
}
