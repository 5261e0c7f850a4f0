package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// DefaultGridUnits is the grid size and division count used when a node
// does not ask for another
const DefaultGridUnits = 10

// Overlay layers. Higher layers are drawn later.
const (
	GridLayer = 1
	AxesLayer = 2
)

var (
	axisColors = [3]core.Color{core.ColorFromHex(0xFF0000), core.ColorFromHex(0x00FF00), core.ColorFromHex(0x0000FF)}
	gridCenter = core.ColorFromHex(0x444444)
	gridColor  = core.ColorFromHex(0x888888)
)

// Line is a colored segment in the local space of its node
type Line struct {
	A, B    mgl32.Vec3
	Color   core.Color
	Overlay int
}

// AxisGrid marks the local frame of its parent node: unit X, Y and Z
// axes and a square grid in the XZ plane. It draws over every solid.
type AxisGrid struct {
	Size       float32
	Divisions  int
	AxisLength float32
}

// NewAxisGrid creates a helper whose grid spans units along X and Z with
// one division per unit. Non-positive units fall back to DefaultGridUnits.
func NewAxisGrid(units int) *AxisGrid {
	if units <= 0 {
		units = DefaultGridUnits
	}
	return &AxisGrid{Size: float32(units), Divisions: units, AxisLength: 1}
}

// Kind implements core.Renderable
func (a *AxisGrid) Kind() string { return "axis-grid" }

// Lines returns the grid lines followed by the three axes
func (a *AxisGrid) Lines() []Line {
	div := max(a.Divisions, 1)
	half := a.Size / 2
	step := a.Size / float32(div)

	lines := make([]Line, 0, 2*(div+1)+3)
	for i := 0; i <= div; i++ {
		k := -half + float32(i)*step
		col := gridColor
		if div%2 == 0 && i == div/2 {
			col = gridCenter
		}
		lines = append(lines,
			Line{A: mgl32.Vec3{-half, 0, k}, B: mgl32.Vec3{half, 0, k}, Color: col, Overlay: GridLayer},
			Line{A: mgl32.Vec3{k, 0, -half}, B: mgl32.Vec3{k, 0, half}, Color: col, Overlay: GridLayer},
		)
	}
	for i, col := range axisColors {
		var end mgl32.Vec3
		end[i] = a.AxisLength
		lines = append(lines, Line{B: end, Color: col, Overlay: AxesLayer})
	}
	return lines
}
