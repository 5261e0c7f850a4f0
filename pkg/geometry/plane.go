package geometry

import "github.com/go-gl/mathgl/mgl32"

// NewPlane creates a width x height plane in the XY plane facing +Z,
// centered at the origin and split into segX x segY quads.
func NewPlane(width, height float32, segX, segY int) *Mesh {
	if segX < 1 {
		segX = 1
	}
	if segY < 1 {
		segY = 1
	}

	halfW, halfH := width/2, height/2
	cellW, cellH := width/float32(segX), height/float32(segY)
	cols := segX + 1

	positions := make([]mgl32.Vec3, 0, cols*(segY+1))
	for iy := 0; iy <= segY; iy++ {
		y := float32(iy)*cellH - halfH
		for ix := 0; ix <= segX; ix++ {
			x := float32(ix)*cellW - halfW
			positions = append(positions, mgl32.Vec3{x, -y, 0})
		}
	}

	indices := make([]uint32, 0, segX*segY*6)
	for iy := 0; iy < segY; iy++ {
		for ix := 0; ix < segX; ix++ {
			a := uint32(ix + cols*iy)
			b := uint32(ix + cols*(iy+1))
			c := uint32(ix + 1 + cols*(iy+1))
			d := uint32(ix + 1 + cols*iy)
			indices = append(indices, a, b, d, b, c, d)
		}
	}

	return &Mesh{Positions: positions, Indices: indices}
}
