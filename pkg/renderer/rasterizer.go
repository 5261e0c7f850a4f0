package renderer

import (
	"image"
	"image/draw"
	"slices"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/vector"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/lights"
	"github.com/df07/go-animated-scenes/pkg/material"
)

// screenTriangle is a shaded triangle in pixel space
type screenTriangle struct {
	pts   [3]mgl32.Vec2
	depth float32
	color image.Uniform
	min   image.Point
	max   image.Point
}

// Rasterizer draws the visible solids of a graph with flat shading in
// painter's order. It is safe to share between scenes as long as Draw
// calls do not overlap.
type Rasterizer struct {
	pool *WorkerPool
	mu   sync.Mutex
}

// NewRasterizer creates a rasterizer filling with numWorkers goroutines
// (0 means one per CPU)
func NewRasterizer(numWorkers int) *Rasterizer {
	pool := NewWorkerPool(numWorkers)
	pool.Start()
	return &Rasterizer{pool: pool}
}

// Close stops the worker goroutines
func (r *Rasterizer) Close() {
	r.pool.Stop()
}

// Draw renders g as seen by cam into surface, clearing it to background
// first. The projection used is the camera's cached one.
func (r *Rasterizer) Draw(g *graph.Graph, cam *Camera, surface *Surface, background core.Color) FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	width, height := surface.Size()
	stats := FrameStats{}

	tris := r.project(g, cam, width, height, background, &stats)
	slices.SortStableFunc(tris, func(a, b screenTriangle) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		default:
			return 0
		}
	})
	stats.Drawn = len(tris)

	surface.Clear(background)
	stats.Bands = r.fill(surface.Image(), tris)
	stats.Duration = time.Since(start)
	return stats
}

// project transforms, clips, culls and shades every triangle, then
// appends the helper overlays
func (r *Rasterizer) project(g *graph.Graph, cam *Camera, width, height int, bg core.Color, stats *FrameStats) []screenTriangle {
	emitters := lights.Collect(g)
	viewProj := cam.ViewProjection()
	background := bg.Colorful()
	w, h := float32(width), float32(height)

	var tris []screenTriangle
	g.WalkWorld(func(id graph.NodeID, n *graph.Node, world mgl32.Mat4) {
		if helper, ok := n.Renderable.(*geometry.AxisGrid); ok {
			// Helpers also follow the visibility of the node they annotate
			if n.Visible && parentVisible(g, id) {
				tris = appendLines(tris, helper.Lines(), viewProj.Mul4(world), cam.Near, w, h, stats)
			}
			return
		}
		solid, ok := n.Renderable.(*geometry.Solid)
		if !ok || !n.Visible || solid.Mesh == nil || solid.Material == nil {
			return
		}
		mvp := viewProj.Mul4(world)

		for i := 0; i < solid.Mesh.TriangleCount(); i++ {
			stats.Triangles++
			a, b, c := solid.Mesh.Triangle(i)

			var clip [3]mgl32.Vec4
			for k, p := range [3]mgl32.Vec3{a, b, c} {
				clip[k] = mvp.Mul4x1(p.Vec4(1))
			}
			pieces := clipNear(clip, cam.Near)
			visible := pieces[:0]
			for _, piece := range pieces {
				if !outsideView(piece) {
					visible = append(visible, piece)
				}
			}
			if len(visible) == 0 {
				stats.Culled++
				continue
			}

			wa := world.Mul4x1(a.Vec4(1)).Vec3()
			wb := world.Mul4x1(b.Vec4(1)).Vec3()
			wc := world.Mul4x1(c.Vec4(1)).Vec3()
			normal := geometry.FaceNormal(wa, wb, wc)
			if normal.Len() == 0 {
				stats.Culled++
				continue
			}
			centroid := wa.Add(wb).Add(wc).Mul(1.0 / 3)
			viewDir := cam.Position.Sub(centroid)
			if viewDir.Len() > 0 {
				viewDir = viewDir.Normalize()
			}
			// Both sides are drawn; shade the side facing the camera
			if normal.Dot(viewDir) < 0 {
				normal = normal.Mul(-1)
			}

			shaded := solid.Material.Shade(material.ShadeInput{
				Position:   centroid,
				Normal:     normal,
				ViewDir:    viewDir,
				Lights:     lights.Samples(emitters, centroid),
				Background: background,
			})
			col := core.ColorFromColorful(shaded).RGBA()

			for _, piece := range visible {
				t := screenTriangle{depth: (piece[0].W() + piece[1].W() + piece[2].W()) / 3}
				t.color.C = col
				for k := range piece {
					t.pts[k] = toScreen(piece[k], w, h)
				}
				t.min, t.max = pixelBounds(t.pts)
				tris = append(tris, t)
			}
		}
	})
	return tris
}

func parentVisible(g *graph.Graph, id graph.NodeID) bool {
	parent := g.Node(g.Parent(id))
	return parent == nil || parent.Visible
}

// toScreen divides by w and maps NDC to pixel coordinates, y down
func toScreen(c mgl32.Vec4, w, h float32) mgl32.Vec2 {
	ndc := c.Vec3().Mul(1 / c.W())
	return mgl32.Vec2{(ndc.X() + 1) / 2 * w, (1 - ndc.Y()) / 2 * h}
}

// clipNear clips a clip-space triangle to w >= near and fans the result
// into zero, one or two triangles
func clipNear(tri [3]mgl32.Vec4, near float32) [][3]mgl32.Vec4 {
	poly := make([]mgl32.Vec4, 0, 4)
	for i, cur := range tri {
		prev := tri[(i+2)%3]
		dc, dp := cur.W()-near, prev.W()-near
		if (dc >= 0) != (dp >= 0) {
			t := dp / (dp - dc)
			poly = append(poly, prev.Add(cur.Sub(prev).Mul(t)))
		}
		if dc >= 0 {
			poly = append(poly, cur)
		}
	}
	if len(poly) < 3 {
		return nil
	}
	out := make([][3]mgl32.Vec4, 0, len(poly)-2)
	for k := 1; k+1 < len(poly); k++ {
		out = append(out, [3]mgl32.Vec4{poly[0], poly[k], poly[k+1]})
	}
	return out
}

// appendLines projects helper lines as one pixel wide quads. Overlays
// carry negative depths so they are filled after every solid.
func appendLines(tris []screenTriangle, lines []geometry.Line, mvp mgl32.Mat4, near, w, h float32, stats *FrameStats) []screenTriangle {
	for _, l := range lines {
		a := mvp.Mul4x1(l.A.Vec4(1))
		b := mvp.Mul4x1(l.B.Vec4(1))
		da, db := a.W()-near, b.W()-near
		if da < 0 && db < 0 {
			continue
		}
		// Cut the segment at the near plane
		if da < 0 {
			a = a.Add(b.Sub(a).Mul(da / (da - db)))
		} else if db < 0 {
			b = b.Add(a.Sub(b).Mul(db / (db - da)))
		}
		if outsideView([3]mgl32.Vec4{a, b, b}) {
			continue
		}

		pa, pb := toScreen(a, w, h), toScreen(b, w, h)
		dir := pb.Sub(pa)
		if dir.Len() == 0 {
			continue
		}
		side := mgl32.Vec2{-dir.Y(), dir.X()}.Normalize().Mul(0.5)
		corners := [4]mgl32.Vec2{pa.Add(side), pb.Add(side), pb.Sub(side), pa.Sub(side)}

		depth := -float32(l.Overlay)
		for _, pts := range [2][3]mgl32.Vec2{{corners[0], corners[1], corners[2]}, {corners[0], corners[2], corners[3]}} {
			t := screenTriangle{pts: pts, depth: depth}
			t.color.C = l.Color.RGBA()
			t.min, t.max = pixelBounds(t.pts)
			tris = append(tris, t)
		}
		stats.Lines++
	}
	return tris
}

// outsideView reports whether all three corners lie beyond one clip plane
func outsideView(clip [3]mgl32.Vec4) bool {
	for axis := 0; axis < 3; axis++ {
		below, above := 0, 0
		for _, c := range clip {
			if c[axis] < -c.W() {
				below++
			}
			if c[axis] > c.W() {
				above++
			}
		}
		if below == 3 || above == 3 {
			return true
		}
	}
	return false
}

func pixelBounds(pts [3]mgl32.Vec2) (lo, hi image.Point) {
	minX := min(pts[0].X(), pts[1].X(), pts[2].X())
	minY := min(pts[0].Y(), pts[1].Y(), pts[2].Y())
	maxX := max(pts[0].X(), pts[1].X(), pts[2].X())
	maxY := max(pts[0].Y(), pts[1].Y(), pts[2].Y())
	lo = image.Pt(int(math32.Floor(minX)), int(math32.Floor(minY)))
	hi = image.Pt(int(math32.Ceil(maxX))+1, int(math32.Ceil(maxY))+1)
	return lo, hi
}

// bands splits bounds into at most n horizontal strips
func bands(bounds image.Rectangle, n int) []image.Rectangle {
	if n > bounds.Dy() {
		n = bounds.Dy()
	}
	if n < 1 {
		n = 1
	}
	height := (bounds.Dy() + n - 1) / n
	out := make([]image.Rectangle, 0, n)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += height {
		out = append(out, image.Rect(bounds.Min.X, y, bounds.Max.X, min(y+height, bounds.Max.Y)))
	}
	return out
}

// fill fills the bands of target in parallel and returns the band count
func (r *Rasterizer) fill(target *image.RGBA, tris []screenTriangle) int {
	if target.Bounds().Empty() || len(tris) == 0 {
		return 0
	}
	strips := bands(target.Bounds(), r.pool.NumWorkers())
	go func() {
		for i, band := range strips {
			r.pool.SubmitTask(BandTask{TaskID: i, Band: band, Target: target, Triangles: tris})
		}
	}()
	for range strips {
		r.pool.GetResult()
	}
	return len(strips)
}

// fillTriangle draws t clipped to band. It returns false when the
// triangle does not touch the band.
func fillTriangle(z *vector.Rasterizer, dst *image.RGBA, band image.Rectangle, t *screenTriangle) bool {
	area := image.Rectangle{Min: t.min, Max: t.max}.Intersect(band)
	if area.Empty() {
		return false
	}
	poly := clipPolygon(t.pts[:], area)
	if len(poly) < 3 {
		return false
	}

	z.Reset(area.Dx(), area.Dy())
	z.DrawOp = draw.Over
	ox, oy := float32(area.Min.X), float32(area.Min.Y)
	z.MoveTo(poly[0].X()-ox, poly[0].Y()-oy)
	for _, p := range poly[1:] {
		z.LineTo(p.X()-ox, p.Y()-oy)
	}
	z.ClosePath()
	z.Draw(dst, area, &t.color, image.Point{})
	return true
}

// clipPolygon clips a convex polygon to r (Sutherland-Hodgman)
func clipPolygon(pts []mgl32.Vec2, r image.Rectangle) []mgl32.Vec2 {
	edges := []struct {
		axis    int
		limit   float32
		keepLow bool
	}{
		{0, float32(r.Min.X), false},
		{0, float32(r.Max.X), true},
		{1, float32(r.Min.Y), false},
		{1, float32(r.Max.Y), true},
	}

	out := append([]mgl32.Vec2(nil), pts...)
	for _, e := range edges {
		inside := func(p mgl32.Vec2) bool {
			if e.keepLow {
				return p[e.axis] <= e.limit
			}
			return p[e.axis] >= e.limit
		}
		in := out
		out = make([]mgl32.Vec2, 0, len(in)+2)
		for i, cur := range in {
			prev := in[(i+len(in)-1)%len(in)]
			curIn, prevIn := inside(cur), inside(prev)
			if curIn != prevIn {
				t := (e.limit - prev[e.axis]) / (cur[e.axis] - prev[e.axis])
				out = append(out, prev.Add(cur.Sub(prev).Mul(t)))
			}
			if curIn {
				out = append(out, cur)
			}
		}
		if len(out) == 0 {
			return nil
		}
	}
	return out
}
