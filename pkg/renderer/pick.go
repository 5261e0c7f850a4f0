package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
)

// Pick is the nearest solid under a pixel
type Pick struct {
	Node graph.NodeID
	// Hit is in world space; T is the distance from the camera ray origin
	Hit geometry.TriangleHit
}

// PixelRay returns the world-space ray from the camera through the
// center of pixel (x, y) of a width x height image
func (c *Camera) PixelRay(x, y, width, height int) core.Ray {
	ndcX := (float32(x)+0.5)/float32(width)*2 - 1
	ndcY := 1 - (float32(y)+0.5)/float32(height)*2

	inv := c.ViewProjection().Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, inv)
	return core.NewRay(near, far.Sub(near).Normalize())
}

// PickPixel finds the nearest visible solid under pixel (x, y), testing
// each mesh's bounds before its triangles
func PickPixel(g *graph.Graph, cam *Camera, x, y, width, height int) (Pick, bool) {
	if width <= 0 || height <= 0 || x < 0 || y < 0 || x >= width || y >= height {
		return Pick{}, false
	}
	ray := cam.PixelRay(x, y, width, height)

	best := Pick{Node: graph.Nil}
	tMax := math32.Inf(1)
	g.WalkWorld(func(id graph.NodeID, n *graph.Node, world mgl32.Mat4) {
		solid, ok := n.Renderable.(*geometry.Solid)
		if !ok || !n.Visible || solid.Mesh == nil {
			return
		}
		if _, ok := solid.Mesh.AABB().Transform(world).Hit(ray, 0, tMax); !ok {
			return
		}

		// An affine transform keeps the ray parameter, so local hits
		// compare directly against world distances
		inv := world.Inv()
		local := core.NewRay(
			mgl32.TransformCoordinate(ray.Origin, inv),
			mgl32.TransformNormal(ray.Direction, inv),
		)
		hit, ok := solid.Mesh.Intersect(local, 0, tMax)
		if !ok {
			return
		}

		a, b, c := solid.Mesh.Triangle(hit.Triangle)
		normal := geometry.FaceNormal(
			mgl32.TransformCoordinate(a, world),
			mgl32.TransformCoordinate(b, world),
			mgl32.TransformCoordinate(c, world),
		)
		if normal.Dot(ray.Direction) > 0 {
			normal = normal.Mul(-1)
		}
		tMax = hit.T
		best = Pick{Node: id, Hit: geometry.TriangleHit{
			T:        hit.T,
			Point:    ray.At(hit.T),
			Normal:   normal,
			Triangle: hit.Triangle,
		}}
	})
	return best, best.Node != graph.Nil
}
