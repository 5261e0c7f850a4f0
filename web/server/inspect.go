package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/geometry"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/lights"
	"github.com/df07/go-animated-scenes/pkg/material"
	"github.com/df07/go-animated-scenes/pkg/renderer"
)

var errPixelOutOfBounds = errors.New("pixel coordinates out of bounds")

// NodeInfo describes one scene graph node for the inspector
type NodeInfo struct {
	ID         graph.NodeID   `json:"id"`
	Name       string         `json:"name"`
	Parent     graph.NodeID   `json:"parent"`
	Depth      int            `json:"depth"`
	Visible    bool           `json:"visible"`
	Kind       string         `json:"kind,omitempty"` // Renderable kind, empty for pivots
	Position   [3]float32     `json:"position"`
	Rotation   [3]float32     `json:"rotation"`
	Scale      [3]float32     `json:"scale"`
	World      [3]float32     `json:"world"` // World-space origin
	Properties map[string]any `json:"properties,omitempty"`
}

// GraphResponse represents the JSON response for /api/graph
type GraphResponse struct {
	Scene string     `json:"scene"`
	Nodes []NodeInfo `json:"nodes"`
}

// describeGraph lists every node in pre-order
func describeGraph(g *graph.Graph) []NodeInfo {
	depth := map[graph.NodeID]int{}
	var nodes []NodeInfo
	g.Walk(func(id graph.NodeID, n *graph.Node) bool {
		parent := g.Parent(id)
		if parent != graph.Nil {
			depth[id] = depth[parent] + 1
		}
		info := NodeInfo{
			ID:       id,
			Name:     n.Name,
			Parent:   parent,
			Depth:    depth[id],
			Visible:  n.Visible,
			Position: n.Position,
			Rotation: n.Rotation,
			Scale:    n.Scale,
			World:    g.WorldPosition(id),
		}
		if n.Renderable != nil {
			info.Kind = n.Renderable.Kind()
			info.Properties = extractRenderableInfo(n.Renderable, g)
		}
		for k, v := range n.UserData {
			if info.Properties == nil {
				info.Properties = map[string]any{}
			}
			info.Properties["userData."+k] = v
		}
		nodes = append(nodes, info)
		return true
	})
	return nodes
}

// extractRenderableInfo extracts renderable details with type assertions
func extractRenderableInfo(r core.Renderable, g *graph.Graph) map[string]any {
	properties := make(map[string]any)

	switch v := r.(type) {
	case *geometry.Solid:
		if v.Mesh != nil {
			properties["triangles"] = v.Mesh.TriangleCount()
			lo, hi := v.Mesh.Bounds()
			properties["bounds"] = [2][3]float32{lo, hi}
		}
		materialType, materialProps := extractMaterialInfo(v.Material)
		properties["material"] = map[string]any{
			"type":       materialType,
			"properties": materialProps,
		}

	case *geometry.AxisGrid:
		properties["size"] = v.Size
		properties["divisions"] = v.Divisions

	case *lights.Directional:
		properties["color"] = v.Color.String()
		properties["intensity"] = v.Intensity
		if target := g.Node(v.Target); target != nil {
			properties["target"] = target.Name
		}

	case *lights.Point:
		properties["color"] = v.Color.String()
		properties["intensity"] = v.Intensity
		properties["distance"] = v.Distance
	}
	return properties
}

// extractMaterialInfo extracts material information with type assertions
func extractMaterialInfo(mat material.Material) (string, map[string]any) {
	properties := make(map[string]any)

	switch m := mat.(type) {
	case *material.Phong:
		properties["color"] = m.Color.String()
		properties["emissive"] = m.Emissive.String()
		properties["specular"] = m.Specular.String()
		properties["shininess"] = m.Shininess
		return "phong", properties

	case *material.Water:
		properties["time"] = m.Time
		properties["sunColor"] = m.SunColor.String()
		properties["waterColor"] = m.WaterColor.String()
		properties["alpha"] = m.Alpha
		properties["distortionScale"] = m.DistortionScale
		properties["textureSize"] = [2]int{m.TextureWidth, m.TextureHeight}
		properties["normals"] = m.Normals != nil
		return "water", properties

	default:
		return "unknown", properties
	}
}

// handleGraph lists the scene graph of a live scene
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.URL.Query().Get("scene"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var resp GraphResponse
	err = sess.loop.Do(r.Context(), func() error {
		resp = GraphResponse{Scene: sess.id, Nodes: describeGraph(sess.scene.Graph())}
		return nil
	})
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// InspectResponse represents the JSON response for /api/inspect
type InspectResponse struct {
	Hit      bool       `json:"hit"`
	Point    [3]float32 `json:"point"`
	Normal   [3]float32 `json:"normal"`
	Distance float32    `json:"distance,omitempty"`
	Triangle int        `json:"triangle,omitempty"`
	Node     *NodeInfo  `json:"node,omitempty"`
}

// inspectPixel casts a ray through a pixel of the scene's current view
func inspectPixel(g *graph.Graph, cam *renderer.Camera, x, y, width, height int) InspectResponse {
	pick, ok := renderer.PickPixel(g, cam, x, y, width, height)
	if !ok {
		return InspectResponse{}
	}
	resp := InspectResponse{
		Hit:      true,
		Point:    pick.Hit.Point,
		Normal:   pick.Hit.Normal,
		Distance: pick.Hit.T,
		Triangle: pick.Hit.Triangle,
	}
	for _, info := range describeGraph(g) {
		if info.ID == pick.Node {
			resp.Node = &info
			break
		}
	}
	return resp
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid x coordinate"))
		return
	}
	y, err := strconv.Atoi(q.Get("y"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid y coordinate"))
		return
	}
	sess, err := s.session(q.Get("scene"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var resp InspectResponse
	err = sess.loop.Do(r.Context(), func() error {
		width, height := sess.scene.Surface().Size()
		if x < 0 || x >= width || y < 0 || y >= height {
			return errPixelOutOfBounds
		}
		resp = inspectPixel(sess.scene.Graph(), sess.scene.Camera(), x, y, width, height)
		return nil
	})
	switch {
	case errors.Is(err, errPixelOutOfBounds):
		s.writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.writeJSON(w, http.StatusOK, resp)
	}
}
