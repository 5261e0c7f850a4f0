package geometry

import "github.com/df07/go-animated-scenes/pkg/material"

// Solid is a mesh drawn with a material
type Solid struct {
	Mesh     *Mesh
	Material material.Material
}

// NewSolid creates a new Solid. Several solids may share one mesh.
func NewSolid(mesh *Mesh, mat material.Material) *Solid {
	return &Solid{Mesh: mesh, Material: mat}
}

// Kind implements core.Renderable
func (s *Solid) Kind() string {
	if _, ok := s.Material.(*material.Water); ok {
		return "water"
	}
	return "mesh"
}
