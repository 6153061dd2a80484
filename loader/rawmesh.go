package loader

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/mesh_optimizer/mesh"
)

// RawMesh is in-memory Source, layers are optional
type RawMesh struct {
	Points   []mgl64.Vec3
	Polygons [][]int

	Normal   *Vec3Layer
	UV       [2]*Vec2Layer
	Color    *ColorLayer
	Material *MaterialLayer

	SkinList     []*mesh.Skin
	MaterialList []mesh.Material
}

func (r *RawMesh) ControlPoints() []mgl64.Vec3 { return r.Points }
func (r *RawMesh) PolygonCount() int           { return len(r.Polygons) }
func (r *RawMesh) PolygonSize(p int) int       { return len(r.Polygons[p]) }
func (r *RawMesh) PolygonVertex(p, c int) int  { return r.Polygons[p][c] }
func (r *RawMesh) NormalLayer() *Vec3Layer     { return r.Normal }
func (r *RawMesh) ColorLayer() *ColorLayer     { return r.Color }
func (r *RawMesh) MaterialLayer() *MaterialLayer {
	return r.Material
}
func (r *RawMesh) Skins() []*mesh.Skin        { return r.SkinList }
func (r *RawMesh) Materials() []mesh.Material { return r.MaterialList }

func (r *RawMesh) UVLayer(channel int) *Vec2Layer {
	if channel < 0 || channel >= len(r.UV) {
		return nil
	}
	return r.UV[channel]
}
