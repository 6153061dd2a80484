package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// NodeID is a weak handle to a node owned by the scene graph (bone or mesh model).
type NodeID int64

const NoNode NodeID = 0

// NoMaterial marks a face without assigned material
const NoMaterial = -1

type Vertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Tangent  mgl64.Vec3
	Binormal mgl64.Vec3
	UV       mgl64.Vec2
	UV2      mgl64.Vec2
	Color    mgl64.Vec4

	// Bones and Weights always have the same length.
	// Weights are not normalized.
	Bones   []NodeID
	Weights []float64
}

func (v *Vertex) AddInfluence(bone NodeID, weight float64) {
	v.Bones = append(v.Bones, bone)
	v.Weights = append(v.Weights, weight)
}

func (v Vertex) Clone() Vertex {
	if v.Bones != nil {
		v.Bones = append([]NodeID(nil), v.Bones...)
	}
	if v.Weights != nil {
		v.Weights = append([]float64(nil), v.Weights...)
	}
	return v
}

type Face struct {
	A, B, C    int
	MaterialID int
}

func (f Face) Index(corner int) int {
	switch corner {
	case 0:
		return f.A
	case 1:
		return f.B
	default:
		return f.C
	}
}

func (f *Face) SetIndex(corner int, index int) {
	switch corner {
	case 0:
		f.A = index
	case 1:
		f.B = index
	default:
		f.C = index
	}
}

type MeshData struct {
	Vertices  []Vertex
	Faces     []Face
	Materials []Material

	HasUV2     bool
	HasColor   bool
	HasSkin    bool
	HasTangent bool
	HasNormal  bool
}

func New() *MeshData {
	return &MeshData{
		Vertices:  make([]Vertex, 0),
		Faces:     make([]Face, 0),
		Materials: make([]Material, 0),
	}
}

// MaterialIndex returns position of material with provided name or NoMaterial
func (md *MeshData) MaterialIndex(name string) int {
	for i := range md.Materials {
		if md.Materials[i].Name == name {
			return i
		}
	}
	return NoMaterial
}

func (md *MeshData) Clone() *MeshData {
	result := *md
	result.Vertices = make([]Vertex, len(md.Vertices))
	for i, v := range md.Vertices {
		result.Vertices[i] = v.Clone()
	}
	result.Faces = append([]Face(nil), md.Faces...)
	result.Materials = make([]Material, len(md.Materials))
	for i, m := range md.Materials {
		result.Materials[i] = m.Clone()
	}
	return &result
}

func (md *MeshData) Validate() error {
	for i, f := range md.Faces {
		for corner := 0; corner < 3; corner++ {
			if idx := f.Index(corner); idx < 0 || idx >= len(md.Vertices) {
				return errors.Wrapf(ErrDimensionMismatch,
					"face %d corner %d references vertex %d of %d", i, corner, idx, len(md.Vertices))
			}
		}
		if f.MaterialID != NoMaterial && (f.MaterialID < 0 || f.MaterialID >= len(md.Materials)) {
			return errors.Wrapf(ErrDimensionMismatch,
				"face %d references material %d of %d", i, f.MaterialID, len(md.Materials))
		}
	}
	for i := range md.Vertices {
		if len(md.Vertices[i].Bones) != len(md.Vertices[i].Weights) {
			return errors.Wrapf(ErrDimensionMismatch, "vertex %d has %d bones and %d weights",
				i, len(md.Vertices[i].Bones), len(md.Vertices[i].Weights))
		}
	}
	return nil
}
