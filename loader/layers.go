package loader

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/mesh_optimizer/mesh"
)

type MappingMode int

const (
	MappingNone MappingMode = iota
	ByControlPoint
	ByPolygonVertex
	ByPolygon
	ByEdge
	AllSame
)

func (m MappingMode) String() string {
	switch m {
	case ByControlPoint:
		return "ByVertice"
	case ByPolygonVertex:
		return "ByPolygonVertex"
	case ByPolygon:
		return "ByPolygon"
	case ByEdge:
		return "ByEdge"
	case AllSame:
		return "AllSame"
	default:
		return "NoMappingInformation"
	}
}

func ParseMappingMode(s string) (MappingMode, error) {
	switch s {
	case "ByVertice", "ByVertex", "ByControlPoint":
		return ByControlPoint, nil
	case "ByPolygonVertex":
		return ByPolygonVertex, nil
	case "ByPolygon":
		return ByPolygon, nil
	case "ByEdge":
		return ByEdge, nil
	case "AllSame":
		return AllSame, nil
	case "", "NoMappingInformation":
		return MappingNone, nil
	default:
		return MappingNone, errors.Errorf("unknown mapping information type %q", s)
	}
}

type ReferenceMode int

const (
	Direct ReferenceMode = iota
	IndexToDirect
	// Index is legacy alias of IndexToDirect
	Index
)

func (r ReferenceMode) String() string {
	switch r {
	case IndexToDirect:
		return "IndexToDirect"
	case Index:
		return "Index"
	default:
		return "Direct"
	}
}

func ParseReferenceMode(s string) (ReferenceMode, error) {
	switch s {
	case "Direct", "":
		return Direct, nil
	case "IndexToDirect":
		return IndexToDirect, nil
	case "Index":
		return Index, nil
	default:
		return Direct, errors.Errorf("unknown reference information type %q", s)
	}
}

func (r ReferenceMode) indexed() bool { return r == IndexToDirect || r == Index }

type Vec3Layer struct {
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []mgl64.Vec3
	Index     []int
}

type Vec2Layer struct {
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []mgl64.Vec2
	Index     []int
}

type ColorLayer struct {
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []mgl64.Vec4
	Index     []int
}

type MaterialLayer struct {
	Mapping   MappingMode
	Reference ReferenceMode
	Index     []int
}

// Source is the read-only view of a scene graph mesh
type Source interface {
	ControlPoints() []mgl64.Vec3
	PolygonCount() int
	PolygonSize(polygon int) int
	PolygonVertex(polygon, corner int) int

	NormalLayer() *Vec3Layer
	UVLayer(channel int) *Vec2Layer
	ColorLayer() *ColorLayer
	MaterialLayer() *MaterialLayer

	Skins() []*mesh.Skin
	Materials() []mesh.Material
}

// resolve returns direct array position for element at position i of mapping domain
func resolve(ref ReferenceMode, index []int, i int) (int, error) {
	if !ref.indexed() {
		return i, nil
	}
	if i < 0 || i >= len(index) {
		return 0, errors.Wrapf(mesh.ErrDimensionMismatch, "index array too short: %d >= %d", i, len(index))
	}
	return index[i], nil
}

func at[T any](direct []T, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(direct) {
		return zero, errors.Wrapf(mesh.ErrDimensionMismatch, "direct array too short: %d >= %d", i, len(direct))
	}
	return direct[i], nil
}
