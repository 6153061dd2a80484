package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type LinkMode int

const (
	LinkNormalize LinkMode = iota
	LinkAdditive
	LinkTotalOne
)

func (m LinkMode) String() string {
	switch m {
	case LinkAdditive:
		return "Additive"
	case LinkTotalOne:
		return "Total1"
	default:
		return "Normalize"
	}
}

func ParseLinkMode(s string) (LinkMode, error) {
	switch s {
	case "Normalize", "":
		return LinkNormalize, nil
	case "Additive":
		return LinkAdditive, nil
	case "Total1", "TotalOne":
		return LinkTotalOne, nil
	default:
		return LinkNormalize, errors.Errorf("unknown cluster link mode %q", s)
	}
}

// Cluster is the per-bone influence record of a skin deformer
type Cluster struct {
	Link           NodeID
	AssociateModel NodeID
	Mode           LinkMode

	Indices []int
	Weights []float64

	// global matrix of mesh node at bind time
	Transform mgl64.Mat4
	// global matrix of link node at bind time
	TransformLink           mgl64.Mat4
	TransformAssociateModel mgl64.Mat4
}

func (c *Cluster) Add(index int, weight float64) {
	c.Indices = append(c.Indices, index)
	c.Weights = append(c.Weights, weight)
}

type Skin struct {
	Name     string
	Clusters []*Cluster
}

// Scene is read access to node transforms and hierarchy of the owning scene graph
type Scene interface {
	GlobalTransform(id NodeID) mgl64.Mat4
	LocalTransform(id NodeID) mgl64.Mat4
	GeometricTransform(id NodeID) mgl64.Mat4
	Parent(id NodeID) (NodeID, bool)
	NodeName(id NodeID) string
}
