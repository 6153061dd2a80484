package loader

import (
	"github.com/pkg/errors"

	"github.com/mogaika/mesh_optimizer/mesh"
)

// BoneSkin is the raw influence list of one cluster
type BoneSkin struct {
	Bone    mesh.NodeID
	Indices []int
	Weights []float64
}

type VertexWeight struct {
	Bone   mesh.NodeID
	Weight float64
}

// VertexWeightArray holds influences of one control point in cluster iteration order
type VertexWeightArray []VertexWeight

func boneSkinsFromSkin(skin *mesh.Skin) ([]BoneSkin, error) {
	result := make([]BoneSkin, 0, len(skin.Clusters))
	for i, cluster := range skin.Clusters {
		if cluster == nil {
			continue
		}
		if len(cluster.Indices) != len(cluster.Weights) {
			return nil, errors.Wrapf(mesh.ErrDimensionMismatch,
				"cluster %d has %d indices and %d weights", i, len(cluster.Indices), len(cluster.Weights))
		}
		result = append(result, BoneSkin{
			Bone:    cluster.Link,
			Indices: append([]int(nil), cluster.Indices...),
			Weights: append([]float64(nil), cluster.Weights...),
		})
	}
	return result, nil
}

// BuildVertexWeights distributes cluster influences per control point
func BuildVertexWeights(controlPointsCount int, skins []BoneSkin) ([]VertexWeightArray, error) {
	result := make([]VertexWeightArray, controlPointsCount)
	for iSkin := range skins {
		bs := &skins[iSkin]
		for j, cp := range bs.Indices {
			if cp < 0 || cp >= controlPointsCount {
				return nil, errors.Wrapf(mesh.ErrDimensionMismatch,
					"bone %d references control point %d of %d", bs.Bone, cp, controlPointsCount)
			}
			result[cp] = append(result[cp], VertexWeight{Bone: bs.Bone, Weight: bs.Weights[j]})
		}
	}
	return result, nil
}
