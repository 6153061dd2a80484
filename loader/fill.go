package loader

import (
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
)

// Fill writes loaded buffers into md.
// Vertices are expanded per polygon corner when any uv channel is mapped per corner.
func (l *Loader) Fill(md *mesh.MeshData) error {
	hasNormal := len(l.normals) > 0
	hasUV1 := len(l.uvA) > 0
	hasUV2 := len(l.uvB) > 0
	hasColor := len(l.colors) > 0
	hasSkin := len(l.boneSkins) > 0

	expand := (hasUV1 && l.uvAPerCorner) || (hasUV2 && l.uvBPerCorner)

	faces := make([]mesh.Face, l.polyCount)
	for i := range faces {
		faces[i].MaterialID = mesh.NoMaterial
		if i < len(l.faceMaterials) {
			faces[i].MaterialID = l.faceMaterials[i]
		}
	}

	var vertices []mesh.Vertex
	fromControlPoint := func(v *mesh.Vertex, cp int) {
		v.Position = l.controlPoints[cp]
		if hasSkin {
			for _, w := range l.weightsPerVertex[cp] {
				v.AddInfluence(w.Bone, w.Weight)
			}
		}
	}

	if !expand {
		vertices = make([]mesh.Vertex, len(l.controlPoints))
		for i := range vertices {
			fromControlPoint(&vertices[i], i)
			if hasUV1 {
				vertices[i].UV = l.uvA[i]
			}
			if hasUV2 {
				vertices[i].UV2 = l.uvB[i]
			}
		}
		for i := range faces {
			faces[i].A = l.polyIndices[i*3]
			faces[i].B = l.polyIndices[i*3+1]
			faces[i].C = l.polyIndices[i*3+2]
		}
	} else {
		vertices = make([]mesh.Vertex, l.polyCount*3)
		index := 0
		for i := range faces {
			for k := 0; k < 3; k++ {
				cp := l.polyIndices[index]
				fromControlPoint(&vertices[index], cp)
				if hasUV1 {
					vertices[index].UV = l.uvA[l.channelSlot(l.uvAPerCorner, index, cp)]
				}
				if hasUV2 {
					vertices[index].UV2 = l.uvB[l.channelSlot(l.uvBPerCorner, index, cp)]
				}
				faces[i].SetIndex(k, index)
				index++
			}
		}
	}

	vertexCount := len(vertices)
	uvMatch := func(count int) bool {
		return (!hasUV1 || count == len(l.uvA)) && (!hasUV2 || count == len(l.uvB))
	}

	if hasColor {
		if len(l.colors) == vertexCount && uvMatch(len(l.colors)) {
			for i := range vertices {
				vertices[i].Color = l.colors[i]
			}
		} else {
			l.distributePerCorner(vertexCount, len(l.colors), func(slot int) {
				vertices[slot].Color = l.colors[slot]
			})
		}
	}

	if hasNormal {
		if len(l.normals) == vertexCount {
			for i := range vertices {
				vertices[i].Normal = l.normals[i]
			}
		} else {
			l.distributePerCorner(vertexCount, len(l.normals), func(slot int) {
				vertices[slot].Normal = l.normals[slot]
			})
		}
	}

	md.Vertices = vertices
	md.Faces = faces
	md.Materials = l.materials
	md.HasUV2 = hasUV2
	md.HasColor = hasColor
	md.HasSkin = hasSkin
	md.HasTangent = false
	md.HasNormal = hasNormal
	return nil
}

// channelSlot picks element of channel for expanded vertex
func (l *Loader) channelSlot(perCorner bool, corner, controlPoint int) int {
	if perCorner {
		return corner
	}
	return controlPoint
}

// distributePerCorner assumes channel is stored as three consecutive entries per face.
// This silently misaligns data when channel cardinality only partially matches.
func (l *Loader) distributePerCorner(vertexCount, channelCount int, set func(slot int)) {
	if channelCount != l.polyCount*3 {
		l.log.Warn("channel cardinality mismatch, distributing as per-corner",
			zap.Int("vertices", vertexCount), zap.Int("channel", channelCount), zap.Int("polygons", l.polyCount))
	}
	for f := 0; f < l.polyCount; f++ {
		for k := 0; k < 3; k++ {
			slot := f*3 + k
			if slot < vertexCount && slot < channelCount {
				set(slot)
			}
		}
	}
}
