package processor

import (
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
)

// Merge concatenates meshes into new one. Materials are identified by name,
// first seen wins. Inputs are not modified.
func (p *Processor) Merge(meshes []*mesh.MeshData) *mesh.MeshData {
	totalVertices, totalFaces := 0, 0
	for _, md := range meshes {
		totalVertices += len(md.Vertices)
		totalFaces += len(md.Faces)
	}

	result := &mesh.MeshData{
		Vertices:  make([]mesh.Vertex, 0, totalVertices),
		Faces:     make([]mesh.Face, 0, totalFaces),
		Materials: make([]mesh.Material, 0),
	}

	for _, md := range meshes {
		for i := range md.Materials {
			if result.MaterialIndex(md.Materials[i].Name) == mesh.NoMaterial {
				result.Materials = append(result.Materials, md.Materials[i].Clone())
			}
		}
	}

	offset := 0
	for iMesh, md := range meshes {
		p.progress("merge", iMesh+1, len(meshes))

		result.HasUV2 = result.HasUV2 || md.HasUV2
		result.HasTangent = result.HasTangent || md.HasTangent
		result.HasColor = result.HasColor || md.HasColor
		result.HasSkin = result.HasSkin || md.HasSkin
		result.HasNormal = result.HasNormal || md.HasNormal

		for i := range md.Vertices {
			result.Vertices = append(result.Vertices, md.Vertices[i].Clone())
		}

		remap := make([]int, len(md.Materials))
		for i := range md.Materials {
			remap[i] = result.MaterialIndex(md.Materials[i].Name)
		}

		for _, f := range md.Faces {
			f.A += offset
			f.B += offset
			f.C += offset
			if f.MaterialID >= 0 && f.MaterialID < len(remap) {
				f.MaterialID = remap[f.MaterialID]
			} else {
				f.MaterialID = mesh.NoMaterial
			}
			result.Faces = append(result.Faces, f)
		}

		offset += len(md.Vertices)
	}

	p.Log.Debug("meshes merged",
		zap.Int("meshes", len(meshes)),
		zap.Int("vertices", len(result.Vertices)),
		zap.Int("faces", len(result.Faces)),
		zap.Int("materials", len(result.Materials)))
	return result
}
