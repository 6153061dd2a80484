package processor

import (
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

// ReduceVertex collapses vertices with coincident position and uv.
// Surviving vertices keep first-occurrence order as referenced by faces.
func (p *Processor) ReduceVertex(md *mesh.MeshData) {
	vertexCount := len(md.Vertices)

	// references[i] is index of vertex that i is same as
	// outIndex[i] is location of reference vertex i in reduced array
	references := make([]int, vertexCount)
	outIndex := make([]int, vertexCount)
	for i := range references {
		references[i] = -1
		outIndex[i] = -1
	}

	for i := 0; i < vertexCount; i++ {
		p.progress("reduce vertex", i+1, vertexCount)
		if references[i] != -1 {
			continue
		}
		references[i] = i
		vi := &md.Vertices[i]
		for j := i + 1; j < vertexCount; j++ {
			if references[j] != -1 {
				continue
			}
			vj := &md.Vertices[j]
			if utils.IsEqual3(vi.Position, vj.Position, p.PositionTolerance) &&
				utils.IsEqual2(vi.UV, vj.UV, p.UVTolerance) {
				references[j] = i
			}
		}
	}

	reduced := make([]mesh.Vertex, 0, vertexCount)
	for iFace := range md.Faces {
		face := &md.Faces[iFace]
		for corner := 0; corner < 3; corner++ {
			original := face.Index(corner)
			ref := references[original]
			if outIndex[ref] == -1 {
				outIndex[ref] = len(reduced)
				reduced = append(reduced, md.Vertices[original])
			}
			face.SetIndex(corner, outIndex[ref])
		}
	}

	p.Log.Debug("vertices reduced", zap.Int("from", vertexCount), zap.Int("to", len(reduced)))
	md.Vertices = reduced
}
