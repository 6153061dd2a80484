package processor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

const degenerateUVPlane = 0.001

// GenerateTangents builds tangent and binormal for every vertex from uv gradients.
// Normals and uv must already exist.
func (p *Processor) GenerateTangents(md *mesh.MeshData) {
	vertexCount := len(md.Vertices)
	for i := range md.Vertices {
		md.Vertices[i].Tangent = mgl64.Vec3{}
	}

	for i, face := range md.Faces {
		p.progress("generate tangents", i+1, len(md.Faces))
		tangents := faceTangents(&md.Vertices[face.A], &md.Vertices[face.B], &md.Vertices[face.C])
		for corner := 0; corner < 3; corner++ {
			v := &md.Vertices[face.Index(corner)]
			v.Tangent = v.Tangent.Add(tangents[corner])
		}
	}

	// weld tangents of coincident vertices not collapsed by reduction
	for i := 0; i < vertexCount-1; i++ {
		p.progress("weld tangents", i+1, vertexCount-1)
		vi := &md.Vertices[i]
		for j := i + 1; j < vertexCount; j++ {
			vj := &md.Vertices[j]
			if utils.IsEqual3(vi.Position, vj.Position, p.PositionTolerance) {
				tangent := vi.Tangent
				vi.Tangent = vi.Tangent.Add(vj.Tangent)
				vj.Tangent = vj.Tangent.Add(tangent)
			}
		}
	}

	for i := range md.Vertices {
		v := &md.Vertices[i]
		v.Tangent = utils.SafeNormalize(orthogonalize(v.Tangent, v.Normal))
		v.Binormal = v.Tangent.Cross(v.Normal)
	}
	md.HasTangent = true
}

// faceTangents solves every spatial axis separately against (s, t) deltas.
// Result is same for all corners before per-corner orthogonalization.
func faceTangents(v0, v1, v2 *mesh.Vertex) (result [3]mgl64.Vec3) {
	ds1 := v1.UV[0] - v0.UV[0]
	dt1 := v1.UV[1] - v0.UV[1]
	ds2 := v2.UV[0] - v0.UV[0]
	dt2 := v2.UV[1] - v0.UV[1]

	var tangent mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		edge1 := mgl64.Vec3{v1.Position[axis] - v0.Position[axis], ds1, dt1}
		edge2 := mgl64.Vec3{v2.Position[axis] - v0.Position[axis], ds2, dt2}

		cross := utils.SafeNormalize(edge1.Cross(edge2))
		if math.Abs(cross[0]) < degenerateUVPlane {
			cross[0] = 1.0
		}
		tangent[axis] = -cross[1] / cross[0]
	}

	for corner, n := range [3]mgl64.Vec3{v0.Normal, v1.Normal, v2.Normal} {
		result[corner] = utils.SafeNormalize(orthogonalize(tangent, n))
	}
	return result
}

// orthogonalize removes component of t along n (Gram-Schmidt)
func orthogonalize(t, n mgl64.Vec3) mgl64.Vec3 {
	n = utils.SafeNormalize(n)
	return t.Sub(n.Mul(t.Dot(n)))
}
