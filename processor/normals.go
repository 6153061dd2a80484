package processor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

// GenerateNormals replaces vertex normals with average of unit face normals
func (p *Processor) GenerateNormals(md *mesh.MeshData) {
	for i := range md.Vertices {
		md.Vertices[i].Normal = mgl64.Vec3{}
	}

	for i, face := range md.Faces {
		p.progress("generate normals", i+1, len(md.Faces))
		a := md.Vertices[face.A].Position
		b := md.Vertices[face.B].Position
		c := md.Vertices[face.C].Position

		normal := utils.SafeNormalize(b.Sub(a).Cross(c.Sub(b)))

		md.Vertices[face.A].Normal = md.Vertices[face.A].Normal.Add(normal)
		md.Vertices[face.B].Normal = md.Vertices[face.B].Normal.Add(normal)
		md.Vertices[face.C].Normal = md.Vertices[face.C].Normal.Add(normal)
	}

	for i := range md.Vertices {
		md.Vertices[i].Normal = utils.SafeNormalize(md.Vertices[i].Normal)
	}
	md.HasNormal = true
}
