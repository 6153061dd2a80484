package processor

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

// Transform applies m to positions as points and, if mesh has normals,
// to normals as directions. Normals are not renormalized.
func (p *Processor) Transform(md *mesh.MeshData, m mgl64.Mat4) {
	for i := range md.Vertices {
		v := &md.Vertices[i]
		v.Position = utils.TransformPoint(m, v.Position)
		if md.HasNormal {
			v.Normal = utils.TransformDirection(m, v.Normal)
		}
	}
}

func (p *Processor) TransformToGlobal(md *mesh.MeshData, scene mesh.Scene, node mesh.NodeID) {
	p.Transform(md, scene.GlobalTransform(node))
}

func (p *Processor) TransformToLocal(md *mesh.MeshData, scene mesh.Scene, node mesh.NodeID) {
	p.Transform(md, scene.LocalTransform(node))
}

// BindPoseMatrix computes matrix that moves mesh vertices into pose
// recorded by first cluster of skin. Returns false when skin has no clusters.
func (p *Processor) BindPoseMatrix(skin *mesh.Skin, meshNode mesh.NodeID, scene mesh.Scene) (mgl64.Mat4, bool) {
	if skin == nil || len(skin.Clusters) == 0 || skin.Clusters[0] == nil {
		return mgl64.Ident4(), false
	}
	cluster := skin.Clusters[0]

	referenceGlobalCurrent := mgl64.Ident4()

	referenceGlobalInit := cluster.Transform.Mul4(scene.GeometricTransform(meshNode))
	clusterGlobalCurrent := scene.GlobalTransform(cluster.Link)

	if cluster.Mode == mesh.LinkAdditive && cluster.AssociateModel != mesh.NoNode {
		associateGlobalInit := cluster.TransformAssociateModel.Mul4(scene.GeometricTransform(cluster.AssociateModel))
		associateGlobalCurrent := scene.GlobalTransform(cluster.AssociateModel)
		clusterGlobalInit := cluster.TransformLink.Mul4(scene.GeometricTransform(cluster.Link))

		return referenceGlobalInit.Inv().
			Mul4(associateGlobalInit).
			Mul4(associateGlobalCurrent.Inv()).
			Mul4(clusterGlobalCurrent).
			Mul4(clusterGlobalInit.Inv()).
			Mul4(referenceGlobalInit), true
	}

	clusterGlobalInit := cluster.TransformLink
	clusterRelativeInit := clusterGlobalInit.Inv().Mul4(referenceGlobalInit)
	clusterRelativeCurrentInverse := referenceGlobalCurrent.Inv().Mul4(clusterGlobalCurrent)
	return clusterRelativeCurrentInverse.Mul4(clusterRelativeInit), true
}

// TransformToBindPose moves positions into bind pose. Normals are left as is.
func (p *Processor) TransformToBindPose(md *mesh.MeshData, skin *mesh.Skin, meshNode mesh.NodeID, scene mesh.Scene) bool {
	m, ok := p.BindPoseMatrix(skin, meshNode, scene)
	if !ok {
		p.Log.Debug("no skin cluster, bind pose skipped", zap.Int64("node", int64(meshNode)))
		return false
	}
	for i := range md.Vertices {
		md.Vertices[i].Position = utils.TransformPoint(m, md.Vertices[i].Position)
	}
	return true
}
