package fbxbuilder

import (
	rawfbx "github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/creator"
	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

// AddSkin attaches skin deformer to geometry of node, clusters are linked to bone nodes
func (f *FBXBuilder) AddSkin(node mesh.NodeID, skin *mesh.Skin) error {
	geometry := f.scene.GeometryOf(int64(node))
	if geometry == nil {
		return errors.Errorf("Node %d has no mesh geometry", node)
	}

	skinId := f.GenerateId()
	if err := f.AddObjects(
		bfbx73.Deformer(skinId, fbx.JoinName(skin.Name, "Deformer"), "Skin").AddNodes(
			bfbx73.Version(101),
			bfbx73.Link_DeformAcuracy(50),
			bfbx73.SkinningType("Linear"),
		),
	); err != nil {
		return errors.Wrapf(err, "Unable to add skin %q", skin.Name)
	}
	f.AddConnections(bfbx73.C("OO", skinId, geometry.Id))

	for _, cluster := range skin.Clusters {
		if f.scene.Model(int64(cluster.Link)) == nil {
			return errors.Errorf("Cluster link %d of skin %q is not a model", cluster.Link, skin.Name)
		}

		indexes := make([]int32, len(cluster.Indices))
		for i, index := range cluster.Indices {
			indexes[i] = int32(index)
		}
		weights := make([]float64, len(cluster.Weights))
		copy(weights, cluster.Weights)

		clusterId := f.GenerateId()
		node := bfbx73.Deformer(clusterId, fbx.JoinName(f.scene.NodeName(cluster.Link), "SubDeformer"), "Cluster").AddNodes(
			bfbx73.Version(100),
			bfbx73.UserData("", ""),
			rawfbx.NewNode("Mode", cluster.Mode.String()),
			bfbx73.Indexes(indexes),
			bfbx73.Weights(weights),
			bfbx73.Transform(utils.MatrixToSlice(cluster.Transform)),
			bfbx73.TransformLink(utils.MatrixToSlice(cluster.TransformLink)),
		)
		if cluster.AssociateModel != mesh.NoNode {
			node.AddNode(rawfbx.NewNode("TransformAssociateModel", utils.MatrixToSlice(cluster.TransformAssociateModel)))
		}
		if err := f.AddObjects(node); err != nil {
			return errors.Wrapf(err, "Unable to add cluster of skin %q", skin.Name)
		}

		f.AddConnections(
			bfbx73.C("OO", clusterId, skinId),
			bfbx73.C("OO", int64(cluster.Link), clusterId),
		)
		if cluster.AssociateModel != mesh.NoNode {
			f.AddConnections(bfbx73.C("OP", int64(cluster.AssociateModel), clusterId, "AssociateModel"))
		}
	}

	f.log.Debug("skin added",
		zap.String("name", skin.Name),
		zap.Int64("geometry", geometry.Id),
		zap.Int("clusters", len(skin.Clusters)))
	return nil
}

func (f *FBXBuilder) AddBindPose(pose *creator.BindPose) error {
	poseId := f.GenerateId()
	node := bfbx73.Pose(poseId, fbx.JoinName(pose.Name, "Pose"), "BindPose").AddNodes(
		bfbx73.Type("BindPose"),
		bfbx73.Version(100),
		bfbx73.NbPoseNodes(int32(len(pose.Entries))),
	)
	for _, entry := range pose.Entries {
		node.AddNode(
			bfbx73.PoseNode().AddNodes(
				bfbx73.Node(int64(entry.Node)),
				bfbx73.Matrix(utils.MatrixToSlice(entry.Matrix)),
			),
		)
	}

	if err := f.AddObjects(node); err != nil {
		return errors.Wrapf(err, "Unable to add bind pose %q", pose.Name)
	}
	f.log.Debug("bind pose added", zap.String("name", pose.Name), zap.Int("nodes", len(pose.Entries)))
	return nil
}
