package creator

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
)

// Sink allocates scene graph objects for canonical mesh data
type Sink interface {
	mesh.Scene

	// AddMesh creates mesh object and node wrapping it, returns node
	AddMesh(obj *MeshObject) (mesh.NodeID, error)
	AddSkin(node mesh.NodeID, skin *mesh.Skin) error
	AddBindPose(pose *BindPose) error
}

// MeshObject is mesh with one layer per populated channel, mapped by control point.
// Absent layers are nil.
type MeshObject struct {
	Name string

	ControlPoints []mgl64.Vec3
	Normals       []mgl64.Vec3
	UV            []mgl64.Vec2
	UV2           []mgl64.Vec2
	Colors        []mgl64.Vec4
	Tangents      []mgl64.Vec3
	Binormals     []mgl64.Vec3

	Polygons [][3]int
	// per polygon, index into Materials
	PolygonMaterials []int
	Materials        []mesh.Material
}

type PoseEntry struct {
	Node   mesh.NodeID
	Matrix mgl64.Mat4
}

type BindPose struct {
	Name    string
	Entries []PoseEntry
}

type Creator struct {
	CreateSkin bool
	Log        *zap.Logger
}

func New(createSkin bool, log *zap.Logger) *Creator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Creator{CreateSkin: createSkin, Log: log.Named("creator")}
}

// Create builds mesh in sink, including skin clusters and bind pose when requested
func (c *Creator) Create(sink Sink, name string, md *mesh.MeshData) (mesh.NodeID, error) {
	if err := md.Validate(); err != nil {
		return mesh.NoNode, errors.Wrapf(err, "Invalid mesh %q", name)
	}

	node, err := sink.AddMesh(BuildMeshObject(name, md))
	if err != nil {
		return mesh.NoNode, errors.Wrapf(err, "Unable to add mesh %q", name)
	}

	if c.CreateSkin {
		if err := c.AttachSkin(sink, name, node, md); err != nil {
			return node, err
		}
	}

	c.Log.Debug("mesh created",
		zap.String("mesh", name),
		zap.Int("vertices", len(md.Vertices)),
		zap.Int("faces", len(md.Faces)))
	return node, nil
}

// AttachSkin adds skin clusters and bind pose for bone influences of md to existing node
func (c *Creator) AttachSkin(sink Sink, name string, node mesh.NodeID, md *mesh.MeshData) error {
	if !md.HasSkin {
		return nil
	}
	skin := BuildSkin(md, node, sink)
	if len(skin.Clusters) == 0 {
		return nil
	}
	if err := sink.AddSkin(node, skin); err != nil {
		return errors.Wrapf(err, "Unable to add skin to %q", name)
	}
	if err := sink.AddBindPose(BuildBindPose(name, node, []*mesh.Skin{skin}, sink)); err != nil {
		return errors.Wrapf(err, "Unable to add bind pose of %q", name)
	}
	c.Log.Debug("skin created", zap.String("mesh", name), zap.Int("clusters", len(skin.Clusters)))
	return nil
}

func BuildMeshObject(name string, md *mesh.MeshData) *MeshObject {
	vertexCount := len(md.Vertices)
	obj := &MeshObject{
		Name:          name,
		ControlPoints: make([]mgl64.Vec3, vertexCount),
		UV:            make([]mgl64.Vec2, vertexCount),
		Materials:     make([]mesh.Material, len(md.Materials)),
	}
	if md.HasNormal {
		obj.Normals = make([]mgl64.Vec3, vertexCount)
	}
	if md.HasUV2 {
		obj.UV2 = make([]mgl64.Vec2, vertexCount)
	}
	if md.HasColor {
		obj.Colors = make([]mgl64.Vec4, vertexCount)
	}
	if md.HasTangent {
		obj.Tangents = make([]mgl64.Vec3, vertexCount)
		obj.Binormals = make([]mgl64.Vec3, vertexCount)
	}

	for i := range md.Vertices {
		v := &md.Vertices[i]
		obj.ControlPoints[i] = v.Position
		obj.UV[i] = v.UV
		if md.HasNormal {
			obj.Normals[i] = v.Normal
		}
		if md.HasUV2 {
			obj.UV2[i] = v.UV2
		}
		if md.HasColor {
			obj.Colors[i] = v.Color
		}
		if md.HasTangent {
			obj.Tangents[i] = v.Tangent
			obj.Binormals[i] = v.Binormal
		}
	}

	obj.Polygons = make([][3]int, len(md.Faces))
	obj.PolygonMaterials = make([]int, len(md.Faces))
	for i, f := range md.Faces {
		obj.Polygons[i] = [3]int{f.A, f.B, f.C}
		obj.PolygonMaterials[i] = f.MaterialID
	}

	for i := range md.Materials {
		obj.Materials[i] = md.Materials[i].Clone()
	}
	return obj
}

// BuildSkin creates one cluster per distinct bone in order of first encounter
func BuildSkin(md *mesh.MeshData, node mesh.NodeID, scene mesh.Scene) *mesh.Skin {
	skin := &mesh.Skin{Name: scene.NodeName(node)}
	clusters := make(map[mesh.NodeID]*mesh.Cluster)

	for iVertex := range md.Vertices {
		v := &md.Vertices[iVertex]
		for iBone, bone := range v.Bones {
			cluster, ok := clusters[bone]
			if !ok {
				cluster = &mesh.Cluster{Link: bone, Mode: mesh.LinkTotalOne}
				clusters[bone] = cluster
				skin.Clusters = append(skin.Clusters, cluster)
			}
			cluster.Add(iVertex, v.Weights[iBone])
		}
	}

	nodeGlobal := scene.GlobalTransform(node)
	for _, cluster := range skin.Clusters {
		cluster.Transform = nodeGlobal
		cluster.TransformLink = scene.GlobalTransform(cluster.Link)
	}
	return skin
}

// BuildBindPose records global matrices of all cluster links with their ancestors
// (parent first, without duplicates) and the mesh node itself
func BuildBindPose(name string, node mesh.NodeID, skins []*mesh.Skin, scene mesh.Scene) *BindPose {
	pose := &BindPose{Name: name}
	added := make(map[mesh.NodeID]bool)

	var addRecursively func(id mesh.NodeID)
	addRecursively = func(id mesh.NodeID) {
		if id == mesh.NoNode {
			return
		}
		if parent, ok := scene.Parent(id); ok {
			addRecursively(parent)
		}
		if !added[id] {
			added[id] = true
			pose.Entries = append(pose.Entries, PoseEntry{Node: id, Matrix: scene.GlobalTransform(id)})
		}
	}

	clusterCount := 0
	for _, skin := range skins {
		for _, cluster := range skin.Clusters {
			addRecursively(cluster.Link)
			clusterCount++
		}
	}
	if clusterCount != 0 && !added[node] {
		added[node] = true
		pose.Entries = append(pose.Entries, PoseEntry{Node: node, Matrix: scene.GlobalTransform(node)})
	}
	return pose
}
