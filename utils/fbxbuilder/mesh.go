package fbxbuilder

import (
	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/creator"
	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/loader"
	"github.com/mogaika/mesh_optimizer/mesh"
)

func (f *FBXBuilder) GlobalTransform(id mesh.NodeID) mgl64.Mat4 { return f.scene.GlobalTransform(id) }
func (f *FBXBuilder) LocalTransform(id mesh.NodeID) mgl64.Mat4  { return f.scene.LocalTransform(id) }
func (f *FBXBuilder) Parent(id mesh.NodeID) (mesh.NodeID, bool) { return f.scene.Parent(id) }
func (f *FBXBuilder) NodeName(id mesh.NodeID) string            { return f.scene.NodeName(id) }

func (f *FBXBuilder) GeometricTransform(id mesh.NodeID) mgl64.Mat4 {
	return f.scene.GeometricTransform(id)
}

func (f *FBXBuilder) MeshSource(id mesh.NodeID) (loader.Source, error) {
	ms, err := f.scene.MeshSource(id)
	if err != nil {
		return nil, err
	}
	return ms, nil
}

func (f *FBXBuilder) ReplaceModel(old, replacement mesh.NodeID) error {
	return f.scene.ReplaceModel(old, replacement)
}

// Meshes lists nodes with mesh geometry in file order
func (f *FBXBuilder) Meshes() []mesh.NodeID {
	models := f.scene.Meshes()
	result := make([]mesh.NodeID, len(models))
	for i, m := range models {
		result[i] = mesh.NodeID(m.Id)
	}
	return result
}

func flatten2(in []mgl64.Vec2) []float64 {
	r := make([]float64, 0, len(in)*2)
	for _, v := range in {
		r = append(r, v[0], v[1])
	}
	return r
}

func flatten3(in []mgl64.Vec3) []float64 {
	r := make([]float64, 0, len(in)*3)
	for _, v := range in {
		r = append(r, v[0], v[1], v[2])
	}
	return r
}

func flatten4(in []mgl64.Vec4) []float64 {
	r := make([]float64, 0, len(in)*4)
	for _, v := range in {
		r = append(r, v[0], v[1], v[2], v[3])
	}
	return r
}

func layerElement(layer *rawfbx.Node, elementType string, index int32) {
	layer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type(elementType),
			bfbx73.TypedIndex(index),
		),
	)
}

// vertex mapped layer element
func vertexLayer(elementType string, index int32, name string, arrayName string, data []float64) *rawfbx.Node {
	return rawfbx.NewNode(elementType, index).AddNodes(
		bfbx73.Version(101),
		bfbx73.Name(name),
		bfbx73.MappingInformationType("ByVertice"),
		bfbx73.ReferenceInformationType("Direct"),
		rawfbx.NewNode(arrayName, data),
	)
}

func (f *FBXBuilder) AddMesh(obj *creator.MeshObject) (mesh.NodeID, error) {
	indexes := make([]int32, 0, len(obj.Polygons)*3)
	for _, p := range obj.Polygons {
		indexes = append(indexes, int32(p[0]), int32(p[1]), -int32(p[2])-1)
	}

	geometryId := f.GenerateId()
	layer0 := bfbx73.Layer(0).AddNodes(bfbx73.Version(100))

	geometry := bfbx73.Geometry(geometryId, fbx.JoinName(obj.Name, "Geometry"), "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(flatten3(obj.ControlPoints)),
		bfbx73.PolygonVertexIndex(indexes),
	)

	if obj.Normals != nil {
		geometry.AddNode(vertexLayer("LayerElementNormal", 0, "", "Normals", flatten3(obj.Normals)))
		layerElement(layer0, "LayerElementNormal", 0)
	}
	if obj.Tangents != nil {
		geometry.AddNode(vertexLayer("LayerElementTangent", 0, "", "Tangents", flatten3(obj.Tangents)))
		layerElement(layer0, "LayerElementTangent", 0)
	}
	if obj.Binormals != nil {
		geometry.AddNode(vertexLayer("LayerElementBinormal", 0, "", "Binormals", flatten3(obj.Binormals)))
		layerElement(layer0, "LayerElementBinormal", 0)
	}
	if obj.Colors != nil {
		geometry.AddNode(vertexLayer("LayerElementColor", 0, "", "Colors", flatten4(obj.Colors)))
		layerElement(layer0, "LayerElementColor", 0)
	}
	if obj.UV != nil {
		geometry.AddNode(vertexLayer("LayerElementUV", 0, "UVChannel_1", "UV", flatten2(obj.UV)))
		layerElement(layer0, "LayerElementUV", 0)
	}
	if len(obj.Materials) != 0 {
		materials := make([]int32, len(obj.PolygonMaterials))
		for i, m := range obj.PolygonMaterials {
			materials[i] = int32(m)
		}
		geometry.AddNode(
			bfbx73.LayerElementMaterial(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygon"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.Materials(materials),
			),
		)
		layerElement(layer0, "LayerElementMaterial", 0)
	}
	geometry.AddNode(layer0)

	if obj.UV2 != nil {
		geometry.AddNode(vertexLayer("LayerElementUV", 1, "UVChannel_2", "UV", flatten2(obj.UV2)))
		layer1 := bfbx73.Layer(1).AddNodes(bfbx73.Version(100))
		layerElement(layer1, "LayerElementUV", 1)
		geometry.AddNode(layer1)
	}

	modelId := f.GenerateId()
	model := bfbx73.Model(modelId, fbx.JoinName(obj.Name, "Model"), "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	if err := f.AddObjects(model, geometry); err != nil {
		return mesh.NoNode, errors.Wrapf(err, "Unable to add mesh %q", obj.Name)
	}
	f.AddConnections(
		bfbx73.C("OO", modelId, 0),
		bfbx73.C("OO", geometryId, modelId),
	)

	// connection order defines material index
	for i := range obj.Materials {
		materialId, err := f.material(&obj.Materials[i])
		if err != nil {
			return mesh.NoNode, errors.Wrapf(err, "Unable to add material of %q", obj.Name)
		}
		f.AddConnections(bfbx73.C("OO", materialId, modelId))
	}

	f.log.Debug("mesh added",
		zap.String("name", obj.Name),
		zap.Int64("model", modelId),
		zap.Int("control points", len(obj.ControlPoints)),
		zap.Int("polygons", len(obj.Polygons)))
	return mesh.NodeID(modelId), nil
}
