package gltfutils

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

const maxInfluences = 4

// Document is gltf document where meshes exported with skin share joint nodes
type Document struct {
	*gltf.Document

	joints map[mesh.NodeID]uint32
}

func NewDocument() *Document {
	return &Document{
		Document: gltf.NewDocument(),
		joints:   make(map[mesh.NodeID]uint32),
	}
}

type Options struct {
	// Scene resolves node and bone matrices, skin is not exported without it
	Scene mesh.Scene
	Node  mesh.NodeID

	ExportSkin bool
}

// ExportMesh appends mesh node with materials and optional skin to doc, returns node index
func ExportMesh(doc *Document, name string, md *mesh.MeshData, opts Options) (uint32, error) {
	if err := md.Validate(); err != nil {
		return 0, errors.Wrapf(err, "Unable to export %q", name)
	}
	if len(md.Vertices) == 0 || len(md.Faces) == 0 {
		return 0, errors.Errorf("Mesh %q is empty", name)
	}

	vertexCount := len(md.Vertices)
	attributes := make(map[string]uint32)

	{
		positions := make([][3]float32, vertexCount)
		for i := range md.Vertices {
			positions[i] = utils.Vec3ToFloat32(md.Vertices[i].Position)
		}
		attributes["POSITION"] = modeler.WritePosition(doc.Document, positions)
	}

	if md.HasNormal {
		normals := make([][3]float32, vertexCount)
		for i := range md.Vertices {
			normals[i] = utils.Vec3ToFloat32(utils.SafeNormalize(md.Vertices[i].Normal))
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc.Document, normals)
	}

	if md.HasTangent && md.HasNormal {
		tangents := make([][4]float32, vertexCount)
		for i := range md.Vertices {
			v := &md.Vertices[i]
			tangent := utils.SafeNormalize(v.Tangent)
			tangents[i] = [4]float32{
				float32(tangent[0]), float32(tangent[1]), float32(tangent[2]),
				handedness(v.Normal, v.Tangent, v.Binormal)}
		}
		attributes["TANGENT"] = modeler.WriteTangent(doc.Document, tangents)
	}

	{
		uvs := make([][2]float32, vertexCount)
		for i := range md.Vertices {
			uv := md.Vertices[i].UV
			uvs[i] = [2]float32{float32(uv[0]), float32(1 - uv[1])}
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc.Document, uvs)
	}

	if md.HasUV2 {
		uvs := make([][2]float32, vertexCount)
		for i := range md.Vertices {
			uv := md.Vertices[i].UV2
			uvs[i] = [2]float32{float32(uv[0]), float32(1 - uv[1])}
		}
		attributes["TEXCOORD_1"] = modeler.WriteTextureCoord(doc.Document, uvs)
	}

	if md.HasColor {
		colors := make([][4]uint8, vertexCount)
		for i := range md.Vertices {
			colors[i] = utils.ColorFloat(md.Vertices[i].Color).Bytes()
		}
		attributes["COLOR_0"] = modeler.WriteColor(doc.Document, colors)
	}

	node := &gltf.Node{Name: name}
	if opts.Scene != nil && opts.Node != mesh.NoNode {
		node.Matrix = utils.MatrixToFloat32(opts.Scene.GlobalTransform(opts.Node))
	}

	if opts.ExportSkin && md.HasSkin && opts.Scene != nil {
		skin, joints, weights := exportSkin(doc, md, opts.Scene)
		attributes["JOINTS_0"] = modeler.WriteJoints(doc.Document, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(doc.Document, weights)
		node.Skin = gltf.Index(skin)
	}

	materials := exportMaterials(doc.Document, md.Materials)

	// one primitive per used material, faces without material go last
	groups := make(map[int][]uint32)
	order := make([]int, 0)
	for _, f := range md.Faces {
		if _, ok := groups[f.MaterialID]; !ok {
			order = append(order, f.MaterialID)
		}
		groups[f.MaterialID] = append(groups[f.MaterialID], uint32(f.A), uint32(f.B), uint32(f.C))
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i] == mesh.NoMaterial || order[j] == mesh.NoMaterial {
			return order[j] == mesh.NoMaterial && order[i] != mesh.NoMaterial
		}
		return order[i] < order[j]
	})

	gltfMesh := &gltf.Mesh{Name: name}
	for _, materialId := range order {
		primitive := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc.Document, groups[materialId])),
			Attributes: attributes,
		}
		if materialId != mesh.NoMaterial {
			primitive.Material = gltf.Index(materials[materialId])
		}
		gltfMesh.Primitives = append(gltfMesh.Primitives, primitive)
	}

	doc.Meshes = append(doc.Meshes, gltfMesh)
	node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
	doc.Nodes = append(doc.Nodes, node)
	return uint32(len(doc.Nodes) - 1), nil
}

// handedness is -1 when binormal points against normal x tangent
func handedness(normal, tangent, binormal mgl64.Vec3) float32 {
	if normal.Cross(tangent).Dot(binormal) < 0 {
		return -1
	}
	return 1
}

type influence struct {
	joint  uint16
	weight float64
}

// topInfluences keeps up to four heaviest influences, normalized to sum 1
func topInfluences(in []influence) ([4]uint16, [4]float32) {
	sorted := append([]influence(nil), in...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].weight > sorted[j].weight })
	if len(sorted) > maxInfluences {
		sorted = sorted[:maxInfluences]
	}

	sum := 0.0
	for _, inf := range sorted {
		sum += inf.weight
	}

	var joints [4]uint16
	var weights [4]float32
	for i, inf := range sorted {
		joints[i] = inf.joint
		if sum > 0 {
			weights[i] = float32(inf.weight / sum)
		}
	}
	return joints, weights
}

func exportSkin(doc *Document, md *mesh.MeshData, scene mesh.Scene) (uint32, [][4]uint16, [][4]float32) {
	jointIndex := make(map[mesh.NodeID]uint16)
	bones := make([]mesh.NodeID, 0)

	joints := make([][4]uint16, len(md.Vertices))
	weights := make([][4]float32, len(md.Vertices))
	for iVertex := range md.Vertices {
		v := &md.Vertices[iVertex]
		influences := make([]influence, len(v.Bones))
		for i, bone := range v.Bones {
			index, ok := jointIndex[bone]
			if !ok {
				index = uint16(len(bones))
				jointIndex[bone] = index
				bones = append(bones, bone)
			}
			influences[i] = influence{joint: index, weight: v.Weights[i]}
		}
		joints[iVertex], weights[iVertex] = topInfluences(influences)
	}

	skin := &gltf.Skin{Joints: make([]uint32, len(bones))}
	inverseBind := make([][4][4]float32, len(bones))
	for i, bone := range bones {
		global := scene.GlobalTransform(bone)
		joint, ok := doc.joints[bone]
		if !ok {
			joint = uint32(len(doc.Nodes))
			doc.Nodes = append(doc.Nodes, &gltf.Node{
				Name:   scene.NodeName(bone),
				Matrix: utils.MatrixToFloat32(global),
			})
			doc.joints[bone] = joint
		}
		skin.Joints[i] = joint

		inv := global.Inv()
		for col := 0; col < 4; col++ {
			c := inv.Col(col)
			inverseBind[i][col] = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		}
	}
	skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc.Document, gltf.TargetNone, inverseBind))

	doc.Skins = append(doc.Skins, skin)
	return uint32(len(doc.Skins) - 1), joints, weights
}

func exportMaterials(doc *gltf.Document, materials []mesh.Material) []uint32 {
	result := make([]uint32, len(materials))
	for i := range materials {
		m := &materials[i]
		alpha := float32(1 - m.TransparencyFactor)
		if m.Shading == mesh.ShadingUnknown || alpha < 0 || alpha > 1 {
			alpha = 1
		}
		diffuse := m.Diffuse
		if m.Shading == mesh.ShadingUnknown {
			diffuse = mgl64.Vec3{1, 1, 1}
		}

		metallic, roughness := float32(0), float32(1)
		gm := &gltf.Material{
			Name:        m.Name,
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{float32(diffuse[0]), float32(diffuse[1]), float32(diffuse[2]), alpha},
				MetallicFactor:  &metallic,
				RoughnessFactor: &roughness,
			},
			EmissiveFactor: utils.Vec3ToFloat32(m.Emissive),
		}
		if alpha < 1 {
			gm.AlphaMode = gltf.AlphaBlend
		}
		if m.DiffuseTexture != nil {
			gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
				Index: exportTexture(doc, m.DiffuseTexture),
			}
		}
		if m.EmissiveTexture != nil {
			gm.EmissiveTexture = &gltf.TextureInfo{
				Index: exportTexture(doc, m.EmissiveTexture),
			}
		}

		result[i] = uint32(len(doc.Materials))
		doc.Materials = append(doc.Materials, gm)
	}
	return result
}

// exportTexture references image by uri, images are not embedded
func exportTexture(doc *gltf.Document, t *mesh.TextureInfo) uint32 {
	uri := t.RelativeFileName
	if uri == "" {
		uri = t.FileName
	}
	for i, img := range doc.Images {
		if img.URI == uri {
			for iTexture, texture := range doc.Textures {
				if texture.Source != nil && *texture.Source == uint32(i) {
					return uint32(iTexture)
				}
			}
		}
	}

	if len(doc.Samplers) == 0 {
		doc.Samplers = append(doc.Samplers, &gltf.Sampler{})
	}
	doc.Images = append(doc.Images, &gltf.Image{Name: t.Name, URI: uri})
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    fmt.Sprintf("%s_texture", t.Name),
		Sampler: gltf.Index(0),
		Source:  gltf.Index(uint32(len(doc.Images) - 1)),
	})
	return uint32(len(doc.Textures) - 1)
}

// ExportBinary adds root nodes to default scene and encodes document as glb
func ExportBinary(w io.Writer, doc *Document) error {
	inScene := make(map[uint32]bool)
	for _, n := range doc.Scenes[0].Nodes {
		inScene[n] = true
	}
	children := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			children[c] = true
		}
	}
	for iNode := range doc.Nodes {
		if !inScene[uint32(iNode)] && !children[uint32(iNode)] {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	if err := encoder.Encode(doc.Document); err != nil {
		return errors.Wrapf(err, "Unable to encode glb")
	}
	return nil
}
