package fbx

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/loader"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils"
)

// MeshSource is decoded mesh geometry of model, ready for loader
type MeshSource struct {
	Model    *Model
	Geometry *Geometry

	points   []mgl64.Vec3
	polygons [][]int

	normal   *loader.Vec3Layer
	uv       [2]*loader.Vec2Layer
	color    *loader.ColorLayer
	material *loader.MaterialLayer

	skins     []*mesh.Skin
	materials []mesh.Material
}

func (ms *MeshSource) ControlPoints() []mgl64.Vec3          { return ms.points }
func (ms *MeshSource) PolygonCount() int                    { return len(ms.polygons) }
func (ms *MeshSource) PolygonSize(p int) int                { return len(ms.polygons[p]) }
func (ms *MeshSource) PolygonVertex(p, c int) int           { return ms.polygons[p][c] }
func (ms *MeshSource) NormalLayer() *loader.Vec3Layer       { return ms.normal }
func (ms *MeshSource) ColorLayer() *loader.ColorLayer       { return ms.color }
func (ms *MeshSource) MaterialLayer() *loader.MaterialLayer { return ms.material }
func (ms *MeshSource) Skins() []*mesh.Skin                  { return ms.skins }
func (ms *MeshSource) Materials() []mesh.Material           { return ms.materials }

func (ms *MeshSource) UVLayer(channel int) *loader.Vec2Layer {
	if channel < 0 || channel >= len(ms.uv) {
		return nil
	}
	return ms.uv[channel]
}

func (s *Scene) MeshSource(id mesh.NodeID) (*MeshSource, error) {
	model := s.models[int64(id)]
	if model == nil {
		return nil, errors.Errorf("Model %d not found", id)
	}
	geometry := s.GeometryOf(model.Id)
	if geometry == nil {
		return nil, errors.Errorf("Model %q has no mesh geometry", model.Name)
	}

	ms := &MeshSource{Model: model, Geometry: geometry}
	g := geometry.Node

	vertices := nodeFloats(g, "Vertices")
	if len(vertices)%3 != 0 {
		return nil, errors.Wrapf(mesh.ErrDimensionMismatch, "Vertices array of %q has %d elements", model.Name, len(vertices))
	}
	ms.points = make([]mgl64.Vec3, len(vertices)/3)
	for i := range ms.points {
		ms.points[i] = mgl64.Vec3{vertices[i*3], vertices[i*3+1], vertices[i*3+2]}
	}

	polygons, err := decodePolygons(nodeInts(g, "PolygonVertexIndex"))
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid polygons of %q", model.Name)
	}
	ms.polygons = polygons

	if n := g.GetNode("LayerElementNormal"); n != nil {
		if ms.normal, err = decodeVec3Layer(n, "Normals"); err != nil {
			return nil, errors.Wrapf(err, "Invalid normals of %q", model.Name)
		}
	}
	for channel, n := range g.GetNodes("LayerElementUV") {
		if channel >= len(ms.uv) {
			s.log.Debug("extra uv channel skipped", zap.String("model", model.Name), zap.Int("channel", channel))
			break
		}
		if ms.uv[channel], err = decodeVec2Layer(n, "UV"); err != nil {
			return nil, errors.Wrapf(err, "Invalid uv channel %d of %q", channel, model.Name)
		}
	}
	if n := g.GetNode("LayerElementColor"); n != nil {
		if ms.color, err = decodeColorLayer(n); err != nil {
			return nil, errors.Wrapf(err, "Invalid colors of %q", model.Name)
		}
	}
	if n := g.GetNode("LayerElementMaterial"); n != nil {
		if ms.material, err = decodeMaterialLayer(n); err != nil {
			return nil, errors.Wrapf(err, "Invalid materials layer of %q", model.Name)
		}
	}

	ms.skins = s.decodeSkins(geometry)
	for _, o := range s.Children(model.Id, KindMaterial) {
		ms.materials = append(ms.materials, s.decodeMaterial(o))
	}

	s.log.Debug("mesh source decoded",
		zap.String("model", model.Name),
		zap.Int("control points", len(ms.points)),
		zap.Int("polygons", len(ms.polygons)),
		zap.Int("skins", len(ms.skins)),
		zap.Int("materials", len(ms.materials)))
	return ms, nil
}

// decodePolygons splits index stream, last index of polygon is stored as -(i+1)
func decodePolygons(indices []int) ([][]int, error) {
	polygons := make([][]int, 0)
	current := make([]int, 0, 3)
	for _, index := range indices {
		if index < 0 {
			current = append(current, -index-1)
			polygons = append(polygons, current)
			current = make([]int, 0, 3)
		} else {
			current = append(current, index)
		}
	}
	if len(current) != 0 {
		return nil, errors.Errorf("Polygon without end marker (%d trailing indices)", len(current))
	}
	return polygons, nil
}

func decodeModes(n *rawfbx.Node) (loader.MappingMode, loader.ReferenceMode, error) {
	mapping, err := loader.ParseMappingMode(nodeString(n, "MappingInformationType"))
	if err != nil {
		return mapping, loader.Direct, err
	}
	reference, err := loader.ParseReferenceMode(nodeString(n, "ReferenceInformationType"))
	return mapping, reference, err
}

func layerIndex(n *rawfbx.Node, name string) []int {
	if index := nodeInts(n, name+"Index"); index != nil {
		return index
	}
	// colors index is stored as "ColorIndex"
	return nodeInts(n, strings.TrimSuffix(name, "s")+"Index")
}

func decodeVec3Layer(n *rawfbx.Node, name string) (*loader.Vec3Layer, error) {
	mapping, reference, err := decodeModes(n)
	if err != nil {
		return nil, err
	}
	data := nodeFloats(n, name)
	if len(data)%3 != 0 {
		return nil, errors.Wrapf(mesh.ErrDimensionMismatch, "%s array has %d elements", name, len(data))
	}
	l := &loader.Vec3Layer{Mapping: mapping, Reference: reference, Direct: make([]mgl64.Vec3, len(data)/3)}
	for i := range l.Direct {
		l.Direct[i] = mgl64.Vec3{data[i*3], data[i*3+1], data[i*3+2]}
	}
	if reference != loader.Direct {
		l.Index = layerIndex(n, name)
	}
	return l, nil
}

func decodeVec2Layer(n *rawfbx.Node, name string) (*loader.Vec2Layer, error) {
	mapping, reference, err := decodeModes(n)
	if err != nil {
		return nil, err
	}
	data := nodeFloats(n, name)
	if len(data)%2 != 0 {
		return nil, errors.Wrapf(mesh.ErrDimensionMismatch, "%s array has %d elements", name, len(data))
	}
	l := &loader.Vec2Layer{Mapping: mapping, Reference: reference, Direct: make([]mgl64.Vec2, len(data)/2)}
	for i := range l.Direct {
		l.Direct[i] = mgl64.Vec2{data[i*2], data[i*2+1]}
	}
	if reference != loader.Direct {
		l.Index = layerIndex(n, name)
	}
	return l, nil
}

func decodeColorLayer(n *rawfbx.Node) (*loader.ColorLayer, error) {
	mapping, reference, err := decodeModes(n)
	if err != nil {
		return nil, err
	}
	data := nodeFloats(n, "Colors")
	if len(data)%4 != 0 {
		return nil, errors.Wrapf(mesh.ErrDimensionMismatch, "Colors array has %d elements", len(data))
	}
	l := &loader.ColorLayer{Mapping: mapping, Reference: reference, Direct: make([]mgl64.Vec4, len(data)/4)}
	for i := range l.Direct {
		l.Direct[i] = mgl64.Vec4{data[i*4], data[i*4+1], data[i*4+2], data[i*4+3]}
	}
	if reference != loader.Direct {
		l.Index = layerIndex(n, "Colors")
	}
	return l, nil
}

func decodeMaterialLayer(n *rawfbx.Node) (*loader.MaterialLayer, error) {
	mapping, reference, err := decodeModes(n)
	if err != nil {
		return nil, err
	}
	return &loader.MaterialLayer{Mapping: mapping, Reference: reference, Index: nodeInts(n, "Materials")}, nil
}

func (s *Scene) decodeSkins(geometry *Geometry) []*mesh.Skin {
	skins := make([]*mesh.Skin, 0)
	for _, skinObject := range s.Children(geometry.Id, KindDeformer) {
		if skinObject.Type != "Skin" {
			continue
		}
		skin := &mesh.Skin{Name: skinObject.Name}
		for _, clusterObject := range s.Children(skinObject.Id, KindDeformer) {
			if clusterObject.Type != "Cluster" {
				continue
			}
			if cluster := s.decodeCluster(clusterObject); cluster != nil {
				skin.Clusters = append(skin.Clusters, cluster)
			}
		}
		skins = append(skins, skin)
	}
	return skins
}

func (s *Scene) decodeCluster(o *Object) *mesh.Cluster {
	links := s.Children(o.Id, KindModel)
	if len(links) == 0 {
		s.log.Warn("cluster without link skipped", zap.String("cluster", o.Name))
		return nil
	}

	mode, err := mesh.ParseLinkMode(nodeString(o.Node, "Mode"))
	if err != nil {
		s.log.Warn("unknown link mode", zap.String("cluster", o.Name), zap.Error(err))
	}

	cluster := &mesh.Cluster{
		Link: mesh.NodeID(links[0].Id),
		Mode: mode,
	}
	cluster.Transform, _ = nodeMatrix(o.Node, "Transform")
	cluster.TransformLink, _ = nodeMatrix(o.Node, "TransformLink")
	cluster.TransformAssociateModel, _ = nodeMatrix(o.Node, "TransformAssociateModel")
	if associate := s.PropertyChildren(o.Id, "AssociateModel"); len(associate) != 0 {
		cluster.AssociateModel = mesh.NodeID(associate[0].Id)
	}

	indices := nodeInts(o.Node, "Indexes")
	weights := nodeFloats(o.Node, "Weights")
	if len(indices) != len(weights) {
		s.log.Warn("cluster indexes and weights differ in length",
			zap.String("cluster", o.Name), zap.Int("indexes", len(indices)), zap.Int("weights", len(weights)))
		if len(weights) < len(indices) {
			indices = indices[:len(weights)]
		} else {
			weights = weights[:len(indices)]
		}
	}
	cluster.Indices = indices
	cluster.Weights = weights
	return cluster
}

var textureChannels = []string{"AmbientColor", "DiffuseColor", "SpecularColor", "EmissiveColor"}

func (s *Scene) decodeMaterial(o *Object) mesh.Material {
	p := o.Properties()
	m := mesh.UnknownMaterial(o.Name)

	switch strings.ToLower(nodeString(o.Node, "ShadingModel")) {
	case "phong":
		m.Shading = mesh.ShadingPhong
		m.Specular = p.Vec3("SpecularColor", mgl64.Vec3{0.2, 0.2, 0.2})
		m.Shininess = p.Float("Shininess", p.Float("ShininessExponent", 20))
		m.ReflectionFactor = p.Float("ReflectionFactor", 1)
	case "lambert":
		m.Shading = mesh.ShadingLambert
	default:
		return m
	}
	m.Ambient = p.Vec3("AmbientColor", mgl64.Vec3{0.2, 0.2, 0.2})
	m.Diffuse = p.Vec3("DiffuseColor", mgl64.Vec3{0.8, 0.8, 0.8})
	m.Emissive = p.Vec3("EmissiveColor", mgl64.Vec3{})
	m.TransparencyFactor = p.Float("TransparencyFactor", 0)

	for _, channel := range textureChannels {
		textures := s.PropertyChildren(o.Id, channel)
		if len(textures) == 0 || textures[0].Kind() != KindTexture {
			continue
		}
		info := decodeTexture(textures[0])
		switch channel {
		case "AmbientColor":
			m.AmbientTexture = info
		case "DiffuseColor":
			m.DiffuseTexture = info
		case "SpecularColor":
			if m.Shading == mesh.ShadingPhong {
				m.SpecularTexture = info
			}
		case "EmissiveColor":
			m.EmissiveTexture = info
		}
	}
	return m
}

// Textures decodes every texture object in file order
func (s *Scene) Textures() []*mesh.TextureInfo {
	objects := s.Objects(KindTexture)
	result := make([]*mesh.TextureInfo, len(objects))
	for i, o := range objects {
		result[i] = decodeTexture(o)
	}
	return result
}

func decodeTexture(o *Object) *mesh.TextureInfo {
	p := o.Properties()
	fileName := nodeString(o.Node, "FileName")
	if fileName == "" {
		fileName = nodeString(o.Node, "Filename")
	}
	translation := p.Vec3("Translation", mgl64.Vec3{})
	scaling := p.Vec3("Scaling", mgl64.Vec3{1, 1, 1})
	rotation := p.Vec3("Rotation", mgl64.Vec3{})
	return &mesh.TextureInfo{
		Name:             o.Name,
		FileName:         utils.DecodeName(fileName),
		RelativeFileName: utils.DecodeName(nodeString(o.Node, "RelativeFilename")),
		TextureUse:       int(p.Int("TextureTypeUse", 0)),
		MaterialUse:      int(p.Int("UseMaterial", 0)),
		MappingType:      int(p.Int("CurrentMappingType", 0)),
		SwapUV:           p.Bool("UVSwap", false),
		Translation:      mgl64.Vec2{translation[0], translation[1]},
		Scale:            mgl64.Vec2{scaling[0], scaling[1]},
		Rotation:         mgl64.Vec2{rotation[0], rotation[1]},
		DefaultAlpha:     p.Float("Texture alpha", 1),
		BlendMode:        mesh.BlendMode(p.Int("CurrentTextureBlendMode", int64(mesh.BlendTranslucent))),
	}
}
