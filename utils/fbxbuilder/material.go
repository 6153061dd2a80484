package fbxbuilder

import (
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/mesh"
)

func color(name string, c mgl64.Vec3) *rawfbx.Node {
	return bfbx73.P(name, "Color", "", "A", c[0], c[1], c[2])
}

func number(name string, v float64) *rawfbx.Node {
	return bfbx73.P(name, "Number", "", "A", v)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// material returns id of material with same name, creating it if needed
func (f *FBXBuilder) material(m *mesh.Material) (int64, error) {
	if id, ok := f.materials[m.Name]; ok && f.scene.Object(id) != nil {
		return id, nil
	}

	id := f.GenerateId()
	material := bfbx73.Material(id, fbx.JoinName(m.Name, "Material"), "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel(strings.ToLower(m.Shading.String())),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			color("AmbientColor", m.Ambient),
			color("DiffuseColor", m.Diffuse),
			color("SpecularColor", m.Specular),
			color("EmissiveColor", m.Emissive),
			number("TransparencyFactor", m.TransparencyFactor),
			number("Shininess", m.Shininess),
			number("ReflectionFactor", m.ReflectionFactor),
		),
	)
	if err := f.AddObjects(material); err != nil {
		return 0, err
	}
	f.materials[m.Name] = id

	textures := m.Textures()
	channels := make([]string, 0, len(textures))
	for channel := range textures {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	for _, channel := range channels {
		textureId, err := f.texture(textures[channel])
		if err != nil {
			return 0, err
		}
		f.AddConnections(bfbx73.C("OP", textureId, id, channel))
	}

	f.log.Debug("material added", zap.String("name", m.Name), zap.Int("textures", len(channels)))
	return id, nil
}

func (f *FBXBuilder) texture(t *mesh.TextureInfo) (int64, error) {
	textureId := f.GenerateId()
	videoId := f.GenerateId()

	video := bfbx73.Video(videoId, fbx.JoinName(t.Name, "Video"), "Clip").AddNodes(
		bfbx73.Type("Clip"),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Path", "KString", "XRefUrl", "", t.FileName),
		),
		bfbx73.UseMipMap(0),
		bfbx73.Filename(t.FileName),
		bfbx73.RelativeFilename(t.RelativeFileName),
	)

	texture := bfbx73.Texture(textureId, fbx.JoinName(t.Name, "Texture"), "").AddNodes(
		bfbx73.Type("TextureVideoClip"),
		bfbx73.Version(202),
		bfbx73.TextureName(fbx.JoinName(t.Name, "Texture")),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("TextureTypeUse", "enum", "", "", int32(t.TextureUse)),
			bfbx73.P("UseMaterial", "bool", "", "", int32(t.MaterialUse)),
			bfbx73.P("CurrentMappingType", "enum", "", "", int32(t.MappingType)),
			bfbx73.P("UVSwap", "bool", "", "", boolInt(t.SwapUV)),
			bfbx73.P("Translation", "Vector", "", "A", t.Translation[0], t.Translation[1], float64(0)),
			bfbx73.P("Rotation", "Vector", "", "A", t.Rotation[0], t.Rotation[1], float64(0)),
			bfbx73.P("Scaling", "Vector", "", "A", t.Scale[0], t.Scale[1], float64(1)),
			bfbx73.P("Texture alpha", "Number", "", "A", t.DefaultAlpha),
			bfbx73.P("CurrentTextureBlendMode", "enum", "", "", int32(t.BlendMode)),
		),
		rawfbx.NewNode("FileName", t.FileName),
		bfbx73.RelativeFilename(t.RelativeFileName),
		bfbx73.ModelUVTranslation(0, 0),
		bfbx73.ModelUVScaling(1, 1),
		bfbx73.Texture_Alpha_Source("None"),
		bfbx73.Cropping(0, 0, 0, 0),
	)

	if err := f.AddObjects(texture, video); err != nil {
		return 0, err
	}
	f.AddConnections(bfbx73.C("OO", videoId, textureId))
	return textureId, nil
}
