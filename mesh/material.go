package mesh

import "github.com/go-gl/mathgl/mgl64"

type ShadingModel int

const (
	ShadingUnknown ShadingModel = iota
	ShadingLambert
	ShadingPhong
)

func (s ShadingModel) String() string {
	switch s {
	case ShadingLambert:
		return "Lambert"
	case ShadingPhong:
		return "Phong"
	default:
		return "Unknown"
	}
}

type BlendMode int

const (
	BlendTranslucent BlendMode = iota
	BlendAdditive
	BlendModulate
	BlendModulate2
	BlendOver
)

type TextureInfo struct {
	Name             string
	FileName         string
	RelativeFileName string

	TextureUse  int
	MaterialUse int
	MappingType int
	SwapUV      bool

	Translation mgl64.Vec2
	Scale       mgl64.Vec2
	Rotation    mgl64.Vec2

	DefaultAlpha float64
	BlendMode    BlendMode
}

type Material struct {
	// Name identifies material inside one mesh and is used as merge identity
	Name    string
	Shading ShadingModel

	Ambient  mgl64.Vec3
	Diffuse  mgl64.Vec3
	Specular mgl64.Vec3
	Emissive mgl64.Vec3

	TransparencyFactor float64
	Shininess          float64
	ReflectionFactor   float64

	AmbientTexture  *TextureInfo
	DiffuseTexture  *TextureInfo
	SpecularTexture *TextureInfo
	EmissiveTexture *TextureInfo
}

// UnknownMaterial is used when the source material is neither phong nor lambert
func UnknownMaterial(name string) Material {
	return Material{
		Name:               name,
		Shading:            ShadingUnknown,
		TransparencyFactor: 1.0,
	}
}

func (m Material) Clone() Material {
	cp := func(t *TextureInfo) *TextureInfo {
		if t == nil {
			return nil
		}
		c := *t
		return &c
	}
	m.AmbientTexture = cp(m.AmbientTexture)
	m.DiffuseTexture = cp(m.DiffuseTexture)
	m.SpecularTexture = cp(m.SpecularTexture)
	m.EmissiveTexture = cp(m.EmissiveTexture)
	return m
}

// Textures returns non-nil textures with slot names used by fbx material properties
func (m *Material) Textures() map[string]*TextureInfo {
	result := make(map[string]*TextureInfo)
	if m.AmbientTexture != nil {
		result["AmbientColor"] = m.AmbientTexture
	}
	if m.DiffuseTexture != nil {
		result["DiffuseColor"] = m.DiffuseTexture
	}
	if m.SpecularTexture != nil {
		result["SpecularColor"] = m.SpecularTexture
	}
	if m.EmissiveTexture != nil {
		result["EmissiveColor"] = m.EmissiveTexture
	}
	return result
}
