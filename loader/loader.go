package loader

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
)

// Loader converts Source attribute layers into canonical vertex and face arrays.
// One Loader serves one Load call.
type Loader struct {
	src Source
	log *zap.Logger

	controlPoints []mgl64.Vec3
	polyCount     int
	polyIndices   []int

	normals          []mgl64.Vec3
	uvA, uvB         []mgl64.Vec2
	uvAPerCorner     bool
	uvBPerCorner     bool
	colors           []mgl64.Vec4
	faceMaterials    []int
	boneSkins        []BoneSkin
	weightsPerVertex []VertexWeightArray
	materials        []mesh.Material
}

type Option func(*Loader)

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

func New(src Source, opts ...Option) *Loader {
	l := &Loader{src: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("loader")
	return l
}

func Load(src Source, opts ...Option) (*mesh.MeshData, error) {
	return New(src, opts...).Load()
}

func (l *Loader) Load() (*mesh.MeshData, error) {
	steps := []struct {
		name string
		f    func() error
	}{
		{"control points", l.loadControlPoints},
		{"polygons", l.loadPolygonIndices},
		{"normals", l.loadNormals},
		{"uv", l.loadUVs},
		{"colors", l.loadColors},
		{"face materials", l.loadFaceMaterials},
		{"skins", l.loadSkins},
		{"materials", l.loadMaterials},
	}
	for _, step := range steps {
		if err := step.f(); err != nil {
			return nil, errors.Wrapf(err, "Failed to load %s", step.name)
		}
	}

	md := mesh.New()
	if err := l.Fill(md); err != nil {
		return nil, err
	}

	l.log.Debug("mesh loaded",
		zap.Int("controlPoints", len(l.controlPoints)),
		zap.Int("polygons", l.polyCount),
		zap.Int("vertices", len(md.Vertices)),
		zap.Int("materials", len(md.Materials)),
		zap.Bool("normal", md.HasNormal),
		zap.Bool("uv2", md.HasUV2),
		zap.Bool("color", md.HasColor),
		zap.Bool("skin", md.HasSkin))
	return md, nil
}

func (l *Loader) loadControlPoints() error {
	l.controlPoints = append([]mgl64.Vec3(nil), l.src.ControlPoints()...)
	return nil
}

func (l *Loader) loadPolygonIndices() error {
	l.polyCount = l.src.PolygonCount()
	l.polyIndices = make([]int, 0, l.polyCount*3)
	for p := 0; p < l.polyCount; p++ {
		size := l.src.PolygonSize(p)
		if size != 3 {
			return errors.Wrapf(mesh.ErrUnsupportedTopology,
				"polygon %d has %d vertices, mesh must be triangulated", p, size)
		}
		for corner := 0; corner < 3; corner++ {
			cp := l.src.PolygonVertex(p, corner)
			if cp < 0 || cp >= len(l.controlPoints) {
				return errors.Wrapf(mesh.ErrDimensionMismatch,
					"polygon %d references control point %d of %d", p, cp, len(l.controlPoints))
			}
			l.polyIndices = append(l.polyIndices, cp)
		}
	}
	return nil
}

// loadChannel materializes layer to control point or polygon corner cardinality
func loadChannel[T any](l *Loader, mapping MappingMode, ref ReferenceMode, direct []T, index []int) ([]T, error) {
	switch mapping {
	case ByControlPoint:
		result := make([]T, len(l.controlPoints))
		for i := range result {
			id, err := resolve(ref, index, i)
			if err != nil {
				return nil, err
			}
			if result[i], err = at(direct, id); err != nil {
				return nil, err
			}
		}
		return result, nil
	case ByPolygonVertex:
		result := make([]T, l.polyCount*3)
		for i := range result {
			id, err := resolve(ref, index, i)
			if err != nil {
				return nil, err
			}
			if result[i], err = at(direct, id); err != nil {
				return nil, err
			}
		}
		return result, nil
	case MappingNone:
		return nil, nil
	default:
		l.log.Warn("unsupported layer mapping, skipping", zap.Stringer("mapping", mapping))
		return nil, nil
	}
}

func (l *Loader) loadNormals() (err error) {
	if layer := l.src.NormalLayer(); layer != nil {
		l.normals, err = loadChannel(l, layer.Mapping, layer.Reference, layer.Direct, layer.Index)
	}
	return err
}

func (l *Loader) loadUVs() (err error) {
	if layer := l.src.UVLayer(0); layer != nil {
		if l.uvA, err = loadChannel(l, layer.Mapping, layer.Reference, layer.Direct, layer.Index); err != nil {
			return errors.Wrapf(err, "channel 0")
		}
		l.uvAPerCorner = layer.Mapping == ByPolygonVertex
	}
	if layer := l.src.UVLayer(1); layer != nil {
		if l.uvB, err = loadChannel(l, layer.Mapping, layer.Reference, layer.Direct, layer.Index); err != nil {
			return errors.Wrapf(err, "channel 1")
		}
		l.uvBPerCorner = layer.Mapping == ByPolygonVertex
	}
	return nil
}

func (l *Loader) loadColors() (err error) {
	if layer := l.src.ColorLayer(); layer != nil {
		l.colors, err = loadChannel(l, layer.Mapping, layer.Reference, layer.Direct, layer.Index)
	}
	return err
}

func (l *Loader) loadFaceMaterials() error {
	l.faceMaterials = make([]int, l.polyCount)
	for i := range l.faceMaterials {
		l.faceMaterials[i] = mesh.NoMaterial
	}

	layer := l.src.MaterialLayer()
	if layer == nil {
		return nil
	}
	if layer.Reference == Direct {
		return errors.Wrapf(mesh.ErrUnsupportedMaterialMapping, "material reference mode is %v", layer.Reference)
	}

	switch layer.Mapping {
	case AllSame:
		if len(layer.Index) == 0 {
			return errors.Wrapf(mesh.ErrDimensionMismatch, "material index array is empty")
		}
		for i := range l.faceMaterials {
			l.faceMaterials[i] = layer.Index[0]
		}
	case ByPolygon:
		if len(layer.Index) < l.polyCount {
			return errors.Wrapf(mesh.ErrDimensionMismatch,
				"material index array has %d entries for %d polygons", len(layer.Index), l.polyCount)
		}
		copy(l.faceMaterials, layer.Index)
	default:
		l.log.Warn("unsupported material mapping, faces left unassigned", zap.Stringer("mapping", layer.Mapping))
	}
	return nil
}

func (l *Loader) loadSkins() (err error) {
	skins := l.src.Skins()
	if len(skins) == 0 || skins[0] == nil {
		return nil
	}
	if len(skins) > 1 {
		l.log.Warn("only first skin deformer is used", zap.Int("skins", len(skins)))
	}
	if l.boneSkins, err = boneSkinsFromSkin(skins[0]); err != nil {
		return err
	}
	l.weightsPerVertex, err = BuildVertexWeights(len(l.controlPoints), l.boneSkins)
	return err
}

func (l *Loader) loadMaterials() error {
	src := l.src.Materials()
	l.materials = make([]mesh.Material, len(src))
	for i := range src {
		l.materials[i] = src[i].Clone()
	}
	return nil
}
