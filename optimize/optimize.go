package optimize

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/config"
	"github.com/mogaika/mesh_optimizer/creator"
	"github.com/mogaika/mesh_optimizer/loader"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/processor"
)

// Document is scene graph that meshes are read from and written back to
type Document interface {
	creator.Sink

	MeshSource(id mesh.NodeID) (loader.Source, error)
	// ReplaceModel moves replacement to place of old node and removes old one
	ReplaceModel(old, replacement mesh.NodeID) error
	Meshes() []mesh.NodeID
}

type Optimizer struct {
	Processor *processor.Processor
	// CreateSkin rebuilds skin deformers for optimized meshes
	CreateSkin bool
	Log        *zap.Logger
	Progress   processor.ProgressFunc
}

func New(p *processor.Processor, log *zap.Logger) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		p = processor.New(processor.WithLogger(log))
	}
	return &Optimizer{Processor: p, CreateSkin: true, Log: log.Named("optimize")}
}

// NewFromConfig creates optimizer with tolerances and skin settings from cfg
func NewFromConfig(cfg *config.Config, log *zap.Logger, progress processor.ProgressFunc) *Optimizer {
	p := processor.New(
		processor.WithTolerances(cfg.Processing.PositionTolerance, cfg.Processing.UVTolerance),
		processor.WithLogger(log),
		processor.WithProgress(progress),
	)
	o := New(p, log)
	o.CreateSkin = cfg.Export.CreateSkin
	o.Progress = progress
	return o
}

func (o *Optimizer) progress(stage string, done, total int) {
	if o.Progress != nil {
		o.Progress(stage, done, total)
	}
}

// Load reads canonical mesh data of model
func (o *Optimizer) Load(doc Document, model mesh.NodeID) (*mesh.MeshData, loader.Source, error) {
	src, err := doc.MeshSource(model)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Unable to read mesh %d", model)
	}
	md, err := loader.Load(src, loader.WithLogger(o.Log))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Unable to load mesh %q", doc.NodeName(model))
	}
	return md, src, nil
}

// Optimize regenerates requested channels, welds vertices and replaces model with result.
// Normals are generated for tangents when mesh has none.
func (o *Optimizer) Optimize(doc Document, model mesh.NodeID, generateNormals, generateTangents bool) (mesh.NodeID, error) {
	name := doc.NodeName(model)
	md, _, err := o.Load(doc, model)
	if err != nil {
		return mesh.NoNode, err
	}
	verticesBefore := len(md.Vertices)

	// result is placed under parent of model with identity transform
	o.Processor.Transform(md, doc.LocalTransform(model).Mul4(doc.GeometricTransform(model)))

	if generateNormals || (!md.HasNormal && generateTangents) {
		o.Processor.GenerateNormals(md)
	}
	if generateTangents {
		o.Processor.GenerateTangents(md)
	}
	o.Processor.ReduceVertex(md)

	c := creator.New(false, o.Log)
	result, err := c.Create(doc, name, md)
	if err != nil {
		return mesh.NoNode, errors.Wrapf(err, "Unable to create optimized %q", name)
	}
	if err := doc.ReplaceModel(model, result); err != nil {
		return mesh.NoNode, errors.Wrapf(err, "Unable to replace %q", name)
	}
	if o.CreateSkin {
		if err := c.AttachSkin(doc, name, result, md); err != nil {
			return result, err
		}
	}

	o.Log.Info("mesh optimized",
		zap.String("mesh", name),
		zap.Int("vertices before", verticesBefore),
		zap.Int("vertices after", len(md.Vertices)),
		zap.Int("faces", len(md.Faces)))
	return result, nil
}

// OptimizeAll optimizes every mesh of document, returns new nodes in order of original meshes
func (o *Optimizer) OptimizeAll(doc Document, generateNormals, generateTangents bool) ([]mesh.NodeID, error) {
	models := doc.Meshes()
	result := make([]mesh.NodeID, 0, len(models))
	for i, model := range models {
		o.progress("optimize", i, len(models))
		node, err := o.Optimize(doc, model, generateNormals, generateTangents)
		if err != nil {
			return result, err
		}
		result = append(result, node)
	}
	o.progress("optimize", len(models), len(models))
	return result, nil
}

// Merge combines models into single skinned mesh placed at scene root, source models are kept.
// Skinned meshes are moved to bind pose, others to global space.
func (o *Optimizer) Merge(doc Document, models []mesh.NodeID, newName string) (mesh.NodeID, error) {
	if len(models) == 0 {
		return mesh.NoNode, errors.Errorf("Nothing to merge")
	}

	meshes := make([]*mesh.MeshData, 0, len(models))
	for i, model := range models {
		o.progress("merge", i, len(models))
		md, src, err := o.Load(doc, model)
		if err != nil {
			return mesh.NoNode, err
		}

		transformed := false
		if md.HasSkin {
			if skins := src.Skins(); len(skins) != 0 {
				transformed = o.Processor.TransformToBindPose(md, skins[0], model, doc)
			}
		}
		if !transformed {
			if md.HasSkin {
				o.Log.Warn("skinned mesh has no bind pose, using global transform", zap.String("mesh", doc.NodeName(model)))
			}
			o.Processor.TransformToGlobal(md, doc, model)
		}
		meshes = append(meshes, md)
	}

	merged := o.Processor.Merge(meshes)
	node, err := creator.New(true, o.Log).Create(doc, newName, merged)
	if err != nil {
		return mesh.NoNode, errors.Wrapf(err, "Unable to create merged %q", newName)
	}
	o.progress("merge", len(models), len(models))

	o.Log.Info("meshes merged",
		zap.String("mesh", newName),
		zap.Int("sources", len(models)),
		zap.Int("vertices", len(merged.Vertices)),
		zap.Int("faces", len(merged.Faces)))
	return node, nil
}
