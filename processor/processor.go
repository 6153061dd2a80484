package processor

import (
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
)

const (
	DefaultPositionTolerance = 0.02
	DefaultUVTolerance       = 0.01
)

// ProgressFunc is called at checkpoints of long running passes
type ProgressFunc func(stage string, done, total int)

// Processor runs geometry passes over MeshData. Passes mutate the mesh in place
// except Merge, which allocates new mesh.
type Processor struct {
	PositionTolerance float64
	UVTolerance       float64

	Log      *zap.Logger
	Progress ProgressFunc
}

type Option func(*Processor)

func WithTolerances(position, uv float64) Option {
	return func(p *Processor) {
		p.PositionTolerance = position
		p.UVTolerance = uv
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Processor) {
		if log != nil {
			p.Log = log
		}
	}
}

func WithProgress(f ProgressFunc) Option {
	return func(p *Processor) { p.Progress = f }
}

func New(opts ...Option) *Processor {
	p := &Processor{
		PositionTolerance: DefaultPositionTolerance,
		UVTolerance:       DefaultUVTolerance,
		Log:               zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Log = p.Log.Named("processor")
	return p
}

const progressStep = 1024

func (p *Processor) progress(stage string, done, total int) {
	if p.Progress == nil {
		return
	}
	if done == total || done%progressStep == 0 {
		p.Progress(stage, done, total)
	}
}

// ReduceFace is hook for level of detail generation
func (p *Processor) ReduceFace(md *mesh.MeshData) (*mesh.MeshData, error) {
	return nil, mesh.ErrNotImplemented
}
