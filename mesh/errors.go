package mesh

import "github.com/pkg/errors"

var (
	ErrUnsupportedTopology        = errors.New("unsupported topology")
	ErrUnsupportedMaterialMapping = errors.New("unsupported material mapping")
	ErrDimensionMismatch          = errors.New("dimension mismatch")
	ErrNotImplemented             = errors.New("not implemented")
)
