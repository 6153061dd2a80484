package fbx

import (
	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"
)

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat64Slice(v interface{}) []float64 {
	switch a := v.(type) {
	case []float64:
		return a
	case []float32:
		r := make([]float64, len(a))
		for i := range a {
			r[i] = float64(a[i])
		}
		return r
	case []int32:
		r := make([]float64, len(a))
		for i := range a {
			r[i] = float64(a[i])
		}
		return r
	}
	return nil
}

func toIntSlice(v interface{}) []int {
	switch a := v.(type) {
	case []int32:
		r := make([]int, len(a))
		for i := range a {
			r[i] = int(a[i])
		}
		return r
	case []int64:
		r := make([]int, len(a))
		for i := range a {
			r[i] = int(a[i])
		}
		return r
	}
	return nil
}

func nodeString(n *rawfbx.Node, name string) string {
	if sub := n.GetNode(name); sub != nil && len(sub.Properties) > 0 {
		if s, ok := sub.Properties[0].(string); ok {
			return s
		}
	}
	return ""
}

func nodeInt(n *rawfbx.Node, name string, def int64) int64 {
	if sub := n.GetNode(name); sub != nil && len(sub.Properties) > 0 {
		if v, ok := toInt64(sub.Properties[0]); ok {
			return v
		}
	}
	return def
}

func nodeFloats(n *rawfbx.Node, name string) []float64 {
	if sub := n.GetNode(name); sub != nil && len(sub.Properties) > 0 {
		return toFloat64Slice(sub.Properties[0])
	}
	return nil
}

func nodeInts(n *rawfbx.Node, name string) []int {
	if sub := n.GetNode(name); sub != nil && len(sub.Properties) > 0 {
		return toIntSlice(sub.Properties[0])
	}
	return nil
}

func nodeMatrix(n *rawfbx.Node, name string) (mgl64.Mat4, bool) {
	a := nodeFloats(n, name)
	if len(a) < 16 {
		return mgl64.Ident4(), false
	}
	var m mgl64.Mat4
	copy(m[:], a[:16])
	return m, true
}

// Properties70 is view over "P" entries of object.
// Every entry is: name, type, label, flags, values...
type Properties70 struct {
	node *rawfbx.Node
}

func PropertiesOf(object *rawfbx.Node) Properties70 {
	return Properties70{node: object.GetNode("Properties70")}
}

func (p Properties70) Get(name string) []interface{} {
	if p.node == nil {
		return nil
	}
	for _, entry := range p.node.Nodes {
		if entry.Name != "P" || len(entry.Properties) < 4 {
			continue
		}
		if s, ok := entry.Properties[0].(string); ok && s == name {
			return entry.Properties[4:]
		}
	}
	return nil
}

func (p Properties70) Float(name string, def float64) float64 {
	values := p.Get(name)
	if len(values) == 0 {
		return def
	}
	if v, ok := toFloat64(values[0]); ok {
		return v
	}
	return def
}

func (p Properties70) Int(name string, def int64) int64 {
	values := p.Get(name)
	if len(values) == 0 {
		return def
	}
	if v, ok := toInt64(values[0]); ok {
		return v
	}
	return def
}

func (p Properties70) Bool(name string, def bool) bool {
	values := p.Get(name)
	if len(values) == 0 {
		return def
	}
	if v, ok := toInt64(values[0]); ok {
		return v != 0
	}
	return def
}

func (p Properties70) String(name string, def string) string {
	values := p.Get(name)
	if len(values) == 0 {
		return def
	}
	if s, ok := values[0].(string); ok {
		return s
	}
	return def
}

func (p Properties70) Vec3(name string, def mgl64.Vec3) mgl64.Vec3 {
	values := p.Get(name)
	if len(values) < 3 {
		return def
	}
	var r mgl64.Vec3
	for i := range r {
		v, ok := toFloat64(values[i])
		if !ok {
			return def
		}
		r[i] = v
	}
	return r
}

func (p Properties70) Vec2(name string, def mgl64.Vec2) mgl64.Vec2 {
	values := p.Get(name)
	if len(values) < 2 {
		return def
	}
	var r mgl64.Vec2
	for i := range r {
		v, ok := toFloat64(values[i])
		if !ok {
			return def
		}
		r[i] = v
	}
	return r
}
