package fbx

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"

	"github.com/mogaika/mesh_optimizer/utils"
)

const (
	KindModel         = "Model"
	KindGeometry      = "Geometry"
	KindMaterial      = "Material"
	KindTexture       = "Texture"
	KindVideo         = "Video"
	KindDeformer      = "Deformer"
	KindPose          = "Pose"
	KindNodeAttribute = "NodeAttribute"
)

const nameSeparator = "\x00\x01"

// Object is any node of "Objects" section: (id, "name\x00\x01Class", type)
type Object struct {
	Id    int64
	Name  string
	Class string
	Type  string
	Node  *rawfbx.Node
}

func SplitName(full string) (name, class string) {
	if i := strings.Index(full, nameSeparator); i >= 0 {
		return full[:i], full[i+len(nameSeparator):]
	}
	return full, ""
}

func JoinName(name, class string) string {
	return name + nameSeparator + class
}

func objectFromNode(n *rawfbx.Node) (*Object, bool) {
	if len(n.Properties) < 2 {
		return nil, false
	}
	id, ok := n.Properties[0].(int64)
	if !ok {
		return nil, false
	}
	o := &Object{Id: id, Node: n}
	if s, ok := n.Properties[1].(string); ok {
		o.Name, o.Class = SplitName(s)
		o.Name = utils.DecodeName(o.Name)
	}
	if len(n.Properties) > 2 {
		if s, ok := n.Properties[2].(string); ok {
			o.Type = s
		}
	}
	return o, true
}

func (o *Object) Kind() string { return o.Node.Name }

func (o *Object) Properties() Properties70 { return PropertiesOf(o.Node) }

// Model is transform node. Rotations are euler XYZ in degrees.
type Model struct {
	*Object

	Translation mgl64.Vec3
	Rotation    mgl64.Vec3
	Scaling     mgl64.Vec3

	PreRotation    mgl64.Vec3
	PostRotation   mgl64.Vec3
	RotationOffset mgl64.Vec3
	RotationPivot  mgl64.Vec3
	ScalingOffset  mgl64.Vec3
	ScalingPivot   mgl64.Vec3

	GeometricTranslation mgl64.Vec3
	GeometricRotation    mgl64.Vec3
	GeometricScaling     mgl64.Vec3
}

func decodeModel(o *Object) *Model {
	p := o.Properties()
	one := mgl64.Vec3{1, 1, 1}
	return &Model{
		Object:               o,
		Translation:          p.Vec3("Lcl Translation", mgl64.Vec3{}),
		Rotation:             p.Vec3("Lcl Rotation", mgl64.Vec3{}),
		Scaling:              p.Vec3("Lcl Scaling", one),
		PreRotation:          p.Vec3("PreRotation", mgl64.Vec3{}),
		PostRotation:         p.Vec3("PostRotation", mgl64.Vec3{}),
		RotationOffset:       p.Vec3("RotationOffset", mgl64.Vec3{}),
		RotationPivot:        p.Vec3("RotationPivot", mgl64.Vec3{}),
		ScalingOffset:        p.Vec3("ScalingOffset", mgl64.Vec3{}),
		ScalingPivot:         p.Vec3("ScalingPivot", mgl64.Vec3{}),
		GeometricTranslation: p.Vec3("GeometricTranslation", mgl64.Vec3{}),
		GeometricRotation:    p.Vec3("GeometricRotation", mgl64.Vec3{}),
		GeometricScaling:     p.Vec3("GeometricScaling", one),
	}
}

func translate(v mgl64.Vec3) mgl64.Mat4 { return mgl64.Translate3D(v[0], v[1], v[2]) }

// LocalMatrix is T * Roff * Rp * Rpre * R * Rpost^-1 * Rp^-1 * Soff * Sp * S * Sp^-1
func (m *Model) LocalMatrix() mgl64.Mat4 {
	return translate(m.Translation).
		Mul4(translate(m.RotationOffset)).
		Mul4(translate(m.RotationPivot)).
		Mul4(utils.EulerXYZToMat4(m.PreRotation)).
		Mul4(utils.EulerXYZToMat4(m.Rotation)).
		Mul4(utils.EulerXYZToMat4(m.PostRotation).Inv()).
		Mul4(translate(m.RotationPivot.Mul(-1))).
		Mul4(translate(m.ScalingOffset)).
		Mul4(translate(m.ScalingPivot)).
		Mul4(mgl64.Scale3D(m.Scaling[0], m.Scaling[1], m.Scaling[2])).
		Mul4(translate(m.ScalingPivot.Mul(-1)))
}

func (m *Model) GeometricMatrix() mgl64.Mat4 {
	return utils.TRS(m.GeometricTranslation, m.GeometricRotation, m.GeometricScaling)
}

type Geometry struct {
	*Object
}

type PoseNode struct {
	Node   int64
	Matrix mgl64.Mat4
}

type Pose struct {
	*Object
	Nodes []PoseNode
}

func decodePose(o *Object) *Pose {
	p := &Pose{Object: o}
	for _, pn := range o.Node.GetNodes("PoseNode") {
		node := nodeInt(pn, "Node", 0)
		m, _ := nodeMatrix(pn, "Matrix")
		p.Nodes = append(p.Nodes, PoseNode{Node: node, Matrix: m})
	}
	return p
}
