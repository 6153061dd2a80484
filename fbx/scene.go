package fbx

import (
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
)

const (
	ConnectionObject   = "OO"
	ConnectionProperty = "OP"
)

// ids below are reserved for document and manually created objects
const firstGeneratedId = 1000000

// maximum hierarchy depth, guards against cyclic parenting
const maxDepth = 256

type Connection struct {
	Kind     string
	Child    int64
	Parent   int64
	Property string

	node *rawfbx.Node
}

// Scene is indexed view over fbx node tree
type Scene struct {
	f   *rawfbx.FBX
	log *zap.Logger

	lastId int64

	objectsNode     *rawfbx.Node
	connectionsNode *rawfbx.Node

	objects     map[int64]*Object
	models      map[int64]*Model
	byParent    map[int64][]*Connection
	byChild     map[int64][]*Connection
	connections []*Connection
}

type Option func(*Scene)

func WithLogger(log *zap.Logger) Option {
	return func(s *Scene) {
		if log != nil {
			s.log = log.Named("fbx")
		}
	}
}

func NewScene(f *rawfbx.FBX, opts ...Option) *Scene {
	s := &Scene{
		f:      f,
		log:    zap.NewNop(),
		lastId: firstGeneratedId,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.objectsNode = s.Root().GetOrAddNode(bfbx73.Objects())
	s.connectionsNode = s.Root().GetOrAddNode(bfbx73.Connections())
	s.reindex()
	return s
}

func Read(r io.ReadSeeker, opts ...Option) (*Scene, error) {
	f, err := rawfbx.Read(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to parse fbx")
	}
	return NewScene(f, opts...), nil
}

func Open(path string, opts ...Option) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open %q", path)
	}
	defer file.Close()

	s, err := Read(file, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read %q", path)
	}
	return s, nil
}

func (s *Scene) reindex() {
	s.objects = make(map[int64]*Object)
	s.models = make(map[int64]*Model)
	s.byParent = make(map[int64][]*Connection)
	s.byChild = make(map[int64][]*Connection)
	s.connections = s.connections[:0]

	for _, n := range s.objectsNode.Nodes {
		s.indexObject(n)
	}
	for _, n := range s.connectionsNode.Nodes {
		s.indexConnection(n)
	}

	s.log.Debug("scene indexed",
		zap.Int("objects", len(s.objects)),
		zap.Int("models", len(s.models)),
		zap.Int("connections", len(s.connections)))
}

func (s *Scene) indexObject(n *rawfbx.Node) *Object {
	o, ok := objectFromNode(n)
	if !ok {
		return nil
	}
	s.objects[o.Id] = o
	if o.Kind() == KindModel {
		s.models[o.Id] = decodeModel(o)
	}
	if o.Id > s.lastId {
		s.lastId = o.Id
	}
	return o
}

func (s *Scene) indexConnection(n *rawfbx.Node) *Connection {
	if n.Name != "C" || len(n.Properties) < 3 {
		return nil
	}
	kind, ok1 := n.Properties[0].(string)
	child, ok2 := n.Properties[1].(int64)
	parent, ok3 := n.Properties[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		s.log.Warn("malformed connection skipped", zap.Int("properties", len(n.Properties)))
		return nil
	}
	c := &Connection{Kind: kind, Child: child, Parent: parent, node: n}
	if len(n.Properties) > 3 {
		c.Property, _ = n.Properties[3].(string)
	}
	s.connections = append(s.connections, c)
	s.byParent[parent] = append(s.byParent[parent], c)
	s.byChild[child] = append(s.byChild[child], c)
	return c
}

func (s *Scene) Root() *rawfbx.Node { return &s.f.Root }
func (s *Scene) Log() *zap.Logger   { return s.log }

func (s *Scene) Object(id int64) *Object { return s.objects[id] }
func (s *Scene) Model(id int64) *Model   { return s.models[id] }

// Objects lists objects of kind in file order
func (s *Scene) Objects(kind string) []*Object {
	result := make([]*Object, 0)
	for _, n := range s.objectsNode.Nodes {
		if n.Name != kind || len(n.Properties) == 0 {
			continue
		}
		if id, ok := n.Properties[0].(int64); ok {
			if o := s.objects[id]; o != nil {
				result = append(result, o)
			}
		}
	}
	return result
}

func (s *Scene) Connections() []*Connection { return s.connections }

// Children returns objects of kind connected to parent object-to-object,
// in connection order. Empty kind matches everything.
func (s *Scene) Children(parent int64, kind string) []*Object {
	result := make([]*Object, 0)
	for _, c := range s.byParent[parent] {
		if c.Kind != ConnectionObject {
			continue
		}
		if o := s.objects[c.Child]; o != nil && (kind == "" || o.Kind() == kind) {
			result = append(result, o)
		}
	}
	return result
}

// PropertyChildren returns objects connected to property of parent
func (s *Scene) PropertyChildren(parent int64, property string) []*Object {
	result := make([]*Object, 0)
	for _, c := range s.byParent[parent] {
		if c.Kind != ConnectionProperty || c.Property != property {
			continue
		}
		if o := s.objects[c.Child]; o != nil {
			result = append(result, o)
		}
	}
	return result
}

func (s *Scene) Parents(child int64, kind string) []*Object {
	result := make([]*Object, 0)
	for _, c := range s.byChild[child] {
		if c.Kind != ConnectionObject {
			continue
		}
		if o := s.objects[c.Parent]; o != nil && (kind == "" || o.Kind() == kind) {
			result = append(result, o)
		}
	}
	return result
}

// Parent returns parent model. Models attached to scene root have no parent.
func (s *Scene) Parent(id mesh.NodeID) (mesh.NodeID, bool) {
	for _, c := range s.byChild[int64(id)] {
		if c.Kind != ConnectionObject {
			continue
		}
		if _, ok := s.models[c.Parent]; ok {
			return mesh.NodeID(c.Parent), true
		}
	}
	return mesh.NoNode, false
}

func (s *Scene) NodeName(id mesh.NodeID) string {
	if o := s.objects[int64(id)]; o != nil {
		return o.Name
	}
	return ""
}

func (s *Scene) LocalTransform(id mesh.NodeID) mgl64.Mat4 {
	if m := s.models[int64(id)]; m != nil {
		return m.LocalMatrix()
	}
	return mgl64.Ident4()
}

func (s *Scene) GlobalTransform(id mesh.NodeID) mgl64.Mat4 {
	result := mgl64.Ident4()
	for depth := 0; id != mesh.NoNode && depth < maxDepth; depth++ {
		result = s.LocalTransform(id).Mul4(result)
		parent, ok := s.Parent(id)
		if !ok {
			break
		}
		id = parent
	}
	return result
}

func (s *Scene) GeometricTransform(id mesh.NodeID) mgl64.Mat4 {
	if m := s.models[int64(id)]; m != nil {
		return m.GeometricMatrix()
	}
	return mgl64.Ident4()
}

// Meshes lists models having mesh geometry attached
func (s *Scene) Meshes() []*Model {
	result := make([]*Model, 0)
	for _, o := range s.Objects(KindModel) {
		if s.GeometryOf(o.Id) != nil {
			result = append(result, s.models[o.Id])
		}
	}
	return result
}

func (s *Scene) GeometryOf(model int64) *Geometry {
	for _, o := range s.Children(model, KindGeometry) {
		if o.Type == "Mesh" {
			return &Geometry{Object: o}
		}
	}
	return nil
}

func (s *Scene) Poses() []*Pose {
	result := make([]*Pose, 0)
	for _, o := range s.Objects(KindPose) {
		result = append(result, decodePose(o))
	}
	return result
}

func (s *Scene) GenerateID() int64 {
	s.lastId++
	return s.lastId
}

// AddObject appends object node to "Objects" section
func (s *Scene) AddObject(n *rawfbx.Node) (*Object, error) {
	o, ok := objectFromNode(n)
	if !ok {
		return nil, errors.Errorf("Node %q is not an object", n.Name)
	}
	if _, exists := s.objects[o.Id]; exists {
		return nil, errors.Errorf("Object with id %d already exists", o.Id)
	}
	s.objectsNode.AddNode(n)
	return s.indexObject(n), nil
}

func (s *Scene) Connect(kind string, child, parent int64, property string) {
	var n *rawfbx.Node
	if property != "" {
		n = bfbx73.C(kind, child, parent, property)
	} else {
		n = bfbx73.C(kind, child, parent)
	}
	s.connectionsNode.AddNode(n)
	s.indexConnection(n)
}

// RemoveObject drops object with all connections to it and pose entries referencing it
func (s *Scene) RemoveObject(id int64) {
	s.removeObjects(map[int64]bool{id: true})
}

func (s *Scene) removeObjects(ids map[int64]bool) {
	objects := s.objectsNode.Nodes[:0]
	for _, n := range s.objectsNode.Nodes {
		if len(n.Properties) > 0 {
			if id, ok := n.Properties[0].(int64); ok && ids[id] {
				continue
			}
		}
		if n.Name == KindPose {
			removePoseNodes(n, ids)
		}
		objects = append(objects, n)
	}
	s.objectsNode.Nodes = objects

	connections := s.connectionsNode.Nodes[:0]
	for _, n := range s.connectionsNode.Nodes {
		if len(n.Properties) >= 3 {
			child, _ := n.Properties[1].(int64)
			parent, _ := n.Properties[2].(int64)
			if ids[child] || ids[parent] {
				continue
			}
		}
		connections = append(connections, n)
	}
	s.connectionsNode.Nodes = connections

	s.reindex()
}

func removePoseNodes(pose *rawfbx.Node, ids map[int64]bool) {
	nodes := pose.Nodes[:0]
	count := int32(0)
	for _, n := range pose.Nodes {
		if n.Name == "PoseNode" {
			if ids[nodeInt(n, "Node", 0)] {
				continue
			}
			count++
		}
		nodes = append(nodes, n)
	}
	pose.Nodes = nodes
	if nb := pose.GetNode("NbPoseNodes"); nb != nil && len(nb.Properties) > 0 {
		nb.Properties[0] = count
	}
}

// ReplaceModel moves children and parent of old model to new one,
// then removes old model with its geometry and deformers
func (s *Scene) ReplaceModel(oldId, newId mesh.NodeID) error {
	old, replacement := int64(oldId), int64(newId)
	if s.models[old] == nil {
		return errors.Errorf("Model %d not found", old)
	}
	if s.models[replacement] == nil {
		return errors.Errorf("Model %d not found", replacement)
	}

	// replacement takes parent of old
	for _, c := range s.byChild[replacement] {
		if c.Kind == ConnectionObject && (c.Parent == 0 || s.models[c.Parent] != nil) {
			c.node.Properties[2] = int64(-1)
		}
	}
	for _, c := range s.byChild[old] {
		if c.Kind == ConnectionObject && (c.Parent == 0 || s.models[c.Parent] != nil) {
			c.node.Properties[1] = replacement
		}
	}
	for _, c := range s.byParent[old] {
		if c.Kind == ConnectionObject && s.models[c.Child] != nil {
			c.node.Properties[2] = replacement
		}
	}
	// drop placeholders
	connections := s.connectionsNode.Nodes[:0]
	for _, n := range s.connectionsNode.Nodes {
		if len(n.Properties) >= 3 {
			if parent, ok := n.Properties[2].(int64); ok && parent == -1 {
				continue
			}
		}
		connections = append(connections, n)
	}
	s.connectionsNode.Nodes = connections
	s.reindex()

	remove := map[int64]bool{old: true}
	for _, geometry := range s.Children(old, KindGeometry) {
		if len(s.Parents(geometry.Id, KindModel)) > 1 {
			// instanced
			continue
		}
		remove[geometry.Id] = true
		for _, skin := range s.Children(geometry.Id, KindDeformer) {
			remove[skin.Id] = true
			for _, cluster := range s.Children(skin.Id, KindDeformer) {
				remove[cluster.Id] = true
			}
		}
	}
	for _, attribute := range s.Children(old, KindNodeAttribute) {
		remove[attribute.Id] = true
	}
	s.removeObjects(remove)

	s.log.Debug("model replaced", zap.Int64("old", old), zap.Int64("new", replacement))
	return nil
}

// Write serializes scene in binary format
func (s *Scene) Write(w io.Writer) error {
	tempFile, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "Unable to create temp file")
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := rawfbx.Write(tempFile, s.f); err != nil {
		return errors.Wrapf(err, "Unable to encode fbx")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}
