package fbxbuilder

import (
	"io"
	"path/filepath"
	"sort"

	"github.com/mogaika/fbx/builders/bfbx73"
	"go.uber.org/zap"

	rawfbx "github.com/mogaika/fbx"

	"github.com/mogaika/mesh_optimizer/fbx"
)

const FBX_CREATOR = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
const FBX_APPLICATION_VENDOR = "mesh_optimizer"
const FBX_APPLICATION_NAME = "mesh_optimizer"
const FBX_APPLICATION_VERSION = "1.0"
const FBX_DATE_TIME_GMT = "01/01/1970 00:00:00.000"
const FBX_CREATION_TIME = "1970-01-01 10:00:00:000"

var FBX_FILE_ID []byte = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// FBXBuilder writes canonical meshes, skins and poses into fbx scene
type FBXBuilder struct {
	scene *fbx.Scene
	files map[string][]byte
	log   *zap.Logger

	// materials created or reused by name
	materials map[string]int64
}

// NewFBXBuilder creates empty 7.4 document
func NewFBXBuilder(filename string, opts ...fbx.Option) *FBXBuilder {
	f := &FBXBuilder{
		files:     make(map[string][]byte),
		materials: make(map[string]int64),
	}
	doc := rawfbx.NewFBX(7400)
	f.createHeaders(&doc.Root, filename)
	f.scene = fbx.NewScene(doc, opts...)
	f.log = f.scene.Log().Named("builder")
	return f
}

// FromScene wraps loaded scene, new objects are appended to it
func FromScene(scene *fbx.Scene) *FBXBuilder {
	f := &FBXBuilder{
		scene:     scene,
		files:     make(map[string][]byte),
		log:       scene.Log().Named("builder"),
		materials: make(map[string]int64),
	}
	for _, m := range scene.Objects(fbx.KindMaterial) {
		if _, exists := f.materials[m.Name]; !exists {
			f.materials[m.Name] = m.Id
		}
	}
	return f
}

func (f *FBXBuilder) createHeaders(root *rawfbx.Node, filename string) {
	root.AddNodes(
		bfbx73.FBXHeaderExtension().AddNodes(
			bfbx73.FBXHeaderVersion(1003),
			bfbx73.FBXVersion(7400),
			bfbx73.EncryptionType(0),
			bfbx73.CreationTimeStamp().AddNodes(
				bfbx73.Version(1000),
				/*
					bfbx73.Year(int32(currentTime.Year())),
					bfbx73.Month(int32(currentTime.Month())),
					bfbx73.Day(int32(currentTime.Day())),
					bfbx73.Hour(int32(currentTime.Hour())),
					bfbx73.Minute(int32(currentTime.Minute())),
					bfbx73.Second(int32(currentTime.Second())),
					bfbx73.Millisecond(0),
				*/
				bfbx73.Year(1970),
				bfbx73.Month(1),
				bfbx73.Day(1),
				bfbx73.Hour(10),
				bfbx73.Minute(0),
				bfbx73.Second(0),
				bfbx73.Millisecond(0),
			),
			bfbx73.Creator(FBX_CREATOR),
			bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
				bfbx73.Type("UserData"),
				bfbx73.Version(100),
				bfbx73.MetaData().AddNodes(
					bfbx73.Version(100),
					bfbx73.Title(""),
					bfbx73.Subject(""),
					bfbx73.Author(""),
					bfbx73.Keywords(""),
					bfbx73.Revision(""),
					bfbx73.Comment(""),
				),
				bfbx73.Properties70().AddNodes(
					bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
					bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
					bfbx73.P("Original", "Compound", "", ""),
					bfbx73.P("Original|ApplicationVendor", "KString", "", "", FBX_APPLICATION_VENDOR),
					bfbx73.P("Original|ApplicationName", "KString", "", "", FBX_APPLICATION_NAME),
					bfbx73.P("Original|ApplicationVersion", "KString", "", "", FBX_APPLICATION_VERSION),
					bfbx73.P("Original|DateTime_GMT", "DateTime", "", "", FBX_DATE_TIME_GMT),
					bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)),
					bfbx73.P("LastSaved", "Compound", "", ""),
					bfbx73.P("LastSaved|ApplicationVendor", "KString", "", "", FBX_APPLICATION_VENDOR),
					bfbx73.P("LastSaved|ApplicationName", "KString", "", "", FBX_APPLICATION_NAME),
					bfbx73.P("LastSaved|ApplicationVersion", "KString", "", "", FBX_APPLICATION_VERSION),
					bfbx73.P("LastSaved|DateTime_GMT", "DateTime", "", "", FBX_DATE_TIME_GMT),
				),
			),
		),
		bfbx73.FileId(FBX_FILE_ID),
		bfbx73.CreationTime(FBX_CREATION_TIME),
		// bfbx73.CreationTime(currentTime.Format("2006-01-02 15:04:05:000")),
		bfbx73.Creator(FBX_CREATOR),
		bfbx73.GlobalSettings().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
				bfbx73.P("UpAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("FrontAxis", "int", "Integer", "", int32(2)),
				bfbx73.P("FrontAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("CoordAxis", "int", "Integer", "", int32(0)),
				bfbx73.P("CoordAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("OriginalUpAxis", "int", "Integer", "", int32(1)),
				bfbx73.P("OriginalUpAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
				bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
				bfbx73.P("AmbientColor", "ColorRGB", "Color", "", float64(0), float64(0), float64(0)),
			),
		),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(1000000, "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		bfbx73.Definitions().AddNodes(
			bfbx73.Version(100),
			bfbx73.Count(1),
			bfbx73.ObjectType("GlobalSettings").AddNodes(
				bfbx73.Count(1),
			),
			bfbx73.ObjectType("Model").AddNodes(
				bfbx73.Count(0),
				bfbx73.PropertyTemplate("FbxNode").AddNodes(
					bfbx73.Properties70().AddNodes(
						bfbx73.P("QuaternionInterpolate", "enum", "", "", int32(0)),
						bfbx73.P("Show", "bool", "", "", int32(1)),
						bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
						bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
						bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
						bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
						bfbx73.P("Visibility Inheritance", "Visibility Inheritance", "", "", int32(1)),
					),
				),
			),
			bfbx73.ObjectType("Material").AddNodes(
				bfbx73.Count(0),
				bfbx73.PropertyTemplate("FbxSurfacePhong").AddNodes(
					bfbx73.Properties70().AddNodes(
						bfbx73.P("ShadingModel", "KString", "", "", "Phong"),
						bfbx73.P("MultiLayer", "bool", "", "", int32(0)),
						bfbx73.P("EmissiveColor", "Color", "", "A", float64(0), float64(0), float64(0)),
						bfbx73.P("EmissiveFactor", "Number", "", "A", float64(1)),
						bfbx73.P("AmbientColor", "Color", "", "A", float64(0.2), float64(0.2), float64(0.2)),
						bfbx73.P("AmbientFactor", "Number", "", "A", float64(1)),
						bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
						bfbx73.P("DiffuseFactor", "Number", "", "A", float64(1)),
						bfbx73.P("SpecularColor", "Color", "", "A", float64(0.2), float64(0.2), float64(0.2)),
						bfbx73.P("SpecularFactor", "Number", "", "A", float64(1)),
					),
				),
			),
			bfbx73.ObjectType("Texture").AddNodes(
				bfbx73.Count(0),
				bfbx73.PropertyTemplate("FbxFileTexture").AddNodes(
					bfbx73.Properties70().AddNodes(
						bfbx73.P("TextureTypeUse", "enum", "", "", int32(0)),
						bfbx73.P("Texture alpha", "Number", "", "A", float64(1)),
						bfbx73.P("CurrentMappingType", "enum", "", "", int32(0)),
						bfbx73.P("WrapModeU", "enum", "", "", int32(0)),
						bfbx73.P("WrapModeV", "enum", "", "", int32(0)),
						bfbx73.P("UVSwap", "bool", "", "", int32(0)),
						bfbx73.P("PremultiplyAlpha", "bool", "", "", int32(1)),
						bfbx73.P("UseMaterial", "bool", "", "", int32(0)),
						bfbx73.P("UseMipMap", "bool", "", "", int32(0)),
					),
				),
			),
			bfbx73.ObjectType("Video").AddNodes(
				bfbx73.Count(0),
				bfbx73.PropertyTemplate("FbxVideo").AddNodes(
					bfbx73.Properties70().AddNodes(
						bfbx73.P("ImageSequence", "bool", "", "", int32(0)),
						bfbx73.P("Width", "int", "Integer", "", int32(0)),
						bfbx73.P("Height", "int", "Integer", "", int32(0)),
						bfbx73.P("Path", "KString", "XRefUrl", "", ""),
					),
				),
			),
			bfbx73.ObjectType("Geometry").AddNodes(
				bfbx73.Count(0),
				bfbx73.PropertyTemplate("FbxMesh").AddNodes(
					bfbx73.Properties70().AddNodes(
						bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
						bfbx73.P("Primary Visibility", "bool", "", "", int32(1)),
						bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
						bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
					),
				),
			),
			bfbx73.ObjectType("NodeAttribute").AddNodes(
				bfbx73.Count(0),
				bfbx73.PropertyTemplate("FbxNull").AddNodes(
					bfbx73.Properties70().AddNodes(
						bfbx73.P("Size", "double", "Number", "", float64(100)),
						bfbx73.P("Look", "enum", "", "", int32(1)),
					),
				),
			),
		),
		bfbx73.Objects(),
		bfbx73.Connections(),
		bfbx73.Takes().AddNodes(
			bfbx73.Current(""),
		),
	)
}

func (f *FBXBuilder) countDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.Root().GetNode("Objects").Nodes {
		if count, ex := counts[object.Name]; ex {
			counts[object.Name] = count + 1
		} else {
			counts[object.Name] = 1
		}
	}

	definitions := f.Root().GetOrAddNode(bfbx73.Definitions())
	totalCount := int32(1) // 1 for GlobalSettings

	for _, objectType := range definitions.GetNodes("ObjectType") {
		name, _ := objectType.Properties[0].(string)
		if name == "GlobalSettings" {
			continue
		}
		if _, ex := counts[name]; !ex {
			objectType.GetOrAddNode(bfbx73.Count(0)).Properties[0] = int32(0)
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		count := counts[name]
		totalCount += count

		var objectType *rawfbx.Node
		for _, ot := range definitions.GetNodes("ObjectType") {
			if ot.Properties[0].(string) == name {
				objectType = ot
			}
		}
		if objectType == nil {
			objectType = bfbx73.ObjectType(name)
			definitions.AddNode(objectType)
		}

		objectType.GetOrAddNode(bfbx73.Count(0)).Properties[0] = count
		f.log.Debug("definition counted", zap.String("type", name), zap.Int32("count", count))
	}

	definitions.GetOrAddNode(bfbx73.Count(0)).Properties[0] = totalCount
}

func (f *FBXBuilder) Scene() *fbx.Scene  { return f.scene }
func (f *FBXBuilder) Root() *rawfbx.Node { return f.scene.Root() }
func (f *FBXBuilder) GenerateId() int64  { return f.scene.GenerateID() }

func (f *FBXBuilder) Write(w io.Writer) error {
	f.countDefinitions()
	return f.scene.Write(w)
}

func (f *FBXBuilder) WriteASCII(w io.Writer) error {
	f.countDefinitions()
	return f.scene.WriteASCII(w)
}

func (f *FBXBuilder) AddObjects(nodes ...*rawfbx.Node) error {
	for _, n := range nodes {
		if _, err := f.scene.AddObject(n); err != nil {
			return err
		}
	}
	return nil
}

func (f *FBXBuilder) AddConnections(nodes ...*rawfbx.Node) {
	for _, n := range nodes {
		kind, _ := n.Properties[0].(string)
		child, _ := n.Properties[1].(int64)
		parent, _ := n.Properties[2].(int64)
		property := ""
		if len(n.Properties) > 3 {
			property, _ = n.Properties[3].(string)
		}
		f.scene.Connect(kind, child, parent, property)
	}
}
