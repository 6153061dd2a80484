package web

import (
	"bytes"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/optimize"
	"github.com/mogaika/mesh_optimizer/utils/fbxbuilder"
	"github.com/mogaika/mesh_optimizer/utils/gltfutils"
	"github.com/mogaika/mesh_optimizer/vfs"
	"github.com/mogaika/mesh_optimizer/webutils"
)

// ErrBadRequest marks errors caused by request parameters
var ErrBadRequest = errors.New("bad request")

type badRequest struct {
	error
}

func (e badRequest) Is(target error) bool { return target == ErrBadRequest }

func badRequestf(format string, args ...interface{}) error {
	return badRequest{errors.Errorf(format, args...)}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.Hub.Error("%v", err)
	if errors.Is(err, ErrBadRequest) {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
	} else {
		webutils.WriteError(w, err)
	}
}

// openDocument reads fbx from multipart "data" field or from ?file= inside data directory.
// Cached scenes are returned only when mutable is false.
func (s *Server) openDocument(w http.ResponseWriter, r *http.Request, mutable bool) (*fbxbuilder.FBXBuilder, string, error) {
	if file := r.URL.Query().Get("file"); file != "" {
		if s.Data == nil {
			return nil, "", badRequestf("Param file is disabled")
		}
		f, err := vfs.DirectoryGetFile(s.Data, file)
		if err != nil {
			return nil, "", badRequest{err}
		}

		var scene *fbx.Scene
		if mutable {
			scene, err = fbx.Open(f.Path(), fbx.WithLogger(s.Log))
		} else {
			scene, err = s.Cache.Open(f.Path())
		}
		if err != nil {
			return nil, "", err
		}
		return fbxbuilder.FromScene(scene), f.Name(), nil
	}

	if r.Method != http.MethodPost {
		return nil, "", badRequestf("Invalid http method %q", r.Method)
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.Server.MaxUploadMB<<20)
	f, header, err := r.FormFile("data")
	if err != nil {
		return nil, "", badRequest{errors.Wrapf(err, "File stream getting error")}
	}
	defer f.Close()

	scene, err := fbx.Read(f, fbx.WithLogger(s.Log))
	if err != nil {
		return nil, "", badRequest{errors.Wrapf(err, "Unable to parse %q", header.Filename)}
	}
	return fbxbuilder.FromScene(scene), header.Filename, nil
}

// selectModels returns ?param ids or every mesh of document
func selectModels(r *http.Request, param string, doc *fbxbuilder.FBXBuilder) ([]mesh.NodeID, error) {
	ids, err := webutils.QueryIds(r, param)
	if err != nil {
		return nil, badRequest{err}
	}
	if len(ids) == 0 {
		return doc.Meshes(), nil
	}
	known := make(map[mesh.NodeID]bool)
	for _, id := range doc.Meshes() {
		known[id] = true
	}
	result := make([]mesh.NodeID, len(ids))
	for i, id := range ids {
		if !known[mesh.NodeID(id)] {
			return nil, badRequestf("Model %d is not a mesh", id)
		}
		result[i] = mesh.NodeID(id)
	}
	return result, nil
}

func (s *Server) optimizer() *optimize.Optimizer {
	return optimize.NewFromConfig(s.Config, s.Log, s.Hub.Progress)
}

func resultName(source, suffix, ext string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "scene"
	}
	return base + suffix + ext
}

// textureDirectory is directory of ?file= document, or data directory for uploads
func (s *Server) textureDirectory(r *http.Request) vfs.Directory {
	if s.Data == nil {
		return nil
	}
	file := r.URL.Query().Get("file")
	if file == "" {
		return s.Data
	}
	e, err := s.Data.GetElement(path.Dir(path.Clean("/" + filepath.ToSlash(file))))
	if err != nil {
		return nil
	}
	d, _ := e.(vfs.Directory)
	return d
}

// writeDocument sends fbx, or zip with fbx and its textures when ?zip is set
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, doc *fbxbuilder.FBXBuilder, name string) {
	ascii, err := webutils.QueryBool(r, "ascii", s.Config.Export.ASCII)
	if err != nil {
		s.writeError(w, badRequest{err})
		return
	}
	zipped, err := webutils.QueryBool(r, "zip", false)
	if err != nil {
		s.writeError(w, badRequest{err})
		return
	}

	var buf bytes.Buffer
	if zipped {
		if d := s.textureDirectory(r); d != nil {
			added, err := doc.AddTextureFiles(d)
			if err != nil {
				s.writeError(w, err)
				return
			}
			s.Log.Debug("textures bundled", zap.String("name", name), zap.Int("count", added))
		}
		err = doc.WriteZip(&buf, name)
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".zip"
	} else if ascii {
		err = doc.WriteASCII(&buf)
	} else {
		err = doc.Write(&buf)
	}
	if err != nil {
		s.writeError(w, errors.Wrapf(err, "Unable to write %q", name))
		return
	}
	webutils.WriteFile(w, &buf, name)
}

// HandlerAjaxFiles lists fbx files of data directory
func (s *Server) HandlerAjaxFiles(w http.ResponseWriter, r *http.Request) {
	if s.Data == nil {
		webutils.WriteJson(w, []string{})
		return
	}
	if files, err := vfs.ListWithExt(s.Data, ".fbx"); err != nil {
		s.writeError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

type MeshInfo struct {
	Id        int64
	Name      string
	Vertices  int
	Faces     int
	Materials int
	Skinned   bool
	Error     string `json:",omitempty"`
}

func (s *Server) HandlerAjaxMeshes(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.openDocument(w, r, false)
	if err != nil {
		s.writeError(w, err)
		return
	}

	o := s.optimizer()
	models := doc.Meshes()
	result := make([]MeshInfo, 0, len(models))
	for _, model := range models {
		info := MeshInfo{Id: int64(model), Name: doc.NodeName(model)}
		if md, _, err := o.Load(doc, model); err != nil {
			info.Error = err.Error()
		} else {
			info.Vertices = len(md.Vertices)
			info.Faces = len(md.Faces)
			info.Materials = len(md.Materials)
			info.Skinned = md.HasSkin
		}
		result = append(result, info)
	}
	webutils.WriteJson(w, result)
}

func (s *Server) HandlerOptimize(w http.ResponseWriter, r *http.Request) {
	normals, err := webutils.QueryBool(r, "normals", s.Config.Processing.GenerateNormals)
	if err != nil {
		s.writeError(w, badRequest{err})
		return
	}
	tangents, err := webutils.QueryBool(r, "tangents", s.Config.Processing.GenerateTangents)
	if err != nil {
		s.writeError(w, badRequest{err})
		return
	}

	doc, name, err := s.openDocument(w, r, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	models, err := selectModels(r, "model", doc)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.Hub.Info("Optimizing %d meshes of %s", len(models), name)
	o := s.optimizer()
	for i, model := range models {
		s.Hub.Progress("optimize", i, len(models))
		if _, err := o.Optimize(doc, model, normals, tangents); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.Hub.Progress("optimize", len(models), len(models))

	s.writeDocument(w, r, doc, resultName(name, "_optimized", ".fbx"))
}

func (s *Server) HandlerMerge(w http.ResponseWriter, r *http.Request) {
	newName := r.URL.Query().Get("name")
	if newName == "" {
		newName = s.Config.Export.MergedName
	}

	doc, name, err := s.openDocument(w, r, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	models, err := selectModels(r, "models", doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(models) == 0 {
		s.writeError(w, badRequestf("No meshes in %q", name))
		return
	}

	s.Hub.Info("Merging %d meshes of %s into %s", len(models), name, newName)
	if _, err := s.optimizer().Merge(doc, models, newName); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeDocument(w, r, doc, resultName(name, "_merged", ".fbx"))
}

func (s *Server) HandlerExportGlb(w http.ResponseWriter, r *http.Request) {
	doc, name, err := s.openDocument(w, r, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	models, err := selectModels(r, "model", doc)
	if err != nil {
		s.writeError(w, err)
		return
	}

	o := s.optimizer()
	gdoc := gltfutils.NewDocument()
	for _, model := range models {
		md, _, err := o.Load(doc, model)
		if err != nil {
			s.writeError(w, err)
			return
		}
		o.Processor.Transform(md, doc.GeometricTransform(model))
		if _, err := gltfutils.ExportMesh(gdoc, doc.NodeName(model), md, gltfutils.Options{
			Scene:      doc,
			Node:       model,
			ExportSkin: s.Config.Export.CreateSkin,
		}); err != nil {
			s.Log.Warn("mesh skipped", zap.Int64("model", int64(model)), zap.Error(err))
		}
	}

	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, gdoc); err != nil {
		s.writeError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, resultName(name, "", ".glb"))
}
