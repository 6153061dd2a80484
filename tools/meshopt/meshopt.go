package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/config"
	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/logger"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/optimize"
	"github.com/mogaika/mesh_optimizer/utils"
	"github.com/mogaika/mesh_optimizer/utils/fbxbuilder"
	"github.com/mogaika/mesh_optimizer/utils/gltfutils"
	"github.com/mogaika/mesh_optimizer/vfs"
)

type options struct {
	configPath string
	in, out    string
	normals    bool
	tangents   bool
	merge      bool
	name       string
	models     string
	glb        string
	list       bool
	dump       bool
	ascii      bool
	zip        bool
	debug      bool
}

func parseIds(s string) ([]mesh.NodeID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	result := make([]mesh.NodeID, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid model id %q", p)
		}
		result = append(result, mesh.NodeID(id))
	}
	return result, nil
}

func outputName(in, suffix, ext string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + suffix + ext
}

func writeFile(path string, write func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0666); err != nil {
		return errors.Wrapf(err, "Unable to write %q", path)
	}
	return nil
}

func list(o *optimize.Optimizer, doc *fbxbuilder.FBXBuilder, models []mesh.NodeID) {
	fmt.Printf("%-12s %-32s %8s %8s %5s %s\n", "id", "name", "vertices", "faces", "skin", "materials")
	for _, model := range models {
		md, _, err := o.Load(doc, model)
		if err != nil {
			fmt.Printf("%-12d %-32s error: %v\n", model, doc.NodeName(model), err)
			continue
		}
		names := make([]string, len(md.Materials))
		for i := range md.Materials {
			names[i] = md.Materials[i].Name
		}
		fmt.Printf("%-12d %-32s %8d %8d %5v %s\n",
			model, doc.NodeName(model), len(md.Vertices), len(md.Faces), md.HasSkin, strings.Join(names, ","))
	}
}

func dump(o *optimize.Optimizer, doc *fbxbuilder.FBXBuilder, models []mesh.NodeID) {
	utils.Dump(os.Stdout, doc.Root())
	for _, model := range models {
		md, _, err := o.Load(doc, model)
		if err != nil {
			fmt.Printf("%d: %v\n", model, err)
			continue
		}
		fmt.Printf("=== %d %s ===\n", model, doc.NodeName(model))
		utils.Dump(os.Stdout, md)
	}
}

func exportGlb(o *optimize.Optimizer, doc *fbxbuilder.FBXBuilder, models []mesh.NodeID, createSkin bool, path string) error {
	gdoc := gltfutils.NewDocument()
	for _, model := range models {
		md, _, err := o.Load(doc, model)
		if err != nil {
			return err
		}
		o.Processor.Transform(md, doc.GeometricTransform(model))
		if _, err := gltfutils.ExportMesh(gdoc, doc.NodeName(model), md, gltfutils.Options{
			Scene:      doc,
			Node:       model,
			ExportSkin: createSkin,
		}); err != nil {
			return err
		}
	}
	return writeFile(path, func(buf *bytes.Buffer) error { return gltfutils.ExportBinary(buf, gdoc) })
}

// writeZip stores fbx and textures found in directory of input file
func writeZip(doc *fbxbuilder.FBXBuilder, in, out string, log *zap.Logger) error {
	added, err := doc.AddTextureFiles(vfs.NewDirectoryDriver(filepath.Dir(in)))
	if err != nil {
		return err
	}
	log.Debug("textures bundled", zap.Int("count", added))
	fbxName := filepath.Base(outputName(out, "", ".fbx"))
	return writeFile(out, func(buf *bytes.Buffer) error { return doc.WriteZip(buf, fbxName) })
}

func run(opts *options, cfg *config.Config, log *zap.Logger) error {
	scene, err := fbx.Open(opts.in, fbx.WithLogger(log))
	if err != nil {
		return err
	}
	doc := fbxbuilder.FromScene(scene)

	models, err := parseIds(opts.models)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		models = doc.Meshes()
	}

	o := optimize.NewFromConfig(cfg, log, func(stage string, done, total int) {
		log.Debug("progress", zap.String("stage", stage), zap.Int("done", done), zap.Int("total", total))
	})

	switch {
	case opts.list:
		list(o, doc, models)
		return nil
	case opts.dump:
		dump(o, doc, models)
		return nil
	case opts.glb != "":
		return exportGlb(o, doc, models, cfg.Export.CreateSkin, opts.glb)
	}

	suffix := "_optimized"
	if opts.merge {
		suffix = "_merged"
		name := opts.name
		if name == "" {
			name = cfg.Export.MergedName
		}
		if _, err := o.Merge(doc, models, name); err != nil {
			return err
		}
	} else {
		normals := opts.normals || cfg.Processing.GenerateNormals
		tangents := opts.tangents || cfg.Processing.GenerateTangents
		for _, model := range models {
			if _, err := o.Optimize(doc, model, normals, tangents); err != nil {
				return err
			}
		}
	}

	ext := ".fbx"
	if opts.zip {
		ext = ".zip"
	}
	out := opts.out
	if out == "" {
		out = outputName(opts.in, suffix, ext)
	}
	if opts.zip {
		err = writeZip(doc, opts.in, out, log)
	} else if opts.ascii || cfg.Export.ASCII {
		err = writeFile(out, func(buf *bytes.Buffer) error { return doc.WriteASCII(buf) })
	} else {
		err = writeFile(out, func(buf *bytes.Buffer) error { return doc.Write(buf) })
	}
	if err != nil {
		return err
	}
	log.Info("result written", zap.String("file", out), zap.Int("meshes", len(doc.Meshes())))
	return nil
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to yaml config")
	flag.StringVar(&opts.in, "in", "", "Input fbx file")
	flag.StringVar(&opts.out, "out", "", "Output fbx file, <in>_optimized.fbx by default")
	flag.BoolVar(&opts.normals, "normals", false, "Regenerate normals")
	flag.BoolVar(&opts.tangents, "tangents", false, "Generate tangents and binormals")
	flag.BoolVar(&opts.merge, "merge", false, "Merge meshes into one instead of optimizing")
	flag.StringVar(&opts.name, "name", "", "Name of merged mesh")
	flag.StringVar(&opts.models, "models", "", "Comma separated model ids, all meshes by default")
	flag.StringVar(&opts.glb, "glb", "", "Export meshes to glb file instead")
	flag.BoolVar(&opts.list, "list", false, "Print meshes and exit")
	flag.BoolVar(&opts.dump, "dump", false, "Dump fbx node tree and loaded meshes")
	flag.BoolVar(&opts.ascii, "ascii", false, "Write ascii fbx")
	flag.BoolVar(&opts.zip, "zip", false, "Write zip with fbx and texture files found next to input")
	flag.BoolVar(&opts.debug, "debug", false, "Debug logging")
	flag.Parse()

	if opts.in == "" {
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Init("info", "")
		logger.Fatal("config loading failed", zap.Error(err))
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}
	log := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	if err := run(&opts, cfg, log); err != nil {
		log.Fatal("meshopt failed", zap.Error(err))
	}
}
