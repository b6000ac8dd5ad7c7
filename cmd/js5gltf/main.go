// js5gltf decodes a model group from a JS5 cache dump, builds and lights it,
// and exports the result as a glTF 2.0 document.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/js5view/internal/assets"
	"github.com/Faultbox/js5view/internal/config"
	"github.com/Faultbox/js5view/internal/logger"
	"github.com/Faultbox/js5view/internal/preview"
	"github.com/Faultbox/js5view/pkg/formats"
	"github.com/Faultbox/js5view/pkg/math"
)

var (
	flagModel = flag.Int("model", -1, "Model group id to export")
	flagMerge = flag.String("merge", "", "Comma-separated group ids to merge into one model (overrides -model)")
	flagOut   = flag.String("out", "model.glb", "Output path (.glb binary, anything else JSON)")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	groupIDs, err := exportGroups()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger.Info("=== js5gltf model exporter ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	mgr, err := assets.NewManager(assets.DirProviders(cfg.Cache.Path), cfg.Cache, logger.Log)
	if err != nil {
		logger.Error("failed to open cache", zap.String("path", cfg.Cache.Path), zap.Error(err))
		os.Exit(1)
	}

	pipeline := preview.NewPipeline(mgr, preview.LightFromConfig(cfg.Light), logger.Log)
	model, err := pipeline.LoadMerged(groupIDs)
	if err != nil {
		logger.Error("failed to build model", zap.Ints("groups", groupIDs), zap.Error(err))
		os.Exit(1)
	}

	streams := preview.BuildRenderStreams(model, cfg.Export.Scale)
	if streams.TriangleCount == 0 {
		logger.Error("model has no visible triangles", zap.Ints("groups", groupIDs))
		os.Exit(1)
	}

	doc := buildDocument(model, streams, cfg.Export.Brightness, modelName(groupIDs))
	if err := save(doc, *flagOut); err != nil {
		logger.Error("failed to write document", zap.String("path", *flagOut), zap.Error(err))
		os.Exit(1)
	}

	logger.Info("exported model",
		zap.String("path", *flagOut),
		zap.Ints("groups", groupIDs),
		zap.Int("triangles", streams.TriangleCount))
}

// exportGroups resolves the -model / -merge flags into the group id list to
// load. -merge wins when both are given.
func exportGroups() ([]int, error) {
	if *flagMerge != "" {
		parts := strings.Split(*flagMerge, ",")
		ids := make([]int, 0, len(parts))
		for _, part := range parts {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("bad group id %q in -merge", part)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
	if *flagModel < 0 {
		return nil, errors.New("no model given: pass -model <id> or -merge <id,id,...>")
	}
	return []int{*flagModel}, nil
}

func modelName(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "model_" + strings.Join(parts, "_")
}

// buildDocument turns flattened render streams into a single-mesh glTF
// document. Colours arrive packed HSL and leave as linear vertex RGBA; the
// lighting is already baked in, so the material is a plain diffuse surface.
func buildDocument(model *preview.Model, streams *preview.RenderStreams, brightness float64, name string) *gltf.Document {
	corners := streams.TriangleCount * 3
	positions := make([][3]float32, corners)
	colors := make([][4]float32, corners)
	texCoords := make([][2]float32, corners)
	indices := make([]uint32, corners)
	hasAlpha := false

	for i := 0; i < corners; i++ {
		positions[i] = [3]float32{
			streams.Positions[3*i],
			streams.Positions[3*i+1],
			streams.Positions[3*i+2],
		}
		r, g, b := preview.HSLToRGB(streams.Colours[i], brightness)
		a := float32(streams.Alphas[i]) / 255
		colors[i] = [4]float32{r, g, b, a}
		if a < 1 {
			hasAlpha = true
		}
		texCoords[i] = [2]float32{streams.TexCoords[2*i], streams.TexCoords[2*i+1]}
		indices[i] = uint32(i)
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "js5gltf"

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, cornerNormals(model))
	colorAccessor := modeler.WriteColor(doc, colors)
	uvAccessor := modeler.WriteTextureCoord(doc, texCoords)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION:   posAccessor,
			gltf.NORMAL:     normalAccessor,
			gltf.COLOR_0:    colorAccessor,
			gltf.TEXCOORD_0: uvAccessor,
		},
		Indices: gltf.Index(indicesAccessor),
	}

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	material := &gltf.Material{Name: "prelit", PBRMetallicRoughness: pbr, DoubleSided: true}
	if hasAlpha {
		material.AlphaMode = gltf.AlphaBlend
	} else {
		material.AlphaMode = gltf.AlphaOpaque
	}
	doc.Materials = []*gltf.Material{material}
	prim.Material = gltf.Index(0)

	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

// cornerNormals walks the drawn triangles in stream order and unit-scales
// each corner's mesh normal, with the same axis flips the positions get.
func cornerNormals(model *preview.Model) [][3]float32 {
	lit := model.Lit
	normals := make([][3]float32, 0, lit.RenderTriangleCount*3)
	for t := 0; t < lit.RenderTriangleCount; t++ {
		if model.ColoursC[t] == -2 {
			continue
		}
		for _, corner := range [3]uint16{lit.RenderA[t], lit.RenderB[t], lit.RenderC[t]} {
			normals = append(normals, cornerNormal(lit, int(corner)))
		}
	}
	return normals
}

func cornerNormal(lit *formats.ModelLit, i int) [3]float32 {
	n := math.Vec3{
		X: float32(lit.NormalX[i]),
		Y: -float32(lit.NormalY[i]),
		Z: -float32(lit.NormalZ[i]),
	}
	if n.Length() == 0 {
		return [3]float32{0, 1, 0}
	}
	n = n.Normalize()
	return [3]float32{n.X, n.Y, n.Z}
}

func save(doc *gltf.Document, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		return gltf.SaveBinary(doc, path)
	}
	return gltf.Save(doc, path)
}
