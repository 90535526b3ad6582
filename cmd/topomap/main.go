// topomap converts 3D meshes into topographic contour maps.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/topomap/internal/config"
	"github.com/Faultbox/topomap/internal/logger"
	"github.com/Faultbox/topomap/internal/pipeline"
	"github.com/Faultbox/topomap/pkg/formats"
	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
	"github.com/Faultbox/topomap/pkg/meshgen"
	"github.com/Faultbox/topomap/pkg/render"
	"github.com/Faultbox/topomap/pkg/slicer"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "map":
		err = cmdMap(args)
	case "preview":
		err = cmdPreview(args)
	case "info":
		err = cmdInfo(args)
	case "sample":
		err = cmdSample(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`topomap - topographic contour maps from 3D meshes

Usage:
  topomap <command> [options]

Commands:
  map <mesh> <output>           Render a contour map (svg, png or pdf)
  preview <mesh> -z <height>    Slice a single level and write a thumbnail
  info <mesh>                   Show mesh statistics
  sample <shape> <output>       Write a sample mesh (cube, sphere, box, cylinder)
  config [-save] [-o path]      Print or save the effective configuration

Meshes may be OBJ, FBX (binary), STL or PLY. Use "-" as output for stdout.

Examples:
  topomap map terrain.stl terrain.svg -levels 30
  topomap map part.obj part.png -rx 90 -scale 2 -png-scale 2
  topomap preview part.ply -z 1.5 -out slice.svg
  topomap sample sphere sphere.stl`)
}

// parseArgs parses fs from args and returns the positional arguments.
// Flags may appear before, between or after them.
func parseArgs(fs *flag.FlagSet, args []string) []string {
	var pos []string
	for {
		_ = fs.Parse(args) // ExitOnError
		args = fs.Args()
		if len(args) == 0 {
			return pos
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// transformFlags holds the placement flags shared by map and preview.
type transformFlags struct {
	rx, ry, rz float64
	tx, ty, tz float64
	px, py, pz float64
	scale      float64
}

func registerTransform(fs *flag.FlagSet) *transformFlags {
	t := &transformFlags{}
	fs.Float64Var(&t.rx, "rx", 0, "Rotation about X in degrees")
	fs.Float64Var(&t.ry, "ry", 0, "Rotation about Y in degrees")
	fs.Float64Var(&t.rz, "rz", 0, "Rotation about Z in degrees")
	fs.Float64Var(&t.tx, "tx", 0, "Translation along X")
	fs.Float64Var(&t.ty, "ty", 0, "Translation along Y")
	fs.Float64Var(&t.tz, "tz", 0, "Translation along Z")
	fs.Float64Var(&t.px, "px", 0, "Rotation pivot X")
	fs.Float64Var(&t.py, "py", 0, "Rotation pivot Y")
	fs.Float64Var(&t.pz, "pz", 0, "Rotation pivot Z")
	fs.Float64Var(&t.scale, "scale", 1, "Uniform scale")
	return t
}

func (t *transformFlags) transform() mesh.Transform {
	return mesh.Transform{
		Rotation:    [3]float64{t.rx, t.ry, t.rz},
		Pivot:       math.Vec3{X: t.px, Y: t.py, Z: t.pz},
		Translation: math.Vec3{X: t.tx, Y: t.ty, Z: t.tz},
		Scale:       t.scale,
	}
}

// setup loads the config and initializes logging.
func setup(f *config.Flags) (*config.Config, *pipeline.Runner, error) {
	cfg, err := config.Load(f)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("file", f.ConfigPath()),
		zap.Int("levels", cfg.Pipeline.Levels),
		zap.String("format", cfg.Render.Format),
		zap.Duration("timeout", cfg.Pipeline.Timeout))
	return cfg, pipeline.NewRunner(cfg, logger.Log), nil
}

// create opens path for writing; "-" is stdout.
func create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// writeFile writes the output of fn to path, removing the file again if fn
// fails.
func writeFile(path string, fn func(io.Writer) error) error {
	out, err := create(path)
	if err != nil {
		return err
	}
	if err := fn(out); err != nil {
		out.Close()
		if path != "-" {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Error("removing partial output", zap.String("path", path), zap.Error(rmErr))
			}
		}
		return err
	}
	return out.Close()
}

func cmdMap(args []string) error {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	cf := config.RegisterFlags(fs)
	tf := registerTransform(fs)
	pos := parseArgs(fs, args)

	if len(pos) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: topomap map <mesh> <output> [options]")
		os.Exit(1)
	}
	in, outPath := pos[0], pos[1]

	// The output extension picks the format unless -format was given.
	if cf.Format == "" {
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), "."); ext != "" {
			cf.Format = ext
		}
	}

	cfg, runner, err := setup(cf)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Path:      in,
		Transform: tf.transform(),
		Output:    cfg.Render.Format,
	}

	var res *pipeline.Result
	err = writeFile(outPath, func(w io.Writer) error {
		var err error
		res, err = runner.Convert(context.Background(), req, w)
		return err
	})
	if err != nil {
		return err
	}

	reportMap(outPath, res)
	return nil
}

func reportMap(path string, res *pipeline.Result) {
	if res.Failed > 0 {
		logger.Warn("some levels were skipped", zap.Int("failed", res.Failed), zap.Int("levels", res.Levels))
	}
	if len(res.Dropped) > 0 {
		logger.Warn("ignored objects", zap.Strings("names", res.Dropped))
	}
	logger.Info("map written",
		zap.String("path", path),
		zap.Int("lines", res.Lines),
		zap.Int("levels", res.Levels),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))
}

func cmdPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	cf := config.RegisterFlags(fs)
	tf := registerTransform(fs)
	z := fs.Float64("z", 0, "Slice height")
	out := fs.String("out", "", "Write a thumbnail (.svg or .png) to this file")
	pos := parseArgs(fs, args)

	if len(pos) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: topomap preview <mesh> -z <height> [-out file]")
		os.Exit(1)
	}

	cfg, runner, err := setup(cf)
	if err != nil {
		return err
	}

	res, err := runner.Preview(context.Background(), pipeline.PreviewRequest{
		Request: pipeline.Request{Path: pos[0], Transform: tf.transform()},
		Z:       *z,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Z:       %g (mesh spans %g .. %g)\n", res.Z, res.ZBounds[0], res.ZBounds[1])
	fmt.Printf("Lines:   %d\n", res.LineCount)
	if res.Notice != "" {
		fmt.Printf("Notice:  %s\n", res.Notice)
	}

	if *out == "" {
		return nil
	}
	return writeThumbnail(*out, res, cfg.Render.ThumbnailSize)
}

// writeThumbnail writes a preview image to path. A .png extension selects a
// raster image, anything else SVG.
func writeThumbnail(path string, res *slicer.PreviewResult, size int) error {
	draw := render.Thumbnail
	if strings.EqualFold(filepath.Ext(path), ".png") {
		draw = render.ThumbnailPNG
	}
	data, err := draw(res, size)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cf := config.RegisterFlags(fs)
	pos := parseArgs(fs, args)

	if len(pos) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: topomap info <mesh>")
		os.Exit(1)
	}

	_, runner, err := setup(cf)
	if err != nil {
		return err
	}

	info, err := runner.Inspect(context.Background(), pipeline.Request{Path: pos[0]})
	if err != nil {
		return err
	}

	b := info.Bounds
	ext := b.Extent()
	fmt.Printf("Mesh:         %s\n", pos[0])
	if info.Name != "" {
		fmt.Printf("Object:       %s\n", info.Name)
	}
	fmt.Printf("Vertices:     %d\n", info.Vertices)
	fmt.Printf("Triangles:    %d\n", info.Faces)
	fmt.Printf("Bounds min:   %.4f %.4f %.4f\n", b.Min.X, b.Min.Y, b.Min.Z)
	fmt.Printf("Bounds max:   %.4f %.4f %.4f\n", b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Extent:       %.4f x %.4f x %.4f\n", ext.X, ext.Y, ext.Z)
	fmt.Printf("Centroid:     %.4f %.4f %.4f\n", info.Centroid.X, info.Centroid.Y, info.Centroid.Z)
	fmt.Printf("Surface area: %.4f\n", info.SurfaceArea)
	if len(info.Dropped) > 0 {
		fmt.Printf("Ignored:      %s\n", strings.Join(info.Dropped, ", "))
	}
	return nil
}

func cmdSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	cells := fs.Int("cells", meshgen.DefaultCells, "Marching cubes resolution")
	pos := parseArgs(fs, args)

	if len(pos) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: topomap sample <%s> <output.stl|.obj>\n", strings.Join(meshgen.Shapes, "|"))
		os.Exit(1)
	}

	format, err := formats.FormatFromPath(pos[1])
	if err != nil {
		return err
	}
	m, err := meshgen.Generate(pos[0], *cells)
	if err != nil {
		return err
	}
	if err := writeFile(pos[1], func(w io.Writer) error { return meshgen.Write(w, m, format) }); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %d vertices, %d triangles\n", pos[1], len(m.Vertices), len(m.Faces))
	return nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cf := config.RegisterFlags(fs)
	save := fs.Bool("save", false, "Save the effective configuration")
	outPath := fs.String("o", "", "Save to this path instead of the user config directory")
	parseArgs(fs, args)

	cfg, err := config.Load(cf)
	if err != nil {
		return err
	}

	if !*save && *outPath == "" {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	path := *outPath
	if path == "" {
		if path, err = cfg.Save(); err != nil {
			return err
		}
	} else if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %s\n", path)
	return nil
}
