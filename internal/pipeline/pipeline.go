// Package pipeline runs the contour map stages end to end: load, orient,
// transform, sample and render.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/topomap/internal/config"
	"github.com/Faultbox/topomap/pkg/formats"
	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
	"github.com/Faultbox/topomap/pkg/render"
	"github.com/Faultbox/topomap/pkg/slicer"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// Runner executes requests with a fixed configuration.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
}

// NewRunner creates a runner. A nil log discards output.
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log.Named("pipeline")}
}

// Result summarizes a finished conversion.
type Result struct {
	Output     string
	Levels     int
	Lines      int
	Failed     int
	Width      int
	Height     int
	Bounds     mesh.Bounds
	Dropped    []string
	Reoriented bool
	Elapsed    time.Duration
}

// Info describes a loaded mesh without slicing it.
type Info struct {
	Name        string
	Vertices    int
	Faces       int
	Bounds      mesh.Bounds
	Centroid    math.Vec3
	SurfaceArea float64
	Dropped     []string
}

// Convert renders req as a contour map and writes it to w. Nothing is
// written unless the whole pipeline succeeds.
func (r *Runner) Convert(ctx context.Context, req Request, w io.Writer) (*Result, error) {
	req = req.withDefaults(r.cfg)
	if err := req.validate(r.cfg.Limits, true); err != nil {
		return nil, err
	}

	var (
		buf bytes.Buffer
		res *Result
	)
	err := r.run(ctx, func() error {
		var err error
		res, err = r.convert(req, &buf)
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, err := buf.WriteTo(w); err != nil {
		return nil, topoerr.Wrap(topoerr.KindRender, err, "writing %s output", req.Output)
	}
	return res, nil
}

func (r *Runner) convert(req Request, w io.Writer) (*Result, error) {
	start := time.Now()
	log := r.log.With(zap.String("source", req.source()))

	m, reoriented, err := r.prepare(req, log)
	if err != nil {
		return nil, err
	}

	stage := time.Now()
	batch, err := slicer.Sample(m, req.Levels)
	if batch != nil {
		for _, lvl := range batch.Levels {
			if lvl.Err != nil {
				log.Warn("level failed", zap.Float64("z", lvl.Z), zap.Error(lvl.Err))
				continue
			}
			log.Debug("level sliced", zap.Float64("z", lvl.Z), zap.Int("lines", len(lvl.Lines)))
		}
	}
	if err != nil {
		return nil, err
	}
	log.Debug("sampled", zap.Int("levels", len(batch.Levels)), zap.Int("lines", len(batch.Lines)),
		zap.Duration("took", time.Since(stage)))

	stage = time.Now()
	doc, err := render.Build(batch.Projected(), batch.Bounds, req.LineWidth)
	if err != nil {
		return nil, err
	}
	if err := write(doc, req, w); err != nil {
		return nil, err
	}
	log.Debug("rendered", zap.String("output", req.Output),
		zap.Int("width", doc.Width), zap.Int("height", doc.Height), zap.Duration("took", time.Since(stage)))

	res := &Result{
		Output:     req.Output,
		Levels:     len(batch.Levels),
		Lines:      len(batch.Lines),
		Failed:     len(batch.Failed()),
		Width:      doc.Width,
		Height:     doc.Height,
		Bounds:     batch.Bounds,
		Dropped:    m.Dropped,
		Reoriented: reoriented,
		Elapsed:    time.Since(start),
	}
	log.Info("contour map ready", zap.Int("lines", res.Lines), zap.Int("failed_levels", res.Failed),
		zap.Duration("took", res.Elapsed))
	return res, nil
}

func write(doc *render.Document, req Request, w io.Writer) error {
	switch req.Output {
	case OutputPNG:
		opts := render.DefaultPNGOptions()
		opts.Scale = req.PNGScale
		return doc.WritePNG(w, opts)
	case OutputPDF:
		return doc.WritePDF(w)
	default:
		return doc.WriteSVG(w)
	}
}

// Preview slices req at a single height. Heights outside the mesh are not
// an error; the result carries a notice instead.
func (r *Runner) Preview(ctx context.Context, req PreviewRequest) (*slicer.PreviewResult, error) {
	req.Request = req.withDefaults(r.cfg)
	if err := req.validate(r.cfg.Limits, false); err != nil {
		return nil, err
	}

	var res *slicer.PreviewResult
	err := r.run(ctx, func() error {
		log := r.log.With(zap.String("source", req.source()))
		m, _, err := r.prepare(req.Request, log)
		if err != nil {
			return err
		}
		res = slicer.Preview(m, req.Z)
		log.Debug("preview sliced", zap.Float64("z", req.Z), zap.Int("lines", res.LineCount),
			zap.String("notice", res.Notice))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Inspect loads req and reports its geometry without orienting or
// transforming it.
func (r *Runner) Inspect(ctx context.Context, req Request) (*Info, error) {
	if req.Data == nil && req.Path == "" {
		return nil, topoerr.New(topoerr.KindLoad, "no mesh data or path given")
	}

	var info *Info
	err := r.run(ctx, func() error {
		m, err := r.load(req)
		if err != nil {
			return err
		}
		info = &Info{
			Name:        m.Name,
			Vertices:    len(m.Vertices),
			Faces:       len(m.Faces),
			Bounds:      m.Bounds(),
			Centroid:    m.Centroid(),
			SurfaceArea: m.SurfaceArea(),
			Dropped:     m.Dropped,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// prepare runs load, orient and transform.
func (r *Runner) prepare(req Request, log *zap.Logger) (*mesh.Mesh, bool, error) {
	stage := time.Now()
	m, err := r.load(req)
	if err != nil {
		return nil, false, err
	}
	for _, name := range m.Dropped {
		log.Debug("ignoring extra object", zap.String("object", name))
	}
	log.Debug("loaded", zap.String("object", m.Name), zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)), zap.Duration("took", time.Since(stage)))

	strategy, err := mesh.ParseOrientStrategy(r.cfg.Pipeline.Orient)
	if err != nil {
		return nil, false, topoerr.Wrap(topoerr.KindTransform, err, "orientation")
	}
	reoriented := mesh.Orient(m, strategy)
	if reoriented {
		log.Debug("reoriented", zap.Stringer("strategy", strategy))
	}

	if err := mesh.Apply(m, req.Transform); err != nil {
		return nil, false, err
	}
	b := m.Bounds()
	log.Debug("transformed", zap.Float64("z_min", b.Min.Z), zap.Float64("z_max", b.Max.Z))
	return m, reoriented, nil
}

func (r *Runner) load(req Request) (*mesh.Mesh, error) {
	opts := formats.Options{MaxInflated: r.cfg.Limits.MaxInflated}
	if req.Data != nil {
		return mesh.DecodeWith(req.Data, req.Format, opts)
	}

	format := req.Format
	if format == "" {
		var err error
		if format, err = formats.FormatFromPath(req.Path); err != nil {
			return nil, topoerr.Wrap(topoerr.KindLoad, err, "detecting format of %s", req.Path)
		}
	}

	fi, err := os.Stat(req.Path)
	if err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "opening %s", req.Path)
	}
	if fi.Size() > r.cfg.Limits.MaxFileSize {
		return nil, topoerr.New(topoerr.KindLoad, "%s is %d bytes, limit is %d",
			req.Path, fi.Size(), r.cfg.Limits.MaxFileSize)
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "reading %s", req.Path)
	}
	return mesh.DecodeWith(data, format, opts)
}
