package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	gomath "math"

	svg "github.com/ajstarks/svgo"
	"github.com/gogpu/gg"

	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/slicer"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// ThumbnailSize is the default edge length of preview thumbnails.
const ThumbnailSize = 200

const (
	thumbMargin = 10
	thumbStroke = 1.5
)

// thumbFrame maps the padded mesh footprint into a square image. Framing
// uses the mesh bounds rather than the slice, so thumbnails taken at
// different heights line up.
type thumbFrame struct {
	minX, minY float64
	total      float64
	size       int
}

func newThumbFrame(p *slicer.PreviewResult, size int) thumbFrame {
	minX, minY := p.Bounds.Min.X, p.Bounds.Min.Y
	maxX, maxY := p.Bounds.Max.X, p.Bounds.Max.Y
	pad := PaddingRatio * gomath.Max(maxX-minX, maxY-minY)
	minX, minY, maxX, maxY = minX-pad, minY-pad, maxX+pad, maxY+pad

	total := gomath.Max(maxX-minX, maxY-minY)
	if total == 0 {
		total = 1
	}
	return thumbFrame{minX: minX, minY: minY, total: total, size: size}
}

func (f thumbFrame) point(p math.Vec2) (float64, float64) {
	inner := float64(f.size - 2*thumbMargin)
	x := (p.X-f.minX)/f.total*inner + thumbMargin
	y := float64(f.size) - ((p.Y-f.minY)/f.total*inner + thumbMargin)
	return x, y
}

func checkThumbnail(p *slicer.PreviewResult, size int) error {
	if size <= 2*thumbMargin {
		return topoerr.New(topoerr.KindRender, "thumbnail size %d is too small", size)
	}
	for i, line := range p.Lines {
		for _, pt := range line {
			if !pt.IsFinite() {
				return topoerr.New(topoerr.KindRender, "preview line %d has a non-finite point", i)
			}
		}
	}
	return nil
}

// Thumbnail renders a preview as a small square SVG. An empty preview
// renders a "No slice" placeholder.
func Thumbnail(p *slicer.PreviewResult, size int) ([]byte, error) {
	if err := checkThumbnail(p, size); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(size, size, fmt.Sprintf(`viewBox="0 0 %d %d"`, size, size))
	canvas.Rect(0, 0, size, size, `fill="white"`, `stroke="#ccc"`, `stroke-width="1"`)

	drawn := 0
	frame := newThumbFrame(p, size)
	for _, line := range p.Lines {
		if len(line) < 2 {
			continue
		}
		pts := make([]math.Vec2, len(line))
		for i, pt := range line {
			x, y := frame.point(pt)
			pts[i] = math.Vec2{X: x, Y: y}
		}
		canvas.Path(pathData(pts),
			`stroke="black"`, fmt.Sprintf(`stroke-width="%g"`, thumbStroke), `fill="none"`, `stroke-linecap="round"`)
		drawn++
	}
	if drawn == 0 {
		canvas.Text(size/2, size/2, "No slice", `text-anchor="middle"`, `fill="#999"`, `font-size="12"`)
	}
	canvas.End()
	return buf.Bytes(), nil
}

// ThumbnailDataURI renders a preview as a PNG data URI for embedding.
func ThumbnailDataURI(p *slicer.PreviewResult, size int) (string, error) {
	data, err := ThumbnailPNG(p, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ThumbnailPNG renders a preview as a square PNG image. The placeholder for
// an empty preview is the bare frame.
func ThumbnailPNG(p *slicer.PreviewResult, size int) ([]byte, error) {
	if err := checkThumbnail(p, size); err != nil {
		return nil, err
	}

	dc := gg.NewContext(size, size)
	defer dc.Close()
	dc.ClearWithColor(gg.White)

	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(size)-1, float64(size)-1)
	if err := dc.Stroke(); err != nil {
		return nil, topoerr.Wrap(topoerr.KindRender, err, "drawing thumbnail frame")
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(thumbStroke)
	dc.SetLineCap(gg.LineCapRound)
	frame := newThumbFrame(p, size)
	for _, line := range p.Lines {
		if len(line) < 2 {
			continue
		}
		for i, pt := range line {
			x, y := frame.point(pt)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		if err := dc.Stroke(); err != nil {
			return nil, topoerr.Wrap(topoerr.KindRender, err, "drawing thumbnail")
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, topoerr.Wrap(topoerr.KindRender, err, "encoding thumbnail")
	}
	return buf.Bytes(), nil
}
