package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// ContourClass is the CSS class of every contour path.
const ContourClass = "contour-line"

// WriteSVG serializes the document as a standalone SVG file. The document
// is rendered into memory first so a failed write never leaves a partial
// file behind a successful return.
func (d *Document) WriteSVG(w io.Writer) error {
	var buf bytes.Buffer
	d.svg(&buf, "Topographic contour map")

	if _, err := buf.WriteTo(w); err != nil {
		return topoerr.Wrap(topoerr.KindRender, err, "writing svg")
	}
	return nil
}

func (d *Document) svg(w io.Writer, desc string) {
	vb := d.ViewBox
	canvas := svg.New(w)
	canvas.Start(d.Width, d.Height,
		fmt.Sprintf(`viewBox="%s %s %s %s"`, num(vb.MinX), num(vb.MinY), num(vb.Width), num(vb.Height)))
	canvas.Desc(desc)
	canvas.Style("text/css", d.css())

	canvas.Path(rectPath(vb), `fill="#ffffff"`)
	for _, p := range d.Paths {
		canvas.Path(pathData(p), fmt.Sprintf(`class=%q`, ContourClass))
	}
	canvas.End()
}

func (d *Document) css() string {
	return fmt.Sprintf(".%s { fill: none; stroke: #000000; stroke-width: %s; stroke-linecap: round; stroke-linejoin: round; }",
		ContourClass, num(d.StrokeWidth))
}

// pathData emits "M x y L x y ..." for one line.
func pathData(points []math.Vec2) string {
	var sb strings.Builder
	for i, p := range points {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(num(p.X))
		sb.WriteByte(' ')
		sb.WriteString(num(p.Y))
	}
	return sb.String()
}

func rectPath(vb ViewBox) string {
	return pathData([]math.Vec2{
		{X: vb.MinX, Y: vb.MinY},
		{X: vb.MaxX(), Y: vb.MinY},
		{X: vb.MaxX(), Y: vb.MaxY()},
		{X: vb.MinX, Y: vb.MaxY()},
	}) + " Z"
}

// num formats a coordinate with six decimals.
func num(f float64) string {
	return fmt.Sprintf("%.6f", f)
}
