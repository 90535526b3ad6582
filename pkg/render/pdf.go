package render

import (
	"bytes"
	"io"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"

	"github.com/Faultbox/topomap/pkg/topoerr"
)

// WritePDF writes the document as a single-page PDF. The page is the
// viewport in points; PDF's origin is bottom-left, so pixel rows are
// flipped back.
func (d *Document) WritePDF(w io.Writer) error {
	pageW, pageH := float64(d.Width), float64(d.Height)

	var buf bytes.Buffer
	page, err := document.WriteSinglePage(&buf, &pdf.Rectangle{URx: pageW, URy: pageH}, pdf.V1_7, nil)
	if err != nil {
		return topoerr.Wrap(topoerr.KindRender, err, "creating pdf")
	}

	page.SetFillColor(color.DeviceGray(1))
	page.Rectangle(0, 0, pageW, pageH)
	page.Fill()

	page.SetStrokeColor(color.DeviceGray(0))
	page.SetLineWidth(d.StrokeWidth * d.Scale)
	page.SetLineCap(graphics.LineCapRound)
	page.SetLineJoin(graphics.LineJoinRound)

	for _, path := range d.Paths {
		for i, p := range path {
			x, y := d.ToPixel(p)
			if i == 0 {
				page.MoveTo(x, pageH-y)
			} else {
				page.LineTo(x, pageH-y)
			}
		}
		page.Stroke()
	}

	if err := page.Close(); err != nil {
		return topoerr.Wrap(topoerr.KindRender, err, "finishing pdf")
	}
	if _, err := buf.WriteTo(w); err != nil {
		return topoerr.Wrap(topoerr.KindRender, err, "writing pdf")
	}
	return nil
}
