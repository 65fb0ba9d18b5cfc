// Package svg writes frames as SVG documents with svgo.
package svg

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/recera/relgraph/pkg/graphviewer"
)

// precision is the fixed-point factor applied to every coordinate; svgo
// takes integers, and the document scales back by 1/precision.
const precision = 10

var _ graphviewer.Surface = (*Surface)(nil)

// Surface is a graphviewer.Surface that emits SVG elements. Call Close to
// finish the document.
type Surface struct {
	canvas *svg.SVG
	width  int
	height int
	// groups holds the number of open <g> elements per Push level.
	groups []int
	open   int
	closed bool
}

// New starts an SVG document of the given size on w.
func New(w io.Writer, width, height int) *Surface {
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Gtransform(fmt.Sprintf("scale(%g)", 1.0/precision))
	return &Surface{canvas: canvas, width: width, height: height}
}

func fixed(v float64) int { return int(math.Round(v * precision)) }

func css(c color.NRGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func opacity(c color.NRGBA) float64 { return float64(c.A) / 0xff }

func (s *Surface) Size() (float64, float64) { return float64(s.width), float64(s.height) }

func (s *Surface) Clear(c color.NRGBA) {
	s.canvas.Rect(0, 0, s.width*precision, s.height*precision,
		fmt.Sprintf("fill:%s;fill-opacity:%.3g", css(c), opacity(c)))
}

func (s *Surface) Push() {
	s.groups = append(s.groups, s.open)
	s.open = 0
}

func (s *Surface) Pop() {
	for ; s.open > 0; s.open-- {
		s.canvas.Gend()
	}
	if n := len(s.groups); n > 0 {
		s.open = s.groups[n-1]
		s.groups = s.groups[:n-1]
	}
}

func (s *Surface) Translate(x, y float64) {
	s.canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", fixed(x), fixed(y)))
	s.open++
}

func (s *Surface) Scale(f float64) {
	s.canvas.Gtransform(fmt.Sprintf("scale(%g)", f))
	s.open++
}

func (s *Surface) Line(x1, y1, x2, y2, width float64, c color.NRGBA) {
	s.canvas.Line(fixed(x1), fixed(y1), fixed(x2), fixed(y2),
		fmt.Sprintf("stroke:%s;stroke-opacity:%.3g;stroke-width:%d;stroke-linecap:round", css(c), opacity(c), fixed(width)))
}

func (s *Surface) FillCircle(x, y, r float64, c color.NRGBA) {
	s.canvas.Circle(fixed(x), fixed(y), fixed(r),
		fmt.Sprintf("fill:%s;fill-opacity:%.3g", css(c), opacity(c)))
}

func (s *Surface) StrokeCircle(x, y, r, width float64, c color.NRGBA) {
	s.canvas.Circle(fixed(x), fixed(y), fixed(r),
		fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:%.3g;stroke-width:%d", css(c), opacity(c), fixed(width)))
}

func (s *Surface) Text(x, y float64, str string, size float64, c color.NRGBA) {
	s.canvas.Text(fixed(x), fixed(y), str,
		fmt.Sprintf("fill:%s;font-size:%dpx;font-family:sans-serif;text-anchor:middle", css(c), fixed(size)))
}

// Close ends every open group and the document.
func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for len(s.groups) > 0 || s.open > 0 {
		s.Pop()
	}
	s.canvas.Gend()
	s.canvas.End()
	return nil
}

// RenderSVG writes f as a complete SVG document to w.
func RenderSVG(w io.Writer, f *graphviewer.Frame, display graphviewer.DisplaySettings, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("svg: invalid size %dx%d", width, height)
	}
	s := New(w, width, height)
	graphviewer.Render(s, f, display)
	return s.Close()
}
