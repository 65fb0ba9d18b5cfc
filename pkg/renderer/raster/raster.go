// Package raster paints frames into an RGBA image with gg.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/recera/relgraph/pkg/graphviewer"
)

var (
	fontOnce sync.Once
	goFont   *opentype.Font
	fontErr  error
)

func regular() (*opentype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

var _ graphviewer.Surface = (*Surface)(nil)

// Surface is a graphviewer.Surface backed by a gg context.
type Surface struct {
	dc     *gg.Context
	width  int
	height int
	font   *opentype.Font
	faces  map[float64]font.Face
	scale  float64
	stack  []float64
}

// New allocates a width x height surface.
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid size %dx%d", width, height)
	}
	f, err := regular()
	if err != nil {
		return nil, fmt.Errorf("raster: parse font: %w", err)
	}
	return &Surface{
		dc:     gg.NewContext(width, height),
		width:  width,
		height: height,
		font:   f,
		faces:  make(map[float64]font.Face),
		scale:  1,
	}, nil
}

func (s *Surface) Size() (float64, float64) {
	return float64(s.width), float64(s.height)
}

func (s *Surface) Clear(c color.NRGBA) {
	s.dc.Identity()
	s.stack = s.stack[:0]
	s.scale = 1
	s.dc.SetColor(c)
	s.dc.Clear()
}

func (s *Surface) Push() {
	s.dc.Push()
	s.stack = append(s.stack, s.scale)
}

func (s *Surface) Pop() {
	s.dc.Pop()
	if n := len(s.stack); n > 0 {
		s.scale = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
}

func (s *Surface) Translate(x, y float64) { s.dc.Translate(x, y) }

func (s *Surface) Scale(f float64) {
	s.dc.Scale(f, f)
	s.scale *= f
}

// gg strokes in device space, so widths are scaled here to stay in the
// caller's coordinate space.
func (s *Surface) Line(x1, y1, x2, y2, width float64, c color.NRGBA) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width * s.scale)
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.Stroke()
}

func (s *Surface) FillCircle(x, y, r float64, c color.NRGBA) {
	s.dc.SetColor(c)
	s.dc.DrawCircle(x, y, r)
	s.dc.Fill()
}

func (s *Surface) StrokeCircle(x, y, r, width float64, c color.NRGBA) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width * s.scale)
	s.dc.DrawCircle(x, y, r)
	s.dc.Stroke()
}

func (s *Surface) Text(x, y float64, str string, size float64, c color.NRGBA) {
	face, err := s.face(size)
	if err != nil {
		return
	}
	s.dc.SetFontFace(face)
	s.dc.SetColor(c)
	s.dc.DrawStringAnchored(str, x, y, 0.5, 0)
}

func (s *Surface) face(size float64) (font.Face, error) {
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	s.faces[size] = f
	return f, nil
}

// Image returns the painted image.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the image as PNG.
func (s *Surface) EncodePNG(w io.Writer) error { return s.dc.EncodePNG(w) }

// Close releases the cached font faces.
func (s *Surface) Close() error {
	for size, f := range s.faces {
		f.Close()
		delete(s.faces, size)
	}
	return nil
}

// RenderPNG paints f at the given size and writes it to w as PNG.
func RenderPNG(w io.Writer, f *graphviewer.Frame, display graphviewer.DisplaySettings, width, height int) error {
	s, err := New(width, height)
	if err != nil {
		return err
	}
	defer s.Close()
	graphviewer.Render(s, f, display)
	if err := s.EncodePNG(w); err != nil {
		return fmt.Errorf("raster: encode png: %w", err)
	}
	return nil
}
