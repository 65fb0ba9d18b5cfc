package graphviewer

import "image/color"

const (
	edgeAlpha     = 0.6
	ringOffset    = 3
	ringWidth     = 2
	labelOffset   = 12
	labelMinZoom  = 0.8
	edgeWidthMult = 2
)

// Surface is a drawing target. Translate and Scale compose onto the current
// transform; Push and Pop save and restore it. Coordinates passed to the
// drawing calls are in the current (transformed) space.
type Surface interface {
	Size() (width, height float64)
	Clear(c color.NRGBA)
	Push()
	Pop()
	Translate(x, y float64)
	Scale(s float64)
	Line(x1, y1, x2, y2, width float64, c color.NRGBA)
	FillCircle(x, y, r float64, c color.NRGBA)
	StrokeCircle(x, y, r, width float64, c color.NRGBA)
	// Text draws s horizontally centered on x with its baseline at y.
	Text(x, y float64, s string, size float64, c color.NRGBA)
}

// Render paints one frame: edges, then nodes with selection and hover
// rings, then labels. It does nothing while the surface has no size.
func Render(s Surface, f *Frame, display DisplaySettings) {
	if s == nil || f == nil {
		return
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	theme := display.Theme
	s.Clear(theme.Background)

	vp := Viewport{Width: w, Height: h}
	cx, cy := vp.Center()
	t := f.Transform
	s.Push()
	defer s.Pop()
	s.Translate(cx+t.PanX, cy+t.PanY)
	s.Scale(t.Zoom)

	idx := indexNodes(f.Nodes)
	for _, e := range f.Edges {
		si, ok1 := idx[e.Source]
		ti, ok2 := idx[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		a, b := f.Nodes[si], f.Nodes[ti]
		s.Line(a.X, a.Y, b.X, b.Y, e.Weight*edgeWidthMult, withAlpha(e.Color, edgeAlpha))
	}

	sel, hov := f.Interaction.SelectedID, f.Interaction.HoveredID
	for _, n := range f.Nodes {
		s.FillCircle(n.X, n.Y, n.Radius, n.Fill)
		switch {
		case sel != "" && n.ID == sel:
			s.StrokeCircle(n.X, n.Y, n.Radius+ringOffset, ringWidth, theme.SelectedRing)
		case hov != "" && n.ID == hov:
			s.StrokeCircle(n.X, n.Y, n.Radius+ringOffset, ringWidth, theme.HoveredRing)
		}
	}

	if !display.ShowLabels {
		return
	}
	size := theme.LabelSize
	if size <= 0 {
		size = DefaultTheme().LabelSize
	}
	for _, n := range f.Nodes {
		if !labelVisible(n.ID, sel, hov, t.Zoom) {
			continue
		}
		s.Text(n.X, n.Y+n.Radius+labelOffset, n.Label(), size, theme.Label)
	}
}

// labelVisible is the declutter policy: below labelMinZoom only the
// selected and hovered nodes are labelled.
func labelVisible(id, selected, hovered NodeID, zoom float64) bool {
	return (selected != "" && id == selected) || (hovered != "" && id == hovered) || zoom > labelMinZoom
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}
