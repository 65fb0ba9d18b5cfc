package graphviewer

import "math"

const (
	MinZoom = 0.1
	MaxZoom = 3.0
	// ZoomStep is the fixed zoom delta of one zoom button press or wheel notch.
	ZoomStep = 0.1
)

// Viewport is the size of the drawing surface in screen pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Ready reports whether the surface has a usable size.
func (v Viewport) Ready() bool { return v.Width > 0 && v.Height > 0 }

// Center returns the screen-space center of the surface.
func (v Viewport) Center() (x, y float64) { return v.Width / 2, v.Height / 2 }

// ViewTransform maps graph space to screen space:
//
//	screen = canvasCenter + pan + graph*zoom
type ViewTransform struct {
	Zoom float64
	PanX float64
	PanY float64
}

// IdentityTransform is zoom 1 with no pan.
func IdentityTransform() ViewTransform { return ViewTransform{Zoom: 1} }

// ClampZoom pulls z into [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return clamp(z, MinZoom, MaxZoom)
}

// ToScreen maps a graph-space point to screen space.
func (t ViewTransform) ToScreen(vp Viewport, x, y float64) (sx, sy float64) {
	cx, cy := vp.Center()
	return cx + t.PanX + x*t.Zoom, cy + t.PanY + y*t.Zoom
}

// ToGraph maps a screen-space point to graph space. It is the exact inverse
// of ToScreen.
func (t ViewTransform) ToGraph(vp Viewport, sx, sy float64) (x, y float64) {
	cx, cy := vp.Center()
	return (sx - cx - t.PanX) / t.Zoom, (sy - cy - t.PanY) / t.Zoom
}

// WithZoom returns t with the zoom replaced and clamped. Pan is unchanged,
// so zooming does not recenter on the pointer.
func (t ViewTransform) WithZoom(z float64) ViewTransform {
	t.Zoom = ClampZoom(z)
	return t
}

// Panned returns t moved by a screen-space delta. A delta that would leave
// the pan non-finite is ignored.
func (t ViewTransform) Panned(dx, dy float64) ViewTransform {
	px, py := t.PanX+dx, t.PanY+dy
	if !finite(px) || !finite(py) {
		return t
	}
	t.PanX, t.PanY = px, py
	return t
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// FitTransform returns the transform that shows every node inside vp with
// padding pixels of margin, subject to the zoom limits.
func FitTransform(nodes []Node, vp Viewport, padding float64) ViewTransform {
	if len(nodes) == 0 || !vp.Ready() {
		return IdentityTransform()
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.X-n.Radius)
		minY = math.Min(minY, n.Y-n.Radius)
		maxX = math.Max(maxX, n.X+n.Radius)
		maxY = math.Max(maxY, n.Y+n.Radius)
	}
	gw := math.Max(maxX-minX, 1)
	gh := math.Max(maxY-minY, 1)
	zoom := math.Min((vp.Width-2*padding)/gw, (vp.Height-2*padding)/gh)
	if zoom <= 0 {
		zoom = 1
	}
	zoom = ClampZoom(zoom)
	mx, my := (minX+maxX)/2, (minY+maxY)/2
	return ViewTransform{Zoom: zoom, PanX: -mx * zoom, PanY: -my * zoom}
}

// FocusTransform centers the view on a graph-space point at the given zoom.
func FocusTransform(x, y, zoom float64) ViewTransform {
	zoom = ClampZoom(zoom)
	return ViewTransform{Zoom: zoom, PanX: -x * zoom, PanY: -y * zoom}
}
