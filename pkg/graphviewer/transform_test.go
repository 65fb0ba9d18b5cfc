package graphviewer

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewTransform_RoundTrip(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	points := []Point{{0, 0}, {123.5, -42.25}, {-400, 400}, {0.001, 399.999}}
	for _, zoom := range []float64{0.1, 1, 3} {
		for _, pan := range []Point{{0, 0}, {50, -30}} {
			t.Run(fmt.Sprintf("zoom=%v/pan=%v,%v", zoom, pan.X, pan.Y), func(t *testing.T) {
				tr := ViewTransform{Zoom: zoom, PanX: pan.X, PanY: pan.Y}
				for _, p := range points {
					sx, sy := tr.ToScreen(vp, p.X, p.Y)
					gx, gy := tr.ToGraph(vp, sx, sy)
					assert.InDelta(t, p.X, gx, 1e-9)
					assert.InDelta(t, p.Y, gy, 1e-9)
				}
			})
		}
	}
}

func TestViewTransform_ToScreen(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	tr := ViewTransform{Zoom: 2, PanX: 50, PanY: -30}
	sx, sy := tr.ToScreen(vp, 10, 20)
	assert.Equal(t, 400+50+20.0, sx)
	assert.Equal(t, 300-30+40.0, sy)
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.05, MinZoom},
		{0.1, 0.1},
		{1.7, 1.7},
		{3, 3},
		{10, MaxZoom},
		{-1, MinZoom},
		{math.NaN(), 1},
		{math.Inf(1), MaxZoom},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampZoom(tt.in), "ClampZoom(%v)", tt.in)
	}
}

func TestFitTransform(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}

	t.Run("fits all nodes", func(t *testing.T) {
		nodes := []Node{
			{ID: "a", X: -200, Y: -50, Radius: 10},
			{ID: "b", X: 300, Y: 150, Radius: 10},
		}
		tr := FitTransform(nodes, vp, 20)
		for _, n := range nodes {
			sx, sy := tr.ToScreen(vp, n.X, n.Y)
			assert.True(t, sx >= 20 && sx <= 780, "x %v", sx)
			assert.True(t, sy >= 20 && sy <= 580, "y %v", sy)
		}
		// The bounding box center lands on the canvas center.
		cx, cy := tr.ToScreen(vp, 50, 50)
		assert.InDelta(t, 400, cx, 1e-9)
		assert.InDelta(t, 300, cy, 1e-9)
	})

	t.Run("clamped to max zoom", func(t *testing.T) {
		tr := FitTransform([]Node{{X: 5, Y: 5, Radius: 1}}, vp, 0)
		assert.Equal(t, MaxZoom, tr.Zoom)
	})

	t.Run("empty or unsized", func(t *testing.T) {
		assert.Equal(t, IdentityTransform(), FitTransform(nil, vp, 10))
		assert.Equal(t, IdentityTransform(), FitTransform([]Node{{X: 1}}, Viewport{}, 10))
	})
}

func TestFocusTransform(t *testing.T) {
	vp := Viewport{Width: 640, Height: 480}
	tr := FocusTransform(120, -80, 2)
	sx, sy := tr.ToScreen(vp, 120, -80)
	assert.InDelta(t, 320, sx, 1e-9)
	assert.InDelta(t, 240, sy, 1e-9)
	assert.Equal(t, MaxZoom, FocusTransform(0, 0, 9).Zoom)
}

func TestViewTransform_PannedKeepsFinitePan(t *testing.T) {
	tr := ViewTransform{Zoom: 1, PanX: 10, PanY: -4}
	tests := []struct {
		name   string
		dx, dy float64
	}{
		{"nan x", math.NaN(), 0},
		{"nan y", 0, math.NaN()},
		{"inf", math.Inf(1), 0},
		{"overflow", math.MaxFloat64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := tr
			if tt.name == "overflow" {
				base.PanX = math.MaxFloat64
			}
			assert.Equal(t, base, base.Panned(tt.dx, tt.dy))
		})
	}
	assert.Equal(t, ViewTransform{Zoom: 1, PanX: 15, PanY: -1}, tr.Panned(5, 3))
}
