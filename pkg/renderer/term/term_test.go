package term

import (
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
)

func TestGrid_RenderFrame(t *testing.T) {
	a := dataset.Resource{ID: "a", Name: "A"}
	f := &graphviewer.Frame{
		Nodes: []graphviewer.Node{
			{ID: "a", Kind: graphviewer.ResourceNode{Resource: &a}, X: -10, Y: 0, Radius: 1, Fill: color.NRGBA{R: 255, A: 255}},
			{ID: "b", X: 10, Y: 0, Radius: 1, Fill: color.NRGBA{G: 255, A: 255}},
		},
		Edges: []graphviewer.Edge{
			{ID: "ab", Source: "a", Target: "b", Weight: 1, Color: color.NRGBA{B: 255, A: 255}},
		},
		Transform: graphviewer.ViewTransform{Zoom: 1},
	}
	g := NewGrid(40, 16)
	g.Plain = true
	graphviewer.Render(g, f, graphviewer.DefaultDisplaySettings())

	// Surface is 40x32 px: the origin lands on pixel (20,16), cell (20,8).
	assert.Equal(t, glyphNode, g.Rune(10, 8))
	assert.Equal(t, glyphNode, g.Rune(30, 8))
	assert.Equal(t, glyphEdge, g.Rune(20, 8))
	// Label baseline is 13px below the center of a: pixel row 29.
	assert.Equal(t, 'A', g.Rune(10, 14))

	lines := strings.Split(g.String(), "\n")
	require.Len(t, lines, 16)
	for _, l := range lines {
		assert.Equal(t, 40, len([]rune(l)))
	}
}

func TestGrid_LineEndpoints(t *testing.T) {
	g := NewGrid(10, 5)
	g.Line(0.5, 1, 9.5, 9, 1, color.NRGBA{A: 255})
	assert.Equal(t, glyphEdge, g.Rune(0, 0))
	assert.Equal(t, glyphEdge, g.Rune(9, 4))
}

func TestGrid_ClipsOutside(t *testing.T) {
	g := NewGrid(4, 2)
	g.FillCircle(-100, -100, 3, color.NRGBA{A: 255})
	g.Text(200, 200, "far away", 12, color.NRGBA{A: 255})
	for row := 0; row < 2; row++ {
		for col := 0; col < 4; col++ {
			assert.Equal(t, ' ', g.Rune(col, row))
		}
	}
}

func TestGrid_LineFarEndpoints(t *testing.T) {
	g := NewGrid(10, 5)
	ink := color.NRGBA{A: 255}

	g.Line(-1e12, 4, 1e12, 4, 1, ink)
	for col := 0; col < 10; col++ {
		assert.Equal(t, glyphEdge, g.Rune(col, 2), "col %d", col)
	}
	assert.Equal(t, ' ', g.Rune(0, 1))

	g = NewGrid(10, 5)
	g.Line(-1e12, -50, 1e12, -50, 1, ink)
	g.Line(math.NaN(), 0, 5, 5, 1, ink)
	g.Line(math.MaxFloat64, 0, -math.MaxFloat64, 0, 1, ink)
	for row := 0; row < 5; row++ {
		for col := 0; col < 10; col++ {
			assert.Equal(t, ' ', g.Rune(col, row))
		}
	}
}

func TestCellToPixel(t *testing.T) {
	x, y := CellToPixel(3, 4)
	assert.Equal(t, 3.5, x)
	assert.Equal(t, 9.0, y)
}
