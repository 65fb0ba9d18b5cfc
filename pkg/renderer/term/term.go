// Package term rasterizes frames onto a terminal cell grid. Each cell is
// one pixel wide and two pixels tall, so a cols x rows terminal is a
// cols x 2*rows surface.
package term

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/relgraph/pkg/graphviewer"
)

const (
	glyphEdge = '·'
	glyphNode = '●'
	glyphRing = '○'
)

type cell struct {
	r     rune
	color color.NRGBA
	set   bool
}

type matrix struct{ tx, ty, s float64 }

func (m matrix) apply(x, y float64) (float64, float64) { return m.tx + x*m.s, m.ty + y*m.s }

var _ graphviewer.Surface = (*Grid)(nil)

// Grid is a graphviewer.Surface over terminal cells.
type Grid struct {
	cols, rows int
	cells      []cell
	background color.NRGBA
	cur        matrix
	stack      []matrix
	// Plain disables ANSI styling in String.
	Plain bool
}

// NewGrid returns a cols x rows grid.
func NewGrid(cols, rows int) *Grid {
	g := &Grid{cur: matrix{s: 1}}
	g.Resize(cols, rows)
	return g
}

// Resize changes the grid dimensions and clears it.
func (g *Grid) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	g.cols, g.rows = cols, rows
	g.cells = make([]cell, cols*rows)
}

// Cols and Rows return the grid dimensions in cells.
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Size is in surface pixels: two per row.
func (g *Grid) Size() (float64, float64) { return float64(g.cols), float64(g.rows * 2) }

// CellToPixel maps a terminal cell to the surface pixel at its center.
func CellToPixel(col, row int) (x, y float64) {
	return float64(col) + 0.5, float64(row*2) + 1
}

func (g *Grid) Clear(c color.NRGBA) {
	for i := range g.cells {
		g.cells[i] = cell{}
	}
	g.background = c
	g.cur = matrix{s: 1}
	g.stack = g.stack[:0]
}

func (g *Grid) Push() { g.stack = append(g.stack, g.cur) }

func (g *Grid) Pop() {
	if n := len(g.stack); n > 0 {
		g.cur = g.stack[n-1]
		g.stack = g.stack[:n-1]
	}
}

func (g *Grid) Translate(x, y float64) {
	g.cur.tx += x * g.cur.s
	g.cur.ty += y * g.cur.s
}

func (g *Grid) Scale(f float64) { g.cur.s *= f }

// plot sets the cell under surface pixel (px, py).
func (g *Grid) plot(px, py float64, r rune, c color.NRGBA) {
	col := int(math.Floor(px))
	row := int(math.Floor(py / 2))
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row*g.cols+col] = cell{r: r, color: c, set: true}
}

func (g *Grid) Line(x1, y1, x2, y2, _ float64, c color.NRGBA) {
	ax, ay := g.cur.apply(x1, y1)
	bx, by := g.cur.apply(x2, y2)
	// Clip to the grid first so far-away endpoints cost nothing, then walk
	// in cell space with Bresenham.
	ax, ay, bx, by, ok := clipSegment(ax, ay/2, bx, by/2, -1, -1, float64(g.cols)+1, float64(g.rows)+1)
	if !ok {
		return
	}
	c0, r0 := int(math.Floor(ax)), int(math.Floor(ay))
	c1, r1 := int(math.Floor(bx)), int(math.Floor(by))
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for steps := 0; steps <= g.cols+g.rows+dc-dr; steps++ {
		g.plot(float64(c0), float64(r0*2), glyphEdge, c)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

// clipSegment clips a segment to the box [minX, maxX] x [minY, maxY]
// (Liang-Barsky). ok is false when nothing of it is inside or the input is
// not finite.
func clipSegment(x0, y0, x1, y1, minX, minY, maxX, maxY float64) (ax, ay, bx, by float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	for _, v := range []float64{x0, y0, dx, dy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{{-dx, x0 - minX}, {dx, maxX - x0}, {-dy, y0 - minY}, {dy, maxY - y0}}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func (g *Grid) FillCircle(x, y, r float64, c color.NRGBA) {
	cx, cy := g.cur.apply(x, y)
	rr := r * g.cur.s
	g.eachCell(cx, cy, rr+0.5, func(px, py, d float64) {
		if d <= rr+0.5 {
			g.plot(px, py, glyphNode, c)
		}
	})
	// Always mark the center so tiny nodes stay visible.
	g.plot(cx, cy, glyphNode, c)
}

func (g *Grid) StrokeCircle(x, y, r, _ float64, c color.NRGBA) {
	cx, cy := g.cur.apply(x, y)
	rr := r * g.cur.s
	steps := int(math.Max(16, 2*math.Pi*rr))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		g.plot(cx+rr*math.Cos(a), cy+rr*math.Sin(a), glyphRing, c)
	}
}

func (g *Grid) Text(x, y float64, s string, _ float64, c color.NRGBA) {
	px, py := g.cur.apply(x, y)
	runes := []rune(s)
	start := px - float64(len(runes))/2 + 0.5
	for i, r := range runes {
		g.plot(start+float64(i), py, r, c)
	}
}

// eachCell visits the center of every cell whose center lies in the
// bounding box of a circle.
func (g *Grid) eachCell(cx, cy, r float64, fn func(px, py, d float64)) {
	minCol, maxCol := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	minRow, maxRow := int(math.Floor((cy-r)/2)), int(math.Ceil((cy+r)/2))
	for row := max(minRow, 0); row <= min(maxRow, g.rows-1); row++ {
		for col := max(minCol, 0); col <= min(maxCol, g.cols-1); col++ {
			px, py := CellToPixel(col, row)
			fn(px, py, math.Hypot(px-cx, py-cy))
		}
	}
}

// Rune returns the glyph at a cell, or a space.
func (g *Grid) Rune(col, row int) rune {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return ' '
	}
	if c := g.cells[row*g.cols+col]; c.set {
		return c.r
	}
	return ' '
}

// String renders the grid, styling runs of equally colored cells with
// lipgloss unless Plain is set.
func (g *Grid) String() string {
	var b strings.Builder
	for row := 0; row < g.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		var runColor color.NRGBA
		runSet := false
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if g.Plain || !runSet {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(hex(runColor)).Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < g.cols; col++ {
			c := g.cells[row*g.cols+col]
			if c.set != runSet || c.color != runColor {
				flush()
				runSet, runColor = c.set, c.color
			}
			if c.set {
				run.WriteRune(c.r)
			} else {
				run.WriteByte(' ')
			}
		}
		flush()
	}
	return b.String()
}

func hex(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
