// Package headless provides a Surface that records draw calls instead of
// painting them. It backs renderer tests and the inspect command.
package headless

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/recera/relgraph/pkg/graphviewer"
)

// OpKind names a recorded call.
type OpKind string

const (
	OpClear        OpKind = "clear"
	OpPush         OpKind = "push"
	OpPop          OpKind = "pop"
	OpTranslate    OpKind = "translate"
	OpScale        OpKind = "scale"
	OpLine         OpKind = "line"
	OpFillCircle   OpKind = "fill-circle"
	OpStrokeCircle OpKind = "stroke-circle"
	OpText         OpKind = "text"
)

// Matrix is a translate-then-uniform-scale transform.
type Matrix struct {
	TX, TY, S float64
}

// Apply maps a point through the matrix.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.TX + x*m.S, m.TY + y*m.S
}

var identity = Matrix{S: 1}

// Op is one recorded call with the transform that was current when it was
// made.
type Op struct {
	Kind   OpKind
	X, Y   float64
	X2, Y2 float64
	R      float64
	Width  float64
	Size   float64
	Text   string
	Color  color.NRGBA
	Matrix Matrix
}

// Screen returns the op's primary point in surface pixels.
func (o Op) Screen() (float64, float64) { return o.Matrix.Apply(o.X, o.Y) }

func (o Op) String() string {
	switch o.Kind {
	case OpLine:
		return fmt.Sprintf("%s (%.1f,%.1f)-(%.1f,%.1f) w=%.1f", o.Kind, o.X, o.Y, o.X2, o.Y2, o.Width)
	case OpFillCircle, OpStrokeCircle:
		return fmt.Sprintf("%s (%.1f,%.1f) r=%.1f", o.Kind, o.X, o.Y, o.R)
	case OpText:
		return fmt.Sprintf("%s (%.1f,%.1f) %q", o.Kind, o.X, o.Y, o.Text)
	}
	return string(o.Kind)
}

var _ graphviewer.Surface = (*Recorder)(nil)

// Recorder is a graphviewer.Surface that keeps every call.
type Recorder struct {
	mu     sync.Mutex
	width  float64
	height float64
	ops    []Op
	stack  []Matrix
	cur    Matrix
}

// NewRecorder returns a recorder reporting the given size.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height, cur: identity}
}

func (r *Recorder) Size() (float64, float64) { return r.width, r.height }

// Resize changes the reported size.
func (r *Recorder) Resize(width, height float64) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
}

func (r *Recorder) Clear(c color.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = r.ops[:0]
	r.record(Op{Kind: OpClear, Color: c})
}

func (r *Recorder) Push() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = append(r.stack, r.cur)
	r.record(Op{Kind: OpPush})
}

func (r *Recorder) Pop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.stack); n > 0 {
		r.cur = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
	r.record(Op{Kind: OpPop})
}

func (r *Recorder) Translate(x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Op{Kind: OpTranslate, X: x, Y: y})
	r.cur.TX += x * r.cur.S
	r.cur.TY += y * r.cur.S
}

func (r *Recorder) Scale(s float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Op{Kind: OpScale, X: s})
	r.cur.S *= s
}

func (r *Recorder) Line(x1, y1, x2, y2, width float64, c color.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, Width: width, Color: c})
}

func (r *Recorder) FillCircle(x, y, radius float64, c color.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Op{Kind: OpFillCircle, X: x, Y: y, R: radius, Color: c})
}

func (r *Recorder) StrokeCircle(x, y, radius, width float64, c color.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Op{Kind: OpStrokeCircle, X: x, Y: y, R: radius, Width: width, Color: c})
}

func (r *Recorder) Text(x, y float64, s string, size float64, c color.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Op{Kind: OpText, X: x, Y: y, Text: s, Size: size, Color: c})
}

func (r *Recorder) record(op Op) {
	op.Matrix = r.cur
	r.ops = append(r.ops, op)
}

// Ops returns a copy of the calls since the last Clear.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Filter returns the recorded calls of one kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops() {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Count returns how many calls of kind were recorded.
func (r *Recorder) Count(kind OpKind) int { return len(r.Filter(kind)) }

// Texts returns the label strings in draw order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Filter(OpText) {
		out = append(out, op.Text)
	}
	return out
}

// Reset drops all recorded calls and the transform stack.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
	r.stack = nil
	r.cur = identity
}

// Dump formats the calls one per line.
func (r *Recorder) Dump() string {
	var b strings.Builder
	for _, op := range r.Ops() {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
