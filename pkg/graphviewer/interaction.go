package graphviewer

import (
	"fmt"
	"math"
)

// InteractionState is the selection and drag state of one view. An empty
// NodeID means no node.
type InteractionState struct {
	SelectedID NodeID
	HoveredID  NodeID
	Dragging   bool
	DragAnchor Point
}

// SelectionEvent is emitted when a click lands on a node. Kind carries the
// selected resource or category.
type SelectionEvent struct {
	NodeID NodeID
	Kind   NodeKind
}

// PointerType enumerates the inputs a Controller understands.
type PointerType uint8

const (
	PointerDown PointerType = iota + 1
	PointerMove
	PointerUp
	PointerWheel
	ZoomIn
	ZoomOut
	ResetView
)

func (p PointerType) String() string {
	switch p {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerWheel:
		return "wheel"
	case ZoomIn:
		return "zoom-in"
	case ZoomOut:
		return "zoom-out"
	case ResetView:
		return "reset"
	}
	return fmt.Sprintf("pointer(%d)", uint8(p))
}

// ParsePointerType is the inverse of PointerType.String.
func ParsePointerType(s string) (PointerType, error) {
	for p := PointerDown; p <= ResetView; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pointer event %q", s)
}

// PointerEvent is one input in screen coordinates. Delta is the wheel
// delta; negative values zoom in.
type PointerEvent struct {
	Type  PointerType
	X, Y  float64
	Delta float64
}

// Validate rejects events whose coordinates or delta are NaN or infinite.
func (e PointerEvent) Validate() error {
	if !finite(e.X) || !finite(e.Y) || !finite(e.Delta) {
		return fmt.Errorf("%w: %v at (%v, %v) delta %v", ErrInvalidPointer, e.Type, e.X, e.Y, e.Delta)
	}
	return nil
}

// Controller runs the pointer state machine of one view: clicks select,
// drags on empty canvas pan, moves update hover, zoom is clamped. It is not
// safe for concurrent use.
type Controller struct {
	transform ViewTransform
	state     InteractionState
	viewport  Viewport
	onSelect  func(SelectionEvent)
}

// NewController creates a controller at identity zoom. onSelect may be nil.
func NewController(onSelect func(SelectionEvent)) *Controller {
	return &Controller{transform: IdentityTransform(), onSelect: onSelect}
}

// Transform returns the current view transform.
func (c *Controller) Transform() ViewTransform { return c.transform }

// SetTransform replaces the transform, clamping the zoom.
func (c *Controller) SetTransform(t ViewTransform) {
	c.transform = t.WithZoom(t.Zoom)
}

// State returns the interaction state.
func (c *Controller) State() InteractionState { return c.state }

// Viewport returns the surface size used for coordinate mapping.
func (c *Controller) Viewport() Viewport { return c.viewport }

// SetViewport records the surface size.
func (c *Controller) SetViewport(vp Viewport) { c.viewport = vp }

// ResetInteraction clears selection, hover and drag state. The transform is
// kept.
func (c *Controller) ResetInteraction() { c.state = InteractionState{} }

// HitTest returns the topmost node whose disc contains the screen point.
// Nodes are drawn in slice order, so the last match is on top.
func (c *Controller) HitTest(nodes []Node, sx, sy float64) (Node, bool) {
	gx, gy := c.transform.ToGraph(c.viewport, sx, sy)
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if math.Hypot(gx-n.X, gy-n.Y) <= n.Radius {
			return n, true
		}
	}
	return Node{}, false
}

// PointerDown selects the node under the pointer, firing onSelect and
// returning the event, or starts panning when the pointer is over empty
// canvas. A click on empty canvas clears the selection without an event.
func (c *Controller) PointerDown(nodes []Node, sx, sy float64) (SelectionEvent, bool) {
	if n, ok := c.HitTest(nodes, sx, sy); ok {
		c.state.SelectedID = n.ID
		evt := SelectionEvent{NodeID: n.ID, Kind: n.Kind}
		if c.onSelect != nil {
			c.onSelect(evt)
		}
		return evt, true
	}
	c.state.SelectedID = ""
	c.state.Dragging = true
	c.state.DragAnchor = Point{X: sx, Y: sy}
	return SelectionEvent{}, false
}

// PointerMove updates hover and, while panning, moves the view by the
// distance since the previous move.
func (c *Controller) PointerMove(nodes []Node, sx, sy float64) {
	if c.state.Dragging {
		c.transform = c.transform.Panned(sx-c.state.DragAnchor.X, sy-c.state.DragAnchor.Y)
		c.state.DragAnchor = Point{X: sx, Y: sy}
	}
	if n, ok := c.HitTest(nodes, sx, sy); ok {
		c.state.HoveredID = n.ID
	} else {
		c.state.HoveredID = ""
	}
}

// PointerUp ends panning.
func (c *Controller) PointerUp() {
	c.state.Dragging = false
}

// ZoomBy changes the zoom by delta, clamped.
func (c *Controller) ZoomBy(delta float64) {
	c.transform = c.transform.WithZoom(c.transform.Zoom + delta)
}

// Wheel zooms one step per event: negative delta (wheel up) zooms in.
func (c *Controller) Wheel(delta float64) {
	switch {
	case delta < 0:
		c.ZoomBy(ZoomStep)
	case delta > 0:
		c.ZoomBy(-ZoomStep)
	}
}

// ResetView restores identity zoom and pan.
func (c *Controller) ResetView() { c.transform = IdentityTransform() }

// FocusNode centers the view on a node.
func (c *Controller) FocusNode(nodes []Node, id NodeID, zoom float64) error {
	n, ok := findNode(nodes, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	c.transform = FocusTransform(n.X, n.Y, zoom)
	return nil
}

// FitGraph zooms and pans so that every node is visible.
func (c *Controller) FitGraph(nodes []Node, padding float64) {
	c.transform = FitTransform(nodes, c.viewport, padding)
}

// Handle dispatches a pointer event and returns the selection it caused, if
// any. Events that fail Validate are dropped.
func (c *Controller) Handle(nodes []Node, evt PointerEvent) (SelectionEvent, bool) {
	if evt.Validate() != nil {
		return SelectionEvent{}, false
	}
	switch evt.Type {
	case PointerDown:
		return c.PointerDown(nodes, evt.X, evt.Y)
	case PointerMove:
		c.PointerMove(nodes, evt.X, evt.Y)
	case PointerUp:
		c.PointerUp()
	case PointerWheel:
		c.Wheel(evt.Delta)
	case ZoomIn:
		c.ZoomBy(ZoomStep)
	case ZoomOut:
		c.ZoomBy(-ZoomStep)
	case ResetView:
		c.ResetView()
	}
	return SelectionEvent{}, false
}
