// Package live streams viewer frames to browsers over WebSocket and feeds
// their pointer input back into the viewer.
//
// Binary frames start with a MessageType byte. Server to client: snapshots
// and control messages. Client to server: events and control messages.
// Selection notices go out as JSON text messages.
package live

import (
	"fmt"

	"github.com/recera/relgraph/pkg/graphviewer"
)

// MessageType represents the type of live protocol message
type MessageType uint8

const (
	FrameSnapshot MessageType = 0x00
	FrameEvent    MessageType = 0x01
	FrameControl  MessageType = 0x02
)

// Control message names.
const (
	ControlHello = "HELLO"
	ControlPing  = "PING"
	ControlPong  = "PONG"
)

// EventType is a client input kind.
type EventType uint8

const (
	EventPointerDown EventType = 0x01
	EventPointerMove EventType = 0x02
	EventPointerUp   EventType = 0x03
	EventWheel       EventType = 0x04
	EventZoomIn      EventType = 0x05
	EventZoomOut     EventType = 0x06
	EventResetView   EventType = 0x07
)

var pointerTypes = map[EventType]graphviewer.PointerType{
	EventPointerDown: graphviewer.PointerDown,
	EventPointerMove: graphviewer.PointerMove,
	EventPointerUp:   graphviewer.PointerUp,
	EventWheel:       graphviewer.PointerWheel,
	EventZoomIn:      graphviewer.ZoomIn,
	EventZoomOut:     graphviewer.ZoomOut,
	EventResetView:   graphviewer.ResetView,
}

// Event is a client input in the client's surface pixels.
type Event struct {
	Type  EventType
	X, Y  float64
	Delta float64
}

// Pointer converts the event for graphviewer.Viewer.Handle.
func (e Event) Pointer() (graphviewer.PointerEvent, error) {
	pt, ok := pointerTypes[e.Type]
	if !ok {
		return graphviewer.PointerEvent{}, fmt.Errorf("live: unknown event type 0x%02x", uint8(e.Type))
	}
	p := graphviewer.PointerEvent{Type: pt, X: e.X, Y: e.Y, Delta: e.Delta}
	if err := p.Validate(); err != nil {
		return graphviewer.PointerEvent{}, fmt.Errorf("live: %w", err)
	}
	return p, nil
}

// EventFromPointer is the inverse of Event.Pointer.
func EventFromPointer(p graphviewer.PointerEvent) (Event, error) {
	for et, pt := range pointerTypes {
		if pt == p.Type {
			return Event{Type: et, X: p.X, Y: p.Y, Delta: p.Delta}, nil
		}
	}
	return Event{}, fmt.Errorf("live: unsupported pointer event %v", p.Type)
}

// NodePosition is one node in a snapshot.
type NodePosition struct {
	ID     string
	X, Y   float64
	Radius float64
	Fill   [4]uint8
}

// Snapshot is the wire form of a graphviewer.Frame.
type Snapshot struct {
	Seq      uint64
	Zoom     float64
	PanX     float64
	PanY     float64
	Selected string
	Hovered  string
	Nodes    []NodePosition
}

// SnapshotOf extracts the wire form of a frame.
func SnapshotOf(f *graphviewer.Frame) Snapshot {
	s := Snapshot{
		Seq:      f.Seq,
		Zoom:     f.Transform.Zoom,
		PanX:     f.Transform.PanX,
		PanY:     f.Transform.PanY,
		Selected: string(f.Interaction.SelectedID),
		Hovered:  string(f.Interaction.HoveredID),
		Nodes:    make([]NodePosition, len(f.Nodes)),
	}
	for i, n := range f.Nodes {
		s.Nodes[i] = NodePosition{
			ID:     string(n.ID),
			X:      n.X,
			Y:      n.Y,
			Radius: n.Radius,
			Fill:   [4]uint8{n.Fill.R, n.Fill.G, n.Fill.B, n.Fill.A},
		}
	}
	return s
}

// SelectionNotice is the JSON text message sent when the selection changes.
type SelectionNotice struct {
	Type   string `json:"type"`
	NodeID string `json:"nodeId"`
	Kind   string `json:"kind,omitempty"`
	Label  string `json:"label,omitempty"`
}

func selectionNotice(evt graphviewer.SelectionEvent) SelectionNotice {
	n := SelectionNotice{Type: "selection", NodeID: string(evt.NodeID)}
	if evt.Kind != nil {
		n.Kind = evt.Kind.Name()
		n.Label = evt.Kind.Label()
	}
	return n
}
