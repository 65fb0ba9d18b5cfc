package graphviewer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Frame is an immutable snapshot of everything a renderer needs. Frames
// are published whole; nothing writes to a Frame after it is handed out.
type Frame struct {
	Seq         uint64
	Nodes       []Node
	Edges       []Edge
	Transform   ViewTransform
	Viewport    Viewport
	Interaction InteractionState
	Settings    Settings
	AtRest      bool
}

// Display returns the display settings the frame was captured with.
func (f *Frame) Display(theme Theme) DisplaySettings {
	return DisplaySettings{ShowLabels: f.Settings.ShowLabels, Theme: theme}
}

// Node looks up a node by id.
func (f *Frame) Node(id NodeID) (Node, bool) {
	return findNode(f.Nodes, id)
}

// Selected returns the selected node, if any.
func (f *Frame) Selected() (Node, bool) {
	if f.Interaction.SelectedID == "" {
		return Node{}, false
	}
	return f.Node(f.Interaction.SelectedID)
}

func (f *Frame) selection() SelectionEvent {
	n, ok := f.Selected()
	if !ok {
		return SelectionEvent{}
	}
	return SelectionEvent{NodeID: n.ID, Kind: n.Kind}
}

// Digest fingerprints the visible content of the frame: positions, edges,
// transform, viewport, highlight state and label visibility. Seq is left
// out so that identical frames of a resting layout share a digest.
func (f *Frame) Digest() string {
	h := sha256.New()
	for _, n := range f.Nodes {
		writeString(h, string(n.ID))
		writeFloats(h, n.X, n.Y, n.Radius)
		h.Write([]byte{n.Fill.R, n.Fill.G, n.Fill.B, n.Fill.A})
	}
	for _, e := range f.Edges {
		writeString(h, e.ID)
		writeFloats(h, e.Weight)
	}
	writeFloats(h, f.Transform.Zoom, f.Transform.PanX, f.Transform.PanY, f.Viewport.Width, f.Viewport.Height)
	writeString(h, string(f.Interaction.SelectedID))
	writeString(h, string(f.Interaction.HoveredID))
	if f.Settings.ShowLabels {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(h hash.Hash, s string) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], uint64(len(s)))
	h.Write(b[:n])
	h.Write([]byte(s))
}

func writeFloats(h hash.Hash, vs ...float64) {
	var b [8]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		h.Write(b[:])
	}
}
