package graphviewer

// API is the imperative view control a host keeps a reference to.
type API interface {
	FitGraph(padding float64)
	ResetView()
	FocusNode(id NodeID, zoom float64) error
	Frame() *Frame
}

var _ API = (*Viewer)(nil)
