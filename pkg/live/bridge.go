package live

import (
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/reactive"
)

// Host is the viewer side of a live session. *graphviewer.Viewer
// implements it.
type Host interface {
	Frame() *graphviewer.Frame
	Frames() reactive.Signal[*graphviewer.Frame]
	Selection() reactive.Signal[graphviewer.SelectionEvent]
	Handle(graphviewer.PointerEvent)
}

var _ Host = (*graphviewer.Viewer)(nil)

// bind subscribes a session to the host's frames and selections and
// returns the function that detaches it.
func bind(s *Session, host Host) func() {
	unsubFrames := host.Frames().Subscribe(s.pushFrame)
	unsubSelection := host.Selection().Subscribe(s.pushSelection)
	s.pushFrame(host.Frame())
	return func() {
		unsubFrames()
		unsubSelection()
	}
}

// dispatch routes a decoded client event into the host.
func dispatch(s *Session, host Host, evt *Event) {
	p, err := evt.Pointer()
	if err != nil {
		s.logger.Warn("dropping event", "error", err)
		return
	}
	host.Handle(p)
}
