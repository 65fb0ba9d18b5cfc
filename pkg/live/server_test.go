package live

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/scheduler"
)

func weight(w float64) *float64 { return &w }

func newTestViewer(t *testing.T) (*graphviewer.Viewer, *scheduler.Manual) {
	t.Helper()
	ds := &dataset.Dataset{
		Resources: []dataset.Resource{
			{ID: "A", Name: "Alpha", QualityScore: 90},
			{ID: "B", Name: "Beta", QualityScore: 50},
			{ID: "C", Name: "Gamma", QualityScore: 10},
		},
		Relations: []dataset.Relation{
			{SourceID: "A", TargetID: "B", Kind: dataset.Dependency, Weight: weight(1)},
		},
	}
	ticker := scheduler.NewManual()
	v := graphviewer.NewViewer(ds, graphviewer.ViewerOptions{
		Ticker:   ticker,
		Viewport: graphviewer.Viewport{Width: 800, Height: 600},
	})
	require.NoError(t, v.Start())
	t.Cleanup(v.Stop)
	return v, ticker
}

func startServer(t *testing.T, host Host) (*Server, string) {
	t.Helper()
	srv := NewServer(host, Options{})
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/live/"
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	return c
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, c *Client, match func(Message) bool) Message {
	t.Helper()
	for i := 0; i < 100; i++ {
		msg, err := c.Read()
		require.NoError(t, err)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("message not received")
	return Message{}
}

func TestServer_HelloAndSnapshot(t *testing.T) {
	v, ticker := newTestViewer(t)
	srv, url := startServer(t, v)
	c := dial(t, url+"new")

	first, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, ControlHello, first.Control)

	msg := readUntil(t, c, func(m Message) bool { return m.Snapshot != nil })
	assert.Equal(t, v.Frame().Seq, msg.Snapshot.Seq)
	require.Len(t, msg.Snapshot.Nodes, 3)
	assert.Equal(t, "A", msg.Snapshot.Nodes[0].ID)
	assert.Equal(t, 1, srv.Sessions())

	ticker.Step(3)
	want := v.Frame().Seq
	msg = readUntil(t, c, func(m Message) bool { return m.Snapshot != nil && m.Snapshot.Seq == want })
	assert.Equal(t, v.Frame().Nodes[1].X, msg.Snapshot.Nodes[1].X)
}

func TestServer_PointerSelects(t *testing.T) {
	v, _ := newTestViewer(t)
	_, url := startServer(t, v)
	c := dial(t, url+NewSessionID())
	readUntil(t, c, func(m Message) bool { return m.Snapshot != nil })

	f := v.Frame()
	a, ok := f.Node("A")
	require.True(t, ok)
	sx, sy := f.Transform.ToScreen(f.Viewport, a.X, a.Y)
	require.NoError(t, c.SendPointer(graphviewer.PointerEvent{Type: graphviewer.PointerDown, X: sx, Y: sy}))

	msg := readUntil(t, c, func(m Message) bool { return m.Selection != nil })
	assert.Equal(t, "selection", msg.Selection.Type)
	assert.Equal(t, "A", msg.Selection.NodeID)
	assert.Equal(t, "resource", msg.Selection.Kind)
	assert.Equal(t, "Alpha", msg.Selection.Label)

	readUntil(t, c, func(m Message) bool { return m.Snapshot != nil && m.Snapshot.Selected == "A" })
	assert.Equal(t, graphviewer.NodeID("A"), v.Selection().Get().NodeID)
}

func TestServer_NonFiniteEventsDropped(t *testing.T) {
	v, _ := newTestViewer(t)
	_, url := startServer(t, v)
	c := dial(t, url+NewSessionID())
	readUntil(t, c, func(m Message) bool { return m.Snapshot != nil })

	require.NoError(t, c.SendEvent(Event{Type: EventPointerDown, X: 5, Y: 5}))
	require.NoError(t, c.SendEvent(Event{Type: EventPointerMove, X: math.NaN(), Y: 5}))
	require.NoError(t, c.SendEvent(Event{Type: EventPointerMove, X: 5, Y: math.Inf(1)}))
	require.NoError(t, c.SendEvent(Event{Type: EventPointerUp}))

	f := v.Frame()
	a, ok := f.Node("A")
	require.True(t, ok)
	sx, sy := graphviewer.IdentityTransform().ToScreen(f.Viewport, a.X, a.Y)
	require.NoError(t, c.SendEvent(Event{Type: EventPointerDown, X: sx, Y: sy}))

	msg := readUntil(t, c, func(m Message) bool { return m.Selection != nil })
	assert.Equal(t, "A", msg.Selection.NodeID)
	assert.Equal(t, graphviewer.IdentityTransform(), v.Frame().Transform)
}

func TestServer_ZoomEvent(t *testing.T) {
	v, _ := newTestViewer(t)
	_, url := startServer(t, v)
	c := dial(t, url+"new")
	readUntil(t, c, func(m Message) bool { return m.Snapshot != nil })

	require.NoError(t, c.SendEvent(Event{Type: EventZoomIn}))
	msg := readUntil(t, c, func(m Message) bool { return m.Snapshot != nil && m.Snapshot.Zoom > 1 })
	assert.InDelta(t, 1.1, msg.Snapshot.Zoom, 1e-9)
}

func TestServer_PingPong(t *testing.T) {
	v, _ := newTestViewer(t)
	_, url := startServer(t, v)
	c := dial(t, url+"new")

	require.NoError(t, c.SendControl(ControlPing))
	msg := readUntil(t, c, func(m Message) bool { return m.Control == ControlPong })
	assert.Equal(t, ControlPong, msg.Control)
}

func TestServer_InvalidSessionID(t *testing.T) {
	v, _ := newTestViewer(t)
	_, url := startServer(t, v)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Dial(ctx, url+"not-a-uuid", nil)
	assert.Error(t, err)
}

func TestServer_SessionRemovedOnClose(t *testing.T) {
	v, _ := newTestViewer(t)
	srv, url := startServer(t, v)
	id := NewSessionID()
	c := dial(t, url+id)
	readUntil(t, c, func(m Message) bool { return m.Snapshot != nil })

	session, ok := srv.GetSession(id)
	require.True(t, ok)
	require.NoError(t, c.Close())

	select {
	case <-session.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not shut down")
	}
	assert.Equal(t, 0, srv.Sessions())
	assert.Equal(t, 0, v.Frames().(interface{ Subscribers() int }).Subscribers())
}
