package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recera/relgraph/pkg/graphviewer"
)

// Message is one server message received by a Client. Exactly one field
// is set.
type Message struct {
	Snapshot  *Snapshot
	Control   string
	Selection *SelectionNotice
}

// Client is a Go client of the live protocol.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Dial connects to a live endpoint such as ws://host/live/new.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("live: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// SendEvent sends an event to the server
func (c *Client) SendEvent(evt Event) error {
	return c.send(EncodeEvent(evt))
}

// SendPointer sends a viewer pointer event.
func (c *Client) SendPointer(p graphviewer.PointerEvent) error {
	evt, err := EventFromPointer(p)
	if err != nil {
		return err
	}
	return c.SendEvent(evt)
}

// SendControl sends a control message.
func (c *Client) SendControl(name string, args ...uint64) error {
	return c.send(EncodeControl(name, args...))
}

func (c *Client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// SetReadDeadline bounds the next Read calls.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Read blocks for the next server message.
func (c *Client) Read() (Message, error) {
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	if kind == websocket.TextMessage {
		var n SelectionNotice
		if err := json.Unmarshal(data, &n); err != nil {
			return Message{}, fmt.Errorf("live: decode notice: %w", err)
		}
		return Message{Selection: &n}, nil
	}
	if len(data) == 0 {
		return Message{}, errShortFrame
	}
	switch MessageType(data[0]) {
	case FrameSnapshot:
		s, err := DecodeSnapshot(data)
		if err != nil {
			return Message{}, err
		}
		return Message{Snapshot: s}, nil
	case FrameControl:
		name, _, err := DecodeControl(data)
		if err != nil {
			return Message{}, err
		}
		return Message{Control: name}, nil
	}
	return Message{}, errors.New("live: unexpected frame type")
}

// Close closes the WebSocket connection
func (c *Client) Close() error {
	c.mu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}
