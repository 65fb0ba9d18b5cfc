package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recera/relgraph/pkg/graphviewer"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	textBuffer   = 16
)

// ErrSessionClosed is returned when sending on a closed session.
var ErrSessionClosed = errors.New("live: session closed")

// Options configures a Server.
type Options struct {
	Logger *slog.Logger
	// AllowAllOrigins disables the same-origin check on upgrade.
	AllowAllOrigins bool
	// PathPrefix is stripped from the request path to find the session
	// id in HandleWebSocket. Defaults to "/live/".
	PathPrefix string
}

// Server handles WebSocket connections for live updates
type Server struct {
	upgrader websocket.Upgrader
	host     Host
	logger   *slog.Logger
	prefix   string
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewServer creates a live server streaming host's frames.
func NewServer(host Host, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := opts.PathPrefix
	if prefix == "" {
		prefix = "/live/"
	}
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		host:     host,
		logger:   logger.With("component", "live"),
		prefix:   prefix,
		sessions: make(map[string]*Session),
	}
	if opts.AllowAllOrigins {
		s.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return s
}

// NewSessionID returns a fresh session id.
func NewSessionID() string { return uuid.NewString() }

// HandleWebSocket upgrades a request whose path is PathPrefix + session id.
// An empty id or "new" starts a fresh session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.Serve(w, r, strings.TrimPrefix(r.URL.Path, s.prefix))
}

// Serve upgrades the connection and runs the session until it closes.
// Reconnecting with the id of a live session replaces the old connection.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, sessionID string) {
	if sessionID == "" || sessionID == "new" {
		sessionID = NewSessionID()
	} else if _, err := uuid.Parse(sessionID); err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	session := s.replaceSession(sessionID, conn)
	go session.run()
}

func (s *Server) replaceSession(id string, conn *websocket.Conn) *Session {
	session := newSession(id, conn, s)

	s.mu.Lock()
	old := s.sessions[id]
	s.sessions[id] = session
	s.mu.Unlock()

	if old != nil {
		session.lastSeq.Store(old.lastSeq.Load())
		old.Close()
	}
	return session
}

// GetSession retrieves a session by ID
func (s *Server) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// Sessions returns the number of connected sessions.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// removeSession drops session if it is still the registered one.
func (s *Server) removeSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[session.ID] == session {
		delete(s.sessions, session.ID)
	}
}

// Close disconnects every session.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// Session represents a live connection session
type Session struct {
	ID     string
	conn   *websocket.Conn
	server *Server
	logger *slog.Logger

	lastSeq    atomic.Uint64
	latest     atomic.Pointer[graphviewer.Frame]
	frameReady chan struct{}
	sendText   chan []byte
	sendCtrl   chan []byte
	closeChan  chan struct{}
	closeOnce  sync.Once
	done       chan struct{}
}

func newSession(id string, conn *websocket.Conn, server *Server) *Session {
	return &Session{
		ID:         id,
		conn:       conn,
		server:     server,
		logger:     server.logger.With("session", id),
		frameReady: make(chan struct{}, 1),
		sendText:   make(chan []byte, textBuffer),
		sendCtrl:   make(chan []byte, textBuffer),
		closeChan:  make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// LastSeq returns the sequence number of the last frame written.
func (s *Session) LastSeq() uint64 { return s.lastSeq.Load() }

// Done is closed when the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		s.conn.Close()
	})
}

// pushFrame records f as the next frame to send. Only the newest pending
// frame is kept, so a slow client skips frames instead of stalling the
// viewer.
func (s *Session) pushFrame(f *graphviewer.Frame) {
	if f == nil {
		return
	}
	for {
		cur := s.latest.Load()
		if cur != nil && cur.Seq >= f.Seq {
			break
		}
		if s.latest.CompareAndSwap(cur, f) {
			break
		}
	}
	select {
	case s.frameReady <- struct{}{}:
	default:
	}
}

func (s *Session) pushSelection(evt graphviewer.SelectionEvent) {
	data, err := json.Marshal(selectionNotice(evt))
	if err != nil {
		s.logger.Error("encode selection", "error", err)
		return
	}
	if err := s.SendText(data); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.logger.Warn("dropping selection notice", "error", err)
	}
}

// SendText queues a text message without blocking.
func (s *Session) SendText(data []byte) error {
	select {
	case <-s.closeChan:
		return ErrSessionClosed
	default:
	}
	select {
	case s.sendText <- data:
		return nil
	default:
		return errors.New("live: send buffer full")
	}
}

// run owns the connection: it starts the writer, greets the client, binds
// to the host and reads events until the connection drops.
func (s *Session) run() {
	defer close(s.done)
	defer s.server.removeSession(s)
	defer s.Close()

	s.logger.Info("session connected")
	if !s.write(websocket.BinaryMessage, EncodeControl(ControlHello, s.lastSeq.Load())) {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writer()
	}()

	unbind := bind(s, s.server.host)
	defer func() {
		unbind()
		s.Close()
		<-writerDone
		s.logger.Info("session closed")
	}()

	s.conn.SetReadLimit(1 << 16)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("unexpected close", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		switch messageType {
		case websocket.BinaryMessage:
			s.handleBinaryMessage(data)
		case websocket.TextMessage:
			s.logger.Debug("ignoring text message", "size", len(data))
		}
	}
}

func (s *Session) writeControl(data []byte) {
	select {
	case s.sendCtrl <- data:
	case <-s.closeChan:
	}
}

// writer handles writing messages to the WebSocket
func (s *Session) writer() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	var sent *graphviewer.Frame
	for {
		select {
		case data := <-s.sendCtrl:
			if !s.write(websocket.BinaryMessage, data) {
				return
			}

		case <-s.frameReady:
			f := s.latest.Load()
			if f == nil || f == sent {
				continue
			}
			data, err := EncodeSnapshot(SnapshotOf(f))
			if err != nil {
				s.logger.Error("encode snapshot", "error", err)
				continue
			}
			if !s.write(websocket.BinaryMessage, data) {
				return
			}
			sent = f
			s.lastSeq.Store(f.Seq)

		case message := <-s.sendText:
			if !s.write(websocket.TextMessage, message) {
				return
			}

		case <-ticker.C:
			if !s.write(websocket.PingMessage, nil) {
				return
			}

		case <-s.closeChan:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) write(kind int, data []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(kind, data); err != nil {
		s.logger.Debug("write failed", "error", err)
		s.Close()
		return false
	}
	return true
}

// handleBinaryMessage processes binary protocol messages
func (s *Session) handleBinaryMessage(data []byte) {
	if len(data) == 0 {
		return
	}
	switch MessageType(data[0]) {
	case FrameEvent:
		evt, err := DecodeEvent(data)
		if err != nil {
			s.logger.Warn("decode event", "error", err)
			return
		}
		dispatch(s, s.server.host, evt)

	case FrameControl:
		name, dec, err := DecodeControl(data)
		if err != nil {
			s.logger.Warn("decode control", "error", err)
			return
		}
		switch name {
		case ControlHello:
			lastSeq, _ := dec.ReadUvarint()
			s.logger.Debug("client hello", "last_seq", lastSeq)
		case ControlPing:
			s.writeControl(EncodeControl(ControlPong))
		default:
			s.logger.Debug("unknown control message", "name", name)
		}

	default:
		s.logger.Debug("unknown frame type", "type", data[0])
	}
}
