package sink

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/stream"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Discovery is public.
		return true
	},
}

// WebSocket sends one text message per frame.
type WebSocket struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	gone      chan struct{}
	closed    bool
	closeOnce sync.Once
}

// Ensure WebSocket implements stream.Sink.
var _ stream.Sink = (*WebSocket)(nil)

// NewWebSocket upgrades the request and starts watching for the client going away.
func NewWebSocket(c echo.Context) (*WebSocket, error) {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsReadLimit)

	s := &WebSocket{conn: conn, gone: make(chan struct{})}
	go s.readPump()
	return s, nil
}

// readPump discards client messages; any read error means the client left.
func (s *WebSocket) readPump() {
	defer close(s.gone)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WriteFrame encodes v as one text message.
func (s *WebSocket) WriteFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(data)
}

// WriteDone sends the [DONE] sentinel.
func (s *WebSocket) WriteDone() error {
	return s.write([]byte(domain.DoneSentinel))
}

func (s *WebSocket) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return stream.ErrSinkClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal close frame and releases the connection once.
func (s *WebSocket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// Gone is closed when the client disconnects or the connection is closed.
func (s *WebSocket) Gone() <-chan struct{} {
	return s.gone
}
