// Package ws implements the bridge transport over WebSocket links.
//
// Each binary WebSocket message carries one msgpack frame. The first
// message in each direction is a hello frame.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/transport"
)

// LinkPath is the HTTP path the server upgrades.
const LinkPath = "/link"

const (
	defaultWriteTimeout     = 10 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
)

// ErrHandshake is returned when the peer does not answer with a valid hello.
var ErrHandshake = errors.New("websocket handshake failed")

// Transport is a WebSocket bridge transport. One Transport may both accept
// (Handler) and dial (Dial) links.
type Transport struct {
	*transport.Hub

	self     transport.Peer
	logger   *log.Logger
	upgrader websocket.Upgrader

	writeTimeout     time.Duration
	handshakeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a WebSocket transport for the local node.
func New(nodeID, displayName string, logger *log.Logger) *Transport {
	if logger == nil {
		logger = log.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		Hub:    transport.NewHub(logger),
		self:   transport.Peer{ID: nodeID, DisplayName: displayName},
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		writeTimeout:     defaultWriteTimeout,
		handshakeTimeout: defaultHandshakeTimeout,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Handler returns an http.Handler that upgrades requests into links.
func (t *Transport) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.logger.Warn("websocket upgrade failed", map[string]any{
				"remote": r.RemoteAddr,
				"error":  err.Error(),
			})
			return
		}
		if _, err := t.attach(conn); err != nil {
			t.logger.Warn("inbound handshake failed", map[string]any{
				"remote": r.RemoteAddr,
				"error":  err.Error(),
			})
		}
	})
}

// Mux returns a ServeMux with Handler mounted at LinkPath.
func (t *Transport) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(LinkPath, t.Handler())
	return mux
}

// Dial connects to a ws:// or wss:// URL and attaches the link.
func (t *Transport) Dial(ctx context.Context, url string) (transport.Peer, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return transport.Peer{}, fmt.Errorf("dial %s: %w", url, err)
	}
	return t.attach(conn)
}

func (t *Transport) attach(conn *websocket.Conn) (transport.Peer, error) {
	conn.SetReadLimit(ipc.MaxFrameSize)
	l := &link{conn: conn, writeTimeout: t.writeTimeout}

	peer, err := t.handshake(l)
	if err != nil {
		_ = conn.Close()
		return transport.Peer{}, err
	}
	l.peer = peer

	if !t.Add(l) {
		return transport.Peer{}, errors.New("transport closed")
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.readLoop(l)
	}()
	return peer, nil
}

func (t *Transport) handshake(l *link) (transport.Peer, error) {
	if err := l.WriteFrame(ipc.NewHelloFrame(t.self.ID, t.self.DisplayName)); err != nil {
		return transport.Peer{}, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	_ = l.conn.SetReadDeadline(time.Now().Add(t.handshakeTimeout))
	defer func() { _ = l.conn.SetReadDeadline(time.Time{}) }()

	frame, err := l.readFrame()
	if err != nil {
		return transport.Peer{}, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if frame.Kind != ipc.FrameHello || frame.NodeID == "" {
		return transport.Peer{}, fmt.Errorf("%w: expected hello frame, got %q", ErrHandshake, frame.Kind)
	}
	return transport.Peer{ID: frame.NodeID, DisplayName: frame.DisplayName}, nil
}

func (t *Transport) readLoop(l *link) {
	defer func() {
		t.Remove(l)
		_ = l.Close()
	}()

	for {
		frame, err := l.readFrame()
		if err != nil {
			if kind, ok := ipc.KindOf(err); ok && !ipc.IsFatalCodecError(err) {
				t.logger.Debug("dropping undecodable frame", map[string]any{
					"peer_id": l.peer.ID,
					"kind":    kind.String(),
					"error":   err.Error(),
				})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug("websocket read ended", map[string]any{
					"peer_id": l.peer.ID,
					"error":   err.Error(),
				})
			}
			return
		}
		t.Deliver(t.ctx, l, frame)
	}
}

// Close closes every link and waits for read loops to exit.
func (t *Transport) Close() error {
	t.cancel()
	err := t.Hub.Close()
	t.wg.Wait()
	return err
}

type link struct {
	peer         transport.Peer
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

func (l *link) Peer() transport.Peer { return l.peer }

func (l *link) WriteFrame(frame *ipc.Frame) error {
	payload, err := msgpack.Marshal(frame)
	if err != nil {
		return &ipc.CodecError{Kind: ipc.ErrorEncode, Msg: "failed to encode frame", Err: err}
	}
	if len(payload) > ipc.MaxFramePayloadSize {
		return &ipc.CodecError{
			Kind: ipc.ErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), ipc.MaxFramePayloadSize),
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout))
	return l.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// readFrame reads one message. Non-binary messages and undecodable payloads
// yield non-fatal codec errors.
func (l *link) readFrame() (*ipc.Frame, error) {
	kind, payload, err := l.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if kind != websocket.BinaryMessage {
		return nil, &ipc.CodecError{Kind: ipc.ErrorDecode, Msg: "expected binary message"}
	}
	return ipc.DecodeFrame(payload)
}

func (l *link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		_ = l.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = l.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.mu.Unlock()
		err = l.conn.Close()
	})
	return err
}

var _ transport.Transport = (*Transport)(nil)
