// Package stream implements the bridge transport over byte streams (TCP or
// any net.Conn) using length-prefixed msgpack frames.
//
// Each side writes a hello frame naming itself, then reads the peer's hello.
// After the handshake every frame is a message frame.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/transport"
)

// DefaultHandshakeTimeout bounds the hello exchange.
const DefaultHandshakeTimeout = 5 * time.Second

// ErrHandshake is returned when the peer does not answer with a valid hello.
var ErrHandshake = errors.New("stream handshake failed")

// Transport is a stream-based bridge transport.
type Transport struct {
	*transport.Hub

	self             transport.Peer
	logger           *log.Logger
	handshakeTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures a Transport.
type Option func(*Transport)

// WithHandshakeTimeout overrides DefaultHandshakeTimeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(t *Transport) { t.handshakeTimeout = d }
}

// New creates a stream transport for the local node.
func New(nodeID, displayName string, logger *log.Logger, opts ...Option) *Transport {
	if logger == nil {
		logger = log.NewNop()
	}
	t := &Transport{
		Hub:              transport.NewHub(logger),
		self:             transport.Peer{ID: nodeID, DisplayName: displayName},
		logger:           logger,
		handshakeTimeout: DefaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dial connects to addr and attaches the connection.
func (t *Transport) Dial(ctx context.Context, addr string) (transport.Peer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return transport.Peer{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	peer, err := t.Attach(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return transport.Peer{}, err
	}
	return peer, nil
}

// Serve accepts connections on ln until ctx is cancelled or ln fails.
// Handshake failures close only the offending connection.
func (t *Transport) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			if _, err := t.Attach(ctx, conn); err != nil {
				t.logger.Warn("inbound handshake failed", map[string]any{
					"remote": conn.RemoteAddr().String(),
					"error":  err.Error(),
				})
				_ = conn.Close()
			}
		}()
	}
}

// Attach runs the handshake on conn, registers the link, and starts its read
// loop. The read loop ends when conn closes or ctx is cancelled.
func (t *Transport) Attach(ctx context.Context, conn net.Conn) (transport.Peer, error) {
	link := &link{
		conn:    conn,
		writer:  ipc.NewFrameWriter(conn),
		decoder: ipc.NewFrameDecoder(conn),
	}

	peer, err := t.handshake(link)
	if err != nil {
		_ = conn.Close()
		return transport.Peer{}, err
	}
	link.peer = peer

	if !t.Add(link) {
		return transport.Peer{}, errors.New("transport closed")
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.readLoop(ctx, link)
	}()
	return peer, nil
}

func (t *Transport) handshake(l *link) (transport.Peer, error) {
	if t.handshakeTimeout > 0 {
		_ = l.conn.SetDeadline(time.Now().Add(t.handshakeTimeout))
		defer func() { _ = l.conn.SetDeadline(time.Time{}) }()
	}

	// Synchronous pipes block writes until the peer reads, so write and read
	// the hello concurrently.
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- l.writer.WriteFrame(ipc.NewHelloFrame(t.self.ID, t.self.DisplayName))
	}()

	frame, err := l.decoder.Next()
	if err != nil {
		return transport.Peer{}, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if err := <-writeErr; err != nil {
		return transport.Peer{}, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if frame.Kind != ipc.FrameHello || frame.NodeID == "" {
		return transport.Peer{}, fmt.Errorf("%w: expected hello frame, got %q", ErrHandshake, frame.Kind)
	}
	return transport.Peer{ID: frame.NodeID, DisplayName: frame.DisplayName}, nil
}

func (t *Transport) readLoop(ctx context.Context, l *link) {
	defer func() {
		t.Remove(l)
		_ = l.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	for {
		frame, err := l.decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			fields := map[string]any{"peer_id": l.peer.ID, "error": err.Error()}
			if kind, ok := ipc.KindOf(err); ok {
				fields["kind"] = kind.String()
			}
			if ipc.IsFatalCodecError(err) {
				t.logger.Warn("stream closed on fatal frame error", fields)
				return
			}
			t.logger.Debug("dropping undecodable frame", fields)
			continue
		}
		t.Deliver(ctx, l, frame)
	}
}

// Close closes every link and waits for read loops to exit.
func (t *Transport) Close() error {
	err := t.Hub.Close()
	t.wg.Wait()
	return err
}

type link struct {
	peer    transport.Peer
	conn    net.Conn
	writer  *ipc.FrameWriter
	decoder *ipc.FrameDecoder

	closeOnce sync.Once
}

func (l *link) Peer() transport.Peer { return l.peer }

func (l *link) WriteFrame(frame *ipc.Frame) error {
	return l.writer.WriteFrame(frame)
}

func (l *link) Close() error {
	var err error
	l.closeOnce.Do(func() { err = l.conn.Close() })
	return err
}

var _ transport.Transport = (*Transport)(nil)
