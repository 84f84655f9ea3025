// Package transport defines the point-to-point message transport the
// companion bridge runs on.
//
// Delivery is store-and-forward with no ordering or delivery guarantee.
// Send reports only that the local layer accepted the message.
package transport

import (
	"context"
	"sync"
)

// Peer is a connected remote node.
type Peer struct {
	// ID is the addressable node id.
	ID string `json:"id" yaml:"id"`
	// DisplayName is the human-readable node name.
	DisplayName string `json:"displayName" yaml:"display_name"`
}

// Message is one inbound message.
type Message struct {
	// Path selects the receiving handler.
	Path string
	// Source is the sending node id. Responses go back to it.
	Source string
	// Data is the opaque message body.
	Data []byte
}

// MessageHandler receives inbound messages.
type MessageHandler func(ctx context.Context, msg Message)

// Sender is the outbound half of a transport.
type Sender interface {
	// ConnectedPeers lists the currently reachable nodes.
	ConnectedPeers(ctx context.Context) ([]Peer, error)
	// Send hands data to the local layer for delivery to peerID.
	// Returns true when the message was accepted, not when it was delivered.
	Send(ctx context.Context, peerID, path string, data []byte) bool
}

// Transport is a full duplex transport.
type Transport interface {
	Sender
	// Listen registers the receive callback. Replaces any previous handler.
	Listen(handler MessageHandler)
	// Close releases the transport.
	Close() error
}

// Mux routes inbound messages by path.
// Messages on paths with no handler are ignored.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewMux creates an empty mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]MessageHandler)}
}

// Handle registers handler for path, replacing any existing one.
func (m *Mux) Handle(path string, handler MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// HandleMessage dispatches msg to the handler registered for its path.
// Returns false when no handler matched.
func (m *Mux) HandleMessage(ctx context.Context, msg Message) bool {
	m.mu.RLock()
	handler, ok := m.handlers[msg.Path]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	handler(ctx, msg)
	return true
}

// Handler returns the mux as a MessageHandler for Transport.Listen.
func (m *Mux) Handler() MessageHandler {
	return func(ctx context.Context, msg Message) {
		m.HandleMessage(ctx, msg)
	}
}

// FirstPeer returns the first connected peer, or false if none.
func FirstPeer(ctx context.Context, s Sender) (Peer, bool) {
	peers, err := s.ConnectedPeers(ctx)
	if err != nil || len(peers) == 0 {
		return Peer{}, false
	}
	return peers[0], true
}
