// Package memory provides an in-process transport network.
//
// Nodes joined to the same Network can reach each other. Delivery is
// synchronous on the sender's goroutine, which keeps tests deterministic.
// Handlers must not hold locks across Send.
package memory

import (
	"context"
	"sync"

	"github.com/pithecene-io/wearlink/transport"
)

// DropFunc decides whether a message from source to target is lost.
type DropFunc func(source, target string, msg transport.Message) bool

// Network links in-process nodes.
type Network struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
	drop  DropFunc
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{nodes: make(map[string]*Node)}
}

// Join adds a node. Joining an existing id returns the existing node.
func (n *Network) Join(id, displayName string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if node, ok := n.nodes[id]; ok {
		return node
	}
	node := &Node{
		network:   n,
		peer:      transport.Peer{ID: id, DisplayName: displayName},
		connected: true,
	}
	n.nodes[id] = node
	n.order = append(n.order, id)
	return node
}

// SetDropFunc installs a loss model. nil disables loss.
func (n *Network) SetDropFunc(drop DropFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drop = drop
}

// DropPath returns a DropFunc losing every message on path.
func DropPath(path string) DropFunc {
	return func(_, _ string, msg transport.Message) bool {
		return msg.Path == path
	}
}

// DropCount returns a DropFunc that loses the first count messages.
func DropCount(count int) DropFunc {
	var mu sync.Mutex
	remaining := count
	return func(_, _ string, _ transport.Message) bool {
		mu.Lock()
		defer mu.Unlock()
		if remaining > 0 {
			remaining--
			return true
		}
		return false
	}
}

func (n *Network) peersOf(id string) []transport.Peer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	self, ok := n.nodes[id]
	if !ok || !self.isConnected() {
		return nil
	}
	var peers []transport.Peer
	for _, other := range n.order {
		if other == id {
			continue
		}
		node := n.nodes[other]
		if node.isConnected() {
			peers = append(peers, node.peer)
		}
	}
	return peers
}

func (n *Network) route(ctx context.Context, source, target string, msg transport.Message) bool {
	n.mu.RLock()
	from, fromOK := n.nodes[source]
	to, toOK := n.nodes[target]
	drop := n.drop
	n.mu.RUnlock()

	if !fromOK || !toOK || source == target {
		return false
	}
	if !from.isConnected() || !to.isConnected() {
		return false
	}
	if drop != nil && drop(source, target, msg) {
		// Accepted locally, lost in flight.
		return true
	}
	to.deliver(ctx, msg)
	return true
}

// Node is one member of a Network. It implements transport.Transport.
type Node struct {
	network *Network
	peer    transport.Peer

	mu        sync.RWMutex
	handler   transport.MessageHandler
	connected bool
	closed    bool
	sent      int
}

// ID returns the node id.
func (n *Node) ID() string {
	return n.peer.ID
}

// SetConnected toggles reachability. A disconnected node neither sends nor
// receives and is absent from its peers' ConnectedPeers.
func (n *Node) SetConnected(connected bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connected = connected
}

// Sent returns how many messages the node handed to the network.
func (n *Node) Sent() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sent
}

func (n *Node) isConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected && !n.closed
}

func (n *Node) deliver(ctx context.Context, msg transport.Message) {
	n.mu.RLock()
	handler := n.handler
	n.mu.RUnlock()
	if handler != nil {
		handler(ctx, msg)
	}
}

// ConnectedPeers lists the other connected nodes in join order.
func (n *Node) ConnectedPeers(_ context.Context) ([]transport.Peer, error) {
	return n.network.peersOf(n.peer.ID), nil
}

// Send delivers data to peerID on the caller's goroutine.
func (n *Node) Send(ctx context.Context, peerID, path string, data []byte) bool {
	buf := make([]byte, len(data))
	copy(buf, data)
	ok := n.network.route(ctx, n.peer.ID, peerID, transport.Message{
		Path:   path,
		Source: n.peer.ID,
		Data:   buf,
	})
	if ok {
		n.mu.Lock()
		n.sent++
		n.mu.Unlock()
	}
	return ok
}

// Listen registers the receive callback.
func (n *Node) Listen(handler transport.MessageHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = handler
}

// Close detaches the node from the network.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.handler = nil
	return nil
}

var _ transport.Transport = (*Node)(nil)
