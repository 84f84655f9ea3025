package transport

import (
	"context"
	"sync"

	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/log"
)

// Link is one live connection to a peer.
type Link interface {
	// Peer identifies the remote node.
	Peer() Peer
	// WriteFrame writes one frame. Must be safe for concurrent use.
	WriteFrame(frame *ipc.Frame) error
	// Close closes the connection.
	Close() error
}

// Hub tracks live links and implements Transport on top of them.
// Connection-oriented transports (stream, ws) add links as handshakes
// complete and remove them when their read loops end.
type Hub struct {
	logger *log.Logger

	mu      sync.RWMutex
	links   map[string]Link
	order   []string
	handler MessageHandler
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Hub{
		logger: logger,
		links:  make(map[string]Link),
	}
}

// Add registers a link. An existing link to the same peer is closed and replaced.
// Returns false if the hub is closed; the link is closed in that case.
func (h *Hub) Add(link Link) bool {
	id := link.Peer().ID

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = link.Close()
		return false
	}
	old, exists := h.links[id]
	h.links[id] = link
	if !exists {
		h.order = append(h.order, id)
	}
	count := len(h.links)
	h.mu.Unlock()

	if exists && old != link {
		_ = old.Close()
	}
	h.logger.Info("peer connected", map[string]any{
		"peer_id":      id,
		"display_name": link.Peer().DisplayName,
		"peers":        count,
	})
	return true
}

// Remove unregisters a link if it is still the current link for its peer.
func (h *Hub) Remove(link Link) {
	id := link.Peer().ID

	h.mu.Lock()
	cur, ok := h.links[id]
	if ok && cur == link {
		delete(h.links, id)
		for i, existing := range h.order {
			if existing == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	count := len(h.links)
	h.mu.Unlock()

	if ok && cur == link {
		h.logger.Info("peer disconnected", map[string]any{"peer_id": id, "peers": count})
	}
}

// ConnectedPeers lists peers in connection order.
func (h *Hub) ConnectedPeers(_ context.Context) ([]Peer, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	peers := make([]Peer, 0, len(h.order))
	for _, id := range h.order {
		peers = append(peers, h.links[id].Peer())
	}
	return peers, nil
}

// Send writes a message frame to peerID.
func (h *Hub) Send(_ context.Context, peerID, path string, data []byte) bool {
	h.mu.RLock()
	link, ok := h.links[peerID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if err := link.WriteFrame(ipc.NewMessageFrame(path, data)); err != nil {
		h.logger.Warn("send failed", map[string]any{
			"peer_id": peerID,
			"path":    path,
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// Listen registers the receive callback.
func (h *Hub) Listen(handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// Deliver hands an inbound frame from link to the registered handler.
// Non-message frames are ignored.
func (h *Hub) Deliver(ctx context.Context, link Link, frame *ipc.Frame) {
	if frame.Kind != ipc.FrameMessage {
		return
	}
	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(ctx, Message{Path: frame.Path, Source: link.Peer().ID, Data: frame.Data})
}

// Close closes every link. Further Adds are refused.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	links := make([]Link, 0, len(h.links))
	for _, link := range h.links {
		links = append(links, link)
	}
	h.links = make(map[string]Link)
	h.order = nil
	h.mu.Unlock()

	for _, link := range links {
		_ = link.Close()
	}
	return nil
}

var _ Transport = (*Hub)(nil)
