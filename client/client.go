// Package client is the sending side of the companion bridge.
//
// A Client issues requests to the first connected peer and tracks one
// user-visible action at a time. Delivery is fire-and-forget: an operation
// succeeds when the transport accepts its messages, and the peer's response
// arrives later through the response listener.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/catalog"
	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/player"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// Default limits.
const (
	DefaultMaxHandoffTracks = 80
	DefaultAckTimeout       = 6 * time.Second
)

// MessageNoWatch is toasted when an action finds no connected peer.
const MessageNoWatch = "No watch connected."

var (
	// ErrNoPeer is returned when no peer is connected.
	ErrNoPeer = errors.New("no connected watch")
	// ErrSendRejected is returned when the transport refuses a message.
	ErrSendRejected = errors.New("transport rejected the message")
)

// Toaster surfaces short user-facing notices.
type Toaster interface {
	Toast(ctx context.Context, message string)
}

// LogToaster writes toasts to a logger.
type LogToaster struct {
	Logger *log.Logger
}

// Toast implements Toaster.
func (t LogToaster) Toast(_ context.Context, message string) {
	if t.Logger == nil {
		return
	}
	t.Logger.Info("toast", map[string]any{"message": message})
}

// Deps are the collaborators a Client uses.
type Deps struct {
	Sender  transport.Sender
	Library library.Library
	// Player may be nil; the queue then reads as empty.
	Player player.Player
	Bridge *store.Bridge
	// Broker delivers acks for HandoffQueueToPhone. Optional otherwise.
	Broker  *bus.Broker
	Logger  *log.Logger
	Metrics *metrics.Collector
	Toaster Toaster
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Option configures a Client.
type Option func(*Client)

// WithMaxSyncItems caps the items sent per category by SyncSelectedData.
func WithMaxSyncItems(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxSyncItems = n
		}
	}
}

// WithMaxHandoffTracks caps the tracks sent by HandoffQueueToWatch.
func WithMaxHandoffTracks(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxHandoffTracks = n
		}
	}
}

// WithAckTimeout sets how long HandoffQueueToPhone waits for its ack.
func WithAckTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ackTimeout = d
		}
	}
}

// Client sends companion requests and tracks user actions.
type Client struct {
	deps Deps

	maxSyncItems     int
	maxHandoffTracks int
	ackTimeout       time.Duration

	mu         sync.Mutex
	connection types.ConnectionState
	selection  types.SyncSelection
	state      types.ActionState
	lastFailed TrackedActionID
}

// New creates a Client. Every category starts selected.
func New(deps Deps, opts ...Option) *Client {
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	if deps.Toaster == nil {
		deps.Toaster = LogToaster{Logger: deps.Logger}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	c := &Client{
		deps:             deps,
		maxSyncItems:     catalog.DefaultMaxItems,
		maxHandoffTracks: DefaultMaxHandoffTracks,
		ackTimeout:       DefaultAckTimeout,
		selection:        types.DefaultSyncSelection(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RefreshConnection re-reads the connected peers.
func (c *Client) RefreshConnection(ctx context.Context) types.ConnectionState {
	peers, err := c.deps.Sender.ConnectedPeers(ctx)
	if err != nil {
		c.deps.Logger.Warn("failed to list connected peers", map[string]any{"error": err.Error()})
	}
	state := types.ConnectionState{Connected: len(peers) > 0, NodeNames: make([]string, 0, len(peers))}
	for _, p := range peers {
		name := p.DisplayName
		if name == "" {
			name = p.ID
		}
		state.NodeNames = append(state.NodeNames, name)
	}
	c.mu.Lock()
	c.connection = state
	c.mu.Unlock()
	return state
}

// ConnectionState returns the last refreshed connection state.
func (c *Client) ConnectionState() types.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connection
}

// SendSimpleAction sends one request with a fresh request id to the first
// connected peer. With no peer it toasts, refreshes the connection state and
// sends nothing.
func (c *Client) SendSimpleAction(ctx context.Context, action types.ActionKind, payload any) (string, bool) {
	requestID := c.deps.NewID()
	if err := c.sendToFirstPeer(ctx, requestID, action, payload); err != nil {
		return "", false
	}
	return requestID, true
}

func (c *Client) sendToFirstPeer(ctx context.Context, requestID string, action types.ActionKind, payload any) error {
	peer, err := c.primaryPeer(ctx)
	if err != nil {
		return err
	}
	return c.send(ctx, peer.ID, requestID, action, payload)
}

// primaryPeer returns the first connected peer. With none it toasts and
// refreshes the connection state.
func (c *Client) primaryPeer(ctx context.Context) (transport.Peer, error) {
	peer, ok := transport.FirstPeer(ctx, c.deps.Sender)
	if !ok {
		c.deps.Toaster.Toast(ctx, MessageNoWatch)
		c.RefreshConnection(ctx)
		return transport.Peer{}, ErrNoPeer
	}
	return peer, nil
}

func (c *Client) send(ctx context.Context, peerID, requestID string, action types.ActionKind, payload any) error {
	body, err := ipc.EncodeRequest(requestID, action, payload)
	if err != nil {
		c.deps.Metrics.IncSendFailure()
		return err
	}
	if !c.deps.Sender.Send(ctx, peerID, types.PathRequest, body) {
		c.deps.Metrics.IncSendFailure()
		return ErrSendRejected
	}
	c.deps.Metrics.IncRequestSent()
	c.deps.Logger.Debug("request sent", map[string]any{
		"request_id": requestID,
		"action":     string(action),
		"peer":       peerID,
	})
	return nil
}

// Selection returns the selective sync toggles.
func (c *Client) Selection() types.SyncSelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// SetSelection replaces the selective sync toggles.
func (c *Client) SetSelection(s types.SyncSelection) {
	c.mu.Lock()
	c.selection = s
	c.mu.Unlock()
}

// SetCategory toggles one selective sync category.
func (c *Client) SetCategory(category types.Category, enabled bool) {
	c.mu.Lock()
	c.selection = c.selection.With(category, enabled)
	c.mu.Unlock()
}

// SetAutoSyncBatterySaver persists the battery-saver gate.
func (c *Client) SetAutoSyncBatterySaver(ctx context.Context, enabled bool) error {
	return c.deps.Bridge.SetBatterySaver(ctx, enabled)
}

// SetAutoSyncUnmeteredOnly persists the unmetered-only gate.
func (c *Client) SetAutoSyncUnmeteredOnly(ctx context.Context, enabled bool) error {
	return c.deps.Bridge.SetUnmeteredOnly(ctx, enabled)
}

// ResetAutoSyncDeltaCache clears every category signature so that the next
// auto-sync run resends everything.
func (c *Client) ResetAutoSyncDeltaCache(ctx context.Context) error {
	if err := c.deps.Bridge.ResetSignatures(ctx); err != nil {
		return err
	}
	c.appendLog(ctx, "Auto-sync delta cache reset.")
	return nil
}

// ClearLogs empties the bridge log.
func (c *Client) ClearLogs(ctx context.Context) error {
	return c.deps.Bridge.ClearLog(ctx)
}

func (c *Client) appendLog(ctx context.Context, message string) {
	if err := c.deps.Bridge.AppendLog(ctx, c.deps.Now(), message); err != nil {
		c.deps.Logger.Warn("failed to append bridge log", map[string]any{"error": err.Error()})
	}
}
