package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/mapper"
	"github.com/pithecene-io/wearlink/types"
)

// ErrAckTimeout is returned when a handoff ack does not arrive in time.
var ErrAckTimeout = errors.New("timed out waiting for handoff ack")

// ErrNoBroker is returned by calls that wait for a response without a Broker.
var ErrNoBroker = errors.New("client has no response broker")

// MessageQueueEmpty is logged when there is nothing to hand off.
const MessageQueueEmpty = "Queue handoff skipped: queue is empty."

// handoffQueue reads the local queue, capped at max tracks. An empty queue
// falls back to the now-playing track.
func (c *Client) handoffQueue(max int) (types.RemotePayload, int) {
	pl := c.deps.Player
	if pl == nil {
		return types.RemotePayload{}, 0
	}
	info := pl.QueueInfo()
	tracks := info.Tracks
	if len(tracks) > max {
		tracks = tracks[:max]
	}
	if len(tracks) == 0 {
		if track, ok := pl.NowPlaying(); ok {
			tracks = []types.HandoffTrack{track}
		}
	}
	if len(tracks) == 0 {
		return types.RemotePayload{}, 0
	}
	encoded, err := mapper.EncodeHandoffTracks(tracks)
	if err != nil {
		c.deps.Logger.Warn("failed to encode handoff tracks", map[string]any{"error": err.Error()})
		return types.RemotePayload{}, 0
	}
	return types.RemotePayload{
		Tracks:       encoded,
		Index:        mapper.ClampIndex(pl.CurrentIndex(), len(tracks)),
		PlaylistID:   info.PlaylistID,
		PlaylistName: info.PlaylistName,
		PlaylistType: info.PlaylistType,
	}, len(tracks)
}

// HandoffQueueToWatch sends the local queue to the peer's player.
// An empty queue makes no network calls.
func (c *Client) HandoffQueueToWatch(ctx context.Context) (Outcome, error) {
	return c.RunTrackedAction(ctx, ActionHandoffToWatch, "Queue handoff", func(ctx context.Context) (Outcome, error) {
		payload, n := c.handoffQueue(c.maxHandoffTracks)
		if n == 0 {
			return Outcome{Detail: MessageQueueEmpty, Toast: "No queue to hand off."}, nil
		}
		payload.Command = types.RemoteHandoff
		if err := c.sendToFirstPeer(ctx, c.deps.NewID(), types.ActionRemote, payload); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			OK:     true,
			Detail: fmt.Sprintf("Queue handoff sent (%d tracks).", n),
			Toast:  "Queue handoff sent to watch.",
		}, nil
	})
}

// HandoffQueueToPhone sends the local queue back to the phone and waits for
// the phone's remote ack.
//
// The wait is registered before the request is sent, so an ack delivered on
// the sending goroutine is not missed.
func (c *Client) HandoffQueueToPhone(ctx context.Context) (types.Response, error) {
	if c.deps.Broker == nil {
		return types.Response{}, ErrNoBroker
	}
	payload, n := c.handoffQueue(c.maxHandoffTracks)
	if n == 0 {
		c.appendLog(ctx, MessageQueueEmpty)
		return types.Response{}, errors.New("queue is empty")
	}
	payload.Command = types.RemoteHandoffHome

	peer, err := c.primaryPeer(ctx)
	if err != nil {
		return types.Response{}, err
	}
	requestID := c.deps.NewID()
	waiter := c.deps.Broker.Waiter(bus.And(bus.ByRequestID(requestID), bus.ByAction(types.ActionRemote)))
	defer waiter.Cancel()

	if err := c.send(ctx, peer.ID, requestID, types.ActionRemote, payload); err != nil {
		c.appendLog(ctx, "Phone handoff failed: "+err.Error()+".")
		return types.Response{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.ackTimeout)
	defer cancel()
	ack, err := waiter.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, bus.ErrAwaitTimeout) {
			c.appendLog(ctx, "Phone handoff sent; no ack received.")
			return types.Response{}, ErrAckTimeout
		}
		return types.Response{}, err
	}
	c.appendLog(ctx, fmt.Sprintf("Phone handoff sent (%d tracks): %s", n, ack.Message))
	return ack, nil
}
