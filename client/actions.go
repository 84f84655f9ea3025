package client

import (
	"context"
	"fmt"

	"github.com/pithecene-io/wearlink/catalog"
	"github.com/pithecene-io/wearlink/types"
)

// Session sync notices.
const (
	MessageNoSession      = "No phone session found. Sign in on phone first."
	MessageSessionSkipped = "Session sync skipped: no cookie."
)

// SyncStatus classifies a selective sync run.
type SyncStatus string

// Selective sync statuses.
const (
	SyncSuccess         SyncStatus = "success"
	SyncPartial         SyncStatus = "partial"
	SyncNothingSelected SyncStatus = "nothing_selected"
)

// SyncReport counts the payloads of one selective sync run.
type SyncReport struct {
	RequestID string
	Status    SyncStatus
	Attempted int
	Sent      int
	// Categories holds per-category counts in send order.
	Categories map[types.Category]types.CategorySyncResult
}

// SyncStatusFor maps payload counts to a selective sync status.
func SyncStatusFor(attempted, sent int) SyncStatus {
	switch {
	case attempted == 0:
		return SyncNothingSelected
	case sent == attempted:
		return SyncSuccess
	default:
		return SyncPartial
	}
}

// RequestDiagnostics asks the peer for its status report.
func (c *Client) RequestDiagnostics(ctx context.Context) (Outcome, error) {
	return c.RunTrackedAction(ctx, ActionDiagnostics, "Diagnostics request", func(ctx context.Context) (Outcome, error) {
		if err := c.sendToFirstPeer(ctx, c.deps.NewID(), types.ActionStatus, nil); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Detail: "Diagnostics requested."}, nil
	})
}

// SyncSessionAndSpotify sends the phone session and Spotify tokens.
func (c *Client) SyncSessionAndSpotify(ctx context.Context) (Outcome, error) {
	return c.RunTrackedAction(ctx, ActionSyncSession, "Session sync", func(ctx context.Context) (Outcome, error) {
		sess, err := c.deps.Library.Accounts.Session(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("read session: %w", err)
		}
		batch, err := catalog.ForSession(sess)
		if err != nil {
			return Outcome{}, err
		}
		if batch.Len() == 0 {
			return Outcome{Detail: MessageSessionSkipped, Toast: MessageNoSession}, nil
		}
		if err := c.sendToFirstPeer(ctx, c.deps.NewID(), batch.Action, batch.Payloads[0]); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			OK:     true,
			Detail: "Sent session + Spotify token sync.",
			Toast:  "Session sync sent to watch.",
		}, nil
	})
}

// SyncSelectedData sends every selected category, one request per item and
// one aggregated downloads request, all under a single request id.
func (c *Client) SyncSelectedData(ctx context.Context) (Outcome, error) {
	return c.RunTrackedAction(ctx, ActionSyncSelected, "Selective sync", func(ctx context.Context) (Outcome, error) {
		peer, err := c.primaryPeer(ctx)
		if err != nil {
			return Outcome{}, err
		}

		selection := c.Selection()
		report := &SyncReport{
			RequestID:  c.deps.NewID(),
			Categories: make(map[types.Category]types.CategorySyncResult),
		}
		sameID := func() string { return report.RequestID }

		for _, category := range types.SyncCategories {
			if !selection.Enabled(category) {
				continue
			}
			batch, err := catalog.Load(ctx, c.deps.Library, category, c.maxSyncItems)
			if err != nil {
				// A category that cannot be read counts as one unsent payload.
				c.deps.Logger.Warn("selective sync category read failed", map[string]any{
					"category": string(category),
					"error":    err.Error(),
				})
				report.Attempted++
				report.Categories[category] = types.CategorySyncResult{Attempted: 1, Changed: true}
				continue
			}
			attempted, sent := catalog.Deliver(ctx, c.deps.Sender, peer.ID, batch, sameID, c.deps.Metrics)
			report.Attempted += attempted
			report.Sent += sent
			report.Categories[category] = types.CategorySyncResult{Attempted: attempted, Sent: sent, Changed: true}
		}

		report.Status = SyncStatusFor(report.Attempted, report.Sent)
		out := Outcome{
			Detail: fmt.Sprintf("Selective sync sent (%d/%d payloads).", report.Sent, report.Attempted),
			Sync:   report,
		}
		switch report.Status {
		case SyncSuccess:
			out.OK = true
			out.Toast = "Selective sync sent."
		case SyncPartial:
			out.Toast = "Selective sync partially sent."
		case SyncNothingSelected:
			out.OK = true
			out.Toast = "Nothing selected to sync."
		}
		return out, nil
	})
}

var remoteActions = map[types.RemoteCommand]TrackedActionID{
	types.RemotePlayPause:  ActionRemotePlayPause,
	types.RemoteNext:       ActionRemoteNext,
	types.RemotePrevious:   ActionRemotePrevious,
	types.RemoteVolumeUp:   ActionRemoteVolumeUp,
	types.RemoteVolumeDown: ActionRemoteVolumeDown,
}

func remoteCommandFor(id TrackedActionID) (types.RemoteCommand, bool) {
	for command, actionID := range remoteActions {
		if actionID == id {
			return command, true
		}
	}
	return "", false
}

// Remote sends a playback command. Handoff commands have their own calls.
func (c *Client) Remote(ctx context.Context, command types.RemoteCommand) (Outcome, error) {
	id, ok := remoteActions[command]
	if !ok {
		return Outcome{}, fmt.Errorf("unsupported remote command %q", command)
	}
	return c.RunTrackedAction(ctx, id, "Remote "+string(command), func(ctx context.Context) (Outcome, error) {
		payload := types.RemotePayload{Command: command}
		if err := c.sendToFirstPeer(ctx, c.deps.NewID(), types.ActionRemote, payload); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Detail: "Remote command sent: " + string(command)}, nil
	})
}
