package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/wearlink/types"
)

// ErrActionInProgress is returned when a tracked action is started while
// another one is running.
var ErrActionInProgress = errors.New("an action is already running")

// Retry notices.
const (
	MessageNothingToRetry = "Nothing to retry."
	MessageAlreadyRunning = "An action is already running."
)

// TrackedActionID names a retryable user action.
type TrackedActionID string

// Tracked actions.
const (
	ActionDiagnostics      TrackedActionID = "diagnostics"
	ActionSyncSession      TrackedActionID = "sync_session"
	ActionSyncSelected     TrackedActionID = "sync_selected"
	ActionRemotePlayPause  TrackedActionID = "remote_play_pause"
	ActionRemoteNext       TrackedActionID = "remote_next"
	ActionRemotePrevious   TrackedActionID = "remote_previous"
	ActionRemoteVolumeUp   TrackedActionID = "remote_volume_up"
	ActionRemoteVolumeDown TrackedActionID = "remote_volume_down"
	ActionHandoffToWatch   TrackedActionID = "handoff_to_watch"
)

// TrackedActionIDs lists every action RetryLastFailedAction can replay.
func TrackedActionIDs() []TrackedActionID {
	return []TrackedActionID{
		ActionDiagnostics,
		ActionSyncSession,
		ActionSyncSelected,
		ActionRemotePlayPause,
		ActionRemoteNext,
		ActionRemotePrevious,
		ActionRemoteVolumeUp,
		ActionRemoteVolumeDown,
		ActionHandoffToWatch,
	}
}

// Outcome is the result of one tracked action.
type Outcome struct {
	OK bool
	// Detail is the bridge log line for the run.
	Detail string
	// Toast is shown when non-empty.
	Toast string
	// Sync is set by SyncSelectedData.
	Sync *SyncReport
}

// ActionFunc is the body of a tracked action. A returned error or a panic
// turns the run into a failure.
type ActionFunc func(ctx context.Context) (Outcome, error)

// ActionState returns the tracking state.
func (c *Client) ActionState() types.ActionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastFailedAction returns the id of the most recent failed action, if any.
func (c *Client) LastFailedAction() (TrackedActionID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailed, c.lastFailed != ""
}

// RunTrackedAction runs fn as the tracked action id. label names the action
// in the state and in failure details.
//
// Only one tracked action runs at a time; a second one is rejected with
// ErrActionInProgress and leaves the state untouched. Each completed run
// writes one bridge log line and updates the state once.
func (c *Client) RunTrackedAction(ctx context.Context, id TrackedActionID, label string, fn ActionFunc) (Outcome, error) {
	c.mu.Lock()
	if c.state.InProgress {
		c.mu.Unlock()
		return Outcome{}, ErrActionInProgress
	}
	c.state.InProgress = true
	c.state.ActiveAction = label
	c.mu.Unlock()

	out, err := runAction(ctx, fn)
	if err != nil {
		out = Outcome{Detail: fmt.Sprintf("%s failed: %v.", label, err)}
	}
	if out.Detail == "" {
		if out.OK {
			out.Detail = label + " done."
		} else {
			out.Detail = label + " failed."
		}
	}

	c.mu.Lock()
	c.state.InProgress = false
	c.state.ActiveAction = ""
	if out.OK {
		c.state.LastSuccess = out.Detail
		c.state.LastFailure = ""
		c.state.RetryAvailable = false
		c.lastFailed = ""
	} else {
		c.state.LastFailure = out.Detail
		c.state.RetryAvailable = true
		c.lastFailed = id
	}
	c.mu.Unlock()

	c.deps.Metrics.ObserveAction(out.OK)
	c.appendLog(ctx, out.Detail)
	if out.Toast != "" {
		c.deps.Toaster.Toast(ctx, out.Toast)
	}
	c.deps.Logger.Info("tracked action finished", map[string]any{
		"action": string(id),
		"ok":     out.OK,
		"detail": out.Detail,
	})
	return out, nil
}

func runAction(ctx context.Context, fn ActionFunc) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// RetryLastFailedAction replays the most recent failed action.
func (c *Client) RetryLastFailedAction(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	inProgress := c.state.InProgress
	id := c.lastFailed
	c.mu.Unlock()

	if inProgress {
		c.deps.Toaster.Toast(ctx, MessageAlreadyRunning)
		return Outcome{}, ErrActionInProgress
	}
	if id == "" {
		c.deps.Toaster.Toast(ctx, MessageNothingToRetry)
		return Outcome{OK: true, Detail: MessageNothingToRetry}, nil
	}

	switch id {
	case ActionDiagnostics:
		return c.RequestDiagnostics(ctx)
	case ActionSyncSession:
		return c.SyncSessionAndSpotify(ctx)
	case ActionSyncSelected:
		return c.SyncSelectedData(ctx)
	case ActionHandoffToWatch:
		return c.HandoffQueueToWatch(ctx)
	}
	if command, ok := remoteCommandFor(id); ok {
		return c.Remote(ctx, command)
	}
	return c.RunTrackedAction(ctx, id, "Retry", func(context.Context) (Outcome, error) {
		return Outcome{Detail: fmt.Sprintf("Retry unavailable for %s.", id)}, nil
	})
}
