package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/cli/render"
	"github.com/pithecene-io/wearlink/client"
	"github.com/pithecene-io/wearlink/login"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/types"
)

// SendResult is the output of a send subcommand.
type SendResult struct {
	Action   string                `json:"action" yaml:"action"`
	OK       bool                  `json:"ok" yaml:"ok"`
	Detail   string                `json:"detail" yaml:"detail"`
	Response *types.Response       `json:"response,omitempty" yaml:"response,omitempty"`
	Sync     *client.SyncReport    `json:"sync,omitempty" yaml:"sync,omitempty"`
	State    types.ActionState     `json:"state" yaml:"state"`
	Peers    types.ConnectionState `json:"connection" yaml:"connection"`
}

// SendCommand returns the send command with subcommands.
// Send connects to the peer, issues one request, and waits for its response.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send one companion request to the peer (status, session, sync, remote, handoff, login)",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Request the peer's diagnostics",
				Flags:  NodeFlags(TimeoutFlag),
				Action: sendStatusAction,
			},
			{
				Name:   "session",
				Usage:  "Push the phone's session and Spotify state to the watch",
				Flags:  NodeFlags(TimeoutFlag),
				Action: sendSessionAction,
			},
			{
				Name:  "sync",
				Usage: "Send the selected library categories to the watch",
				Flags: NodeFlags(TimeoutFlag, &cli.StringSliceFlag{
					Name:  "category",
					Usage: "Category to send (songs, playlists, albums, artists, podcasts, downloads); repeatable, default all",
				}),
				Action: sendSyncAction,
			},
			{
				Name:      "remote",
				Usage:     "Send a playback command (play_pause, next, previous, volume_up, volume_down)",
				ArgsUsage: "<command>",
				Flags:     NodeFlags(TimeoutFlag),
				Action:    sendRemoteAction,
			},
			{
				Name:   "handoff",
				Usage:  "Hand the liked-songs queue to the peer",
				Flags:  NodeFlags(TimeoutFlag),
				Action: sendHandoffAction,
			},
			{
				Name:  "login",
				Usage: "Ask the phone to push its signed-in session to the watch (watch only)",
				Flags: NodeFlags(TimeoutFlag, &cli.BoolFlag{
					Name:  "prompt",
					Usage: "Show a sign-in prompt on the phone instead of syncing the current session",
				}),
				Action: sendLoginAction,
			},
		},
	}
}

func sendStatusAction(c *cli.Context) error {
	return withPeer(c, func(ctx context.Context, n *node.Node) error {
		return awaitTracked(ctx, c, n, types.ActionStatus, "status", n.Client.RequestDiagnostics)
	})
}

func sendSessionAction(c *cli.Context) error {
	return withPeer(c, func(ctx context.Context, n *node.Node) error {
		if err := requireRole(n.Config, types.RolePhone, "send session"); err != nil {
			return err
		}
		return awaitTracked(ctx, c, n, types.ActionSyncSession, "session", n.Client.SyncSessionAndSpotify)
	})
}

func sendSyncAction(c *cli.Context) error {
	selected, err := parseCategories(c.StringSlice("category"))
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidConfig)
	}
	return withPeer(c, func(ctx context.Context, n *node.Node) error {
		if err := requireRole(n.Config, types.RolePhone, "send sync"); err != nil {
			return err
		}
		if selected != nil {
			for _, cat := range types.SyncCategories {
				n.Client.SetCategory(cat, slices.Contains(selected, cat))
			}
		}

		out, err := n.Client.SyncSelectedData(ctx)
		result := sendResult(ctx, n, "sync", out, err)
		result.Sync = out.Sync

		code := okExitCode(result.OK)
		if out.Sync != nil && out.Sync.Status == client.SyncPartial {
			code = exitRetry
		}
		return renderExit(c, result, code)
	})
}

func sendRemoteAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: wearlink send remote <command>", exitFailed)
	}
	command := types.RemoteCommand(c.Args().First())
	return withPeer(c, func(ctx context.Context, n *node.Node) error {
		return awaitTracked(ctx, c, n, types.ActionRemote, "remote "+string(command), func(ctx context.Context) (client.Outcome, error) {
			return n.Client.Remote(ctx, command)
		})
	})
}

func sendHandoffAction(c *cli.Context) error {
	return withPeer(c, func(ctx context.Context, n *node.Node) error {
		if _, err := loadQueueFromLibrary(ctx, n); err != nil {
			return cli.Exit(fmt.Sprintf("failed to load queue: %v", err), exitFailed)
		}

		if n.Role == types.RoleWatch {
			resp, err := n.Client.HandoffQueueToPhone(ctx)
			result := SendResult{Action: "handoff", OK: err == nil && resp.OK}
			if err != nil {
				result.Detail = err.Error()
			} else {
				result.Detail = resp.Message
				result.Response = &resp
			}
			result.State = n.Client.ActionState()
			result.Peers = n.Client.ConnectionState()
			return renderExit(c, result, okExitCode(result.OK))
		}
		return awaitTracked(ctx, c, n, types.ActionRemote, "handoff", n.Client.HandoffQueueToWatch)
	})
}

func sendLoginAction(c *cli.Context) error {
	return withPeer(c, func(ctx context.Context, n *node.Node) error {
		if err := requireRole(n.Config, types.RoleWatch, "send login"); err != nil {
			return err
		}
		// Cleared so the wait below only sees the phone's answer.
		if err := n.Bridge.SetLoginStatus(ctx, "", ""); err != nil {
			return fmt.Errorf("failed to reset login status: %w", err)
		}

		request := login.RequestSync
		if c.Bool("prompt") {
			request = login.RequestOpen
		}
		if !request(ctx, n.Transport) {
			return cli.Exit("login request not delivered", exitFailed)
		}

		state, err := awaitLoginStatus(ctx, n)
		if err != nil {
			return cli.Exit(fmt.Sprintf("no login status: %v", err), exitFailed)
		}
		return renderExit(c, state, okExitCode(state.Status != login.StatusFailed))
	})
}

// awaitLoginStatus polls the bridge until the phone has reported a status.
func awaitLoginStatus(ctx context.Context, n *node.Node) (LoginState, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		status, message, err := n.Bridge.LoginStatus(ctx)
		if err != nil {
			return LoginState{}, err
		}
		if status != "" {
			return LoginState{Status: status, Message: message}, nil
		}
		select {
		case <-ctx.Done():
			return LoginState{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// awaitTracked runs a tracked client action and waits for the first response
// with the given action.
func awaitTracked(ctx context.Context, c *cli.Context, n *node.Node, action types.ActionKind, name string, fn func(context.Context) (client.Outcome, error)) error {
	waiter := n.Broker.Waiter(bus.ByAction(action))
	defer waiter.Cancel()

	out, err := fn(ctx)
	result := sendResult(ctx, n, name, out, err)
	if err != nil || !out.OK {
		return renderExit(c, result, exitFailed)
	}

	resp, err := waiter.Wait(ctx)
	if err != nil {
		result.OK = false
		result.Detail = fmt.Sprintf("no response: %v", err)
		return renderExit(c, result, exitFailed)
	}
	result.Response = &resp
	result.OK = resp.OK
	return renderExit(c, result, okExitCode(resp.OK))
}

func sendResult(ctx context.Context, n *node.Node, name string, out client.Outcome, err error) SendResult {
	result := SendResult{
		Action: name,
		OK:     err == nil && out.OK,
		Detail: out.Detail,
		State:  n.Client.ActionState(),
		Peers:  n.Client.RefreshConnection(ctx),
	}
	if err != nil {
		result.Detail = err.Error()
	}
	return result
}

func renderExit(c *cli.Context, data any, code int) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for send commands", exitFailed)
	}
	if err := r.Render(data); err != nil {
		return err
	}
	if code == exitOK {
		return nil
	}
	return cli.Exit("", code)
}

// parseCategories returns nil for an empty list, meaning keep the default
// selection.
func parseCategories(names []string) ([]types.Category, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]types.Category, 0, len(names))
	for _, name := range names {
		cat := types.Category(name)
		if !slices.Contains(types.SyncCategories, cat) {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		out = append(out, cat)
	}
	return out, nil
}
