package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/cli/render"
	"github.com/pithecene-io/wearlink/cli/tui"
	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/node"
)

// LoginState is the output of state login.
type LoginState struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// StateCommand returns the state command with subcommands.
// State reads the persisted bridge keys.
func StateCommand() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Show persisted bridge state (last-response, diagnostics, log, login)",
		Subcommands: []*cli.Command{
			{
				Name:   "last-response",
				Usage:  "Show the last response received",
				Flags:  NodeFlags(),
				Action: stateResponseAction(false),
			},
			{
				Name:   "diagnostics",
				Usage:  "Show the last status response received",
				Flags:  NodeFlags(),
				Action: stateResponseAction(true),
			},
			{
				Name:   "log",
				Usage:  "Show the bridge log, newest last",
				Flags:  NodeFlags(),
				Action: stateLogAction,
			},
			{
				Name:   "login",
				Usage:  "Show the watch login hand-off status",
				Flags:  NodeFlags(),
				Action: stateLoginAction,
			},
			{
				Name:   "clear-log",
				Usage:  "Clear the bridge log",
				Flags:  NodeFlags(),
				Action: stateClearLogAction,
			},
		},
	}
}

func stateResponseAction(diagnostics bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		return withNode(c, func(ctx context.Context, _ *config.Config, n *node.Node) error {
			read := n.Bridge.LastResponse
			if diagnostics {
				read = n.Bridge.LastDiagnostics
			}
			raw, err := read(ctx)
			if err != nil {
				return fmt.Errorf("failed to read state: %w", err)
			}

			r, err := render.NewRenderer(c)
			if err != nil {
				return err
			}
			if strings.TrimSpace(raw) == "" {
				return cli.Exit("no response recorded", exitFailed)
			}

			resp, ok := ipc.DecodeResponse([]byte(raw))
			if !ok {
				// Stored raw; show it as text.
				return r.Render(map[string]string{"raw": raw})
			}
			if c.Bool("tui") {
				return r.RenderTUI(tui.ViewStateAction, resp)
			}
			return r.Render(resp)
		})
	}
}

func stateLogAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, _ *config.Config, n *node.Node) error {
		text, err := n.Bridge.Log(ctx)
		if err != nil {
			return fmt.Errorf("failed to read log: %w", err)
		}
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported for state log", exitFailed)
		}
		lines := []string{}
		if text != "" {
			lines = strings.Split(text, "\n")
		}
		return r.Render(lines)
	})
}

func stateLoginAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, _ *config.Config, n *node.Node) error {
		status, message, err := n.Bridge.LoginStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read login status: %w", err)
		}
		return renderExit(c, LoginState{Status: status, Message: message}, exitOK)
	})
}

func stateClearLogAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, _ *config.Config, n *node.Node) error {
		if err := n.Client.ClearLogs(ctx); err != nil {
			return fmt.Errorf("failed to clear log: %w", err)
		}
		return renderExit(c, map[string]bool{"cleared": true}, exitOK)
	})
}
