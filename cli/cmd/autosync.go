package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/cli/render"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/policy"
	"github.com/pithecene-io/wearlink/types"
)

// RunResult is the output of autosync run.
type RunResult struct {
	Result    string              `json:"result" yaml:"result"`
	Cancelled bool                `json:"cancelled" yaml:"cancelled"`
	Stats     types.AutoSyncStats `json:"stats" yaml:"stats"`
	Gates     policy.Stats        `json:"gates" yaml:"gates"`
}

// AutoSyncCommand returns the autosync command with subcommands.
func AutoSyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "autosync",
		Usage: "Run auto-sync once or manage its policy and delta cache (phone only)",
		Subcommands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run one auto-sync pass against the connected watch",
				Flags:  NodeFlags(TimeoutFlag),
				Action: autoSyncRunAction,
			},
			{
				Name:  "policy",
				Usage: "Show or change the auto-sync gates",
				Flags: NodeFlags(
					&cli.BoolFlag{Name: "battery-saver", Usage: "Only sync while charging"},
					&cli.BoolFlag{Name: "unmetered-only", Usage: "Only sync on unmetered networks"},
				),
				Action: autoSyncPolicyAction,
			},
			{
				Name:   "reset",
				Usage:  "Clear the per-category delta signatures so the next run resends everything",
				Flags:  NodeFlags(),
				Action: autoSyncResetAction,
			},
		},
	}
}

func autoSyncRunAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, cfg *config.Config, n *node.Node) error {
		if err := requireRole(cfg, types.RolePhone, "autosync run"); err != nil {
			return err
		}
		if err := n.Connect(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("failed to connect: %v", err), exitFailed)
		}

		// A missing peer is not fatal: the connected-peer gate reports it.
		waitCtx, cancel := context.WithTimeout(ctx, c.Duration(TimeoutFlag.Name))
		_, _ = n.WaitForPeer(waitCtx)
		cancel()

		report := n.Worker.Execute(ctx)
		if err := n.WriteMetrics(); err != nil {
			n.Logger.Warn("failed to write metrics snapshot", map[string]any{"error": err.Error()})
		}

		out := RunResult{
			Result:    report.Result.String(),
			Cancelled: report.Cancelled,
			Stats:     report.Stats,
			Gates:     n.Worker.GateStats(),
		}
		code := autoSyncExitCode(report.Stats.Status)
		if report.Cancelled {
			code = exitFailed
		}
		return renderExit(c, out, code)
	})
}

func autoSyncPolicyAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, cfg *config.Config, n *node.Node) error {
		if err := requireRole(cfg, types.RolePhone, "autosync policy"); err != nil {
			return err
		}
		if c.IsSet("battery-saver") {
			if err := n.Client.SetAutoSyncBatterySaver(ctx, c.Bool("battery-saver")); err != nil {
				return fmt.Errorf("failed to set battery saver: %w", err)
			}
		}
		if c.IsSet("unmetered-only") {
			if err := n.Client.SetAutoSyncUnmeteredOnly(ctx, c.Bool("unmetered-only")); err != nil {
				return fmt.Errorf("failed to set unmetered only: %w", err)
			}
		}

		policy, err := n.Bridge.Policy(ctx)
		if err != nil {
			return fmt.Errorf("failed to read policy: %w", err)
		}
		return renderExit(c, policy, exitOK)
	})
}

func autoSyncResetAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, cfg *config.Config, n *node.Node) error {
		if err := requireRole(cfg, types.RolePhone, "autosync reset"); err != nil {
			return err
		}
		if err := n.Client.ResetAutoSyncDeltaCache(ctx); err != nil {
			return fmt.Errorf("failed to reset delta cache: %w", err)
		}
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		return r.Render(map[string]any{"reset": true, "categories": types.AllCategories})
	})
}
