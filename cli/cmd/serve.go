package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/autosync"
	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/types"
)

// ServeCommand returns the serve command.
// Serve runs a node until SIGINT or SIGTERM. Phones also run auto-sync.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a phone or watch node until interrupted",
		Flags: []cli.Flag{
			ConfigFlag,
			RoleFlag,
			DeviceIDFlag,
			&cli.BoolFlag{
				Name:  "no-autosync",
				Usage: "Disable background auto-sync on a phone",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, cfg *config.Config, n *node.Node) error {
		if err := n.Connect(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("failed to connect: %v", err), exitFailed)
		}
		n.Logger.Info("node serving", map[string]any{
			"transport": cfg.Transport.Type,
			"listen":    cfg.Transport.Listen,
			"dial":      cfg.Transport.Dial,
		})

		var wg sync.WaitGroup
		if runner := serveRunner(c, n); runner != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				peer, err := n.WaitForPeer(ctx)
				if err != nil {
					return
				}
				n.Logger.Info("auto-sync started", map[string]any{
					"peer":     peer.ID,
					"interval": cfg.AutoSync.Interval.String(),
				})
				_ = runner.Run(ctx)
			}()
		}

		<-ctx.Done()
		wg.Wait()

		n.Logger.Info("node stopping", nil)
		if err := n.WriteMetrics(); err != nil {
			n.Logger.Warn("failed to write metrics snapshot", map[string]any{"error": err.Error()})
		}
		return nil
	})
}

func serveRunner(c *cli.Context, n *node.Node) *autosync.Runner {
	if c.Bool("no-autosync") || n.Role != types.RolePhone {
		return nil
	}
	return n.Runner(func(report autosync.Report) {
		if report.Cancelled {
			return
		}
		n.Logger.Info("auto-sync run finished", map[string]any{
			"status":    string(report.Stats.Status),
			"attempted": report.Stats.Attempted,
			"sent":      report.Stats.Sent,
			"result":    report.Result.String(),
		})
		if err := n.WriteMetrics(); err != nil {
			n.Logger.Warn("failed to write metrics snapshot", map[string]any{"error": err.Error()})
		}
	})
}
