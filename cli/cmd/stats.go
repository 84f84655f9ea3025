package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/cli/render"
	"github.com/pithecene-io/wearlink/cli/tui"
	"github.com/pithecene-io/wearlink/lode"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/types"
)

// historyWarningThreshold triggers a stderr hint for large unbounded queries.
const historyWarningThreshold = 100

// StatsCommand returns the stats command with subcommands.
// Stats returns derived facts: the last auto-sync run, the archived run
// history, and the metrics snapshot.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show auto-sync statistics (autosync, history, metrics)",
		Subcommands: []*cli.Command{
			statsAutoSyncCommand(),
			statsHistoryCommand(),
			statsMetricsCommand(),
		},
	}
}

func statsAutoSyncCommand() *cli.Command {
	return &cli.Command{
		Name:   "autosync",
		Usage:  "Show the last auto-sync run",
		Flags:  NodeFlags(),
		Action: statsAutoSyncAction,
	}
}

func statsAutoSyncAction(c *cli.Context) error {
	return withNode(c, func(ctx context.Context, _ *config.Config, n *node.Node) error {
		stats, ok, err := n.Bridge.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read auto-sync stats: %w", err)
		}

		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if !ok {
			return cli.Exit("no auto-sync run recorded", exitFailed)
		}
		if c.Bool("tui") {
			return r.RenderTUI(tui.ViewStatsAutoSync, &stats)
		}
		return r.Render(stats)
	})
}

func statsHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show archived auto-sync runs, newest first",
		Flags: NodeFlags(
			&cli.StringFlag{Name: "device", Usage: "Only runs of this device id"},
			&cli.StringFlag{Name: "status", Usage: "Only runs with this status (skipped, noop, success, partial, retry)"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum runs to return (default 50)"},
		),
		Action: statsHistoryAction,
	}
}

func statsHistoryAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Archive.Backend == "" {
		return cli.Exit("no archive configured: set archive.backend and archive.path", exitInvalidConfig)
	}
	status := types.AutoSyncStatus(c.String("status"))
	if status != "" && !knownStatus(status) {
		return cli.Exit(fmt.Sprintf("unknown status %q", status), exitInvalidConfig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	archive, err := node.OpenArchive(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to initialize archive reader: %w", err)
	}
	defer func() { _ = archive.Close() }()

	runs, err := lode.QueryRuns(ctx, archive.Dataset(), lode.RunFilter{
		DeviceID: c.String("device"),
		Status:   status,
		Limit:    c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}

	if len(runs) > historyWarningThreshold && c.Int("limit") == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d runs. Consider using --limit to reduce output.\n\n", len(runs))
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsHistory, runs)
	}
	return r.Render(runs)
}

func knownStatus(s types.AutoSyncStatus) bool {
	switch s {
	case types.AutoSyncSkipped, types.AutoSyncNoop, types.AutoSyncSuccess, types.AutoSyncPartial, types.AutoSyncRetry:
		return true
	}
	return false
}

func statsMetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show the metrics snapshot a node wrote on shutdown",
		Flags: append(NodeFlags(),
			&cli.StringFlag{Name: "path", Usage: "Snapshot file (default metrics_path from config)"},
		),
		Action: statsMetricsAction,
	}
}

func statsMetricsAction(c *cli.Context) error {
	path := c.String("path")
	if path == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		path = cfg.MetricsPath
	}
	if path == "" {
		return cli.Exit("no metrics snapshot: pass --path or set metrics_path", exitInvalidConfig)
	}

	snapshot, err := metrics.ReadSnapshot(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cli.Exit(fmt.Sprintf("metrics snapshot not found: %s", path), exitFailed)
		}
		return fmt.Errorf("failed to read metrics snapshot: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for stats metrics", exitFailed)
	}
	return r.Render(snapshot)
}
