package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/wearlink/autosync"
	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/client"
	"github.com/pithecene-io/wearlink/iox"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/login"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/transport/memory"
	"github.com/pithecene-io/wearlink/types"
)

//go:embed demo_seed.yaml
var demoSeed []byte

// DemoStep is one scripted exchange.
type DemoStep struct {
	Name   string `json:"name" yaml:"name"`
	OK     bool   `json:"ok" yaml:"ok"`
	Detail string `json:"detail" yaml:"detail"`
}

// DemoReport is the output of the demo command.
type DemoReport struct {
	Steps      []DemoStep            `json:"steps" yaml:"steps"`
	AutoSync   []types.AutoSyncStats `json:"autosync" yaml:"autosync"`
	WatchQueue int                   `json:"watch_queue" yaml:"watch_queue"`
	WatchLog   string                `json:"watch_log" yaml:"watch_log"`
}

// OK reports whether every step succeeded.
func (r DemoReport) OK() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// DemoCommand returns the demo command.
// Demo runs a phone and a watch in one process over the memory transport and
// exercises every companion operation.
func DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run an in-process phone and watch through every bridge operation",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "seed", Usage: "Phone library seed YAML (default built-in)"},
			&cli.StringFlag{Name: "archive-dir", Usage: "Archive auto-sync runs to this directory"},
			TimeoutFlag,
		),
		Action: demoAction,
	}
}

func demoAction(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration(TimeoutFlag.Name))
	defer cancel()

	phoneCfg, watchCfg := DemoConfigs(c.String("archive-dir"))
	phoneCfg.Library.Seed = c.String("seed")

	report, err := RunDemo(ctx, phoneCfg, watchCfg)
	if err != nil {
		return buildError(err)
	}
	return renderExit(c, report, okExitCode(report.OK()))
}

// DemoConfigs returns a phone and a watch on the memory transport.
func DemoConfigs(archiveDir string) (phone, watch *config.Config) {
	phone = config.Default()
	phone.Device = config.DeviceConfig{
		ID:         "phone",
		Name:       "Pixel 8",
		Role:       string(types.RolePhone),
		Model:      "Pixel 8",
		SDKInt:     34,
		AppVersion: types.Version,
		Charging:   true,
		Unmetered:  true,
	}
	if archiveDir != "" {
		phone.Archive = config.ArchiveConfig{Backend: config.ArchiveFS, Path: archiveDir}
	}

	watch = config.Default()
	watch.Device = config.DeviceConfig{
		ID:         "watch",
		Name:       "Pixel Watch 2",
		Role:       string(types.RoleWatch),
		Model:      "Pixel Watch 2",
		SDKInt:     33,
		AppVersion: types.Version,
	}
	return phone, watch
}

// RunDemo builds both nodes on one memory network and runs the script.
// Step failures are reported in the result; only build errors are returned.
func RunDemo(ctx context.Context, phoneCfg, watchCfg *config.Config) (DemoReport, error) {
	network := memory.NewNetwork()
	var closers iox.Stack
	defer iox.DiscardClose(&closers)

	phone, err := node.Build(ctx, phoneCfg, node.WithNetwork(network))
	if err != nil {
		return DemoReport{}, err
	}
	closers.Push(phone)
	watch, err := node.Build(ctx, watchCfg, node.WithNetwork(network))
	if err != nil {
		return DemoReport{}, err
	}
	closers.Push(watch)

	if phoneCfg.Library.Seed == "" {
		var seed library.Seed
		if err := yaml.Unmarshal(demoSeed, &seed); err != nil {
			return DemoReport{}, fmt.Errorf("demo seed: %w", err)
		}
		if err := seed.Apply(ctx, phone.Library); err != nil {
			return DemoReport{}, fmt.Errorf("demo seed: %w", err)
		}
	}

	var report DemoReport
	step := func(name string, ok bool, detail string) {
		report.Steps = append(report.Steps, DemoStep{Name: name, OK: ok, Detail: detail})
	}
	await := func(name string, action types.ActionKind, fn func(context.Context) (client.Outcome, error)) {
		ok, detail := awaitOutcome(ctx, phone, action, fn)
		step(name, ok, detail)
	}

	await("status", types.ActionStatus, phone.Client.RequestDiagnostics)
	await("sync session", types.ActionSyncSession, phone.Client.SyncSessionAndSpotify)

	out, err := phone.Client.SyncSelectedData(ctx)
	switch {
	case err != nil:
		step("sync selected", false, err.Error())
	case out.Sync != nil:
		step("sync selected", out.Sync.Status != client.SyncPartial,
			fmt.Sprintf("%s: sent %d/%d", out.Sync.Status, out.Sync.Sent, out.Sync.Attempted))
	default:
		step("sync selected", out.OK, out.Detail)
	}

	await("remote play_pause", types.ActionRemote, func(ctx context.Context) (client.Outcome, error) {
		return phone.Client.Remote(ctx, types.RemotePlayPause)
	})
	await("remote next", types.ActionRemote, func(ctx context.Context) (client.Outcome, error) {
		return phone.Client.Remote(ctx, types.RemoteNext)
	})

	if _, err := loadQueueFromLibrary(ctx, phone); err != nil {
		step("handoff to watch", false, err.Error())
	} else {
		await("handoff to watch", types.ActionRemote, phone.Client.HandoffQueueToWatch)
	}
	report.WatchQueue = len(watch.Player.Queue())

	resp, err := watch.Client.HandoffQueueToPhone(ctx)
	if err != nil {
		step("handoff to phone", false, err.Error())
	} else {
		step("handoff to phone", resp.OK, resp.Message)
	}

	if !login.RequestOpen(ctx, watch.Transport) {
		step("login prompt", false, "login request not delivered")
	} else if status, message, err := watch.Bridge.LoginStatus(ctx); err != nil {
		step("login prompt", false, err.Error())
	} else {
		step("login prompt", status == login.StatusRequested, fmt.Sprintf("%s: %s", status, message))
	}

	if !login.RequestSync(ctx, watch.Transport) {
		step("login sync", false, "login request not delivered")
	} else {
		// The phone's processing status lands after the cookie, so the
		// account count is the signed-in signal.
		status, message, err := watch.Bridge.LoginStatus(ctx)
		accounts, countErr := watch.Library.AccountCount(ctx)
		switch {
		case err != nil:
			step("login sync", false, err.Error())
		case countErr != nil:
			step("login sync", false, countErr.Error())
		default:
			step("login sync", accounts > 0, fmt.Sprintf("%s: %s", status, message))
		}
	}

	// The second run finds nothing changed.
	for i := range 2 {
		r := phone.Worker.Execute(ctx)
		report.AutoSync = append(report.AutoSync, r.Stats)
		ok := !r.Cancelled && r.Result == autosync.ResultSuccess
		step(fmt.Sprintf("autosync run %d", i+1), ok, r.Stats.Reason)
	}

	report.WatchLog, _ = watch.Bridge.Log(ctx)
	return report, nil
}

// awaitOutcome runs fn on n and waits for the peer's response to action.
func awaitOutcome(ctx context.Context, n *node.Node, action types.ActionKind, fn func(context.Context) (client.Outcome, error)) (bool, string) {
	waiter := n.Broker.Waiter(bus.ByAction(action))
	defer waiter.Cancel()

	out, err := fn(ctx)
	if err != nil {
		return false, err.Error()
	}
	if !out.OK {
		return false, out.Detail
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := waiter.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, "no response from watch"
		}
		return false, err.Error()
	}
	return resp.OK, resp.Message
}
