package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/iox"
	"github.com/pithecene-io/wearlink/mapper"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/player"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// withNode builds a node from the command's config, runs fn, and closes it.
func withNode(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, n *node.Node) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	n, err := node.Build(ctx, cfg)
	if err != nil {
		return buildError(err)
	}
	defer iox.DiscardClose(n)

	return fn(ctx, cfg, n)
}

// withPeer is withNode plus a connected peer. The context passed to fn ends
// after --timeout.
func withPeer(c *cli.Context, fn func(ctx context.Context, n *node.Node) error) error {
	return withNode(c, func(ctx context.Context, _ *config.Config, n *node.Node) error {
		if err := n.Connect(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("failed to connect: %v", err), exitFailed)
		}

		ctx, cancel := context.WithTimeout(ctx, c.Duration(TimeoutFlag.Name))
		defer cancel()

		if _, err := n.WaitForPeer(ctx); err != nil {
			return cli.Exit(err.Error(), exitFailed)
		}
		return fn(ctx, n)
	})
}

// loadQueueFromLibrary installs the liked songs of the node's library as the
// player queue. It reports the number of tracks queued.
func loadQueueFromLibrary(ctx context.Context, n *node.Node) (int, error) {
	songs, err := n.Library.SongRepo().Liked(ctx)
	if err != nil {
		return 0, err
	}
	q := player.QueueData{PlaylistName: "Liked songs", PlaylistType: "LOCAL_PLAYLIST"}
	for _, s := range songs {
		q.Tracks = append(q.Tracks, mapper.SongToHandoffTrack(s))
	}
	if len(q.Tracks) > 0 {
		n.Player.SetQueue(q)
		n.Player.Load(0)
	}
	return len(q.Tracks), nil
}
