// Package node assembles a phone or watch bridge node from configuration.
//
// A Node owns every collaborator it builds and releases them in reverse
// order on Close.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pithecene-io/wearlink/adapter"
	redisadapter "github.com/pithecene-io/wearlink/adapter/redis"
	"github.com/pithecene-io/wearlink/adapter/webhook"
	"github.com/pithecene-io/wearlink/autosync"
	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/client"
	"github.com/pithecene-io/wearlink/device"
	"github.com/pithecene-io/wearlink/dispatch"
	"github.com/pithecene-io/wearlink/iox"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/lode"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/login"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/player"
	"github.com/pithecene-io/wearlink/policy"
	"github.com/pithecene-io/wearlink/store"
	redisstore "github.com/pithecene-io/wearlink/store/redis"
	"github.com/pithecene-io/wearlink/store/sqlite"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/transport/memory"
	"github.com/pithecene-io/wearlink/transport/stream"
	"github.com/pithecene-io/wearlink/transport/ws"
	"github.com/pithecene-io/wearlink/types"
)

// ErrInvalidConfig wraps configuration errors found while building.
var ErrInvalidConfig = errors.New("invalid config")

// peerPollInterval is how often WaitForPeer re-reads the connected peers.
const peerPollInterval = 50 * time.Millisecond

// Option configures Build.
type Option func(*options)

type options struct {
	network   *memory.Network
	logOutput io.Writer
	now       func() time.Time
	newID     func() string
}

// WithNetwork joins the memory transport to network instead of a private one.
func WithNetwork(network *memory.Network) Option {
	return func(o *options) { o.network = network }
}

// WithLogOutput redirects node logs to w.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithClock sets the clock shared by every collaborator.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDs sets the request id generator.
func WithIDs(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// Node is one side of the bridge.
type Node struct {
	Config  *config.Config
	Role    types.Role
	Logger  *log.Logger
	Metrics *metrics.Collector

	Store   store.Store
	Bridge  *store.Bridge
	Library *library.Memory
	Player  *player.Memory
	Device  *device.Static

	Transport  transport.Transport
	Mux        *transport.Mux
	Broker     *bus.Broker
	Dispatcher *dispatch.Dispatcher
	Client     *client.Client

	// Worker is set on phones only.
	Worker *autosync.Worker
	// Archive is nil when no archive backend is configured.
	Archive *lode.Archive

	connect func(ctx context.Context) error
	closers iox.Stack
}

// Build validates cfg and wires a node. Nothing is dialed or served until
// Connect.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Node, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	role := cfg.Role()
	n := &Node{Config: cfg, Role: role}
	defer func() {
		if err != nil {
			_ = n.Close()
		}
	}()

	n.Logger = log.NewLogger(log.Context{DeviceID: cfg.Device.ID, Role: string(role), Component: "node"})
	if o.logOutput != nil {
		n.Logger = n.Logger.WithOutput(o.logOutput)
	}
	n.closers.PushFunc(func() error {
		_ = n.Logger.Sync()
		return nil
	})
	n.Metrics = metrics.NewCollector(string(role), cfg.Device.ID, cfg.Transport.Type)

	if n.Store, err = openStore(cfg.Store); err != nil {
		return nil, err
	}
	n.closers.Push(n.Store)
	n.Bridge = store.NewBridge(n.Store)
	if err := applyPolicy(ctx, n.Bridge, cfg.AutoSync); err != nil {
		return nil, err
	}

	if n.Library, err = openLibrary(cfg.Library); err != nil {
		return nil, err
	}
	lib := library.FromMemory(n.Library)
	n.Player = player.NewMemory()
	n.Device = device.NewStatic(device.Info{
		Model:      cfg.Device.Model,
		SDKInt:     cfg.Device.SDKInt,
		AppVersion: cfg.Device.AppVersion,
	}, cfg.Device.Charging, cfg.Device.Unmetered)

	if err := n.buildTransport(o.network); err != nil {
		return nil, err
	}
	n.closers.Push(n.Transport)

	n.Broker = bus.NewBroker()
	n.closers.PushFunc(func() error {
		n.Broker.Close()
		return nil
	})

	n.Mux = transport.NewMux()
	n.Dispatcher = dispatch.New(role, dispatch.Deps{
		Sender:  n.Transport,
		Library: lib,
		Player:  n.Player,
		Device:  n.Device.Info(),
		Bridge:  n.Bridge,
		Logger:  n.Logger.Named("dispatch"),
		Metrics: n.Metrics,
		Now:     o.now,
	})
	listener := dispatch.NewResponseListener(n.Bridge, n.Broker, n.Logger.Named("listener"), n.Metrics, o.now)
	dispatch.Mount(n.Mux, n.Dispatcher, listener)

	switch role {
	case types.RolePhone:
		login.NewPhoneHandler(n.Transport, lib.Accounts, login.LogNotifier{Logger: n.Logger.Named("login")}, n.Logger.Named("login")).Mount(n.Mux)
	case types.RoleWatch:
		login.NewWatchHandler(lib.Accounts, n.Bridge, n.Logger.Named("login")).Mount(n.Mux)
	}
	n.Transport.Listen(n.Mux.Handler())

	n.Client = client.New(client.Deps{
		Sender:  n.Transport,
		Library: lib,
		Player:  n.Player,
		Bridge:  n.Bridge,
		Broker:  n.Broker,
		Logger:  n.Logger.Named("client"),
		Metrics: n.Metrics,
		Now:     o.now,
		NewID:   o.newID,
	}, client.WithMaxSyncItems(cfg.AutoSync.MaxItems))

	if role == types.RolePhone {
		if err := n.buildWorker(ctx, lib, o); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreRedis:
		s, err := redisstore.New(redisstore.Config{URL: cfg.URL, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemory(), nil
	}
}

// applyPolicy turns on gates the config enables. A false config value leaves
// the persisted flag alone.
func applyPolicy(ctx context.Context, b *store.Bridge, cfg config.AutoSyncConfig) error {
	if cfg.BatterySaver {
		if err := b.SetBatterySaver(ctx, true); err != nil {
			return fmt.Errorf("apply battery saver policy: %w", err)
		}
	}
	if cfg.UnmeteredOnly {
		if err := b.SetUnmeteredOnly(ctx, true); err != nil {
			return fmt.Errorf("apply unmetered-only policy: %w", err)
		}
	}
	return nil
}

func openLibrary(cfg config.LibraryConfig) (*library.Memory, error) {
	if cfg.Seed == "" {
		return library.NewMemory(), nil
	}
	return library.LoadSeed(cfg.Seed)
}

func (n *Node) buildTransport(network *memory.Network) error {
	cfg := n.Config.Transport
	id, name := n.Config.Device.ID, n.Config.Device.Name
	logger := n.Logger.Named("transport")

	switch cfg.Type {
	case config.TransportTCP:
		t := stream.New(id, name, logger)
		n.Transport = t
		n.connect = func(ctx context.Context) error {
			if cfg.Listen != "" {
				ln, err := net.Listen("tcp", cfg.Listen)
				if err != nil {
					return fmt.Errorf("listen %s: %w", cfg.Listen, err)
				}
				go func() {
					if err := t.Serve(ctx, ln); err != nil {
						logger.Error("tcp serve stopped", map[string]any{"error": err.Error()})
					}
				}()
				logger.Info("listening", map[string]any{"addr": ln.Addr().String()})
			}
			if cfg.Dial != "" {
				if _, err := t.Dial(ctx, cfg.Dial); err != nil {
					return err
				}
			}
			return nil
		}
	case config.TransportWS:
		t := ws.New(id, name, logger)
		n.Transport = t
		n.connect = func(ctx context.Context) error {
			if cfg.Listen != "" {
				ln, err := net.Listen("tcp", cfg.Listen)
				if err != nil {
					return fmt.Errorf("listen %s: %w", cfg.Listen, err)
				}
				srv := &http.Server{Handler: t.Mux(), ReadHeaderTimeout: 10 * time.Second}
				go func() {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("websocket serve stopped", map[string]any{"error": err.Error()})
					}
				}()
				n.closers.PushFunc(func() error {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(ctx)
				})
				logger.Info("listening", map[string]any{"addr": ln.Addr().String(), "path": ws.LinkPath})
			}
			if cfg.Dial != "" {
				if _, err := t.Dial(ctx, cfg.Dial); err != nil {
					return err
				}
			}
			return nil
		}
	default:
		if network == nil {
			network = memory.NewNetwork()
		}
		n.Transport = network.Join(id, name)
	}
	return nil
}

func (n *Node) buildWorker(ctx context.Context, lib library.Library, o options) error {
	deps := autosync.Deps{
		Sender:   n.Transport,
		Library:  lib,
		Bridge:   n.Bridge,
		Gates:    policy.Default(n.Bridge, n.Device, n.Device, n.Transport),
		DeviceID: n.Config.Device.ID,
		MaxItems: n.Config.AutoSync.MaxItems,
		Logger:   n.Logger.Named("autosync"),
		Metrics:  n.Metrics,
		Now:      o.now,
		NewID:    o.newID,
	}

	archive, err := openArchive(ctx, n.Config.Archive)
	if err != nil {
		return err
	}
	if archive != nil {
		n.Archive = archive
		n.closers.Push(archive)
		deps.Archive = archive
	}

	pub, err := openAdapter(n.Config.Adapter)
	if err != nil {
		return err
	}
	if pub != nil {
		n.closers.Push(pub)
		deps.Notifier = adapter.Notifier{Adapter: pub}
	}

	n.Worker = autosync.NewWorker(deps)
	return nil
}

// OpenArchive opens the configured archive for reading. It returns nil when
// no backend is configured.
func OpenArchive(ctx context.Context, cfg config.ArchiveConfig) (*lode.Archive, error) {
	return openArchive(ctx, cfg)
}

func openArchive(ctx context.Context, cfg config.ArchiveConfig) (*lode.Archive, error) {
	switch cfg.Backend {
	case config.ArchiveFS:
		ds, err := lode.NewFSDataset(cfg.Dataset, cfg.Path)
		if err != nil {
			return nil, err
		}
		return lode.NewArchive(ds), nil
	case config.ArchiveS3:
		bucket, prefix := lode.ParseS3Path(cfg.Path)
		ds, err := lode.NewS3Dataset(ctx, cfg.Dataset, lode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return lode.NewArchive(ds), nil
	default:
		return nil, nil
	}
}

func openAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case config.AdapterRedis:
		retries := redisadapter.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return redisadapter.New(redisadapter.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	case config.AdapterWebhook:
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, nil
	}
}

// Connect starts listeners and dials the configured peer. It is a no-op on
// the memory transport.
func (n *Node) Connect(ctx context.Context) error {
	if n.connect == nil {
		return nil
	}
	return n.connect(ctx)
}

// WaitForPeer blocks until a peer is connected or ctx ends.
func (n *Node) WaitForPeer(ctx context.Context) (transport.Peer, error) {
	ticker := time.NewTicker(peerPollInterval)
	defer ticker.Stop()
	for {
		if peer, ok := transport.FirstPeer(ctx, n.Transport); ok {
			return peer, nil
		}
		select {
		case <-ctx.Done():
			return transport.Peer{}, fmt.Errorf("no %s connected: %w", n.Role.Peer(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Runner returns the periodic auto-sync runner, or nil when auto-sync is
// disabled or the node is not a phone.
func (n *Node) Runner(onRun func(autosync.Report)) *autosync.Runner {
	if n.Worker == nil || !n.Config.AutoSync.Enabled {
		return nil
	}
	return autosync.NewRunner(n.Worker, n.Config.AutoSync.Interval.Duration,
		autosync.WithBackoffBase(n.Config.AutoSync.BackoffBase.Duration),
		autosync.WithOnRun(onRun),
		autosync.WithLogger(n.Logger.Named("autosync")),
	)
}

// WriteMetrics writes a metrics snapshot to the configured path, if any.
func (n *Node) WriteMetrics() error {
	if n.Config.MetricsPath == "" {
		return nil
	}
	return metrics.WriteSnapshot(n.Config.MetricsPath, n.Metrics.Snapshot())
}

// Close releases everything Build opened, newest first.
func (n *Node) Close() error {
	return n.closers.Close()
}
