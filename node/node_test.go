package node

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pithecene-io/wearlink/adapter"
	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/lode"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport/memory"
	"github.com/pithecene-io/wearlink/types"
)

func phoneConfig() *config.Config {
	cfg := config.Default()
	cfg.Device.ID = "phone"
	cfg.Device.Name = "Pixel 8"
	cfg.Device.Role = string(types.RolePhone)
	return cfg
}

func watchConfig() *config.Config {
	cfg := config.Default()
	cfg.Device.Model = "Pixel Watch 2"
	return cfg
}

func buildPair(t *testing.T, phoneCfg *config.Config) (phone, watch *Node) {
	t.Helper()
	network := memory.NewNetwork()
	var err error
	phone, err = Build(t.Context(), phoneCfg, WithNetwork(network), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Build phone: %v", err)
	}
	t.Cleanup(func() { _ = phone.Close() })
	watch, err = Build(t.Context(), watchConfig(), WithNetwork(network), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Build watch: %v", err)
	}
	t.Cleanup(func() { _ = watch.Close() })
	return phone, watch
}

func seedSongs(t *testing.T, n *Node) {
	t.Helper()
	_ = n.Library.SongRepo().Upsert(t.Context(), library.Song{VideoID: "v1", Title: "One", Liked: true, IsAvailable: true})
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Device.ID = ""
	cfg.Store.Backend = "etcd"
	_, err := Build(t.Context(), cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestBuild_BadSeed(t *testing.T) {
	cfg := phoneConfig()
	cfg.Library.Seed = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Build(t.Context(), cfg, WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error for missing seed")
	}
}

func TestBuild_PhoneAndWatch(t *testing.T) {
	phone, watch := buildPair(t, phoneConfig())
	if phone.Worker == nil {
		t.Error("phone should have an auto-sync worker")
	}
	if watch.Worker != nil || watch.Runner(nil) != nil {
		t.Error("watch must not run auto-sync")
	}
	if phone.Runner(nil) == nil {
		t.Error("phone runner should be enabled by default")
	}

	peer, err := phone.WaitForPeer(t.Context())
	if err != nil {
		t.Fatalf("WaitForPeer: %v", err)
	}
	if peer.ID != "watch" {
		t.Errorf("peer = %+v", peer)
	}

	if _, err := phone.Client.RequestDiagnostics(t.Context()); err != nil {
		t.Fatalf("RequestDiagnostics: %v", err)
	}
	raw, err := phone.Bridge.LastDiagnostics(t.Context())
	if err != nil || raw == "" {
		t.Fatalf("LastDiagnostics = %q, %v", raw, err)
	}
	var resp types.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if !resp.OK || resp.Action != types.ActionStatus {
		t.Errorf("diagnostics = %+v", resp)
	}
}

func TestBuild_ConfigPolicyApplied(t *testing.T) {
	cfg := phoneConfig()
	cfg.AutoSync.BatterySaver = true
	phone, _ := buildPair(t, cfg)

	policy, err := phone.Bridge.Policy(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !policy.BatterySaver || policy.UnmeteredOnly {
		t.Fatalf("policy = %+v", policy)
	}

	report := phone.Worker.Execute(t.Context())
	if report.Stats.Status != types.AutoSyncSkipped {
		t.Errorf("status = %s, want skipped (not charging)", report.Stats.Status)
	}
}

func TestWorker_RedisStoreAndAdapter(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	cfg := phoneConfig()
	cfg.Store = config.StoreConfig{Backend: config.StoreRedis, URL: url, Prefix: "phone:"}
	cfg.Adapter = config.AdapterConfig{Type: config.AdapterRedis, URL: url}
	archiveDir := t.TempDir()
	cfg.Archive = config.ArchiveConfig{Backend: config.ArchiveFS, Path: archiveDir}
	phone, _ := buildPair(t, cfg)
	seedSongs(t, phone)

	sub := mr.NewSubscriber()
	sub.Subscribe("wearlink:autosync_completed")
	// miniredis delivers synchronously; read before the run publishes.
	received := make(chan miniredis.PubsubMessage, 1)
	go func() { received <- <-sub.Messages() }()

	report := phone.Worker.Execute(t.Context())
	if report.Stats.Status != types.AutoSyncSuccess {
		t.Fatalf("status = %s (%s)", report.Stats.Status, report.Stats.Reason)
	}

	// Stats persisted through the redis store.
	if !mr.Exists("phone:" + store.KeyAutoSyncStats) {
		t.Errorf("stats key missing, keys = %v", mr.Keys())
	}
	stats, ok, err := phone.Bridge.Stats(t.Context())
	if err != nil || !ok || stats.Status != types.AutoSyncSuccess {
		t.Errorf("Stats = %+v, %v, %v", stats, ok, err)
	}

	var msg miniredis.PubsubMessage
	select {
	case msg = <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
	var event adapter.AutoSyncCompletedEvent
	if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.DeviceID != "phone" || event.Status != types.AutoSyncSuccess {
		t.Errorf("event = %+v", event)
	}

	runs, err := lode.QueryRuns(t.Context(), phone.Archive.Dataset(), lode.RunFilter{})
	if err != nil {
		t.Fatalf("QueryRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Sent != report.Stats.Sent {
		t.Errorf("archived runs = %+v", runs)
	}
}

func TestWorker_WebhookAdapter(t *testing.T) {
	var (
		mu     sync.Mutex
		events []adapter.AutoSyncCompletedEvent
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e adapter.AutoSyncCompletedEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err == nil {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cfg := phoneConfig()
	cfg.Adapter = config.AdapterConfig{Type: config.AdapterWebhook, URL: ts.URL}
	phone, _ := buildPair(t, cfg)
	seedSongs(t, phone)

	phone.Worker.Execute(t.Context())
	phone.Worker.Execute(t.Context())

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Status != types.AutoSyncSuccess || events[1].Status != types.AutoSyncNoop {
		t.Errorf("statuses = %s, %s", events[0].Status, events[1].Status)
	}
}

func TestWriteMetrics(t *testing.T) {
	cfg := phoneConfig()
	cfg.MetricsPath = filepath.Join(t.TempDir(), "metrics.json")
	phone, _ := buildPair(t, cfg)
	seedSongs(t, phone)
	phone.Worker.Execute(t.Context())

	if err := phone.WriteMetrics(); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}

	cfg.MetricsPath = ""
	if err := phone.WriteMetrics(); err != nil {
		t.Errorf("WriteMetrics without path: %v", err)
	}
}

func TestOpenArchive_Disabled(t *testing.T) {
	a, err := OpenArchive(t.Context(), config.ArchiveConfig{})
	if err != nil || a != nil {
		t.Fatalf("OpenArchive = %v, %v", a, err)
	}
}
