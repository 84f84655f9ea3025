package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/device"
	"github.com/pithecene-io/wearlink/dispatch"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/player"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/transport/memory"
	"github.com/pithecene-io/wearlink/types"
)

var fixedNow = time.Date(2026, 5, 2, 9, 15, 0, 0, time.UTC)

type recordToaster struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordToaster) Toast(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordToaster) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recordToaster) last() string {
	all := r.all()
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1]
}

// side is one node of a phone/watch pair with its dispatcher and listener.
type side struct {
	node    *memory.Node
	lib     *library.Memory
	player  *player.Memory
	bridge  *store.Bridge
	broker  *bus.Broker
	metrics *metrics.Collector
}

type pair struct {
	net    *memory.Network
	phone  *side
	watch  *side
	toasts *recordToaster
}

func newSide(net *memory.Network, role types.Role) *side {
	s := &side{
		node:    net.Join(string(role), strings.ToUpper(string(role[:1]))+string(role[1:])),
		lib:     library.NewMemory(),
		player:  player.NewMemory(),
		bridge:  store.NewBridge(store.NewMemory()),
		broker:  bus.NewBroker(),
		metrics: metrics.NewCollector(string(role), string(role), "memory"),
	}
	now := func() time.Time { return fixedNow }
	d := dispatch.New(role, dispatch.Deps{
		Sender:  s.node,
		Library: library.FromMemory(s.lib),
		Player:  s.player,
		Device:  device.Info{Model: "Test " + string(role), SDKInt: 34, AppVersion: "1.0.0"},
		Bridge:  s.bridge,
		Now:     now,
	})
	l := dispatch.NewResponseListener(s.bridge, s.broker, nil, nil, now)
	mux := transport.NewMux()
	dispatch.Mount(mux, d, l)
	s.node.Listen(mux.Handler())
	return s
}

func newPair(t *testing.T) *pair {
	t.Helper()
	net := memory.NewNetwork()
	p := &pair{
		net:    net,
		phone:  newSide(net, types.RolePhone),
		watch:  newSide(net, types.RoleWatch),
		toasts: &recordToaster{},
	}
	t.Cleanup(func() {
		p.phone.broker.Close()
		p.watch.broker.Close()
	})
	return p
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// client builds a Client sending from s.
func (p *pair) client(s *side, sender transport.Sender, opts ...Option) *Client {
	if sender == nil {
		sender = s.node
	}
	return New(Deps{
		Sender:  sender,
		Library: library.FromMemory(s.lib),
		Player:  s.player,
		Bridge:  s.bridge,
		Broker:  s.broker,
		Metrics: s.metrics,
		Toaster: p.toasts,
		Now:     func() time.Time { return fixedNow },
		NewID:   sequentialIDs("req"),
	}, opts...)
}

// rejectingSender accepts the first accept messages and refuses the rest.
type rejectingSender struct {
	transport.Sender
	accept int
}

func (r *rejectingSender) Send(ctx context.Context, peerID, path string, data []byte) bool {
	if r.accept <= 0 {
		return false
	}
	r.accept--
	return r.Sender.Send(ctx, peerID, path, data)
}

func seedPhone(t *testing.T, lib *library.Memory, songs int) {
	t.Helper()
	ctx := t.Context()
	for i := range songs {
		err := lib.SongRepo().Upsert(ctx, library.Song{
			VideoID:     fmt.Sprintf("v%d", i),
			Title:       fmt.Sprintf("Song %d", i),
			IsAvailable: true,
			LikeStatus:  "LIKE",
			Liked:       true,
		})
		if err != nil {
			t.Fatalf("Upsert song: %v", err)
		}
	}
	if err := lib.PlaylistRepo().Upsert(ctx, library.Playlist{ID: "PL1", Title: "Mix", Liked: true}); err != nil {
		t.Fatalf("Upsert playlist: %v", err)
	}
	if err := lib.ArtistRepo().Upsert(ctx, library.Artist{ChannelID: "UC1", Name: "Band", Followed: true}); err != nil {
		t.Fatalf("Upsert artist: %v", err)
	}
}

func tracks(n int) []types.HandoffTrack {
	out := make([]types.HandoffTrack, n)
	for i := range out {
		out[i] = types.HandoffTrack{Title: fmt.Sprintf("Track %d", i), VideoID: fmt.Sprintf("t%d", i), IsAvailable: true}
	}
	return out
}

func bridgeLog(t *testing.T, b *store.Bridge) string {
	t.Helper()
	text, err := b.Log(t.Context())
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	return text
}

func TestSendSimpleAction_NoPeer(t *testing.T) {
	p := newPair(t)
	p.watch.node.SetConnected(false)
	c := p.client(p.phone, nil)

	id, sent := c.SendSimpleAction(t.Context(), types.ActionStatus, nil)
	if sent || id != "" {
		t.Fatalf("SendSimpleAction = %q, %v; want nothing sent", id, sent)
	}
	if got := p.toasts.last(); got != MessageNoWatch {
		t.Errorf("toast = %q", got)
	}
	if c.ConnectionState().Connected {
		t.Error("connection state should be refreshed to disconnected")
	}
	if p.phone.node.Sent() != 0 {
		t.Errorf("sent %d messages", p.phone.node.Sent())
	}
}

func TestRefreshConnection(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	state := c.RefreshConnection(t.Context())
	if !state.Connected || len(state.NodeNames) != 1 || state.NodeNames[0] != "Watch" {
		t.Errorf("state = %+v", state)
	}
}

func TestRequestDiagnostics(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	out, err := c.RequestDiagnostics(t.Context())
	if err != nil {
		t.Fatalf("RequestDiagnostics: %v", err)
	}
	if !out.OK || out.Detail != "Diagnostics requested." {
		t.Errorf("outcome = %+v", out)
	}
	diag, err := p.phone.bridge.LastDiagnostics(t.Context())
	if err != nil {
		t.Fatalf("LastDiagnostics: %v", err)
	}
	if !strings.Contains(diag, `"model":"Test watch"`) {
		t.Errorf("diagnostics = %s", diag)
	}
	if !strings.Contains(bridgeLog(t, p.phone.bridge), "[09:15:00] Diagnostics requested.") {
		t.Errorf("log = %q", bridgeLog(t, p.phone.bridge))
	}
	if snap := p.phone.metrics.Snapshot(); snap.ActionsOK != 1 || snap.RequestsSent != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestSyncSessionAndSpotify(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	out, err := c.SyncSessionAndSpotify(t.Context())
	if err != nil {
		t.Fatalf("SyncSessionAndSpotify: %v", err)
	}
	if out.OK || out.Detail != MessageSessionSkipped {
		t.Errorf("outcome = %+v", out)
	}
	if got := p.toasts.last(); got != MessageNoSession {
		t.Errorf("toast = %q", got)
	}
	if p.phone.node.Sent() != 0 {
		t.Errorf("sent %d messages without a cookie", p.phone.node.Sent())
	}
	state := c.ActionState()
	if !state.RetryAvailable || state.LastFailure != MessageSessionSkipped {
		t.Errorf("state = %+v", state)
	}

	p.phone.lib.SetSession(library.Session{LoggedIn: true, Cookie: "SID=abc", Spdc: "spdc-1", SpotifyCanvas: true})
	out, err = c.RetryLastFailedAction(t.Context())
	if err != nil {
		t.Fatalf("RetryLastFailedAction: %v", err)
	}
	if !out.OK {
		t.Fatalf("retry outcome = %+v", out)
	}
	sess, _ := p.watch.lib.Session(t.Context())
	if sess.Cookie != "SID=abc" || sess.Spdc != "spdc-1" || !sess.SpotifyCanvas {
		t.Errorf("watch session = %+v", sess)
	}
	state = c.ActionState()
	if state.RetryAvailable || state.LastFailure != "" || state.InProgress {
		t.Errorf("state after success = %+v", state)
	}
	if _, ok := c.LastFailedAction(); ok {
		t.Error("failure id should be cleared")
	}
}

func TestSyncSelectedData(t *testing.T) {
	p := newPair(t)
	seedPhone(t, p.phone.lib, 2)
	c := p.client(p.phone, nil)

	out, err := c.SyncSelectedData(t.Context())
	if err != nil {
		t.Fatalf("SyncSelectedData: %v", err)
	}
	// 2 songs + 1 playlist + 1 artist + 1 downloads snapshot.
	if !out.OK || out.Sync == nil || out.Sync.Status != SyncSuccess {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Sync.Attempted != 5 || out.Sync.Sent != 5 {
		t.Errorf("attempted/sent = %d/%d", out.Sync.Attempted, out.Sync.Sent)
	}
	if out.Detail != "Selective sync sent (5/5 payloads)." {
		t.Errorf("detail = %q", out.Detail)
	}

	liked, _ := p.watch.lib.SongRepo().Liked(t.Context())
	if len(liked) != 2 {
		t.Errorf("watch liked songs = %d", len(liked))
	}
	raw, _ := p.phone.bridge.LastResponse(t.Context())
	if !strings.Contains(raw, `"requestId":"`+out.Sync.RequestID+`"`) {
		t.Errorf("last response %s not correlated with run id %s", raw, out.Sync.RequestID)
	}
}

type unreadablePlaylists struct{ library.Playlists }

func (unreadablePlaylists) Liked(context.Context) ([]library.Playlist, error) {
	return nil, errors.New("playlist table locked")
}

func TestSyncSelectedData_CategoryReadErrorKeepsSiblings(t *testing.T) {
	p := newPair(t)
	seedPhone(t, p.phone.lib, 2)
	lib := library.FromMemory(p.phone.lib)
	lib.Playlists = unreadablePlaylists{lib.Playlists}
	c := New(Deps{
		Sender:  p.phone.node,
		Library: lib,
		Bridge:  p.phone.bridge,
		Broker:  p.phone.broker,
		Metrics: p.phone.metrics,
		Toaster: p.toasts,
		Now:     func() time.Time { return fixedNow },
		NewID:   sequentialIDs("req"),
	})

	out, err := c.SyncSelectedData(t.Context())
	if err != nil {
		t.Fatalf("SyncSelectedData: %v", err)
	}
	if out.OK || out.Sync.Status != SyncPartial {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Sync.Attempted != 5 || out.Sync.Sent != 4 {
		t.Errorf("attempted/sent = %d/%d, want 5/4", out.Sync.Attempted, out.Sync.Sent)
	}
	if got := out.Sync.Categories[types.CategoryPlaylists]; got.Attempted != 1 || got.Sent != 0 {
		t.Errorf("playlists result = %+v", got)
	}
	if liked, _ := p.watch.lib.SongRepo().Liked(t.Context()); len(liked) != 2 {
		t.Errorf("watch liked songs = %d, want 2", len(liked))
	}
}

func TestSyncSelectedData_Outcomes(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		p := newPair(t)
		seedPhone(t, p.phone.lib, 2)
		c := p.client(p.phone, &rejectingSender{Sender: p.phone.node, accept: 2})

		out, err := c.SyncSelectedData(t.Context())
		if err != nil {
			t.Fatalf("SyncSelectedData: %v", err)
		}
		if out.OK || out.Sync.Status != SyncPartial {
			t.Errorf("outcome = %+v", out)
		}
		if out.Detail != "Selective sync sent (2/5 payloads)." {
			t.Errorf("detail = %q", out.Detail)
		}
		if id, ok := c.LastFailedAction(); !ok || id != ActionSyncSelected {
			t.Errorf("last failed = %q, %v", id, ok)
		}
	})

	t.Run("nothing selected", func(t *testing.T) {
		p := newPair(t)
		seedPhone(t, p.phone.lib, 2)
		c := p.client(p.phone, nil)
		c.SetSelection(types.SyncSelection{})

		out, err := c.SyncSelectedData(t.Context())
		if err != nil {
			t.Fatalf("SyncSelectedData: %v", err)
		}
		if out.Sync.Status != SyncNothingSelected || out.Sync.Attempted != 0 {
			t.Errorf("outcome = %+v", out)
		}
		if p.phone.node.Sent() != 0 {
			t.Errorf("sent %d messages", p.phone.node.Sent())
		}
	})

	t.Run("no peer", func(t *testing.T) {
		p := newPair(t)
		p.watch.node.SetConnected(false)
		c := p.client(p.phone, nil)

		out, err := c.SyncSelectedData(t.Context())
		if err != nil {
			t.Fatalf("SyncSelectedData: %v", err)
		}
		if out.OK || out.Detail != "Selective sync failed: no connected watch." {
			t.Errorf("outcome = %+v", out)
		}
		if got := p.toasts.last(); got != MessageNoWatch {
			t.Errorf("toast = %q", got)
		}
	})

	t.Run("cap", func(t *testing.T) {
		p := newPair(t)
		seedPhone(t, p.phone.lib, 5)
		c := p.client(p.phone, nil, WithMaxSyncItems(3))
		c.SetSelection(types.SyncSelection{}.With(types.CategorySongs, true))

		out, err := c.SyncSelectedData(t.Context())
		if err != nil {
			t.Fatalf("SyncSelectedData: %v", err)
		}
		if out.Sync.Attempted != 3 {
			t.Errorf("attempted = %d, want 3", out.Sync.Attempted)
		}
	})
}

func TestSyncStatusFor(t *testing.T) {
	tests := []struct {
		attempted, sent int
		want            SyncStatus
	}{
		{0, 0, SyncNothingSelected},
		{3, 3, SyncSuccess},
		{3, 1, SyncPartial},
		{3, 0, SyncPartial},
	}
	for _, tt := range tests {
		if got := SyncStatusFor(tt.attempted, tt.sent); got != tt.want {
			t.Errorf("SyncStatusFor(%d, %d) = %q, want %q", tt.attempted, tt.sent, got, tt.want)
		}
	}
}

func TestRemote(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	commands := []types.RemoteCommand{
		types.RemotePlayPause,
		types.RemoteNext,
		types.RemotePrevious,
		types.RemoteVolumeUp,
		types.RemoteVolumeDown,
	}
	for _, command := range commands {
		out, err := c.Remote(t.Context(), command)
		if err != nil {
			t.Fatalf("Remote(%s): %v", command, err)
		}
		if !out.OK || out.Detail != "Remote command sent: "+string(command) {
			t.Errorf("Remote(%s) = %+v", command, out)
		}
	}
	events := p.watch.player.Events()
	want := []string{player.EventPlayPause, player.EventNext, player.EventPrevious, player.EventVolumeUp, player.EventVolumeDown}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("watch events = %v, want %v", events, want)
	}

	if _, err := c.Remote(t.Context(), types.RemoteHandoff); err == nil {
		t.Error("handoff through Remote should be rejected")
	}
}

func TestHandoffQueueToWatch(t *testing.T) {
	t.Run("empty queue", func(t *testing.T) {
		p := newPair(t)
		c := p.client(p.phone, nil)

		out, err := c.HandoffQueueToWatch(t.Context())
		if err != nil {
			t.Fatalf("HandoffQueueToWatch: %v", err)
		}
		if out.OK || out.Detail != MessageQueueEmpty {
			t.Errorf("outcome = %+v", out)
		}
		if p.phone.node.Sent() != 0 {
			t.Errorf("sent %d messages", p.phone.node.Sent())
		}
	})

	t.Run("queue with metadata", func(t *testing.T) {
		p := newPair(t)
		p.phone.player.SetQueue(player.QueueData{
			Tracks:       tracks(3),
			PlaylistID:   "PL9",
			PlaylistName: "Road trip",
			PlaylistType: "PLAYLIST",
		})
		p.phone.player.Load(2)
		c := p.client(p.phone, nil)

		out, err := c.HandoffQueueToWatch(t.Context())
		if err != nil {
			t.Fatalf("HandoffQueueToWatch: %v", err)
		}
		if !out.OK || out.Detail != "Queue handoff sent (3 tracks)." {
			t.Errorf("outcome = %+v", out)
		}
		info := p.watch.player.QueueInfo()
		if len(info.Tracks) != 3 || info.PlaylistName != "Road trip" || info.PlaylistType != "PLAYLIST" {
			t.Errorf("watch queue = %+v", info)
		}
		if got := p.watch.player.CurrentIndex(); got != 2 {
			t.Errorf("watch index = %d, want 2", got)
		}
	})

	t.Run("cap clamps index", func(t *testing.T) {
		p := newPair(t)
		p.phone.player.SetQueue(player.QueueData{Tracks: tracks(5)})
		p.phone.player.Load(4)
		c := p.client(p.phone, nil, WithMaxHandoffTracks(2))

		out, err := c.HandoffQueueToWatch(t.Context())
		if err != nil {
			t.Fatalf("HandoffQueueToWatch: %v", err)
		}
		if out.Detail != "Queue handoff sent (2 tracks)." {
			t.Errorf("detail = %q", out.Detail)
		}
		if got := p.watch.player.CurrentIndex(); got != 1 {
			t.Errorf("watch index = %d, want 1", got)
		}
	})
}

func TestHandoffQueueToPhone(t *testing.T) {
	p := newPair(t)
	p.watch.player.SetQueue(player.QueueData{Tracks: tracks(2), PlaylistName: "Gym"})
	p.watch.player.Load(1)
	c := p.client(p.watch, nil)

	ack, err := c.HandoffQueueToPhone(t.Context())
	if err != nil {
		t.Fatalf("HandoffQueueToPhone: %v", err)
	}
	if !ack.OK || ack.Message != "Handoff applied: continuing on phone (2 tracks)." {
		t.Errorf("ack = %+v", ack)
	}
	if got := p.phone.player.CurrentIndex(); got != 1 {
		t.Errorf("phone index = %d", got)
	}
	if !strings.Contains(bridgeLog(t, p.watch.bridge), "Phone handoff sent (2 tracks)") {
		t.Errorf("log = %q", bridgeLog(t, p.watch.bridge))
	}
}

func TestHandoffQueueToPhone_AckTimeout(t *testing.T) {
	p := newPair(t)
	p.net.SetDropFunc(memory.DropPath(types.PathResponse))
	p.watch.player.SetQueue(player.QueueData{Tracks: tracks(1)})
	c := p.client(p.watch, nil, WithAckTimeout(20*time.Millisecond))

	_, err := c.HandoffQueueToPhone(t.Context())
	if !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("err = %v, want ErrAckTimeout", err)
	}
}

func TestRunTrackedAction_RejectsConcurrentAction(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	out, err := c.RunTrackedAction(t.Context(), "outer", "Outer", func(ctx context.Context) (Outcome, error) {
		if _, err := c.RunTrackedAction(ctx, "inner", "Inner", func(context.Context) (Outcome, error) {
			t.Error("inner action ran")
			return Outcome{OK: true}, nil
		}); !errors.Is(err, ErrActionInProgress) {
			t.Errorf("inner err = %v, want ErrActionInProgress", err)
		}
		if state := c.ActionState(); !state.InProgress || state.ActiveAction != "Outer" {
			t.Errorf("state during run = %+v", state)
		}
		if _, err := c.RetryLastFailedAction(ctx); !errors.Is(err, ErrActionInProgress) {
			t.Errorf("retry err = %v", err)
		}
		return Outcome{OK: true, Detail: "Outer done."}, nil
	})
	if err != nil || !out.OK {
		t.Fatalf("outer = %+v, %v", out, err)
	}
	if got := p.toasts.last(); got != MessageAlreadyRunning {
		t.Errorf("toast = %q", got)
	}
	if strings.Count(bridgeLog(t, p.phone.bridge), "\n") != 0 {
		t.Errorf("expected one log line, got %q", bridgeLog(t, p.phone.bridge))
	}
}

func TestRunTrackedAction_RecoversPanic(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	out, err := c.RunTrackedAction(t.Context(), "boom", "Boom", func(context.Context) (Outcome, error) {
		panic("kaboom")
	})
	if err != nil {
		t.Fatalf("RunTrackedAction: %v", err)
	}
	if out.OK || !strings.Contains(out.Detail, "kaboom") {
		t.Errorf("outcome = %+v", out)
	}
	if state := c.ActionState(); state.InProgress || !state.RetryAvailable {
		t.Errorf("state = %+v", state)
	}
	if snap := p.phone.metrics.Snapshot(); snap.ActionsFailed != 1 {
		t.Errorf("actions failed = %d", snap.ActionsFailed)
	}
}

func TestRetryLastFailedAction(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)

	out, err := c.RetryLastFailedAction(t.Context())
	if err != nil || out.Detail != MessageNothingToRetry {
		t.Fatalf("retry = %+v, %v", out, err)
	}
	if got := p.toasts.last(); got != MessageNothingToRetry {
		t.Errorf("toast = %q", got)
	}

	_, _ = c.RunTrackedAction(t.Context(), "custom", "Custom", func(context.Context) (Outcome, error) {
		return Outcome{}, errors.New("nope")
	})
	out, err = c.RetryLastFailedAction(t.Context())
	if err != nil {
		t.Fatalf("RetryLastFailedAction: %v", err)
	}
	if out.OK || out.Detail != "Retry unavailable for custom." {
		t.Errorf("outcome = %+v", out)
	}

	p.watch.node.SetConnected(false)
	_, _ = c.Remote(t.Context(), types.RemoteNext)
	p.watch.node.SetConnected(true)
	out, err = c.RetryLastFailedAction(t.Context())
	if err != nil || !out.OK || out.Detail != "Remote command sent: next" {
		t.Errorf("retry remote = %+v, %v", out, err)
	}
}

func TestTrackedActionIDs_AllRetryable(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)
	p.watch.node.SetConnected(false)

	for _, id := range TrackedActionIDs() {
		c.mu.Lock()
		c.lastFailed = id
		c.mu.Unlock()
		out, err := c.RetryLastFailedAction(t.Context())
		if err != nil {
			t.Fatalf("retry %s: %v", id, err)
		}
		if strings.HasPrefix(out.Detail, "Retry unavailable") {
			t.Errorf("%s is not retryable", id)
		}
	}
}

func TestPolicyAndCacheHelpers(t *testing.T) {
	p := newPair(t)
	c := p.client(p.phone, nil)
	ctx := t.Context()

	if err := c.SetAutoSyncBatterySaver(ctx, true); err != nil {
		t.Fatalf("SetAutoSyncBatterySaver: %v", err)
	}
	if err := c.SetAutoSyncUnmeteredOnly(ctx, true); err != nil {
		t.Fatalf("SetAutoSyncUnmeteredOnly: %v", err)
	}
	policy, err := p.phone.bridge.Policy(ctx)
	if err != nil || !policy.BatterySaver || !policy.UnmeteredOnly {
		t.Errorf("policy = %+v, %v", policy, err)
	}

	for _, cat := range types.AllCategories {
		if err := p.phone.bridge.SetSignature(ctx, cat, "sig"); err != nil {
			t.Fatalf("SetSignature: %v", err)
		}
	}
	if err := c.ResetAutoSyncDeltaCache(ctx); err != nil {
		t.Fatalf("ResetAutoSyncDeltaCache: %v", err)
	}
	for _, cat := range types.AllCategories {
		if sig, _ := p.phone.bridge.Signature(ctx, cat); sig != "" {
			t.Errorf("%s signature = %q after reset", cat, sig)
		}
	}

	if err := c.ClearLogs(ctx); err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	if got := bridgeLog(t, p.phone.bridge); got != "" {
		t.Errorf("log = %q", got)
	}

	c.SetCategory(types.CategoryArtists, false)
	if c.Selection().Artists {
		t.Error("artists should be deselected")
	}
}
