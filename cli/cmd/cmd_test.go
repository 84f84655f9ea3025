package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/wearlink/cli/config"
	"github.com/pithecene-io/wearlink/iox"
	"github.com/pithecene-io/wearlink/lode"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/node"
	"github.com/pithecene-io/wearlink/types"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	flags := ReadOnlyFlags()

	hasTUI := false
	for _, f := range flags {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}

	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestNodeFlags(t *testing.T) {
	var names []string
	for _, f := range NodeFlags(TimeoutFlag) {
		names = append(names, f.Names()[0])
	}
	for _, want := range []string{"config", "role", "device-id", "format", "no-color", "tui", "timeout"} {
		if !slices.Contains(names, want) {
			t.Errorf("NodeFlags missing --%s (got %v)", want, names)
		}
	}
}

func TestIsStderrTTY(_ *testing.T) {
	// Actual TTY behavior depends on runtime environment.
	_ = isStderrTTY()
}

func TestAutoSyncExitCode(t *testing.T) {
	tests := []struct {
		status types.AutoSyncStatus
		want   int
	}{
		{types.AutoSyncSuccess, exitOK},
		{types.AutoSyncNoop, exitOK},
		{types.AutoSyncSkipped, exitOK},
		{types.AutoSyncPartial, exitRetry},
		{types.AutoSyncRetry, exitRetry},
	}
	for _, tt := range tests {
		if got := autoSyncExitCode(tt.status); got != tt.want {
			t.Errorf("autoSyncExitCode(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestParseCategories(t *testing.T) {
	got, err := parseCategories(nil)
	if err != nil || got != nil {
		t.Fatalf("parseCategories(nil) = %v, %v", got, err)
	}
	got, err = parseCategories([]string{"songs", "podcasts"})
	if err != nil {
		t.Fatalf("parseCategories: %v", err)
	}
	if !slices.Equal(got, []types.Category{types.CategorySongs, types.CategoryPodcasts}) {
		t.Errorf("got %v", got)
	}
	if _, err := parseCategories([]string{"session"}); err == nil {
		t.Error("session is not user-selectable")
	}
}

// runApp runs args against a test app and returns stdout and the exit code
// carried by the returned error.
func runApp(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:     "wearlink",
		Writer:   &out,
		Commands: []*cli.Command{VersionCommand("test"), StateCommand(), StatsCommand(), AutoSyncCommand(), DemoCommand()},
		// Keep urfave from calling os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
	err := app.Run(append([]string{"wearlink"}, args...))
	if err == nil {
		return out.String(), exitOK
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return out.String(), exitCoder.ExitCode()
	}
	t.Fatalf("unexpected error: %v", err)
	return "", 0
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wearlink.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, code := runApp(t, "version", "--format", "json")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var v VersionResponse
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if v.Version != types.Version || v.Commit != "test" {
		t.Errorf("version = %+v", v)
	}

	if _, code := runApp(t, "version", "--tui"); code != exitFailed {
		t.Errorf("--tui exit = %d, want %d", code, exitFailed)
	}
}

func TestInvalidConfigExitCode(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"state", "log", "--config", filepath.Join(t.TempDir(), "nope.yaml")}},
		{"bad role", []string{"state", "log", "--role", "tablet"}},
		{"bad yaml", []string{"state", "log", "--config", writeConfig(t, "device: [")}},
		{"watch runs autosync", []string{"autosync", "run", "--role", "watch"}},
		{"history without archive", []string{"stats", "history"}},
		{"metrics without path", []string{"stats", "metrics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, code := runApp(t, tt.args...); code != exitInvalidConfig {
				t.Errorf("exit = %d, want %d", code, exitInvalidConfig)
			}
		})
	}
}

func TestStateAndPolicy_SQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bridge.db")
	cfg := writeConfig(t, `
device:
  id: phone
  role: phone
store:
  backend: sqlite
  path: `+db+`
`)

	out, code := runApp(t, "autosync", "policy", "--config", cfg, "--battery-saver", "--format", "json")
	if code != exitOK {
		t.Fatalf("policy exit = %d", code)
	}
	var policy types.AutoSyncPolicy
	if err := json.Unmarshal([]byte(out), &policy); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !policy.BatterySaver || policy.UnmeteredOnly {
		t.Errorf("policy = %+v", policy)
	}

	// The flag persisted in sqlite.
	out, _ = runApp(t, "autosync", "policy", "--config", cfg, "--format", "json")
	if !strings.Contains(out, `"batterySaver": true`) {
		t.Errorf("policy not persisted: %s", out)
	}

	if _, code := runApp(t, "state", "last-response", "--config", cfg); code != exitFailed {
		t.Errorf("empty last-response exit = %d, want %d", code, exitFailed)
	}
	if _, code := runApp(t, "stats", "autosync", "--config", cfg); code != exitFailed {
		t.Errorf("empty stats exit = %d, want %d", code, exitFailed)
	}
	out, code = runApp(t, "state", "log", "--config", cfg, "--format", "json")
	if code != exitOK || strings.TrimSpace(out) != "[]" {
		t.Errorf("state log = %q (exit %d)", out, code)
	}
}

func TestStatsMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	c := metrics.NewCollector("phone", "pixel-8", "tcp")
	c.IncRequestSent()
	c.IncAutoSyncRun("success")
	if err := metrics.WriteSnapshot(path, c.Snapshot()); err != nil {
		t.Fatal(err)
	}

	out, code := runApp(t, "stats", "metrics", "--path", path, "--format", "json")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var s metrics.Snapshot
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if s.RequestsSent != 1 || s.AutoSyncRuns["success"] != 1 {
		t.Errorf("snapshot = %+v", s)
	}

	if _, code := runApp(t, "stats", "metrics", "--path", path+".missing"); code != exitFailed {
		t.Errorf("missing snapshot exit = %d, want %d", code, exitFailed)
	}
}

func TestRunDemo(t *testing.T) {
	archiveDir := t.TempDir()
	phone, watch := DemoConfigs(archiveDir)

	report, err := RunDemo(t.Context(), phone, watch)
	if err != nil {
		t.Fatalf("RunDemo: %v", err)
	}
	for _, s := range report.Steps {
		if !s.OK {
			t.Errorf("step %q failed: %s", s.Name, s.Detail)
		}
	}
	if report.WatchQueue != 2 {
		t.Errorf("watch queue = %d, want 2", report.WatchQueue)
	}
	if len(report.AutoSync) != 2 {
		t.Fatalf("autosync runs = %d, want 2", len(report.AutoSync))
	}
	if report.AutoSync[0].Status != types.AutoSyncSuccess || report.AutoSync[1].Status != types.AutoSyncNoop {
		t.Errorf("autosync statuses = %s, %s", report.AutoSync[0].Status, report.AutoSync[1].Status)
	}

	archive, err := node.OpenArchive(t.Context(), config.ArchiveConfig{Backend: config.ArchiveFS, Path: archiveDir})
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	runs, err := lode.QueryRuns(t.Context(), archive.Dataset(), lode.RunFilter{DeviceID: "phone"})
	if err != nil {
		t.Fatalf("QueryRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Status != types.AutoSyncNoop {
		t.Errorf("archived runs = %+v", runs)
	}
}

func TestAwaitLoginStatus(t *testing.T) {
	_, watchCfg := DemoConfigs(t.TempDir())
	n, err := node.Build(t.Context(), watchCfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer iox.DiscardClose(n)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	if _, err := awaitLoginStatus(ctx, n); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	if err := n.Bridge.SetLoginStatus(t.Context(), "requested", "Check phone notification."); err != nil {
		t.Fatalf("SetLoginStatus: %v", err)
	}
	state, err := awaitLoginStatus(t.Context(), n)
	if err != nil {
		t.Fatalf("awaitLoginStatus: %v", err)
	}
	if state.Status != "requested" || state.Message != "Check phone notification." {
		t.Errorf("state = %+v", state)
	}
}

func TestDemoCommand(t *testing.T) {
	out, code := runApp(t, "demo", "--format", "yaml")
	if code != exitOK {
		t.Fatalf("exit = %d\n%s", code, out)
	}
	if !strings.Contains(out, "handoff to phone") {
		t.Errorf("demo output missing steps:\n%s", out)
	}
}
