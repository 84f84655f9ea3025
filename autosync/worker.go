// Package autosync pushes changed library categories to the watch in the
// background.
//
// Each run checks the policy gates, then walks the categories in a fixed
// order. A category is sent only when its content signature differs from the
// one committed by the last fully delivered send, so an unchanged library
// costs no traffic. Signatures commit per category: a run that fails half
// way keeps the categories it finished.
package autosync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/wearlink/catalog"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/policy"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// Result tells the host scheduler what to do next.
type Result int

const (
	// ResultSuccess means the run is done until the next period.
	ResultSuccess Result = iota
	// ResultRetry asks for an earlier rerun with backoff.
	ResultRetry
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Outcome maps the payload counts of a run to its status and result.
// Partial and full failures both ask for a retry.
func Outcome(attempted, sent int) (types.AutoSyncStatus, Result) {
	switch {
	case attempted == 0:
		return types.AutoSyncNoop, ResultSuccess
	case sent == attempted:
		return types.AutoSyncSuccess, ResultSuccess
	case sent == 0:
		return types.AutoSyncRetry, ResultRetry
	default:
		return types.AutoSyncPartial, ResultRetry
	}
}

// Archive keeps a history of runs.
type Archive interface {
	Record(ctx context.Context, deviceID string, stats types.AutoSyncStats) error
}

// Notifier announces finished runs.
type Notifier interface {
	Notify(ctx context.Context, deviceID string, stats types.AutoSyncStats) error
}

// Deps are the collaborators a Worker uses.
type Deps struct {
	Sender  transport.Sender
	Library library.Library
	Bridge  *store.Bridge
	// Gates run before any category. nil means no gates.
	Gates []policy.Gate
	// Archive and Notifier are optional and best effort.
	Archive  Archive
	Notifier Notifier
	DeviceID string
	// MaxItems caps per-item categories. <= 0 uses catalog.DefaultMaxItems.
	MaxItems int
	Logger   *log.Logger
	Metrics  *metrics.Collector
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString. Every request gets a fresh id.
	NewID func() string
}

// Report is the full outcome of one run.
type Report struct {
	Result Result
	Stats  types.AutoSyncStats
	// Cancelled is true when the context ended mid-run. No stats were
	// persisted.
	Cancelled bool
}

// Worker performs auto-sync runs. Runs must not overlap.
type Worker struct {
	deps  Deps
	gates *policy.Evaluator
}

// NewWorker creates a Worker.
func NewWorker(deps Deps) *Worker {
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.MaxItems <= 0 {
		deps.MaxItems = catalog.DefaultMaxItems
	}
	return &Worker{deps: deps, gates: policy.NewEvaluator(deps.Gates...)}
}

// GateStats returns the gate evaluation counters for this worker.
func (w *Worker) GateStats() policy.Stats {
	return w.gates.Stats()
}

// Run performs one run and returns its scheduler result.
func (w *Worker) Run(ctx context.Context) Result {
	return w.Execute(ctx).Result
}

// Execute performs one run and returns the full report.
func (w *Worker) Execute(ctx context.Context) Report {
	decision, err := w.gates.Evaluate(ctx)
	if err != nil {
		w.deps.Metrics.IncGateError()
		w.deps.Logger.Error("auto-sync gate check failed", map[string]any{"error": err.Error()})
		return Report{Result: ResultRetry}
	}
	if !decision.Allow {
		w.deps.Metrics.IncGateRefusal(decision.Gate)
		return w.skip(ctx, decision.Reason)
	}

	peer, ok := transport.FirstPeer(ctx, w.deps.Sender)
	if !ok {
		return w.skip(ctx, policy.ReasonNoPeer)
	}

	stats := types.AutoSyncStats{Categories: make(map[types.Category]types.CategorySyncResult)}
	for _, category := range types.AllCategories {
		if ctx.Err() != nil {
			w.deps.Logger.Warn("auto-sync cancelled", map[string]any{
				"completed_categories": len(stats.Categories),
			})
			return Report{Result: ResultRetry, Cancelled: true}
		}

		result, include := w.syncCategory(ctx, peer, category)
		if !include {
			continue
		}
		stats.Categories[category] = result
		stats.Attempted += result.Attempted
		stats.Sent += result.Sent
		if result.Changed {
			stats.ChangedCategories++
		}
	}

	w.appendLog(ctx, fmt.Sprintf("Auto-sync delta changed %d categories, delivered %d/%d payloads.",
		stats.ChangedCategories, stats.Sent, stats.Attempted))

	status, result := Outcome(stats.Attempted, stats.Sent)
	stats.Status = status
	w.finish(ctx, &stats)
	return Report{Result: result, Stats: stats}
}

// syncCategory sends one category when its signature changed. include is
// false for a category that does not take part in this run.
func (w *Worker) syncCategory(ctx context.Context, peer transport.Peer, category types.Category) (types.CategorySyncResult, bool) {
	var (
		batch catalog.Batch
		err   error
	)
	if category == types.CategorySession {
		sess, serr := w.deps.Library.Accounts.Session(ctx)
		if serr != nil {
			return w.categoryFailed(category, serr), true
		}
		if !sess.LoggedIn || strings.TrimSpace(sess.Cookie) == "" {
			return types.CategorySyncResult{}, false
		}
		batch, err = catalog.ForSession(sess)
	} else {
		batch, err = catalog.Load(ctx, w.deps.Library, category, w.deps.MaxItems)
	}
	if err != nil {
		return w.categoryFailed(category, err), true
	}

	signature := batch.Signature()
	previous, err := w.deps.Bridge.Signature(ctx, category)
	if err != nil {
		w.deps.Logger.Warn("failed to read category signature", map[string]any{
			"category": string(category),
			"error":    err.Error(),
		})
	}
	if err == nil && previous == signature {
		return types.CategorySyncResult{}, true
	}

	attempted, sent := catalog.Deliver(ctx, w.deps.Sender, peer.ID, batch, w.deps.NewID, w.deps.Metrics)
	if attempted == sent {
		if err := w.deps.Bridge.SetSignature(ctx, category, signature); err != nil {
			w.deps.Logger.Warn("failed to commit category signature", map[string]any{
				"category": string(category),
				"error":    err.Error(),
			})
		}
	}
	w.deps.Logger.Debug("auto-sync category sent", map[string]any{
		"category":  string(category),
		"attempted": attempted,
		"sent":      sent,
	})
	return types.CategorySyncResult{Attempted: attempted, Sent: sent, Changed: true}, true
}

// categoryFailed records a category whose data could not be read. It counts
// as one undelivered payload so that the run asks for a retry.
func (w *Worker) categoryFailed(category types.Category, err error) types.CategorySyncResult {
	w.deps.Logger.Error("auto-sync category read failed", map[string]any{
		"category": string(category),
		"error":    err.Error(),
	})
	return types.CategorySyncResult{Attempted: 1, Sent: 0, Changed: true}
}

func (w *Worker) skip(ctx context.Context, reason string) Report {
	w.appendLog(ctx, reason)
	stats := types.AutoSyncStats{
		Status:     types.AutoSyncSkipped,
		Reason:     reason,
		Categories: map[types.Category]types.CategorySyncResult{},
	}
	w.finish(ctx, &stats)
	return Report{Result: ResultSuccess, Stats: stats}
}

// finish stamps and persists stats, then hands them to the optional sinks.
func (w *Worker) finish(ctx context.Context, stats *types.AutoSyncStats) {
	stats.Timestamp = w.deps.Now().UnixMilli()
	if err := w.deps.Bridge.SetStats(ctx, *stats); err != nil {
		w.deps.Logger.Error("failed to persist auto-sync stats", map[string]any{"error": err.Error()})
	}
	w.deps.Metrics.IncAutoSyncRun(string(stats.Status))
	w.deps.Logger.Info("auto-sync run finished", map[string]any{
		"status":             string(stats.Status),
		"reason":             stats.Reason,
		"attempted":          stats.Attempted,
		"sent":               stats.Sent,
		"changed_categories": stats.ChangedCategories,
	})

	if w.deps.Archive != nil {
		if err := w.deps.Archive.Record(ctx, w.deps.DeviceID, *stats); err != nil {
			w.deps.Metrics.IncArchiveWriteFailure()
			w.deps.Logger.Warn("failed to archive auto-sync run", map[string]any{"error": err.Error()})
		} else {
			w.deps.Metrics.IncArchiveWriteSuccess()
		}
	}
	if w.deps.Notifier != nil {
		if err := w.deps.Notifier.Notify(ctx, w.deps.DeviceID, *stats); err != nil {
			w.deps.Logger.Warn("failed to publish auto-sync notification", map[string]any{"error": err.Error()})
		}
	}
}

func (w *Worker) appendLog(ctx context.Context, message string) {
	if err := w.deps.Bridge.AppendLog(ctx, w.deps.Now(), message); err != nil {
		w.deps.Logger.Warn("failed to append bridge log", map[string]any{"error": err.Error()})
	}
}
