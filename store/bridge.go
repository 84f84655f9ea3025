package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pithecene-io/wearlink/types"
)

// Bridge state keys.
const (
	KeyLastResponse    = "wear_companion_last_response"
	KeyLastDiagnostics = "wear_companion_last_diagnostics"
	KeyLog             = "wear_companion_log"

	SignatureKeyPrefix = "wear_companion_auto_sync_sig_"

	KeyBatterySaver  = "wear_companion_auto_sync_battery_saver"
	KeyUnmeteredOnly = "wear_companion_auto_sync_unmetered_only"
	KeyAutoSyncStats = "wear_companion_auto_sync_last_stats"

	KeyLoginStatus  = "wear_login_status"
	KeyLoginMessage = "wear_login_message"
)

// MaxLogChars is the size the companion log is trimmed to, from the front.
const MaxLogChars = 16000

// SignatureKey returns the delta-signature key for a category.
func SignatureKey(c types.Category) string {
	return SignatureKeyPrefix + string(c)
}

// Bridge is the typed view of bridge state over a Store.
type Bridge struct {
	store Store
}

// NewBridge wraps s.
func NewBridge(s Store) *Bridge {
	return &Bridge{store: s}
}

// Store returns the underlying store.
func (b *Bridge) Store() Store {
	return b.store
}

// LastResponse returns the raw JSON of the most recent response.
func (b *Bridge) LastResponse(ctx context.Context) (string, error) {
	return b.store.Get(ctx, KeyLastResponse)
}

// SetLastResponse records the raw JSON of a response.
func (b *Bridge) SetLastResponse(ctx context.Context, raw string) error {
	return b.store.Set(ctx, KeyLastResponse, raw)
}

// LastDiagnostics returns the raw JSON of the most recent status response.
func (b *Bridge) LastDiagnostics(ctx context.Context) (string, error) {
	return b.store.Get(ctx, KeyLastDiagnostics)
}

// SetLastDiagnostics records the raw JSON of a status response.
func (b *Bridge) SetLastDiagnostics(ctx context.Context, raw string) error {
	return b.store.Set(ctx, KeyLastDiagnostics, raw)
}

// Log returns the companion log.
func (b *Bridge) Log(ctx context.Context) (string, error) {
	return b.store.Get(ctx, KeyLog)
}

// AppendLog appends "[HH:MM:SS] message" and trims the log to MaxLogChars.
// Concurrent appends may lose a line.
func (b *Bridge) AppendLog(ctx context.Context, now time.Time, message string) error {
	current, err := b.store.Get(ctx, KeyLog)
	if err != nil {
		return err
	}
	line := "[" + now.Format("15:04:05") + "] " + message
	next := line
	if current != "" {
		next = current + "\n" + line
	}
	return b.store.Set(ctx, KeyLog, trimFront(next, MaxLogChars))
}

// ClearLog empties the companion log.
func (b *Bridge) ClearLog(ctx context.Context) error {
	return b.store.Set(ctx, KeyLog, "")
}

// Signature returns the committed delta signature of a category.
func (b *Bridge) Signature(ctx context.Context, c types.Category) (string, error) {
	return b.store.Get(ctx, SignatureKey(c))
}

// SetSignature commits the delta signature of a category.
func (b *Bridge) SetSignature(ctx context.Context, c types.Category, sig string) error {
	return b.store.Set(ctx, SignatureKey(c), sig)
}

// ResetSignatures clears every category signature so the next auto-sync run
// sends everything.
func (b *Bridge) ResetSignatures(ctx context.Context) error {
	for _, c := range types.AllCategories {
		if err := b.store.Set(ctx, SignatureKey(c), ""); err != nil {
			return err
		}
	}
	return nil
}

// Policy returns the auto-sync gate flags. Unset flags read as false.
func (b *Bridge) Policy(ctx context.Context) (types.AutoSyncPolicy, error) {
	batterySaver, err := b.flag(ctx, KeyBatterySaver)
	if err != nil {
		return types.AutoSyncPolicy{}, err
	}
	unmeteredOnly, err := b.flag(ctx, KeyUnmeteredOnly)
	if err != nil {
		return types.AutoSyncPolicy{}, err
	}
	return types.AutoSyncPolicy{BatterySaver: batterySaver, UnmeteredOnly: unmeteredOnly}, nil
}

// SetBatterySaver sets the charging-required gate.
func (b *Bridge) SetBatterySaver(ctx context.Context, enabled bool) error {
	return b.store.Set(ctx, KeyBatterySaver, strconv.FormatBool(enabled))
}

// SetUnmeteredOnly sets the unmetered-network gate.
func (b *Bridge) SetUnmeteredOnly(ctx context.Context, enabled bool) error {
	return b.store.Set(ctx, KeyUnmeteredOnly, strconv.FormatBool(enabled))
}

// Stats returns the last auto-sync stats. The bool is false when none are
// stored or the stored value cannot be decoded.
func (b *Bridge) Stats(ctx context.Context) (types.AutoSyncStats, bool, error) {
	raw, err := b.store.Get(ctx, KeyAutoSyncStats)
	if err != nil || raw == "" {
		return types.AutoSyncStats{}, false, err
	}
	var stats types.AutoSyncStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return types.AutoSyncStats{}, false, nil
	}
	return stats, true, nil
}

// SetStats records the last auto-sync stats.
func (b *Bridge) SetStats(ctx context.Context, stats types.AutoSyncStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode auto-sync stats: %w", err)
	}
	return b.store.Set(ctx, KeyAutoSyncStats, string(data))
}

// LoginStatus returns the legacy login status and message.
func (b *Bridge) LoginStatus(ctx context.Context) (status, message string, err error) {
	if status, err = b.store.Get(ctx, KeyLoginStatus); err != nil {
		return "", "", err
	}
	if message, err = b.store.Get(ctx, KeyLoginMessage); err != nil {
		return "", "", err
	}
	return status, message, nil
}

// SetLoginStatus records the legacy login status and message.
func (b *Bridge) SetLoginStatus(ctx context.Context, status, message string) error {
	if err := b.SetLoginState(ctx, status); err != nil {
		return err
	}
	return b.SetLoginMessage(ctx, message)
}

// SetLoginState records only the login status.
func (b *Bridge) SetLoginState(ctx context.Context, status string) error {
	return b.store.Set(ctx, KeyLoginStatus, status)
}

// SetLoginMessage records only the login message.
func (b *Bridge) SetLoginMessage(ctx context.Context, message string) error {
	return b.store.Set(ctx, KeyLoginMessage, message)
}

func (b *Bridge) flag(ctx context.Context, key string) (bool, error) {
	raw, err := b.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

// trimFront keeps the last limit characters of s.
func trimFront(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[len(runes)-limit:])
}
