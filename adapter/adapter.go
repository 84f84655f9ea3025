// Package adapter publishes auto-sync run notifications to downstream
// systems.
//
// Adapters are best effort. A failed publish is reported to the caller and
// never changes the outcome of the run it describes.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pithecene-io/wearlink/types"
)

// EventTypeAutoSyncCompleted is the event_type of every published event.
const EventTypeAutoSyncCompleted = "auto_sync_completed"

// AutoSyncCompletedEvent is the payload published when an auto-sync run
// finishes, including runs skipped by a gate.
type AutoSyncCompletedEvent struct {
	EventType         string               `json:"event_type"`
	DeviceID          string               `json:"device_id"`
	Status            types.AutoSyncStatus `json:"status"`
	Reason            string               `json:"reason,omitempty"`
	Attempted         int                  `json:"attempted"`
	Sent              int                  `json:"sent"`
	ChangedCategories int                  `json:"changed_categories"`
	Timestamp         string               `json:"timestamp"` // RFC 3339, UTC
}

// NewAutoSyncCompletedEvent builds the event for a finished run.
func NewAutoSyncCompletedEvent(deviceID string, stats types.AutoSyncStats) *AutoSyncCompletedEvent {
	return &AutoSyncCompletedEvent{
		EventType:         EventTypeAutoSyncCompleted,
		DeviceID:          deviceID,
		Status:            stats.Status,
		Reason:            stats.Reason,
		Attempted:         stats.Attempted,
		Sent:              stats.Sent,
		ChangedCategories: stats.ChangedCategories,
		Timestamp:         time.UnixMilli(stats.Timestamp).UTC().Format(time.RFC3339),
	}
}

// Adapter publishes run events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *AutoSyncCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Notifier turns finished runs into published events.
type Notifier struct {
	Adapter Adapter
}

// Notify publishes stats for deviceID.
func (n Notifier) Notify(ctx context.Context, deviceID string, stats types.AutoSyncStats) error {
	return n.Adapter.Publish(ctx, NewAutoSyncCompletedEvent(deviceID, stats))
}

// RetryDelay is the wait before retry attempt i (1-based): 500ms, 1s, 2s...
func RetryDelay(i int) time.Duration {
	if i < 1 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}

// Retry calls attempt once plus retries more times, backing off with
// RetryDelay in between. It stops early when ctx ends or permanent reports
// the error as not worth retrying. name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, permanent func(error) bool, attempt func(context.Context) error) error {
	attempts := 1 + retries
	var lastErr error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(RetryDelay(i)):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
