// Package lode archives auto-sync run history in a Lode dataset.
//
// Each run is one JSONL record, partitioned device/day/status. The archive
// is append only; the latest run also lives in the bridge store.
package lode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/wearlink/types"
)

// RecordKindAutoSyncRun tags run records.
const RecordKindAutoSyncRun = "autosync_run"

// ErrMissingDevice is returned when a run is recorded without a device id.
var ErrMissingDevice = errors.New("archive rejected run: missing device id")

// RunRecord is the stored form of one auto-sync run.
type RunRecord struct {
	RecordKind        string                                      `json:"record_kind"`
	Device            string                                      `json:"device"`
	Day               string                                      `json:"day"`
	Status            types.AutoSyncStatus                        `json:"status"`
	Reason            string                                      `json:"reason,omitempty"`
	Attempted         int                                         `json:"attempted"`
	Sent              int                                         `json:"sent"`
	ChangedCategories int                                         `json:"changed_categories"`
	Timestamp         int64                                       `json:"timestamp"`
	Categories        map[types.Category]types.CategorySyncResult `json:"categories,omitempty"`
}

// Stats converts the record back to run stats.
func (r RunRecord) Stats() types.AutoSyncStats {
	return types.AutoSyncStats{
		Timestamp:         r.Timestamp,
		Status:            r.Status,
		Reason:            r.Reason,
		Attempted:         r.Attempted,
		Sent:              r.Sent,
		ChangedCategories: r.ChangedCategories,
		Categories:        r.Categories,
	}
}

// DeriveDay is the UTC YYYY-MM-DD partition for an epoch-millisecond time.
func DeriveDay(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format("2006-01-02")
}

// NewRunRecord builds the record for a run on device.
func NewRunRecord(device string, stats types.AutoSyncStats) RunRecord {
	return RunRecord{
		RecordKind:        RecordKindAutoSyncRun,
		Device:            device,
		Day:               DeriveDay(stats.Timestamp),
		Status:            stats.Status,
		Reason:            stats.Reason,
		Attempted:         stats.Attempted,
		Sent:              stats.Sent,
		ChangedCategories: stats.ChangedCategories,
		Timestamp:         stats.Timestamp,
		Categories:        stats.Categories,
	}
}

// toMap flattens the record for the JSONL codec. The layout reads the
// partition keys from top-level fields.
func (r RunRecord) toMap() (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func recordFromMap(m map[string]any) (RunRecord, bool) {
	if m["record_kind"] != RecordKindAutoSyncRun {
		return RunRecord{}, false
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return RunRecord{}, false
	}
	var r RunRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return RunRecord{}, false
	}
	return r, true
}

// Archive writes run records to a dataset.
type Archive struct {
	ds lode.Dataset
}

// NewArchive creates an Archive over ds.
func NewArchive(ds lode.Dataset) *Archive {
	return &Archive{ds: ds}
}

// Dataset returns the underlying dataset, for queries.
func (a *Archive) Dataset() lode.Dataset { return a.ds }

// Record appends one run.
func (a *Archive) Record(ctx context.Context, deviceID string, stats types.AutoSyncStats) error {
	if deviceID == "" {
		return ErrMissingDevice
	}
	rec := NewRunRecord(deviceID, stats)
	m, err := rec.toMap()
	if err != nil {
		return fmt.Errorf("archive: encode run: %w", err)
	}
	path := fmt.Sprintf("%s/device=%s/day=%s/status=%s", a.ds.ID(), rec.Device, rec.Day, rec.Status)
	if _, err := a.ds.Write(ctx, []any{m}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, path)
	}
	return nil
}

// Close releases archive resources.
func (a *Archive) Close() error {
	return nil
}
