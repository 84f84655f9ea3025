package lode

import (
	"context"
	"fmt"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/wearlink/types"
)

// DefaultQueryLimit bounds QueryRuns when the filter sets no limit.
const DefaultQueryLimit = 50

// RunFilter narrows QueryRuns. Zero fields match everything.
type RunFilter struct {
	DeviceID string
	Status   types.AutoSyncStatus
	Limit    int
}

// QueryRuns returns archived runs newest first.
func QueryRuns(ctx context.Context, ds lode.Dataset, filter RunFilter) ([]RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, fmt.Sprintf("%s/snapshots", ds.ID()))
	}

	runs := make([]RunRecord, 0, min(limit, len(snapshots)))
	// Snapshots are in creation order.
	for i := len(snapshots) - 1; i >= 0 && len(runs) < limit; i-- {
		snap := snapshots[i]
		// Manifest paths are a coarse pre-filter. Record fields decide.
		if !snapshotMatches(snap, "device", filter.DeviceID) ||
			!snapshotMatches(snap, "status", string(filter.Status)) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		for j := len(data) - 1; j >= 0 && len(runs) < limit; j-- {
			m, ok := data[j].(map[string]any)
			if !ok {
				continue
			}
			rec, ok := recordFromMap(m)
			if !ok {
				continue
			}
			if filter.DeviceID != "" && rec.Device != filter.DeviceID {
				continue
			}
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
			runs = append(runs, rec)
		}
	}
	return runs, nil
}
