package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/peerdialog/adapter"
)

// DatasetID is the Lode dataset completed dialogs are written to.
const DatasetID = "peerdialog"

// Journal records completed dialogs in a Lode dataset partitioned by
// app/day/outcome, one snapshot per dialog. It implements adapter.Adapter.
type Journal struct {
	dataset lode.Dataset
	mu      sync.Mutex
}

// NewJournal opens the journal dataset in the stores made by factory.
// Use lode.NewMemoryFactory() for testing.
func NewJournal(factory lode.StoreFactory) (*Journal, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(DatasetID),
		factory,
		lode.WithHiveLayout("app", "day", "outcome"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, DatasetID)
	}
	return &Journal{dataset: ds}, nil
}

// Publish writes one event.
func (j *Journal) Publish(ctx context.Context, event *adapter.SelectionEvent) error {
	if event == nil {
		return errors.New("journal: nil event")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.dataset.Write(ctx, []any{toRecordMap(event)}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, DatasetID)
	}
	return nil
}

// Close releases journal resources.
func (j *Journal) Close() error {
	// Dataset doesn't require explicit close in current Lode API
	return nil
}

// Query selects journal entries. Empty fields match everything.
type Query struct {
	App     string
	Outcome string
	Mode    string
	// Limit caps the number of entries; zero means no cap.
	Limit int
}

// Recent returns matching entries, newest first.
func (j *Journal) Recent(ctx context.Context, q Query) ([]*adapter.SelectionEvent, error) {
	snapshots, err := j.dataset.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, DatasetID+"/snapshots")
	}

	var app string
	if q.App != "" {
		app = partitionApp(q.App)
	}

	out := []*adapter.SelectionEvent{}
	// Snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		// Manifest paths are a coarse pre-filter; record fields decide.
		if !snapshotMatchesFilter(snap, "app", app) || !snapshotMatchesFilter(snap, "outcome", q.Outcome) {
			continue
		}

		data, err := j.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", DatasetID, snap.ID))
		}
		for k := len(data) - 1; k >= 0; k-- {
			record, ok := data[k].(map[string]any)
			if !ok || record["record_kind"] != RecordKindSelection {
				continue
			}
			if app != "" && toString(record["app"]) != app {
				continue
			}
			e := fromRecordMap(record)
			if q.Outcome != "" && e.Outcome != q.Outcome {
				continue
			}
			if q.Mode != "" && e.Mode != q.Mode {
				continue
			}
			out = append(out, e)
			if q.Limit > 0 && len(out) >= q.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// snapshotMatchesFilter checks if a snapshot's file paths match the given
// partition key=value filter.
func snapshotMatchesFilter(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks if a Hive-partitioned path contains an exact
// key=value segment, so app=paint does not match app=paint2.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

var _ adapter.Adapter = (*Journal)(nil)
