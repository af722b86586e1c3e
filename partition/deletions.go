// Package partition owns the deletion state of a single partition: an
// optional partition-wide deletion plus the range tombstones of its rows.
package partition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/INLOpen/tombstones/core"
	"github.com/INLOpen/tombstones/iterator"
	"github.com/INLOpen/tombstones/rangetombstone"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/INLOpen/tombstones/partition"

// ErrInvalidRange is returned for a tombstone whose start sorts after its end.
var ErrInvalidRange = errors.New("range tombstone start is after its end")

// Options configures a Deletions instance.
type Options struct {
	Logger          *slog.Logger
	TracerProvider  trace.TracerProvider
	Metrics         *Metrics
	InitialCapacity int
}

// Deletions is the deletion state of one partition. It is safe for
// concurrent use: writers are serialized and readers work on consistent
// state.
type Deletions struct {
	mu        sync.RWMutex
	partition core.DeletionTime
	ranges    *rangetombstone.List

	cmp     core.Comparator
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// New creates an empty deletion state ordered by cmp.
func New(cmp core.Comparator, opts Options) *Deletions {
	d := &Deletions{
		partition: core.LiveDeletionTime,
		ranges:    rangetombstone.New(cmp, opts.InitialCapacity),
		cmp:       cmp,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("component", "PartitionDeletions")
	if opts.TracerProvider != nil {
		d.tracer = opts.TracerProvider.Tracer(tracerName)
	} else {
		d.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(false, "")
	}
	return d
}

// DeletePartition records a partition-wide deletion. It only takes effect
// if it supersedes the current one. It reports whether it did.
func (d *Deletions) DeletePartition(ctx context.Context, dt core.DeletionTime) bool {
	_, span := d.tracer.Start(ctx, "Deletions.DeletePartition",
		trace.WithAttributes(attribute.Int64("marked_at", dt.MarkedAt)))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()
	if dt.IsLive() || (!d.partition.IsLive() && !dt.Supersedes(d.partition)) {
		span.SetAttributes(attribute.Bool("applied", false))
		return false
	}
	d.partition = dt
	d.metrics.PartitionDeletesTotal.Add(1)
	d.logger.Debug("Partition deletion recorded.", "marked_at", dt.MarkedAt, "local_deletion_time", dt.LocalDeletionTime)
	span.SetAttributes(attribute.Bool("applied", true))
	return true
}

// AddRange records a range tombstone.
func (d *Deletions) AddRange(ctx context.Context, t core.RangeTombstone) error {
	_, span := d.tracer.Start(ctx, "Deletions.AddRange",
		trace.WithAttributes(attribute.Int64("marked_at", t.MarkedAt)))
	defer span.End()

	if d.cmp(t.Start, t.End) > 0 {
		err := fmt.Errorf("%w: %s", ErrInvalidRange, t)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_arguments")
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.ranges.AddTombstone(t)
	d.metrics.RangesAddedTotal.Add(1)
	d.metrics.Tombstones.Set(int64(d.ranges.Len()))
	d.logger.Debug("Range tombstone added.", "tombstone", t.String(), "count", d.ranges.Len())
	return nil
}

// Merge folds every tombstone of list into the partition.
func (d *Deletions) Merge(ctx context.Context, list *rangetombstone.List) {
	_, span := d.tracer.Start(ctx, "Deletions.Merge",
		trace.WithAttributes(attribute.Int("incoming", list.Len())))
	defer span.End()
	if list.IsEmpty() {
		return
	}

	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ranges.AddAll(list)
	observeLatency(d.metrics.MergeLatencyHist, time.Since(start).Seconds())
	d.metrics.MergesTotal.Add(1)
	d.metrics.Tombstones.Set(int64(d.ranges.Len()))
	span.SetAttributes(attribute.Int("count", d.ranges.Len()))
	d.logger.Debug("Range tombstones merged.", "incoming", list.Len(), "count", d.ranges.Len())
}

// IsDeleted returns whether a cell written at timestamp under name is
// shadowed by the partition deletion or by a range tombstone.
func (d *Deletions) IsDeleted(name []byte, timestamp int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.partition.Deletes(timestamp) || d.ranges.IsDeleted(name, timestamp)
}

// Search returns the deletion time that applies to name: the most recent of
// the partition deletion and the range tombstone covering name.
func (d *Deletions) Search(name []byte) (core.DeletionTime, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rangeDT, found := d.ranges.Search(name)
	switch {
	case !found && d.partition.IsLive():
		return core.DeletionTime{}, false
	case !found:
		return d.partition, true
	case !d.partition.IsLive() && d.partition.Supersedes(rangeDT):
		return d.partition, true
	default:
		return rangeDT, true
	}
}

// PartitionDeletion returns the partition-wide deletion, LiveDeletionTime if none.
func (d *Deletions) PartitionDeletion() core.DeletionTime {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.partition
}

// Len returns the number of range tombstones.
func (d *Deletions) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ranges.Len()
}

// Snapshot returns a copy of the range tombstones, unaffected by later changes.
func (d *Deletions) Snapshot() *rangetombstone.List {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ranges.Copy()
}

// Purge drops every deletion recorded before gcBefore, in local deletion
// time seconds. It returns the number of range tombstones removed.
func (d *Deletions) Purge(ctx context.Context, gcBefore int32) int {
	_, span := d.tracer.Start(ctx, "Deletions.Purge",
		trace.WithAttributes(attribute.Int("gc_before", int(gcBefore))))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.partition.IsLive() && d.partition.LocalDeletionTime < gcBefore {
		d.logger.Debug("Partition deletion purged.", "marked_at", d.partition.MarkedAt)
		d.partition = core.LiveDeletionTime
	}
	if !d.ranges.HasPurgeableTombstones(gcBefore) {
		return 0
	}
	removed := d.ranges.Purge(gcBefore)
	d.metrics.PurgesTotal.Add(1)
	d.metrics.PurgedTombstonesTotal.Add(int64(removed))
	d.metrics.Tombstones.Set(int64(d.ranges.Len()))
	span.SetAttributes(attribute.Int("removed", removed))
	d.logger.Debug("Range tombstones purged.", "gc_before", gcBefore, "removed", removed, "remaining", d.ranges.Len())
	return removed
}

// Restamp sets the MarkedAt of every deletion of the partition to timestamp.
func (d *Deletions) Restamp(ctx context.Context, timestamp int64) {
	_, span := d.tracer.Start(ctx, "Deletions.Restamp",
		trace.WithAttributes(attribute.Int64("timestamp", timestamp)))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.partition.IsLive() {
		d.partition.MarkedAt = timestamp
	}
	d.ranges.UpdateAllTimestamp(timestamp)
	d.metrics.RestampsTotal.Add(1)
	d.logger.Debug("Deletions restamped.", "timestamp", timestamp, "count", d.ranges.Len())
}

// Filter wraps it, a cell iterator sorted by name, so that deleted cells are
// skipped. It works on a snapshot taken now.
func (d *Deletions) Filter(it iterator.Interface) iterator.Interface {
	d.mu.RLock()
	partition := d.partition
	snapshot := d.ranges.Copy()
	d.mu.RUnlock()

	tester := snapshot.InOrderTester()
	checker := func(name []byte, timestamp int64) bool {
		return partition.Deletes(timestamp) || tester.IsDeleted(name, timestamp)
	}
	return &filteredIterator{
		SkippingRangeDeletedIterator: iterator.NewSkippingRangeDeletedIterator(it, checker),
		metrics:                      d.metrics,
	}
}

// Metrics returns the metric set of the instance.
func (d *Deletions) Metrics() *Metrics {
	return d.metrics
}

// filteredIterator reports the number of dropped cells when closed.
type filteredIterator struct {
	*iterator.SkippingRangeDeletedIterator
	metrics *Metrics
	closed  bool
}

func (it *filteredIterator) Close() error {
	if !it.closed {
		it.closed = true
		it.metrics.CellsFilteredTotal.Add(int64(it.Skipped()))
	}
	return it.SkippingRangeDeletedIterator.Close()
}
