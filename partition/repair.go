package partition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/INLOpen/tombstones/core"
	"github.com/INLOpen/tombstones/rangetombstone"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// DefaultRepairConcurrency bounds the diffs computed in parallel when
// RepairOptions.MaxConcurrency is not set.
const DefaultRepairConcurrency = 4

// RepairOptions configures Repair.
type RepairOptions struct {
	MaxConcurrency int
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Metrics        *Metrics
}

// RepairResult is the outcome of a read repair.
type RepairResult struct {
	// Superset is the merge of every response.
	Superset *rangetombstone.List
	// Diffs maps the index of a response to the tombstones it must receive
	// to match Superset. Up to date responses are absent.
	Diffs map[int]*rangetombstone.List
}

// Repair reconciles the range tombstones returned by several replicas for
// the same partition. A nil response stands for a replica without
// tombstones.
func Repair(ctx context.Context, cmp core.Comparator, responses []*rangetombstone.List, opts RepairOptions) (*RepairResult, error) {
	tp := opts.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	ctx, span := tp.Tracer(tracerName).Start(ctx, "Repair",
		trace.WithAttributes(attribute.Int("responses", len(responses))))
	defer span.End()

	start := time.Now()
	superset := rangetombstone.New(cmp, 0)
	for _, r := range responses {
		superset.AddAll(r)
	}

	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = DefaultRepairConcurrency
	}
	diffs := make([]*rangetombstone.List, len(responses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, r := range responses {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("repair of response %d: %w", i, err)
			}
			diffs[i] = r.Diff(superset)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repair_cancelled")
		return nil, err
	}

	result := &RepairResult{Superset: superset, Diffs: make(map[int]*rangetombstone.List)}
	for i, diff := range diffs {
		if diff != nil {
			result.Diffs[i] = diff
		}
	}

	if opts.Metrics != nil {
		opts.Metrics.RepairsTotal.Add(1)
		opts.Metrics.RepairDiffsTotal.Add(int64(len(result.Diffs)))
		observeLatency(opts.Metrics.RepairLatencyHist, time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("superset", superset.Len()), attribute.Int("diffs", len(result.Diffs)))
	if opts.Logger != nil {
		opts.Logger.Debug("Read repair computed.", "component", "Repair", "responses", len(responses),
			"superset", superset.Len(), "stale_responses", len(result.Diffs))
	}
	return result, nil
}
