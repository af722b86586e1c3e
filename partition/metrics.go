package partition

import (
	"expvar"
	"fmt"
)

// latencyBuckets defines the buckets for latency histograms (in seconds).
var latencyBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0}

// Metrics holds the expvar variables of a Deletions instance.
type Metrics struct {
	PartitionDeletesTotal *expvar.Int
	RangesAddedTotal      *expvar.Int
	MergesTotal           *expvar.Int
	PurgesTotal           *expvar.Int
	PurgedTombstonesTotal *expvar.Int
	RestampsTotal         *expvar.Int
	CellsFilteredTotal    *expvar.Int
	RepairsTotal          *expvar.Int
	RepairDiffsTotal      *expvar.Int

	// Tombstones is the number of range tombstones currently held.
	Tombstones *expvar.Int

	MergeLatencyHist  *expvar.Map
	RepairLatencyHist *expvar.Map
}

// NewMetrics creates the metric set. When publishGlobally is set, variables
// are registered in the global expvar namespace under prefix.
func NewMetrics(publishGlobally bool, prefix string) *Metrics {
	newInt := func(_ string) *expvar.Int { return new(expvar.Int) }
	newMap := func(_ string) *expvar.Map { return new(expvar.Map).Init() }
	if publishGlobally {
		newInt = publishExpvarInt
		newMap = publishExpvarMap
	}

	m := &Metrics{
		PartitionDeletesTotal: newInt(prefix + "partition_deletes_total"),
		RangesAddedTotal:      newInt(prefix + "ranges_added_total"),
		MergesTotal:           newInt(prefix + "merges_total"),
		PurgesTotal:           newInt(prefix + "purges_total"),
		PurgedTombstonesTotal: newInt(prefix + "purged_tombstones_total"),
		RestampsTotal:         newInt(prefix + "restamps_total"),
		CellsFilteredTotal:    newInt(prefix + "cells_filtered_total"),
		RepairsTotal:          newInt(prefix + "repairs_total"),
		RepairDiffsTotal:      newInt(prefix + "repair_diffs_total"),
		Tombstones:            newInt(prefix + "tombstones"),
		MergeLatencyHist:      newMap(prefix + "merge_latency_seconds"),
		RepairLatencyHist:     newMap(prefix + "repair_latency_seconds"),
	}
	for _, hist := range []*expvar.Map{m.MergeLatencyHist, m.RepairLatencyHist} {
		hist.Set("count", new(expvar.Int))
		hist.Set("sum", new(expvar.Float))
		for _, b := range latencyBuckets {
			hist.Set(bucketName(b), new(expvar.Int))
		}
		hist.Set("le_inf", new(expvar.Int))
	}
	return m
}

func bucketName(b float64) string {
	return fmt.Sprintf("le_%.4f", b)
}

// observeLatency records the duration in the provided histogram map.
func observeLatency(hist *expvar.Map, seconds float64) {
	if hist == nil {
		return
	}
	if v, ok := hist.Get("count").(*expvar.Int); ok {
		v.Add(1)
	}
	if v, ok := hist.Get("sum").(*expvar.Float); ok {
		v.Add(seconds)
	}
	for _, b := range latencyBuckets {
		if seconds <= b {
			if v, ok := hist.Get(bucketName(b)).(*expvar.Int); ok {
				v.Add(1)
			}
		}
	}
	if v, ok := hist.Get("le_inf").(*expvar.Int); ok {
		v.Add(1)
	}
}

// publishExpvarInt returns the global Int called name, creating it if needed.
func publishExpvarInt(name string) *expvar.Int {
	v := expvar.Get(name)
	if v == nil {
		return expvar.NewInt(name)
	}
	if iv, ok := v.(*expvar.Int); ok {
		iv.Set(0)
		return iv
	}
	panic(fmt.Sprintf("expvar: trying to publish Int %s but variable already exists with different type %T", name, v))
}

// publishExpvarMap returns the global Map called name, creating it if needed.
func publishExpvarMap(name string) *expvar.Map {
	v := expvar.Get(name)
	if v == nil {
		return expvar.NewMap(name)
	}
	if mv, ok := v.(*expvar.Map); ok {
		mv.Init()
		return mv
	}
	panic(fmt.Sprintf("expvar: trying to publish Map %s but variable already exists with different type %T", name, v))
}
