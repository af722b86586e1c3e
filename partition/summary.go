package partition

import (
	"fmt"

	"github.com/INLOpen/tombstones/rangetombstone"
	"github.com/caio/go-tdigest/v4"
)

// Summary describes a list of range tombstones.
type Summary struct {
	Count          int
	SingleNames    int
	DataSize       int
	SerializedSize int
	MinMarkedAt    int64
	MaxMarkedAt    int64
	// Age quantiles, in seconds, of the local deletion times relative to now.
	AgeP50 float64
	AgeP99 float64
	MaxAge int64
}

// Summarize computes the Summary of list at now, in local deletion time
// seconds.
func Summarize(list *rangetombstone.List, now int32) (Summary, error) {
	s := Summary{
		Count:          list.Len(),
		DataSize:       list.DataSize(),
		SerializedSize: rangetombstone.SerializedSize(list),
	}
	if list.IsEmpty() {
		return s, nil
	}
	s.MinMarkedAt = list.MinMarkedAt()
	s.MaxMarkedAt = list.MaxMarkedAt()

	td, err := tdigest.New()
	if err != nil {
		return Summary{}, fmt.Errorf("tdigest.New failed: %w", err)
	}
	cmp := list.Comparator()
	for _, t := range list.All() {
		if t.IsPoint(cmp) {
			s.SingleNames++
		}
		age := int64(now) - int64(t.LocalDeletionTime)
		if age > s.MaxAge {
			s.MaxAge = age
		}
		if err := td.Add(float64(age)); err != nil {
			return Summary{}, fmt.Errorf("tdigest Add failed: %w", err)
		}
	}
	s.AgeP50 = td.Quantile(0.5)
	s.AgeP99 = td.Quantile(0.99)
	return s, nil
}
