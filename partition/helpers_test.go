package partition

import (
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/INLOpen/tombstones/core"
	"github.com/INLOpen/tombstones/rangetombstone"
	"go.opentelemetry.io/otel/trace/noop"
)

func key(n int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}

func rt(start, end int, markedAt int64, delTime int32) core.RangeTombstone {
	return core.NewRangeTombstone(key(start), key(end), markedAt, delTime)
}

func listOf(tombstones ...core.RangeTombstone) *rangetombstone.List {
	l := rangetombstone.New(core.BytesComparator, 0)
	for _, t := range tombstones {
		l.AddTombstone(t)
	}
	return l
}

func newTestDeletions() *Deletions {
	return New(core.BytesComparator, Options{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		TracerProvider: noop.NewTracerProvider(),
	})
}
