package iterator

import (
	"errors"

	"github.com/INLOpen/tombstones/core"
)

var errMockIterator = errors.New("mock iterator failure")

// mockIterator yields cells and then reports err, if set.
type mockIterator struct {
	cells  []core.Cell
	idx    int
	err    error
	closed bool
}

func (m *mockIterator) Next() bool {
	if m.idx >= len(m.cells) {
		return false
	}
	m.idx++
	return true
}

func (m *mockIterator) At() core.Cell {
	if m.idx > 0 && m.idx <= len(m.cells) {
		return m.cells[m.idx-1]
	}
	return core.Cell{}
}

func (m *mockIterator) Error() error {
	if m.idx >= len(m.cells) {
		return m.err
	}
	return nil
}

func (m *mockIterator) Close() error {
	m.closed = true
	return nil
}

func cell(name string, ts int64) core.Cell {
	return core.Cell{Name: []byte(name), Value: []byte(name + "-v"), Timestamp: ts}
}

func drain(it Interface) []core.Cell {
	var out []core.Cell
	for it.Next() {
		out = append(out, it.At())
	}
	return out
}
