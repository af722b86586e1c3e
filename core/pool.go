package core

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// bufferPool is a mutex-protected free list of buffers. Unlike sync.Pool its
// contents survive garbage collection, which keeps encode buffers warm across
// large serialization passes.
type bufferPool struct {
	mu       sync.Mutex
	items    []*bytes.Buffer
	capacity int

	// Metrics
	hits    atomic.Uint64
	misses  atomic.Uint64
	created atomic.Uint64
}

// DefaultEncodeBufferSize is the initial capacity of pooled encode buffers.
const DefaultEncodeBufferSize = 4 * 1024

// initialPoolSize is the number of buffers a new pool is pre-warmed with.
const initialPoolSize = 64

var BufferPool = NewBufferPool(DefaultEncodeBufferSize)

// NewBufferPool creates a new, pre-warmed buffer pool.
// capacity is the pre-allocated capacity for each new buffer.
func NewBufferPool(capacity int) *bufferPool {
	if capacity < 0 {
		capacity = 0
	}
	bp := &bufferPool{
		items:    make([]*bytes.Buffer, 0, initialPoolSize),
		capacity: capacity,
	}
	for i := 0; i < initialPoolSize; i++ {
		bp.items = append(bp.items, bp.newBuffer())
	}
	return bp
}

func (bp *bufferPool) newBuffer() *bytes.Buffer {
	bp.created.Add(1)
	return bytes.NewBuffer(make([]byte, 0, bp.capacity))
}

// Get retrieves a buffer from the pool. If the pool is empty, it creates a new one.
func (bp *bufferPool) Get() *bytes.Buffer {
	bp.mu.Lock()
	if len(bp.items) == 0 {
		bp.mu.Unlock()
		bp.misses.Add(1)
		return bp.newBuffer()
	}
	item := bp.items[len(bp.items)-1]
	bp.items = bp.items[:len(bp.items)-1]
	bp.mu.Unlock()
	bp.hits.Add(1)
	return item
}

// Put resets a buffer and returns it to the pool.
func (bp *bufferPool) Put(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bp.mu.Lock()
	bp.items = append(bp.items, buf)
	bp.mu.Unlock()
}

// GetMetrics returns the current metrics for the pool.
func (bp *bufferPool) GetMetrics() (hits, misses, created uint64, currentSize int) {
	bp.mu.Lock()
	currentSize = len(bp.items)
	bp.mu.Unlock()
	return bp.hits.Load(), bp.misses.Load(), bp.created.Load(), currentSize
}

// GetBuffer retrieves a buffer from the shared pool.
func GetBuffer() *bytes.Buffer {
	return BufferPool.Get()
}

// PutBuffer returns a buffer to the shared pool after resetting it.
func PutBuffer(buf *bytes.Buffer) {
	BufferPool.Put(buf)
}
