// Package performance provides buffer pooling for the design matrices built
// by repeated trial fits.
package performance

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// MatrixPool recycles dense matrix storage to reduce GC pressure
type MatrixPool struct {
	pool     sync.Pool
	inUse    int64
	created  int64
	recycled int64
	peak     int64
}

// PoolStats tracks pool usage
type PoolStats struct {
	TotalAllocated   int64
	TotalRecycled    int64
	CurrentInUse     int64
	PeakUsage        int64
	AverageReuseRate float64
}

// NewMatrixPool creates a new matrix pool
func NewMatrixPool() *MatrixPool {
	mp := &MatrixPool{}
	mp.pool = sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&mp.created, 1)
			return &PooledMatrix{pool: mp}
		},
	}
	return mp
}

// Get returns a zeroed rows×cols matrix.
func (mp *MatrixPool) Get(rows, cols int) *PooledMatrix {
	current := atomic.AddInt64(&mp.inUse, 1)
	for {
		peak := atomic.LoadInt64(&mp.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&mp.peak, peak, current) {
			break
		}
	}

	m := mp.pool.Get().(*PooledMatrix)
	size := rows * cols
	if cap(m.data) < size {
		m.data = make([]float64, size)
	} else {
		m.data = m.data[:size]
		clear(m.data)
	}
	m.dense = mat.NewDense(rows, cols, m.data)
	m.released = false
	return m
}

// Put returns m to the pool. Putting a matrix twice is a no-op.
func (mp *MatrixPool) Put(m *PooledMatrix) {
	if m.released {
		return
	}
	m.released = true
	m.dense = nil
	atomic.AddInt64(&mp.inUse, -1)
	atomic.AddInt64(&mp.recycled, 1)
	mp.pool.Put(m)
}

// GetStats returns current pool statistics
func (mp *MatrixPool) GetStats() PoolStats {
	total := atomic.LoadInt64(&mp.created)
	recycled := atomic.LoadInt64(&mp.recycled)

	reuseRate := float64(0)
	if total > 0 {
		reuseRate = float64(recycled) / float64(total)
	}
	return PoolStats{
		TotalAllocated:   total,
		TotalRecycled:    recycled,
		CurrentInUse:     atomic.LoadInt64(&mp.inUse),
		PeakUsage:        atomic.LoadInt64(&mp.peak),
		AverageReuseRate: reuseRate,
	}
}

// PooledMatrix is a matrix that can be returned to a pool
type PooledMatrix struct {
	data     []float64
	dense    *mat.Dense
	pool     *MatrixPool
	released bool
}

// Dense returns the matrix backed by the pooled storage. It must not be
// used after Release.
func (m *PooledMatrix) Dense() *mat.Dense {
	return m.dense
}

// Release returns the matrix to the pool
func (m *PooledMatrix) Release() {
	if m.pool != nil {
		m.pool.Put(m)
	}
}
