package ampe

import (
	"fmt"
	"math"
)

// window is a FIFO of at most size vectors.
// Pushed vectors are copied; the storage of an evicted vector is reused.
type window struct {
	vecs [][]float64
	size int
}

func newWindow(size int) window {
	return window{vecs: make([][]float64, 0, size), size: size}
}

// push appends a copy of v, dropping the oldest vector when full.
func (w *window) push(v []float64) {
	var buf []float64
	if len(w.vecs) == w.size {
		buf = w.vecs[0]
		copy(w.vecs, w.vecs[1:])
		w.vecs = w.vecs[:len(w.vecs)-1]
	}
	if cap(buf) < len(v) {
		buf = make([]float64, len(v))
	}
	buf = buf[:len(v)]
	copy(buf, v)
	w.vecs = append(w.vecs, buf)
}

func (w *window) len() int {
	return len(w.vecs)
}

func (w *window) clear() {
	for i := range w.vecs {
		w.vecs[i] = nil
	}
	w.vecs = w.vecs[:0]
}

// checkVector validates v against the established dimension dim.
// A dim of 0 means no dimension has been established yet.
func checkVector(v []float64, dim int) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	if dim != 0 && len(v) != dim {
		return fmt.Errorf("%w: got length %d, want %d", ErrDimensionMismatch, len(v), dim)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: element %d is %v", ErrNonFinite, i, x)
		}
	}
	return nil
}
