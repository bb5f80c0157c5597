// Package bitmap provides a fixed-size bitset over row positions. Operators
// use it to mark the rows they keep and then emit them in a single ordered
// pass.
package bitmap

import "math/bits"

// Bitmap is a set of row positions in [0, n), backed by 64-bit words.
type Bitmap struct {
	data []uint64
	n    int
}

// New allocates a bitmap for positions [0, n). n <= 0 yields an empty set
// that ignores Add.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (n+63)/64), n: n}
}

// Cap returns n as given to New.
func (b *Bitmap) Cap() int { return b.n }

// Add sets position i. Positions outside [0, n) are ignored.
func (b *Bitmap) Add(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.data[i/64] |= 1 << uint(i%64)
}

// Has reports whether position i is set.
func (b *Bitmap) Has(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.data[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of set positions.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.data {
		c += bits.OnesCount64(w)
	}
	return c
}
