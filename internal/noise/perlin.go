// Package noise implements the seeded gradient noise field sampled by the
// terrain synthesizer.
package noise

import (
	"math"
	"math/rand"
)

// Field is a 2D Perlin-style gradient noise field. It is immutable after
// construction and safe for concurrent reads.
//
// The permutation table is a Fisher-Yates shuffle of 0..255 driven by
// math/rand seeded with the field seed, duplicated to 512 entries so
// corner lookups never need a wraparound check. Both the PRNG and the
// shuffle are fixed so a given seed always yields the same field across
// runs and builds.
type Field struct {
	perm [512]int
	seed int64
}

// New constructs a fresh field for seed.
func New(seed int64) *Field {
	f := &Field{seed: seed}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 256; i++ {
		f.perm[i] = i
	}
	rng.Shuffle(256, func(i, j int) {
		f.perm[i], f.perm[j] = f.perm[j], f.perm[i]
	})
	for i := 0; i < 256; i++ {
		f.perm[256+i] = f.perm[i]
	}

	return f
}

// Seed returns the seed the field was built from.
func (f *Field) Seed() int64 {
	return f.seed
}

// Noise2D returns the gradient noise value at (x, y). The output is
// approximately in [-1, 1] and is not clamped. Pure function of (x, y)
// and the permutation table; every real input is valid.
func (f *Field) Noise2D(x, y float64) float64 {
	// Unit grid cell containing the point.
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255

	// Relative position within the cell.
	fx := x - math.Floor(x)
	fy := y - math.Floor(y)

	u := fade(fx)
	v := fade(fy)

	// Hash the four cell corners through chained permutation lookups.
	a := f.perm[xi] + yi
	aa := f.perm[a]
	ab := f.perm[a+1]
	b := f.perm[xi+1] + yi
	ba := f.perm[b]
	bb := f.perm[b+1]

	// Blend the corner gradients, x first, then y.
	return lerp(v,
		lerp(u, grad(f.perm[aa], fx, fy), grad(f.perm[ba], fx-1, fy)),
		lerp(u, grad(f.perm[ab], fx, fy-1), grad(f.perm[bb], fx-1, fy-1)))
}

// fade is the quintic ease curve 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// lerp performs linear interpolation.
func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad selects one of 16 gradient directions from the low 4 bits of hash
// and applies it to the corner-relative offset.
func grad(hash int, x, y float64) float64 {
	h := hash & 15

	u := x
	if h >= 8 {
		u = y
	}

	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	}

	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
