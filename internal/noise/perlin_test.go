package noise

import (
	"math"
	"testing"
)

func TestFieldDeterminism(t *testing.T) {
	f1 := New(42)
	f2 := New(42)

	for y := 0.0; y < 4; y += 0.3 {
		for x := 0.0; x < 4; x += 0.3 {
			v1 := f1.Noise2D(x, y)
			v2 := f2.Noise2D(x, y)
			if v1 != v2 {
				t.Fatalf("Noise2D(%f, %f) differs between identical seeds: %f vs %f", x, y, v1, v2)
			}
		}
	}
}

func TestFieldSeedVariation(t *testing.T) {
	f1 := New(1)
	f2 := New(2)

	if f1.perm == f2.perm {
		t.Error("Expected different permutation tables for different seeds")
	}
}

func TestPermutationTable(t *testing.T) {
	f := New(1337)

	// First half is a permutation of 0..255
	seen := make(map[int]bool)
	for i := 0; i < 256; i++ {
		v := f.perm[i]
		if v < 0 || v > 255 {
			t.Fatalf("perm[%d] = %d out of range", i, v)
		}
		if seen[v] {
			t.Fatalf("perm[%d] = %d is a duplicate", i, v)
		}
		seen[v] = true
	}

	// Second half duplicates the first
	for i := 0; i < 256; i++ {
		if f.perm[256+i] != f.perm[i] {
			t.Fatalf("perm[%d] != perm[%d]", 256+i, i)
		}
	}
}

func TestNoiseZeroAtLatticePoints(t *testing.T) {
	f := New(7)

	for _, p := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {3, 5}, {255, 255}} {
		if v := f.Noise2D(p[0], p[1]); v != 0 {
			t.Errorf("Noise2D(%v, %v) = %f, want 0 at lattice point", p[0], p[1], v)
		}
	}
}

func TestNoiseBounded(t *testing.T) {
	f := New(99)

	for y := 0.0; y < 8; y += 0.17 {
		for x := 0.0; x < 8; x += 0.17 {
			v := f.Noise2D(x, y)
			if math.Abs(v) > 2.0 {
				t.Fatalf("Noise2D(%f, %f) = %f exceeds gradient bound", x, y, v)
			}
		}
	}
}

func TestFade(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1, 1},
		{0.5, 0.5},
	}

	for _, tt := range tests {
		if got := fade(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("fade(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}

	// Zero slope at the endpoints is what makes cell edges seamless.
	eps := 1e-6
	if d := (fade(eps) - fade(0)) / eps; math.Abs(d) > 1e-4 {
		t.Errorf("fade slope at 0 = %f, want ~0", d)
	}
	if d := (fade(1) - fade(1-eps)) / eps; math.Abs(d) > 1e-4 {
		t.Errorf("fade slope at 1 = %f, want ~0", d)
	}
}

func TestSeed(t *testing.T) {
	if got := New(42).Seed(); got != 42 {
		t.Errorf("Seed() = %d, want 42", got)
	}
}
