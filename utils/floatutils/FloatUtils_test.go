package floatutils

import (
	"math"
	"testing"
)

func TestClip(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-3, -1},
		{0.25, 0.25},
		{7, 1},
	}
	for _, test := range tests {
		if have := Clip(test.in, -1, 1); have != test.want {
			t.Errorf("clip(%v): want(%v) have(%v)", test.in, test.want, have)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
	}
	for _, test := range tests {
		have := Wrap(test.in, -math.Pi, math.Pi)
		if math.Abs(have-test.want) > 1e-12 {
			t.Errorf("wrap(%v): want(%v) have(%v)", test.in, test.want, have)
		}
	}
}
