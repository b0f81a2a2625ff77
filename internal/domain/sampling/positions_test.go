package sampling

import (
	"errors"
	"math"
	"testing"
)

func TestUniformPositions_Example(t *testing.T) {
	got, err := UniformPositions(120, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{30, 60, 90}
	if len(got) != len(want) {
		t.Fatalf("expected %d positions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUniformPositions_StrictlyInsideAndIncreasing(t *testing.T) {
	durations := []float64{0.001, 0.5, 1, 7.25, 59.94, 3600, 86400.123}
	counts := []int{1, 2, 3, 10, 47, 500}
	for _, d := range durations {
		for _, n := range counts {
			got, err := UniformPositions(d, n)
			if err != nil {
				t.Fatalf("D=%v N=%d: unexpected error: %v", d, n, err)
			}
			if len(got) != n {
				t.Fatalf("D=%v N=%d: expected %d positions, got %d", d, n, n, len(got))
			}
			prev := 0.0
			for i, p := range got {
				if p <= prev {
					t.Fatalf("D=%v N=%d: position %d (%v) not > previous (%v)", d, n, i, p, prev)
				}
				if p >= d {
					t.Fatalf("D=%v N=%d: position %d (%v) not < duration", d, n, i, p)
				}
				want := d / float64(n+1) * float64(i+1)
				if p != want {
					t.Fatalf("D=%v N=%d: position %d = %v, want %v", d, n, i, p, want)
				}
				prev = p
			}
		}
	}
}

func TestUniformPositions_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		count    int
		want     error
	}{
		{"zero count", 10, 0, ErrCount},
		{"negative count", 10, -3, ErrCount},
		{"count above max", 10, MaxCount + 1, ErrCount},
		{"max int count", 10, math.MaxInt, ErrCount},
		{"zero duration", 0, 3, ErrDuration},
		{"negative duration", -1, 3, ErrDuration},
		{"nan duration", math.NaN(), 3, ErrDuration},
		{"inf duration", math.Inf(1), 3, ErrDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UniformPositions(tt.duration, tt.count)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFrameName(t *testing.T) {
	if got := FrameName(1, "jpg"); got != "frame_1.jpg" {
		t.Fatalf("unexpected name: %s", got)
	}
	if got := FrameName(12, ""); got != "frame_12.jpg" {
		t.Fatalf("unexpected default ext name: %s", got)
	}
	if got := FrameName(3, "png"); got != "frame_3.png" {
		t.Fatalf("unexpected png name: %s", got)
	}
}
