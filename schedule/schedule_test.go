package schedule

import "testing"

func TestActiveIndexSpreadsSlidesEvenly(t *testing.T) {
	// 4 slides over 10s: each slide owns a 2.5s window.
	cases := []struct {
		elapsed float64
		want    int
	}{
		{0, 0},
		{2.4, 0},
		{2.5, 1},
		{4.9, 1},
		{5.0, 2},
		{7.5, 3},
		{9.99, 3},
	}
	for _, c := range cases {
		got, ok := ActiveIndex(c.elapsed, 10, 4)
		if !ok {
			t.Fatalf("ActiveIndex(%v, 10, 4) reported no index", c.elapsed)
		}
		if got != c.want {
			t.Errorf("ActiveIndex(%v, 10, 4) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestActiveIndexClampsAtTrackEnd(t *testing.T) {
	// elapsed == duration must land on the last slide, not one past it.
	got, ok := ActiveIndex(10, 10, 4)
	if !ok || got != 3 {
		t.Fatalf("ActiveIndex(10, 10, 4) = %d, %v; want 3, true", got, ok)
	}
	got, ok = ActiveIndex(25, 10, 4)
	if !ok || got != 3 {
		t.Fatalf("ActiveIndex past the end = %d, %v; want 3, true", got, ok)
	}
}

func TestActiveIndexNegativeElapsed(t *testing.T) {
	got, ok := ActiveIndex(-3, 10, 4)
	if !ok || got != 0 {
		t.Fatalf("ActiveIndex(-3, 10, 4) = %d, %v; want 0, true", got, ok)
	}
}

func TestActiveIndexNoValidIndex(t *testing.T) {
	if _, ok := ActiveIndex(1, 10, 0); ok {
		t.Error("expected no index with zero slides")
	}
	if _, ok := ActiveIndex(1, 0, 4); ok {
		t.Error("expected no index with zero duration")
	}
	if _, ok := ActiveIndex(1, -5, 4); ok {
		t.Error("expected no index with negative duration")
	}
}

func TestFractionClamps(t *testing.T) {
	cases := []struct {
		elapsed, duration, want float64
	}{
		{5, 10, 0.5},
		{-1, 10, 0},
		{15, 10, 1},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := Fraction(c.elapsed, c.duration); got != c.want {
			t.Errorf("Fraction(%v, %v) = %v, want %v", c.elapsed, c.duration, got, c.want)
		}
	}
}
