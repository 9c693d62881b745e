package kdbush_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/fogleman/poissondisc"
	"github.com/striide/walkgraph/kdbush"
)

func randomPoints(n int, seed int64) []kdbush.Point[int] {
	rnd := rand.New(rand.NewSource(seed))
	points := make([]kdbush.Point[int], n)
	for i := range points {
		points[i] = kdbush.Point[int]{X: rnd.Float64()*2 - 1, Y: rnd.Float64()*2 - 1, Data: i}
	}
	return points
}

func dist2(p kdbush.Point[int], x, y float64) float64 {
	dx := p.X - x
	dy := p.Y - y
	return dx*dx + dy*dy
}

func TestNearestMatchesBruteForce(t *testing.T) {
	points := randomPoints(2000, 1)
	bush := kdbush.NewBush(slices.Clone(points), 16)

	qx, qy := 0.123, -0.456
	expected := make([]float64, len(points))
	for i, p := range points {
		expected[i] = dist2(p, qx, qy)
	}
	slices.Sort(expected)

	got := []float64{}
	seen := map[int]bool{}
	for p, d := range bush.Nearest(qx, qy) {
		if seen[p.Data] {
			t.Fatalf("point %d yielded twice", p.Data)
		}
		seen[p.Data] = true
		if d != dist2(p, qx, qy) {
			t.Fatalf("reported distance %v does not match point distance %v", d, dist2(p, qx, qy))
		}
		got = append(got, d)
	}

	if len(got) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(got))
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("distance %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

func TestNearestStopsEarly(t *testing.T) {
	bush := kdbush.NewBush(randomPoints(500, 2), 8)

	count := 0
	for range bush.Nearest(0, 0) {
		count++
		if count == 5 {
			break
		}
	}
	if count != 5 {
		t.Fatalf("expected 5 points, got %d", count)
	}
}

func TestNearestEmpty(t *testing.T) {
	bush := kdbush.NewBush[int](nil, 0)
	for range bush.Nearest(0, 0) {
		t.Fatalf("empty index yielded a point")
	}
	if bush.Len() != 0 {
		t.Fatalf("expected empty index")
	}
}

func TestWithin(t *testing.T) {
	points := []kdbush.Point[int]{
		{X: 0, Y: 0, Data: 0},
		{X: 1, Y: 1, Data: 1},
		{X: 5, Y: 5, Data: 2},
		{X: -1, Y: 0.5, Data: 3},
	}
	bush := kdbush.NewBush(points, 1)

	found := []int{}
	bush.Within(0, 0, 1.5, func(p kdbush.Point[int]) bool {
		found = append(found, p.Data)
		return true
	})
	slices.Sort(found)
	if !slices.Equal(found, []int{0, 1, 3}) {
		t.Fatalf("expected [0 1 3], got %v", found)
	}

	calls := 0
	bush.Within(0, 0, 10, func(p kdbush.Point[int]) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Fatalf("expected the walk to stop after the first hit, got %d calls", calls)
	}
}

func BenchmarkNearest(b *testing.B) {
	samples := poissondisc.Sample(0, 0, 1, 1, 0.005, 30, nil)
	points := make([]kdbush.Point[int], len(samples))
	for i, s := range samples {
		points[i] = kdbush.Point[int]{X: s.X, Y: s.Y, Data: i}
	}
	bush := kdbush.NewBush(points, kdbush.DefaultNodeSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		for range bush.Nearest(0.5, 0.5) {
			n++
			if n == 5 {
				break
			}
		}
	}
}
