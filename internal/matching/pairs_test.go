package matching

import (
	"reflect"
	"testing"
)

func collectPairs(n int) [][2]int {
	var out [][2]int
	forEachPair(n, func(i, j int) bool {
		out = append(out, [2]int{i, j})
		return true
	})
	return out
}

func TestForEachPair_Order(t *testing.T) {
	got := collectPairs(4)
	want := [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pair order = %v, want %v", got, want)
	}
}

func TestForEachPair_Count(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 17} {
		got := len(collectPairs(n))
		want := n * (n - 1) / 2
		if got != want {
			t.Fatalf("n=%d: %d pairs, want %d", n, got, want)
		}
	}
}

func TestForEachPair_EarlyStop(t *testing.T) {
	visits := 0
	forEachPair(10, func(i, j int) bool {
		visits++
		return visits < 3
	})
	if visits != 3 {
		t.Fatalf("expected enumeration to stop after 3 visits, got %d", visits)
	}
}
