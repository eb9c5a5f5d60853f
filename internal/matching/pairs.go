package matching

// forEachPair enumerates every unordered index pair (i, j) with i < j over n
// elements, in order (0,1), (0,2), ..., (n-2,n-1). The visit order is the
// tie-break order of engine output, so it lives here as its own primitive
// rather than buried in the scoring loop. Returning false from fn stops the
// enumeration early.
//
// n·(n−1)/2 invocations; quadratic by design. The registry population is
// small enough that no bucketing is applied before comparison.
func forEachPair(n int, fn func(i, j int) bool) {
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if !fn(i, j) {
				return
			}
		}
	}
}
