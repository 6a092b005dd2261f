// Package route orders an unordered set of points into a short visiting
// sequence and asks the routing service for the path along that sequence.
//
// The ordering itself (NearestNeighbor) is pure and works on a distance
// matrix; only Optimizer talks to the network.
package route

// NearestNeighbor builds a visiting order over the n points of dist, a square
// matrix of pairwise distances. It starts at index 0 and repeatedly moves to
// the closest unvisited point; equal distances go to the lowest index. With
// roundtrip set, index 0 is appended again to close the loop.
//
// The result is a permutation of 0..n-1 (plus the closing 0). It is
// deterministic for a given matrix.
func NearestNeighbor(dist [][]float64, roundtrip bool) []int {
	n := len(dist)
	if n == 0 {
		return []int{}
	}

	order := make([]int, 0, n+1)
	visited := make([]bool, n)
	current := 0
	visited[0] = true
	order = append(order, 0)

	for len(order) < n {
		next := -1
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			// Strict less-than keeps the lowest index on ties.
			if next == -1 || dist[current][j] < dist[current][next] {
				next = j
			}
		}
		visited[next] = true
		order = append(order, next)
		current = next
	}

	if roundtrip {
		order = append(order, 0)
	}
	return order
}

// TourLength sums dist along order.
func TourLength(dist [][]float64, order []int) float64 {
	var total float64
	for i := 1; i < len(order); i++ {
		total += dist[order[i-1]][order[i]]
	}
	return total
}
