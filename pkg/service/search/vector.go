package search

import "math"

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero-magnitude vectors score 0 instead of erroring, so a malformed
// stored vector can never fail a search.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
