package trendmatcher

import "math"

// CosineSimilarity returns the cosine of the angle between two vectors,
// in [-1, 1]. Zero-magnitude input (either side) yields 0. The corpus is
// small enough (low thousands of chunks) that a linear scan over all
// stored embeddings beats any approximate index, so this is the whole
// similarity machinery.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
