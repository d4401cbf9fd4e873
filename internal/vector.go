package internal

import "math"

// Cosine returns the cosine similarity of a and b.
// Vectors of mismatched length compare as 0, and so does any vector
// with a zero norm. The result is otherwise dot(a,b)/(|a|*|b|).
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// meanVector returns the arithmetic mean of the given vectors.
// Vectors whose length differs from the first one are skipped so a
// single malformed member cannot poison a centroid.
func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	count := 0

	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		count++
	}

	if count == 0 {
		return nil
	}

	out := make([]float32, dim)
	for i, s := range sum {
		out[i] = float32(s / float64(count))
	}
	return out
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
