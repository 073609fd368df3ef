package vectorize

import "math"

// term is one non-zero entry of a sparse vector
type term struct {
	index int
	value float64
}

// sparse is a vector stored as entries sorted by index
type sparse []term

// sparseDot walks both vectors in index order, so the summation order (and
// therefore the result) is fixed
func sparseDot(a, b sparse) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].index == b[j].index:
			sum += a[i].value * b[j].value
			i++
			j++
		case a[i].index < b[j].index:
			i++
		default:
			j++
		}
	}
	return sum
}

// clipDistance turns a cosine similarity into a distance in [0, 2]
func clipDistance(sim float64) float64 {
	d := 1 - sim
	if d < 0 {
		return 0
	}
	if d > 2 {
		return 2
	}
	return d
}

// denseCosineDistance returns MaxDistance when either vector is missing or
// has zero norm
func denseCosineDistance(a, b []float64) float64 {
	if a == nil || b == nil || len(a) != len(b) {
		return MaxDistance
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return MaxDistance
	}
	return clipDistance(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
