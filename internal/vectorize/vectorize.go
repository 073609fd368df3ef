// Package vectorize scores questions against the paragraphs of one document.
// Every strategy is fit on a single document's paragraphs and keeps no state
// between calls.
package vectorize

import "fmt"

// Matrix holds distances: rows are questions, columns are paragraphs. Lower
// is more relevant.
type Matrix [][]float64

// NewMatrix allocates a rows x cols matrix filled with v
func NewMatrix(rows, cols int, v float64) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		row := make([]float64, cols)
		for j := range row {
			row[j] = v
		}
		m[i] = row
	}
	return m
}

// Shape returns (rows, cols); cols is 0 for an empty matrix
func (m Matrix) Shape() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Strategy turns token lists into a question x paragraph distance matrix.
// Fingerprint identifies the name together with every input that changes
// the distances (stop words, vector table); equal fingerprints must give
// equal matrices for equal tokens.
type Strategy interface {
	Name() string
	Fingerprint() string
	Distances(questions, paragraphs [][]string) (Matrix, error)
}

// MaxDistance is assigned to any pair involving a text with no usable terms
const MaxDistance = 1.0

// Combined multiplies the distance matrices of two strategies; a pair must be
// close under both signals to rank high
type Combined struct {
	A Strategy
	B Strategy
}

// NewCombined composes two strategies
func NewCombined(a, b Strategy) *Combined {
	return &Combined{A: a, B: b}
}

// Name returns "<a>*<b>"
func (c *Combined) Name() string {
	return c.A.Name() + "*" + c.B.Name()
}

// Fingerprint combines both strategies' fingerprints
func (c *Combined) Fingerprint() string {
	return "(" + c.A.Fingerprint() + ")*(" + c.B.Fingerprint() + ")"
}

// Distances returns the elementwise product of both strategies' matrices
func (c *Combined) Distances(questions, paragraphs [][]string) (Matrix, error) {
	a, err := c.A.Distances(questions, paragraphs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.A.Name(), err)
	}
	b, err := c.B.Distances(questions, paragraphs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.B.Name(), err)
	}
	return Multiply(a, b)
}

// Multiply returns the elementwise product of two equally shaped matrices
func Multiply(a, b Matrix) (Matrix, error) {
	ar, ac := a.Shape()
	br, bc := b.Shape()
	if ar != br || ac != bc {
		return nil, fmt.Errorf("shape mismatch: %dx%d vs %dx%d", ar, ac, br, bc)
	}
	out := make(Matrix, ar)
	for i := range a {
		row := make([]float64, ac)
		for j := range row {
			row[j] = a[i][j] * b[i][j]
		}
		out[i] = row
	}
	return out, nil
}
