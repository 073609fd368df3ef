package vectorize

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// WordVectors is a lowercase word -> fixed-length vector table
type WordVectors struct {
	dim  int
	vecs map[string][]float32
}

// NewWordVectors creates an empty table of the given dimension
func NewWordVectors(dim int) *WordVectors {
	return &WordVectors{dim: dim, vecs: make(map[string][]float32)}
}

// Set stores the vector for word (lowercased)
func (w *WordVectors) Set(word string, vec []float32) error {
	if len(vec) != w.dim {
		return fmt.Errorf("vector for %q has %d dimensions, table has %d", word, len(vec), w.dim)
	}
	w.vecs[strings.ToLower(word)] = vec
	return nil
}

// Lookup returns the vector for an already lowercased word
func (w *WordVectors) Lookup(word string) ([]float32, bool) {
	v, ok := w.vecs[word]
	return v, ok
}

// Dim returns the vector dimension
func (w *WordVectors) Dim() int {
	return w.dim
}

// Len returns the number of words in the table
func (w *WordVectors) Len() int {
	if w == nil {
		return 0
	}
	return len(w.vecs)
}

// Digest hashes the dimension and every word with its components in word
// order, so two tables digest alike only when they hold the same vectors
func (w *WordVectors) Digest() string {
	if w == nil {
		return "none"
	}
	words := make([]string, 0, len(w.vecs))
	for word := range w.vecs {
		words = append(words, word)
	}
	sort.Strings(words)

	h := sha256.New()
	buf := binary.LittleEndian.AppendUint32(nil, uint32(w.dim))
	h.Write(buf)
	for _, word := range words {
		buf = append(buf[:0], word...)
		buf = append(buf, 0)
		for _, v := range w.vecs[word] {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ReadWordVectors parses the GloVe / fastText text format: one word followed
// by its components per line. A leading "<count> <dim>" header is skipped.
// When keep is non-nil only the listed words are loaded.
func ReadWordVectors(r io.Reader, keep map[string]bool) (*WordVectors, error) {
	var table *WordVectors
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				continue
			}
		}
		if table == nil {
			table = NewWordVectors(len(fields) - 1)
		}
		word := strings.ToLower(fields[0])
		if keep != nil && !keep[word] {
			continue
		}
		if _, dup := table.vecs[word]; dup {
			continue
		}
		vec, err := parseVector(fields[1:], table.dim)
		if err != nil {
			return nil, fmt.Errorf("vectors line %d: %w", lineNo, err)
		}
		table.vecs[word] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	if table == nil {
		return NewWordVectors(0), nil
	}
	return table, nil
}

func parseVector(fields []string, dim int) ([]float32, error) {
	if len(fields) != dim {
		return nil, fmt.Errorf("%d components, expected %d", len(fields), dim)
	}
	vec := make([]float32, dim)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		vec[i] = float32(v)
	}
	return vec, nil
}

// LoadWordVectors reads a vector file from disk
func LoadWordVectors(path string, keep map[string]bool) (*WordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadWordVectors(f, keep)
}
