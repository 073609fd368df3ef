// Package squad reads and writes SQuAD-format datasets and converts them into
// documents and questions.
package squad

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Dataset is a SQuAD v1.1/v2.0 file
type Dataset struct {
	Version string    `json:"version,omitempty"`
	Data    []Article `json:"data"`
}

// Article is one titled document
type Article struct {
	Title      string      `json:"title"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is a context and the questions asked about it
type Paragraph struct {
	Context string `json:"context"`
	QAs     []QA   `json:"qas"`
}

// QA is a question with zero (unanswerable) or more answers
type QA struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Answers          []Answer `json:"answers"`
	PlausibleAnswers []Answer `json:"plausible_answers,omitempty"`
	IsImpossible     bool     `json:"is_impossible,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
}

// Answer locates an answer inside the context. AnswerStart counts
// characters (code points), not bytes.
type Answer struct {
	Text        string `json:"text"`
	AnswerStart int    `json:"answer_start"`
}

// WeightOr returns the question weight, or def when none is recorded
func (q *QA) WeightOr(def float64) float64 {
	if q.Weight == nil {
		return def
	}
	return *q.Weight
}

// Load decodes a dataset
func Load(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// LoadFile reads a dataset from disk
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Save encodes a dataset
func Save(w io.Writer, ds *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// SaveFile writes a dataset to disk
func SaveFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Save(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Questions counts the questions in the dataset
func (ds *Dataset) Questions() int {
	n := 0
	for _, a := range ds.Data {
		for _, p := range a.Paragraphs {
			n += len(p.QAs)
		}
	}
	return n
}
