package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/paraqa/internal/evidence"
	"github.com/ppiankov/paraqa/internal/model"
)

// Processor turns one document and its questions into selection results
type Processor interface {
	Process(doc model.Document, questions []model.Question) ([]evidence.Result, error)
}

// DocumentJob processes a single document
type DocumentJob struct {
	Index     int
	Document  model.Document
	Questions []model.Question
	Processor Processor
}

// Execute runs the processor unless the batch was cancelled
func (j *DocumentJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &DocumentResult{Index: j.Index, DocID: j.Document.ID, Error: err}
	}
	results, err := j.Processor.Process(j.Document, j.Questions)
	return &DocumentResult{
		Index:   j.Index,
		DocID:   j.Document.ID,
		Results: results,
		Error:   err,
	}
}

// DocumentResult is the outcome of one DocumentJob
type DocumentResult struct {
	Index   int
	DocID   string
	Results []evidence.Result
	Error   error
}

// GetError returns the error from processing the document
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor fans documents out over a worker pool. Documents share no
// state, so they can be processed in any order.
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessDocuments processes every document and returns the results in
// document order. Documents without questions are skipped.
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, docs []model.Document, questions map[string][]model.Question) []*DocumentResult {
	if len(docs) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, doc := range docs {
		qs := questions[doc.ID]
		if len(qs) == 0 {
			continue
		}
		if !pool.Submit(&DocumentJob{
			Index:     i,
			Document:  doc,
			Questions: qs,
			Processor: b.processor,
		}) {
			break
		}
	}

	results := pool.Wait()

	docResults := make([]*DocumentResult, len(results))
	for i, result := range results {
		docResults[i] = result.(*DocumentResult)
	}
	sort.Slice(docResults, func(i, j int) bool {
		return docResults[i].Index < docResults[j].Index
	})

	return docResults
}

// ReadIDsFromFile reads document ids from a file (one per line, # comments
// allowed), removing duplicates
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}
