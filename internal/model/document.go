package model

// SourceParagraph is a paragraph as read from the corpus, before any
// per-question selection or encoding
type SourceParagraph struct {
	Num          int         `json:"num"`
	Sentences    [][]string  `json:"sentences"`
	OriginalText string      `json:"original_text"`
	Spans        OffsetTable `json:"spans"`
}

// Flat returns the paragraph tokens with sentence boundaries dropped
func (p SourceParagraph) Flat() []string {
	n := 0
	for _, s := range p.Sentences {
		n += len(s)
	}
	out := make([]string, 0, n)
	for _, s := range p.Sentences {
		out = append(out, s...)
	}
	return out
}

// Document is an ordered list of paragraphs. Paragraph order is reading
// order and Paragraphs[i].Num == i.
type Document struct {
	ID         string            `json:"id"`
	Title      string            `json:"title,omitempty"`
	Paragraphs []SourceParagraph `json:"paragraphs"`
}

// Answer holds the gold answer texts and their token spans inside the gold
// paragraph
type Answer struct {
	Texts []string `json:"texts"`
	Spans []Span   `json:"spans"`
}

// Question refers to its document and gold paragraph by id and index only
type Question struct {
	ID            string   `json:"id"`
	DocID         string   `json:"doc_id"`
	Words         []string `json:"words"`
	Answer        *Answer  `json:"answer,omitempty"`
	GoldParagraph int      `json:"gold_paragraph"`
	Weight        float64  `json:"weight"`
}

// HasAnswer reports whether the question has at least one gold answer span
func (q Question) HasAnswer() bool {
	return q.Answer != nil && len(q.Answer.Spans) > 0
}

// AnswerTexts returns the gold answer strings (nil for unanswerable questions)
func (q Question) AnswerTexts() []string {
	if q.Answer == nil {
		return nil
	}
	return q.Answer.Texts
}

// MultiParagraphQuestion is a question plus the paragraphs selected as its
// evidence, in selection order
type MultiParagraphQuestion struct {
	QuestionID  string      `json:"question_id"`
	DocID       string      `json:"doc_id"`
	Words       []string    `json:"words"`
	AnswerTexts []string    `json:"answer_texts,omitempty"`
	Weight      float64     `json:"weight"`
	Paragraphs  []Paragraph `json:"paragraphs"`
}

// AnsweredParagraphs counts the selected paragraphs carrying answer spans
func (m MultiParagraphQuestion) AnsweredParagraphs() int {
	n := 0
	for i := range m.Paragraphs {
		if m.Paragraphs[i].HasAnswer() {
			n++
		}
	}
	return n
}

// Corpus is a loaded set of documents and the questions asked about them
type Corpus struct {
	Documents []Document `json:"documents"`
	Questions []Question `json:"questions"`
}

// QuestionsByDoc groups questions by document id, keeping corpus order
func (c *Corpus) QuestionsByDoc() map[string][]Question {
	out := make(map[string][]Question, len(c.Documents))
	for _, q := range c.Questions {
		out[q.DocID] = append(out[q.DocID], q)
	}
	return out
}
