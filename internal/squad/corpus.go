package squad

import (
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/text"
)

// ToCorpus turns every article into a Document and every QA into a Question
// whose gold paragraph is the paragraph it was asked about. Questions whose
// answers cannot be located in their context are left out and reported.
func ToCorpus(ds *Dataset) (*model.Corpus, []*model.InvariantError) {
	corpus := &model.Corpus{}
	var problems []*model.InvariantError
	seen := make(map[string]int)

	for _, article := range ds.Data {
		id := article.Title
		if n := seen[article.Title]; n > 0 {
			id = fmt.Sprintf("%s_%d", article.Title, n)
		}
		seen[article.Title]++

		doc := model.Document{ID: id, Title: article.Title}
		for num, para := range article.Paragraphs {
			tokens, spans := text.Tokenize(para.Context)
			doc.Paragraphs = append(doc.Paragraphs, model.SourceParagraph{
				Num:          num,
				Sentences:    text.SentenceGroups(tokens),
				OriginalText: para.Context,
				Spans:        spans,
			})

			for _, qa := range para.QAs {
				q, err := toQuestion(id, num, para.Context, spans, qa)
				if err != nil {
					problems = append(problems, err)
					continue
				}
				corpus.Questions = append(corpus.Questions, q)
			}
		}
		corpus.Documents = append(corpus.Documents, doc)
	}
	return corpus, problems
}

func toQuestion(docID string, num int, context string, spans model.OffsetTable, qa QA) (model.Question, *model.InvariantError) {
	q := model.Question{
		ID:            qa.ID,
		DocID:         docID,
		Words:         text.Words(qa.Question),
		GoldParagraph: num,
		Weight:        qa.WeightOr(1.0),
	}
	if len(qa.Answers) == 0 {
		return q, nil
	}

	ans := &model.Answer{}
	for _, a := range qa.Answers {
		span, err := locate(context, spans, a)
		if err != nil {
			return q, model.Invariantf(qa.ID, "answer %q: %v", a.Text, err)
		}
		ans.Texts = append(ans.Texts, a.Text)
		if !containsSpan(ans.Spans, span) {
			ans.Spans = append(ans.Spans, span)
		}
	}
	q.Answer = ans
	return q, nil
}

// locate maps a character-offset answer onto the tokens it overlaps
func locate(context string, spans model.OffsetTable, a Answer) (model.Span, error) {
	start, ok := byteOffset(context, a.AnswerStart)
	if !ok {
		return model.Span{}, fmt.Errorf("answer_start %d outside context of %d characters", a.AnswerStart, utf8.RuneCountInString(context))
	}
	end := start + len(a.Text)
	if end > len(context) {
		return model.Span{}, fmt.Errorf("answer runs past the end of the context")
	}

	first, last := -1, -1
	for i, r := range spans {
		if r.End > start && r.Start < end {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return model.Span{}, fmt.Errorf("no token overlaps bytes [%d, %d)", start, end)
	}
	return model.Span{Start: first, End: last}, nil
}

// byteOffset converts a code point index into a byte index
func byteOffset(s string, runeIdx int) (int, bool) {
	if runeIdx < 0 {
		return 0, false
	}
	n := 0
	for i := range s {
		if n == runeIdx {
			return i, true
		}
		n++
	}
	if n == runeIdx {
		return len(s), true
	}
	return 0, false
}

func containsSpan(spans []model.Span, s model.Span) bool {
	for _, x := range spans {
		if x == s {
			return true
		}
	}
	return false
}

// FromParagraphs builds an unanswered single-article dataset, e.g. from
// paragraphs scraped off a web page. Every question is attached to the first
// paragraph; ranking decides which paragraphs it actually sees.
func FromParagraphs(title string, paragraphs []string, questions []string) *Dataset {
	article := Article{Title: title}
	for _, p := range paragraphs {
		article.Paragraphs = append(article.Paragraphs, Paragraph{Context: p, QAs: []QA{}})
	}
	if len(article.Paragraphs) == 0 {
		return &Dataset{Version: "paraqa", Data: []Article{article}}
	}
	for i, q := range questions {
		article.Paragraphs[0].QAs = append(article.Paragraphs[0].QAs, QA{
			ID:       fmt.Sprintf("%s-q%d", title, i),
			Question: q,
			Answers:  []Answer{},
		})
	}
	return &Dataset{Version: "paraqa", Data: []Article{article}}
}
