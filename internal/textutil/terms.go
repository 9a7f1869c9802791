package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTokenRunes = 3

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "are": true, "was": true, "were": true, "you": true,
	"your": true, "our": true, "from": true, "have": true, "has": true,
	"not": true, "but": true, "all": true, "can": true, "will": true,
	"its": true, "into": true, "any": true, "must": true,
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenRunes || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TermVector is a sparse weighted bag of words.
type TermVector struct {
	weights map[string]float64
	norm    float64
}

// NewTermVector counts the tokens of text. It returns nil when text has no
// usable tokens.
func NewTermVector(text string) *TermVector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	return newTermVector(counts)
}

func newTermVector(weights map[string]float64) *TermVector {
	if len(weights) == 0 {
		return nil
	}
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	return &TermVector{weights: weights, norm: math.Sqrt(sum)}
}

// Len returns the number of distinct terms.
func (v *TermVector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.weights)
}

// Weighted scales each term by idf. Terms missing from idf keep their count.
func (v *TermVector) Weighted(idf map[string]float64) *TermVector {
	if v == nil || len(idf) == 0 {
		return v
	}
	out := make(map[string]float64, len(v.weights))
	for term, count := range v.weights {
		if w, ok := idf[term]; ok {
			count *= w
		}
		if count != 0 {
			out[term] = count
		}
	}
	return newTermVector(out)
}

// Cosine returns the cosine similarity of v and other, or 0 when either is
// empty.
func (v *TermVector) Cosine(other *TermVector) float64 {
	if v == nil || other == nil || v.norm == 0 || other.norm == 0 {
		return 0
	}
	small, large := v, other
	if len(small.weights) > len(large.weights) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small.weights {
		dot += w * large.weights[term]
	}
	return dot / (v.norm * other.norm)
}

// DocumentFrequencies accumulates how many documents contain each term.
type DocumentFrequencies struct {
	docs int
	df   map[string]int
}

func NewDocumentFrequencies() *DocumentFrequencies {
	return &DocumentFrequencies{df: make(map[string]int)}
}

// Add records the distinct terms of one document. A nil vector still counts
// as a document.
func (d *DocumentFrequencies) Add(v *TermVector) {
	d.docs++
	if v == nil {
		return
	}
	for term := range v.weights {
		d.df[term]++
	}
}

// IDF returns smoothed weights 1 + ln((N+1)/(df+1)). Terms present in every
// document still weigh 1, so a single-document corpus ranks by raw counts.
func (d *DocumentFrequencies) IDF() map[string]float64 {
	if d.docs == 0 {
		return nil
	}
	n := float64(d.docs)
	idf := make(map[string]float64, len(d.df))
	for term, df := range d.df {
		idf[term] = 1 + math.Log((n+1)/(float64(df)+1))
	}
	return idf
}
