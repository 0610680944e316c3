// Package scoring computes keyword match scores between resume bullets and a
// job description using TF-IDF vectors.
package scoring

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyVocabulary is returned when no document contains a single token.
var ErrEmptyVocabulary = errors.New("empty vocabulary; documents contain no tokens")

// wordRunRe matches runs of word characters; runs of 2+ characters are tokens.
var wordRunRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and returns its tokens in order.
// A token is a maximal run of at least two letters, digits or underscores.
func Tokenize(text string) []string {
	runs := wordRunRe.FindAllString(strings.ToLower(text), -1)
	tokens := runs[:0]
	for _, r := range runs {
		if utf8.RuneCountInString(r) >= 2 {
			tokens = append(tokens, r)
		}
	}
	return tokens
}

// Space is a fitted TF-IDF vector space: one L2-normalized row per document.
type Space struct {
	Terms   []string    // sorted vocabulary; column i of every row is Terms[i]
	IDF     []float64   // inverse document frequency per term
	Vectors [][]float64 // one row per input document, in input order
}

// Fit builds the TF-IDF space for docs.
//
// Weights are raw term counts times the smoothed idf, ln((1+n)/(1+df)) + 1,
// and each row is scaled to unit length (rows without tokens stay zero).
func Fit(docs []string) (*Space, error) {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tokenized[i] = Tokenize(doc)
		seen := make(map[string]bool, len(tokenized[i]))
		for _, tok := range tokenized[i] {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		index[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for i, tokens := range tokenized {
		row := make([]float64, len(terms))
		for _, tok := range tokens {
			row[index[tok]]++
		}
		floats.Mul(row, idf)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		vectors[i] = row
	}

	return &Space{Terms: terms, IDF: idf, Vectors: vectors}, nil
}

// Similarity returns the inner product of rows i and j.
// Rows are unit length, so this is their cosine similarity.
func (s *Space) Similarity(i, j int) float64 {
	return floats.Dot(s.Vectors[i], s.Vectors[j])
}
