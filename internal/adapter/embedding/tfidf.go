package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// TFIDFEmbedder is an offline vectorizer. Fit builds the vocabulary and IDF
// weights from the corpus; Embed then produces L2-normalized TF-IDF vectors
// whose dimension is the vocabulary size. Terms outside the vocabulary are ignored.
type TFIDFEmbedder struct {
	vocabulary   map[string]int
	idf          []float64
	fingerprint  string
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewTFIDFEmbedder() *TFIDFEmbedder {
	return &TFIDFEmbedder{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// Fit builds the vocabulary and document frequencies. It must be called
// before Embed and must not run concurrently with it.
func (e *TFIDFEmbedder) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(len(corpus))))
	h.Write([]byte{0})
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
		h.Write([]byte(term))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(df[term])))
		h.Write([]byte{0})
	}
	e.fingerprint = hex.EncodeToString(h.Sum(nil)[:8])
	return nil
}

// Dimension returns the vocabulary size, or 0 before Fit.
func (e *TFIDFEmbedder) Dimension() int { return len(e.idf) }

// ModelName changes with the fitted vocabulary, document count and document
// frequencies, so cached vectors from a different corpus are never reused.
func (e *TFIDFEmbedder) ModelName() string {
	if e.fingerprint == "" {
		return "tfidf"
	}
	return "tfidf-" + e.fingerprint
}

func (e *TFIDFEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(e.idf) == 0 {
		return nil, errors.New("tfidf embedder not fitted")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *TFIDFEmbedder) embed(text string) []float32 {
	vec := make([]float32, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}

	weights := make(map[int]float64, len(tf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(total) * e.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec
}

func (e *TFIDFEmbedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as",
		"is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down",
		"over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don",
		"should", "now", "what", "which", "who", "how", "do", "does", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
