// Package ml loads the trained artifacts exported by the training pipeline
// and adapts them to the core ports. The artifact formats are owned by the
// pipeline; this package only reads them.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TfidfVectorizer is the exported TF-IDF feature extractor: a term vocabulary
// mapping tokens to vector indices and the per-term inverse document
// frequencies fitted during training.
type TfidfVectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Idf        []float64      `json:"idf"`
	Lowercase  bool           `json:"lowercase"`
}

// LoadVectorizer reads a vectorizer artifact from disk
func LoadVectorizer(path string) (*TfidfVectorizer, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vectorizer artifact: %w", err)
	}

	var v TfidfVectorizer
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vectorizer artifact: %w", err)
	}

	if len(v.Vocabulary) == 0 {
		return nil, errors.New("vectorizer artifact has an empty vocabulary")
	}
	if len(v.Idf) != len(v.Vocabulary) {
		return nil, fmt.Errorf("vectorizer artifact is inconsistent: %d vocabulary terms but %d idf weights",
			len(v.Vocabulary), len(v.Idf))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.Idf) {
			return nil, fmt.Errorf("vectorizer artifact is inconsistent: term %q maps to index %d", term, idx)
		}
	}

	return &v, nil
}

// Extract vectorizes text into the trained TF-IDF space: tokenize, look up
// each token in the vocabulary, weight counts by idf and L2-normalize.
func (v *TfidfVectorizer) Extract(text string) ([]float64, error) {
	if len(v.Vocabulary) == 0 {
		return nil, errors.New("vectorizer not loaded")
	}

	tokens := tokenize(text, v.Lowercase)

	vector := make([]float64, len(v.Idf))
	for _, token := range tokens {
		idx, ok := v.Vocabulary[token]
		if !ok {
			continue
		}
		vector[idx] += v.Idf[idx]
	}

	// L2 normalization, matching the representation used at training time
	var sumSquares float64
	for _, value := range vector {
		sumSquares += value * value
	}
	if sumSquares > 0 {
		scale := 1 / math.Sqrt(sumSquares)
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector, nil
}

// tokenize splits text on non-alphanumeric runes after NFKC normalization
func tokenize(text string, lowercase bool) []string {
	normalized := norm.NFKC.String(text)
	if lowercase {
		normalized = strings.ToLower(normalized)
	}
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
