package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// LinearClassifier is the exported binary linear model: one weight per
// vectorizer dimension plus a bias. When the training pipeline exported class
// names they appear in Classes and predictions carry the class name; older
// exports omit them and predictions carry the numeric class index.
type LinearClassifier struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Classes []string  `json:"classes,omitempty"`
}

// LoadClassifier reads a classifier artifact from disk
func LoadClassifier(path string) (*LinearClassifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier artifact: %w", err)
	}

	var c LinearClassifier
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("failed to parse classifier artifact: %w", err)
	}

	if len(c.Weights) == 0 {
		return nil, errors.New("classifier artifact has no weights")
	}
	if len(c.Classes) != 0 && len(c.Classes) != 2 {
		return nil, fmt.Errorf("classifier artifact declares %d classes, expected 2", len(c.Classes))
	}

	return &c, nil
}

// Classify scores a feature vector and returns the predicted label together
// with the probability distribution over {safe, phishing}.
func (c *LinearClassifier) Classify(features []float64) (any, []float64, error) {
	if len(c.Weights) == 0 {
		return nil, nil, errors.New("classifier not loaded")
	}
	if len(features) != len(c.Weights) {
		return nil, nil, fmt.Errorf("feature vector has %d dimensions, model expects %d",
			len(features), len(c.Weights))
	}

	score := c.Bias
	for i, w := range c.Weights {
		score += w * features[i]
	}

	phishing := 1 / (1 + math.Exp(-score))
	probabilities := []float64{1 - phishing, phishing}

	index := 0
	if phishing > 0.5 {
		index = 1
	}

	if len(c.Classes) == 2 {
		return c.Classes[index], probabilities, nil
	}
	return index, probabilities, nil
}
