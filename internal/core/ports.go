package core

import (
	"context"
	"time"
)

// FeatureExtractor converts raw text into the fixed-dimension numeric vector
// the classifier was trained against
type FeatureExtractor interface {
	// Extract vectorizes the given text
	Extract(text string) ([]float64, error)
}

// Classifier maps a feature vector to a predicted class and a probability
// distribution over {safe, phishing}. Depending on how the artifact was
// exported the label is either a numeric class index or a class-name string;
// normalization to the canonical {0,1} encoding happens in the service.
type Classifier interface {
	// Classify runs the trained model on a feature vector
	Classify(features []float64) (label any, probabilities []float64, err error)
}

// CacheRepository defines the interface for caching prediction results
type CacheRepository interface {
	// Get retrieves a cached result for a text hash
	Get(textHash string) (*PredictionResult, bool)

	// Set stores a prediction result
	Set(textHash string, result *PredictionResult, ttl time.Duration)

	// Delete removes a cache entry
	Delete(ctx context.Context, textHash string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
