package ml

import (
	"go.uber.org/zap"
)

// Bundle is the pair of trained artifacts the service holds for its lifetime.
// Either field may be nil when its artifact failed to load; the service then
// refuses predictions but keeps serving health and info endpoints.
type Bundle struct {
	Vectorizer *TfidfVectorizer
	Classifier *LinearClassifier
}

// LoadBundle attempts to load both artifacts. Load failures are logged and
// leave the corresponding field nil rather than failing the process, so a
// misconfigured deployment stays observable through the health endpoint.
func LoadBundle(vectorizerPath, classifierPath string, logger *zap.Logger) *Bundle {
	bundle := &Bundle{}

	vectorizer, err := LoadVectorizer(vectorizerPath)
	if err != nil {
		logger.Error("Failed to load vectorizer artifact",
			zap.Error(err),
			zap.String("path", vectorizerPath))
	} else {
		bundle.Vectorizer = vectorizer
		logger.Info("Loaded vectorizer artifact",
			zap.String("path", vectorizerPath),
			zap.Int("vocabulary_size", len(vectorizer.Vocabulary)))
	}

	classifier, err := LoadClassifier(classifierPath)
	if err != nil {
		logger.Error("Failed to load classifier artifact",
			zap.Error(err),
			zap.String("path", classifierPath))
	} else {
		bundle.Classifier = classifier
		logger.Info("Loaded classifier artifact",
			zap.String("path", classifierPath),
			zap.Int("dimensions", len(classifier.Weights)))
	}

	return bundle
}

// Ready reports whether both artifacts loaded
func (b *Bundle) Ready() bool {
	return b.Vectorizer != nil && b.Classifier != nil
}
