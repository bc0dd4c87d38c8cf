package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PredictionService is the core service for phishing detection. It holds the
// two trained artifacts loaded at startup; both are read-only after
// construction, so concurrent Classify calls need no locking.
type PredictionService struct {
	extractor          FeatureExtractor
	classifier         Classifier
	cache              CacheRepository
	logger             *zap.Logger
	cacheEnabled       bool
	cacheTTL           time.Duration
	whitelistedDomains []string
}

// NewPredictionService creates a new prediction service. A nil extractor or
// classifier is a valid "not loaded" state: the service still constructs and
// reports itself unready instead of failing the process.
func NewPredictionService(
	extractor FeatureExtractor,
	classifier Classifier,
	cache CacheRepository,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	whitelistedDomains []string,
) *PredictionService {
	return &PredictionService{
		extractor:          extractor,
		classifier:         classifier,
		cache:              cache,
		logger:             logger,
		cacheEnabled:       cacheEnabled,
		cacheTTL:           cacheTTL,
		whitelistedDomains: whitelistedDomains,
	}
}

// VectorizerLoaded reports whether the feature extractor artifact loaded
func (s *PredictionService) VectorizerLoaded() bool {
	return s.extractor != nil
}

// ClassifierLoaded reports whether the classifier artifact loaded
func (s *PredictionService) ClassifierLoaded() bool {
	return s.classifier != nil
}

// Ready reports whether both artifacts loaded and predictions can be served
func (s *PredictionService) Ready() bool {
	return s.extractor != nil && s.classifier != nil
}

// Classify runs the full prediction pipeline on raw email text: trim,
// vectorize, classify, normalize the label and derive the risk tier.
func (s *PredictionService) Classify(ctx context.Context, text string) (*PredictionResult, error) {
	if !s.Ready() {
		return nil, ErrModelNotLoaded
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}

	textHash := hashText(trimmed)

	// Check cache if enabled
	if s.cacheEnabled && s.cache != nil {
		if result, ok := s.cache.Get(textHash); ok {
			s.logger.Debug("Cache hit for text", zap.String("text_hash", textHash))
			result.ModelUsed = "cache"
			return result, nil
		}
	}

	features, err := s.extractor.Extract(trimmed)
	if err != nil {
		s.logger.Error("Feature extraction failed",
			zap.Error(err),
			zap.String("stage", "extract"),
			zap.String("text_hash", textHash))
		return nil, &ExtractionError{Err: err}
	}

	rawLabel, probabilities, err := s.classifier.Classify(features)
	if err != nil {
		s.logger.Error("Classification failed",
			zap.Error(err),
			zap.String("stage", "classify"),
			zap.String("text_hash", textHash))
		return nil, &ClassificationError{Err: err}
	}
	if len(probabilities) != 2 {
		err := fmt.Errorf("expected 2 class probabilities, got %d", len(probabilities))
		s.logger.Error("Classification failed", zap.Error(err), zap.String("stage", "classify"))
		return nil, &ClassificationError{Err: err}
	}

	prediction, err := normalizeLabel(rawLabel)
	if err != nil {
		s.logger.Error("Classification failed", zap.Error(err), zap.String("stage", "classify"))
		return nil, &ClassificationError{Err: err}
	}

	result := &PredictionResult{
		Prediction:   prediction,
		Label:        LabelFor(prediction),
		Confidence:   Confidence{Safe: probabilities[0], Phishing: probabilities[1]},
		RiskLevel:    RiskLevelFor(probabilities[1]),
		EmailLength:  utf8.RuneCountInString(trimmed),
		ModelUsed:    "model",
		ProcessingID: uuid.NewString(),
		AnalyzedAt:   time.Now(),
	}

	// Update cache with result if enabled
	if s.cacheEnabled && s.cache != nil {
		s.cache.Set(textHash, result, s.cacheTTL)
	}

	s.logger.Debug("Classified email text",
		zap.String("processing_id", result.ProcessingID),
		zap.Int("prediction", result.Prediction),
		zap.Float64("phishing", result.Confidence.Phishing),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Int("email_length", result.EmailLength))

	return result, nil
}

// AnalyzeEmail classifies a parsed email message. Whitelisted sender domains
// bypass the model; this path is used by the SMTP and CLI front ends, which
// know the sender. The HTTP API calls Classify directly.
func (s *PredictionService) AnalyzeEmail(ctx context.Context, email *Email) (*PredictionResult, error) {
	if s.isDomainWhitelisted(email.From) {
		s.logger.Info("Skipping phishing check for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))

		result := RebuildResult(0, 0.0, utf8.RuneCountInString(strings.TrimSpace(email.Body)), time.Now())
		result.ModelUsed = "whitelist"
		result.ProcessingID = uuid.NewString()
		return result, nil
	}

	text := email.Body
	if email.Subject != "" {
		text = email.Subject + "\n" + email.Body
	}
	return s.Classify(ctx, text)
}

// isDomainWhitelisted checks if the sender's domain is in the whitelist
func (s *PredictionService) isDomainWhitelisted(from string) bool {
	parts := strings.Split(from, "@")
	if len(parts) != 2 {
		return false
	}

	domain := strings.ToLower(parts[1])
	for _, whitelisted := range s.whitelistedDomains {
		if strings.EqualFold(domain, whitelisted) {
			return true
		}
	}
	return false
}

// normalizeLabel maps whatever label representation the classifier artifact
// produces to the canonical {0,1} encoding. String labels containing "phish"
// (case-insensitive) are phishing; numeric labels are coerced directly.
func normalizeLabel(raw any) (int, error) {
	switch v := raw.(type) {
	case string:
		if strings.Contains(strings.ToLower(v), "phish") {
			return 1, nil
		}
		return 0, nil
	case int:
		if v != 0 {
			return 1, nil
		}
		return 0, nil
	case int64:
		if v != 0 {
			return 1, nil
		}
		return 0, nil
	case float64:
		if v != 0 {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported label type %T", raw)
	}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
