package core

import (
	"time"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// RiskLevel is the three-tier triage label derived from the phishing probability
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Canonical class labels for the binary classifier
const (
	LabelSafe     = "safe email"
	LabelPhishing = "phishing email"
)

// Confidence is the probability distribution over the two classes.
// The two fields always sum to 1.0.
type Confidence struct {
	Safe     float64 `json:"safe"`
	Phishing float64 `json:"phishing"`
}

// PredictionResult represents the result of classifying one email text
type PredictionResult struct {
	Prediction   int
	Label        string
	Confidence   Confidence
	RiskLevel    RiskLevel
	EmailLength  int
	ModelUsed    string
	ProcessingID string
	AnalyzedAt   time.Time
}

// CacheEntry is the stored form of a prediction, keyed by the hash of the
// classified text. Label and risk level are rederived on read.
type CacheEntry struct {
	TextHash    string
	Prediction  int
	Phishing    float64
	EmailLength int
	AnalyzedAt  time.Time
	ExpiresAt   time.Time
}

// LabelFor maps the canonical {0,1} prediction to its class label
func LabelFor(prediction int) string {
	if prediction == 1 {
		return LabelPhishing
	}
	return LabelSafe
}

// RiskLevelFor derives the risk tier from the phishing probability.
// Tier promotion is strict: a probability of exactly 0.7 is MEDIUM and
// exactly 0.4 is LOW.
func RiskLevelFor(phishing float64) RiskLevel {
	switch {
	case phishing > 0.7:
		return RiskHigh
	case phishing > 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RebuildResult reconstructs a full prediction result from its stored fields,
// rederiving the label and risk tier so they can never drift from their
// source fields.
func RebuildResult(prediction int, phishing float64, emailLength int, analyzedAt time.Time) *PredictionResult {
	return &PredictionResult{
		Prediction:  prediction,
		Label:       LabelFor(prediction),
		Confidence:  Confidence{Safe: 1 - phishing, Phishing: phishing},
		RiskLevel:   RiskLevelFor(phishing),
		EmailLength: emailLength,
		AnalyzedAt:  analyzedAt,
	}
}
