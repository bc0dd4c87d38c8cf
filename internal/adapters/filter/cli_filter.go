package filter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/core"
)

// CliFilter implements a command-line interface for phishing detection
type CliFilter struct {
	service *core.PredictionService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.PredictionService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail classifies an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Classifying email text...\n")
	startTime := time.Now()
	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Prediction: %d (%s)\n", result.Prediction, result.Label)
	fmt.Printf("Confidence (safe): %.4f\n", result.Confidence.Safe)
	fmt.Printf("Confidence (phishing): %.4f\n", result.Confidence.Phishing)
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	fmt.Printf("Email length: %d\n", result.EmailLength)
	fmt.Printf("Model used: %s\n", result.ModelUsed)
	fmt.Printf("Processing time: %v\n", duration)

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
