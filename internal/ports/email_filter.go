package ports

import (
	"context"

	"github.com/mikey/phishing-filter/internal/core"
)

// EmailFilter defines the interface for a classification front end
type EmailFilter interface {
	// ProcessEmail classifies an email and returns the prediction result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error)

	// Start starts the front end
	Start() error

	// Stop stops the front end
	Stop() error
}
