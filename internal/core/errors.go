package core

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotLoaded is returned when the classifier bundle failed to load at startup
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrEmptyText is returned when the email text is empty after trimming whitespace
	ErrEmptyText = errors.New("email text is empty")
)

// ExtractionError wraps a failure in the feature extraction stage
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("feature extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ClassificationError wraps a failure in the classification stage
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}
