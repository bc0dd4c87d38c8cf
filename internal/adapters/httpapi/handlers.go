package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

type notFoundResponse struct {
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints"`
}

// predictRequest keeps the text field raw so a missing field, a non-string
// field and an empty string each get their own validation error
type predictRequest struct {
	EmailText json.RawMessage `json:"email_text"`
}

type predictDetails struct {
	EmailLength int  `json:"email_length"`
	Processed   bool `json:"processed"`
}

type predictResponse struct {
	Success    bool            `json:"success"`
	Prediction int             `json:"prediction"`
	Label      string          `json:"label"`
	Confidence core.Confidence `json:"confidence"`
	RiskLevel  core.RiskLevel  `json:"risk_level"`
	Details    predictDetails  `json:"details"`
}

func (s *Server) handleRoot(c echo.Context) error {
	modelStatus := "loaded"
	if !s.service.Ready() {
		modelStatus = "not loaded"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":      s.apiName,
		"status":       "running",
		"model_status": modelStatus,
		"endpoints": map[string]string{
			"/":        "Service banner and readiness",
			"/health":  "Readiness probe",
			"/info":    "API documentation",
			"/predict": "POST raw email text for classification",
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	status := "healthy"
	if !s.service.Ready() {
		status = "unhealthy"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":            status,
		"model_loaded":      s.service.Ready(),
		"vectorizer_loaded": s.service.VectorizerLoaded(),
		"classifier_loaded": s.service.ClassifierLoaded(),
	})
}

func (s *Server) handleInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"api_name":    s.apiName,
		"version":     s.apiVersion,
		"description": "Classifies raw email text as phishing or safe using a pre-trained model",
		"input_format": map[string]string{
			"email_text": "string - the raw email text to classify",
		},
		"output_format": map[string]string{
			"prediction": "0 (safe) or 1 (phishing)",
			"label":      "safe email | phishing email",
			"confidence": "probability for each class, summing to 1.0",
			"risk_level": "LOW | MEDIUM | HIGH, derived from the phishing probability",
		},
	})
}

// handlePredict validates the request body and runs the prediction pipeline.
// The validation order is fixed: readiness, body, field presence, field type,
// emptiness; the first failing check wins.
func (s *Server) handlePredict(c echo.Context) error {
	if !s.service.Ready() {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "Model not loaded. Check the service logs for artifact errors.",
		})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No data provided"})
	}

	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No data provided"})
	}

	if req.EmailText == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing required field: email_text"})
	}

	// A JSON null unmarshals into a string as a no-op, so reject it explicitly
	var text string
	if bytes.Equal(bytes.TrimSpace(req.EmailText), []byte("null")) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Field email_text must be a string"})
	}
	if err := json.Unmarshal(req.EmailText, &text); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Field email_text must be a string"})
	}

	if strings.TrimSpace(text) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Field email_text is empty"})
	}

	result, err := s.service.Classify(c.Request().Context(), text)
	if err != nil {
		return s.predictError(c, err)
	}

	return c.JSON(http.StatusOK, predictResponse{
		Success:    true,
		Prediction: result.Prediction,
		Label:      result.Label,
		Confidence: result.Confidence,
		RiskLevel:  result.RiskLevel,
		Details: predictDetails{
			EmailLength: result.EmailLength,
			Processed:   true,
		},
	})
}

// predictError maps each pipeline failure kind to its documented status code.
// The caller only ever sees a generic message; the offending stage is logged
// by the service.
func (s *Server) predictError(c echo.Context, err error) error {
	var extractionErr *core.ExtractionError
	var classificationErr *core.ClassificationError

	switch {
	case errors.Is(err, core.ErrModelNotLoaded):
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "Model not loaded. Check the service logs for artifact errors.",
		})
	case errors.Is(err, core.ErrEmptyText):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Field email_text is empty"})
	case errors.As(err, &extractionErr):
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error processing email: feature extraction failed"})
	case errors.As(err, &classificationErr):
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error processing email: classification failed"})
	default:
		s.logger.Error("Unexpected prediction error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
