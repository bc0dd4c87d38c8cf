package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/ml"
)

func testVectorizer() *ml.TfidfVectorizer {
	return &ml.TfidfVectorizer{
		Vocabulary: map[string]int{
			"congratulations": 0, "won": 1, "free": 2, "prize": 3, "click": 4,
			"claim": 5, "lunch": 6, "meet": 7, "tomorrow": 8, "noon": 9,
		},
		Idf:       []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		Lowercase: true,
	}
}

func testClassifier() *ml.LinearClassifier {
	return &ml.LinearClassifier{
		Weights: []float64{4, 4, 4, 4, 4, 4, -4, -4, -4, -4},
		Bias:    -1,
		Classes: []string{"Safe Email", "Phishing Email"},
	}
}

func newTestServer(t *testing.T, ready bool) *Server {
	t.Helper()

	var extractor core.FeatureExtractor
	var classifier core.Classifier
	if ready {
		extractor = testVectorizer()
		classifier = testClassifier()
	}

	service := core.NewPredictionService(extractor, classifier, nil, zap.NewNop(), false, 0, nil)
	return NewServer(service, zap.NewNop(), "127.0.0.1:0", "Phishing Email Classification API", "1.0.0")
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRootEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(t, true), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "Phishing Email Classification API", payload["message"])
	assert.Equal(t, "running", payload["status"])
	assert.Equal(t, "loaded", payload["model_status"])
	assert.Contains(t, payload, "endpoints")
}

func TestRootEndpointModelNotLoaded(t *testing.T) {
	rec := doRequest(newTestServer(t, false), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "running", payload["status"])
	assert.Equal(t, "not loaded", payload["model_status"])
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(t, true), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, true, payload["model_loaded"])
	assert.Equal(t, true, payload["vectorizer_loaded"])
	assert.Equal(t, true, payload["classifier_loaded"])
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	rec := doRequest(newTestServer(t, false), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "unhealthy", payload["status"])
	assert.Equal(t, false, payload["model_loaded"])
}

func TestInfoEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(t, true), http.MethodGet, "/info", "")

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "Phishing Email Classification API", payload["api_name"])
	assert.Equal(t, "1.0.0", payload["version"])
	assert.Contains(t, payload, "input_format")
	assert.Contains(t, payload, "output_format")
}

func TestUnknownEndpointReturns404WithDiscovery(t *testing.T) {
	rec := doRequest(newTestServer(t, true), http.MethodGet, "/nope", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "Endpoint not found", payload["error"])
	assert.Equal(t, []any{"/", "/health", "/info", "/predict"}, payload["available_endpoints"])
}

func TestWrongMethodReturns405(t *testing.T) {
	server := newTestServer(t, true)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/predict"},
		{http.MethodPost, "/health"},
		{http.MethodDelete, "/"},
	} {
		rec := doRequest(server, tc.method, tc.path, "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
		payload := decodeBody(t, rec)
		assert.Equal(t, "Method not allowed for this endpoint", payload["error"])
	}
}

func TestPredictModelNotLoaded(t *testing.T) {
	rec := doRequest(newTestServer(t, false), http.MethodPost, "/predict", `{"email_text": "hello"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	payload := decodeBody(t, rec)
	assert.Contains(t, payload["error"], "Model not loaded")
}

func TestPredictValidationLadder(t *testing.T) {
	server := newTestServer(t, true)

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"no body", "", "No data provided"},
		{"whitespace body", "   \n", "No data provided"},
		{"invalid json", "{not json", "No data provided"},
		{"missing field", `{"text": "hello"}`, "Missing required field: email_text"},
		{"null field", `{"email_text": null}`, "Field email_text must be a string"},
		{"numeric field", `{"email_text": 42}`, "Field email_text must be a string"},
		{"array field", `{"email_text": ["a"]}`, "Field email_text must be a string"},
		{"empty string", `{"email_text": ""}`, "Field email_text is empty"},
		{"whitespace string", `{"email_text": "  \n\t "}`, "Field email_text is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(server, http.MethodPost, "/predict", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			payload := decodeBody(t, rec)
			assert.Equal(t, tt.expected, payload["error"])
		})
	}
}

func TestPredictPhishingEmail(t *testing.T) {
	server := newTestServer(t, true)
	rec := doRequest(server, http.MethodPost, "/predict",
		`{"email_text": "Congratulations! You have won a free prize, click here to claim"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(1), payload["prediction"])
	assert.Equal(t, "phishing email", payload["label"])
	assert.Equal(t, "HIGH", payload["risk_level"])

	confidence := payload["confidence"].(map[string]any)
	safe := confidence["safe"].(float64)
	phishing := confidence["phishing"].(float64)
	assert.InDelta(t, 1.0, safe+phishing, 1e-9)
	assert.Greater(t, phishing, 0.9)

	details := payload["details"].(map[string]any)
	assert.Equal(t, true, details["processed"])
	assert.Equal(t, float64(63), details["email_length"])
}

func TestPredictSafeEmail(t *testing.T) {
	server := newTestServer(t, true)
	rec := doRequest(server, http.MethodPost, "/predict",
		`{"email_text": "Let's meet for lunch tomorrow at noon"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(0), payload["prediction"])
	assert.Equal(t, "safe email", payload["label"])
	assert.Equal(t, "LOW", payload["risk_level"])
}

func TestPredictEmailLengthCountsRunesOfTrimmedText(t *testing.T) {
	server := newTestServer(t, true)
	rec := doRequest(server, http.MethodPost, "/predict", `{"email_text": "  héllo wörld  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	details := payload["details"].(map[string]any)
	assert.Equal(t, float64(11), details["email_length"])
}

func TestPredictIsDeterministic(t *testing.T) {
	server := newTestServer(t, true)
	body := `{"email_text": "free prize inside"}`

	first := decodeBody(t, doRequest(server, http.MethodPost, "/predict", body))
	second := decodeBody(t, doRequest(server, http.MethodPost, "/predict", body))
	assert.Equal(t, first, second)
}

func TestStartAndStop(t *testing.T) {
	server := newTestServer(t, true)
	require.NoError(t, server.Start())
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, server.Stop())
}
