// Package httpapi is the HTTP front end for the prediction service.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/core"
)

// availableEndpoints is the discovery list returned on unmatched routes
var availableEndpoints = []string{"/", "/health", "/info", "/predict"}

// Server serves the prediction API over HTTP
type Server struct {
	echo       *echo.Echo
	service    *core.PredictionService
	logger     *zap.Logger
	listenAddr string
	apiName    string
	apiVersion string
}

// NewServer creates a new HTTP API server
func NewServer(
	service *core.PredictionService,
	logger *zap.Logger,
	listenAddr string,
	apiName string,
	apiVersion string,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		echo:       e,
		service:    service,
		logger:     logger,
		listenAddr: listenAddr,
		apiName:    apiName,
		apiVersion: apiVersion,
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("Handled request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	// Routing errors and recovered panics all surface as a JSON error object
	e.HTTPErrorHandler = server.handleError

	// Routes
	e.GET("/", server.handleRoot)
	e.GET("/health", server.handleHealth)
	e.GET("/info", server.handleInfo)
	e.POST("/predict", server.handlePredict)

	return server
}

// handleError converts routing-level and unexpected errors to the structured
// error shape; no error ever escapes as a bare transport failure.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he, ok := err.(*echo.HTTPError)
	switch {
	case ok && he.Code == http.StatusNotFound:
		_ = c.JSON(http.StatusNotFound, notFoundResponse{
			Error:              "Endpoint not found",
			AvailableEndpoints: availableEndpoints,
		})
	case ok && he.Code == http.StatusMethodNotAllowed:
		_ = c.JSON(http.StatusMethodNotAllowed, errorResponse{
			Error: "Method not allowed for this endpoint",
		})
	default:
		s.logger.Error("Unexpected request error",
			zap.Error(err),
			zap.String("path", c.Request().URL.Path))
		_ = c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "Internal server error",
		})
	}
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	s.logger.Info("HTTP API starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.echo.Start(s.listenAddr); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP API")
	return s.echo.Shutdown(ctx)
}

// ProcessEmail classifies a parsed email through the same service the
// /predict endpoint uses
func (s *Server) ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error) {
	return s.service.AnalyzeEmail(ctx, email)
}
