package factory

import (
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/ml"
	"go.uber.org/zap"
)

// ModelFactory loads the trained artifact bundle based on configuration
type ModelFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewModelFactory creates a new model factory
func NewModelFactory(cfg *config.Config, logger *zap.Logger) *ModelFactory {
	return &ModelFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBundle loads both artifacts. The bundle is always returned; fields
// for artifacts that failed to load stay nil so the service can report an
// explicit "not loaded" state.
func (f *ModelFactory) CreateBundle() *ml.Bundle {
	modelCfg := f.cfg.GetModel()
	return ml.LoadBundle(modelCfg.VectorizerPath, modelCfg.ClassifierPath, f.logger)
}
