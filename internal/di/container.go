package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/factory"
	"github.com/mikey/phishing-filter/internal/logging"
	"github.com/mikey/phishing-filter/internal/ml"
	"github.com/mikey/phishing-filter/internal/ports"
	"github.com/mikey/phishing-filter/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewModelFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register the text processor used by the SMTP front end
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register the artifact bundle
	if err := container.Provide(func(f *factory.ModelFactory) *ml.Bundle {
		return f.CreateBundle()
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register prediction service
	if err := container.Provide(func(
		bundle *ml.Bundle,
		cacheRepo core.CacheRepository,
		cacheFactory *factory.CacheFactory,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.PredictionService, error) {
		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}

		// Assign separately so an unloaded artifact stays a nil interface
		var extractor core.FeatureExtractor
		if bundle.Vectorizer != nil {
			extractor = bundle.Vectorizer
		}
		var classifier core.Classifier
		if bundle.Classifier != nil {
			classifier = bundle.Classifier
		}

		whitelistedDomains := cfg.GetStringSlice("phishing.whitelisted_domains")
		if len(whitelistedDomains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", whitelistedDomains))
		}

		return core.NewPredictionService(
			extractor,
			classifier,
			cacheRepo,
			logger,
			cacheFactory.IsCacheEnabled(),
			cacheTTL,
			whitelistedDomains,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register email filter front end
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
