package factory

import (
	"fmt"

	"github.com/mikey/phishing-filter/internal/adapters/filter"
	"github.com/mikey/phishing-filter/internal/adapters/httpapi"
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/ports"
	"github.com/mikey/phishing-filter/internal/utils"
	"go.uber.org/zap"
)

// FilterFactory creates classification front ends based on configuration
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       *core.PredictionService
	textProcessor *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.PredictionService,
	textProcessor *utils.TextProcessor,
) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		textProcessor: textProcessor,
	}
}

// CreateEmailFilter creates a front end based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "http":
		apiCfg := f.cfg.GetAPI()
		return httpapi.NewServer(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			apiCfg.Name,
			apiCfg.Version,
		), nil
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			f.textProcessor,
			f.cfg.GetString("server.smtp_listen_address"),
			f.cfg.GetBool("server.block_phishing"),
			f.cfg.GetString("server.headers.status"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.risk"),
			f.cfg.GetString("server.postfix.address"),
			f.cfg.GetInt("server.postfix.port"),
			f.cfg.GetBool("server.postfix.enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
			f.cfg.GetInt("server.max_body_size"),
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
