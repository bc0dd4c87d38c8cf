package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/factory"
	"github.com/mikey/phishing-filter/internal/logging"
	"github.com/mikey/phishing-filter/internal/utils"
	"github.com/mikey/phishing-filter/internal/whitelist"
)

var (
	// Model artifact flags
	vectorizerPath = flag.String("vectorizer", "", "Path to the TF-IDF vectorizer artifact")
	classifierPath = flag.String("model", "", "Path to the classifier artifact")
	maxBodySize    = flag.Int("max-body-size", 1048576, "Maximum email body size to classify")

	// Detection flags
	whitelistDomains = flag.String("whitelist", "", "Comma-separated list of whitelisted domains")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Load the artifact bundle
	modelFactory := factory.NewModelFactory(cfg, logger)
	bundle := modelFactory.CreateBundle()
	if !bundle.Ready() {
		logger.Fatal("Failed to load model artifacts",
			zap.String("vectorizer_path", cfg.GetString("model.vectorizer_path")),
			zap.String("classifier_path", cfg.GetString("model.classifier_path")))
	}

	// Parse whitelisted domains
	var whitelistedDomains []string
	if *whitelistDomains != "" {
		whitelistedDomains = strings.Split(*whitelistDomains, ",")
		for i, domain := range whitelistedDomains {
			whitelistedDomains[i] = strings.TrimSpace(domain)
		}
	} else {
		whitelistedDomains = cfg.GetStringSlice("phishing.whitelisted_domains")
	}

	if len(whitelistedDomains) > 0 {
		logger.Info("Using whitelisted domains", zap.Strings("domains", whitelistedDomains))
	}

	// Create whitelist checker
	whitelistChecker := whitelist.NewChecker(whitelistedDomains, logger)

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	from := msg.Header.Get("From")
	to := msg.Header.Get("To")
	subject := msg.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}

	// Sanitize and cap the body before classification
	textProcessor := utils.NewTextProcessor(logger)
	body := textProcessor.ProcessText(string(bodyBytes), cfg.GetInt("server.max_body_size"))

	email := &core.Email{
		From:    from,
		To:      strings.Split(to, ","),
		Subject: subject,
		Body:    body,
		Headers: make(map[string][]string),
	}

	for k, v := range msg.Header {
		email.Headers[k] = v
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("To: %s\n", to)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))
	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	startTime := time.Now()

	// Check if sender domain is whitelisted
	if whitelistChecker.IsWhitelisted(from) {
		fmt.Printf("\n=== Results ===\n")
		fmt.Printf("Prediction: 0 (%s) - sender domain is whitelisted\n", core.LabelSafe)
		fmt.Printf("Confidence (phishing): 0.0\n")
		fmt.Printf("Risk level: %s\n", core.RiskLow)
		fmt.Printf("Processing time: %v\n", time.Since(startTime))
		return
	}

	service := core.NewPredictionService(
		bundle.Vectorizer,
		bundle.Classifier,
		nil,
		logger,
		false,
		0,
		whitelistedDomains,
	)

	result, err := service.AnalyzeEmail(context.Background(), email)
	if err != nil {
		logger.Fatal("Failed to classify email", zap.Error(err))
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Prediction: %d (%s)\n", result.Prediction, result.Label)
	fmt.Printf("Confidence (safe): %.4f\n", result.Confidence.Safe)
	fmt.Printf("Confidence (phishing): %.4f\n", result.Confidence.Phishing)
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	fmt.Printf("Email length: %d\n", result.EmailLength)
	fmt.Printf("Processing time: %v\n", duration)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	if *vectorizerPath != "" {
		v.Set("model.vectorizer_path", *vectorizerPath)
	}
	if *classifierPath != "" {
		v.Set("model.classifier_path", *classifierPath)
	}
	v.Set("server.max_body_size", *maxBodySize)

	if *whitelistDomains != "" {
		domains := strings.Split(*whitelistDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("phishing.whitelisted_domains", domains)
	} else {
		v.Set("phishing.whitelisted_domains", []string{})
	}

	return config.NewFromViper(v)
}
