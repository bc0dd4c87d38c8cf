package config

// ModelConfig represents the configuration for the trained artifacts
type ModelConfig struct {
	VectorizerPath string
	ClassifierPath string
}

// APIConfig represents the static API metadata served by the info endpoints
type APIConfig struct {
	Name    string
	Version string
}

// GetModel returns the model artifact configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		VectorizerPath: c.GetString("model.vectorizer_path"),
		ClassifierPath: c.GetString("model.classifier_path"),
	}
}

// GetAPI returns the API metadata configuration
func (c *Config) GetAPI() APIConfig {
	return APIConfig{
		Name:    c.GetString("api.name"),
		Version: c.GetString("api.version"),
	}
}
