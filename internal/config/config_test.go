package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "/data/models/tfidf_vectorizer.json", cfg.GetString("model.vectorizer_path"))
	assert.Equal(t, "/data/models/phishing_model.json", cfg.GetString("model.classifier_path"))
	assert.Equal(t, "http", cfg.GetString("server.filter_type"))
	assert.Equal(t, "0.0.0.0:8000", cfg.GetString("server.listen_address"))
	assert.Equal(t, 1048576, cfg.GetInt("server.max_body_size"))
	assert.Equal(t, "Phishing Email Classification API", cfg.GetString("api.name"))
	assert.Equal(t, "1.0.0", cfg.GetString("api.version"))
	assert.Equal(t, "memory", cfg.GetString("cache.type"))
	assert.True(t, cfg.GetBool("cache.enabled"))
	assert.Empty(t, cfg.GetStringSlice("phishing.whitelisted_domains"))
	assert.Equal(t, "info", cfg.GetString("logging.level"))
}

func TestGetDuration(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	freq, err := cfg.GetDuration("cache.cleanup_frequency")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, freq)
}

func TestGetDurationInvalid(t *testing.T) {
	v := NewEmptyViper()
	v.Set("cache.ttl", "not-a-duration")
	cfg := NewFromViper(v)

	_, err := cfg.GetDuration("cache.ttl")
	assert.Error(t, err)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	payload := "model:\n  vectorizer_path: /tmp/vec.json\nserver:\n  listen_address: 127.0.0.1:9000\n"
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.GetViper().ConfigFileUsed())
	assert.Equal(t, "/tmp/vec.json", cfg.GetString("model.vectorizer_path"))
	assert.Equal(t, "127.0.0.1:9000", cfg.GetString("server.listen_address"))
	// Keys absent from the file keep their defaults
	assert.Equal(t, "/data/models/phishing_model.json", cfg.GetString("model.classifier_path"))
}

func TestNewFromFileMissing(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetModel(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	model := cfg.GetModel()
	assert.Equal(t, "/data/models/tfidf_vectorizer.json", model.VectorizerPath)
	assert.Equal(t, "/data/models/phishing_model.json", model.ClassifierPath)

	api := cfg.GetAPI()
	assert.Equal(t, "Phishing Email Classification API", api.Name)
	assert.Equal(t, "1.0.0", api.Version)
}
