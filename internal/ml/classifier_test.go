package ml

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClassifier(t *testing.T) {
	path := writeArtifact(t, "classifier.json", `{
		"weights": [0.5, -0.25],
		"bias": -1.0,
		"classes": ["Safe Email", "Phishing Email"]
	}`)

	c, err := LoadClassifier(path)
	require.NoError(t, err)
	assert.Len(t, c.Weights, 2)
	assert.Equal(t, -1.0, c.Bias)
	assert.Equal(t, []string{"Safe Email", "Phishing Email"}, c.Classes)
}

func TestLoadClassifierWithoutClasses(t *testing.T) {
	path := writeArtifact(t, "classifier.json", `{"weights": [0.5], "bias": 0.0}`)

	c, err := LoadClassifier(path)
	require.NoError(t, err)
	assert.Empty(t, c.Classes)
}

func TestLoadClassifierNoWeights(t *testing.T) {
	path := writeArtifact(t, "classifier.json", `{"weights": [], "bias": 0.0}`)
	_, err := LoadClassifier(path)
	assert.ErrorContains(t, err, "no weights")
}

func TestLoadClassifierBadClassCount(t *testing.T) {
	path := writeArtifact(t, "classifier.json", `{
		"weights": [0.5],
		"bias": 0.0,
		"classes": ["a", "b", "c"]
	}`)
	_, err := LoadClassifier(path)
	assert.ErrorContains(t, err, "expected 2")
}

func TestLoadClassifierMissingFile(t *testing.T) {
	_, err := LoadClassifier(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestClassifyDimensionMismatch(t *testing.T) {
	c := &LinearClassifier{Weights: []float64{1.0, 2.0}}
	_, _, err := c.Classify([]float64{1.0})
	assert.ErrorContains(t, err, "dimensions")
}

func TestClassifyProbabilitiesSumToOne(t *testing.T) {
	c := &LinearClassifier{Weights: []float64{2.0, -1.0}, Bias: 0.5}

	for _, features := range [][]float64{{0, 0}, {1, 0}, {0, 1}, {0.3, 0.7}} {
		_, probabilities, err := c.Classify(features)
		require.NoError(t, err)
		require.Len(t, probabilities, 2)
		assert.InDelta(t, 1.0, probabilities[0]+probabilities[1], 1e-9)
	}
}

func TestClassifyReturnsClassNameWhenDeclared(t *testing.T) {
	c := &LinearClassifier{
		Weights: []float64{10.0},
		Bias:    0,
		Classes: []string{"Safe Email", "Phishing Email"},
	}

	label, probabilities, err := c.Classify([]float64{1.0})
	require.NoError(t, err)
	assert.Equal(t, "Phishing Email", label)
	assert.Greater(t, probabilities[1], 0.5)

	label, probabilities, err = c.Classify([]float64{-1.0})
	require.NoError(t, err)
	assert.Equal(t, "Safe Email", label)
	assert.Greater(t, probabilities[0], 0.5)
}

func TestClassifyReturnsIndexWithoutClasses(t *testing.T) {
	c := &LinearClassifier{Weights: []float64{10.0}, Bias: 0}

	label, _, err := c.Classify([]float64{1.0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	label, _, err = c.Classify([]float64{-1.0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}
