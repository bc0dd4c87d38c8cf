package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{"Example.COM ", "corp.test"}, zap.NewNop())

	assert.True(t, checker.IsWhitelisted("alice@example.com"))
	assert.True(t, checker.IsWhitelisted("bob@EXAMPLE.COM"))
	assert.True(t, checker.IsWhitelisted("carol@corp.test"))
	assert.False(t, checker.IsWhitelisted("mallory@evil.test"))
}

func TestIsWhitelistedMalformedSender(t *testing.T) {
	checker := NewChecker([]string{"example.com"}, zap.NewNop())

	assert.False(t, checker.IsWhitelisted("no-at-sign"))
	assert.False(t, checker.IsWhitelisted("two@signs@example.com"))
	assert.False(t, checker.IsWhitelisted(""))
}

func TestIsWhitelistedEmptyList(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	assert.False(t, checker.IsWhitelisted("alice@example.com"))
}
