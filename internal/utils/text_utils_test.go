package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "hello", tp.TruncateText("hello", 10))
	assert.Equal(t, "hello", tp.TruncateText("hello world", 5))
	assert.Equal(t, "hello world", tp.TruncateText("hello world", 0))
}

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "héllo" is 6 bytes; cutting at 2 would split the é sequence
	truncated := tp.TruncateText("héllo", 2)
	assert.True(t, utf8.ValidString(truncated))
	assert.Equal(t, "h", truncated)
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean text", tp.SanitizeUTF8("clean text"))

	dirty := "bad" + string([]byte{0xff, 0xfe}) + "bytes"
	sanitized := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(sanitized))
	assert.Equal(t, "badbytes", sanitized)
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	long := strings.Repeat("a", 100) + string([]byte{0xff})
	processed := tp.ProcessText(long, 50)
	assert.Len(t, processed, 50)
	assert.True(t, utf8.ValidString(processed))
}
