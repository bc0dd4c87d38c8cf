package filter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/mikey/phishing-filter/internal/utils"
)

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it concatenates the text/plain parts; attachments
// and nested multiparts are skipped. The result is truncated to maxBodySize
// bytes on a rune boundary and sanitized to valid UTF-8.
func extractTextFromMessage(msg *mail.Message, tp *utils.TextProcessor, maxBodySize int) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		return readBody(msg.Body, tp, maxBodySize)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable Content-Type, treat the body as plain text
		return readBody(msg.Body, tp, maxBodySize)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return readBody(msg.Body, tp, maxBodySize)
	}

	boundary, ok := params["boundary"]
	if !ok {
		return readBody(msg.Body, tp, maxBodySize)
	}

	mr := multipart.NewReader(msg.Body, boundary)

	var textContent bytes.Buffer
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if textContent.Len() > 0 {
				return tp.ProcessText(textContent.String(), maxBodySize), nil
			}
			return readBody(msg.Body, tp, maxBodySize)
		}

		partContentType := strings.ToLower(part.Header.Get("Content-Type"))
		if strings.Contains(partContentType, "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue // Skip this part if we can't read it
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		}
		// Skip attachments and nested multiparts
	}

	if textContent.Len() > 0 {
		return tp.ProcessText(textContent.String(), maxBodySize), nil
	}

	// No text part found; the empty body surfaces as an empty-text error
	// downstream instead of classifying a placeholder
	return "", nil
}

// decodeEncodedHeader decodes RFC 2047 encoded-word headers
func decodeEncodedHeader(value string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}

func readBody(r io.Reader, tp *utils.TextProcessor, maxBodySize int) (string, error) {
	bodyBytes, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return tp.ProcessText(string(bodyBytes), maxBodySize), nil
}
