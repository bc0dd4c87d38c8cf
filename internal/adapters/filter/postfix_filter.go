package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/utils"
)

// PostfixFilter implements a Postfix content filter: it accepts mail over
// SMTP, classifies the text content, stamps verdict headers and re-injects
// the message into Postfix.
type PostfixFilter struct {
	service        *core.PredictionService
	logger         *zap.Logger
	textProcessor  *utils.TextProcessor
	listenAddr     string
	server         *smtp.Server
	blockPhishing  bool
	statusHeader   string
	scoreHeader    string
	riskHeader     string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
	maxBodySize    int
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.PredictionService,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	listenAddr string,
	blockPhishing bool,
	statusHeader string,
	scoreHeader string,
	riskHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
	maxBodySize int,
) *PostfixFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**PHISHING**] "
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		textProcessor:  textProcessor,
		listenAddr:     listenAddr,
		blockPhishing:  blockPhishing,
		statusHeader:   statusHeader,
		scoreHeader:    scoreHeader,
		riskHeader:     riskHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
		maxBodySize:    maxBodySize,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail classifies an email directly, bypassing SMTP transport
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// sendToPostfix re-injects the processed email into Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	_, err = wc.Write(emailData)
	if err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
		// The email has already been sent at this point
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for this filter)
func (s *smtpSession) AuthPlain(_, _ string) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the email data: classify, stamp verdict headers, re-inject
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg, s.filter.textProcessor, s.filter.maxBodySize)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	email := &core.Email{
		Headers: make(map[string][]string),
		Body:    textContent,
		From:    s.sender,
		To:      s.recipients,
	}

	for key, values := range msg.Header {
		email.Headers[key] = values

		if strings.EqualFold(key, "Subject") && len(values) > 0 {
			email.Subject = values[0]
		}
	}

	senderDomain := "unknown"
	if parts := strings.Split(email.From, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, analysisErr := s.filter.service.AnalyzeEmail(ctx, email)
	if analysisErr != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", email.From),
			zap.String("sender_domain", senderDomain))

		// Deliver the mail unclassified rather than bouncing it on an
		// internal failure
		result = core.RebuildResult(0, 0.0, 0, time.Now())
		result.ModelUsed = "error"
	}

	isPhishing := result.Prediction == 1

	if isPhishing && s.filter.blockPhishing && analysisErr == nil {
		s.filter.logger.Info("Rejecting phishing email",
			zap.String("from", email.From),
			zap.String("sender_domain", senderDomain),
			zap.Float64("phishing", result.Confidence.Phishing),
			zap.String("risk_level", string(result.RiskLevel)))
		return fmt.Errorf("550 Rejected as phishing (score: %.2f)", result.Confidence.Phishing)
	}

	var modifiedEmail bytes.Buffer

	// Stamp the verdict headers first
	fmt.Fprintf(&modifiedEmail, "%s: %t\r\n", s.filter.statusHeader, isPhishing)
	fmt.Fprintf(&modifiedEmail, "%s: %.4f\r\n", s.filter.scoreHeader, result.Confidence.Phishing)
	fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.riskHeader, result.RiskLevel)

	if analysisErr != nil {
		fmt.Fprintf(&modifiedEmail, "X-Phishing-Analysis-Error: %s\r\n", analysisErr.Error())
	}

	if isPhishing && s.filter.modifySubject && s.filter.subjectPrefix != "" {
		originalSubject := msg.Header.Get("Subject")

		decodedSubject, err := decodeEncodedHeader(originalSubject)
		if err != nil {
			decodedSubject = originalSubject
		}

		if !strings.HasPrefix(decodedSubject, s.filter.subjectPrefix) {
			fmt.Fprintf(&modifiedEmail, "Subject: %s\r\n", s.filter.subjectPrefix+decodedSubject)

			for key, values := range msg.Header {
				if !strings.EqualFold(key, "Subject") {
					for _, value := range values {
						fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", key, value)
					}
				}
			}
		} else {
			writeHeaders(&modifiedEmail, msg.Header)
		}
	} else {
		writeHeaders(&modifiedEmail, msg.Header)
	}

	fmt.Fprintf(&modifiedEmail, "\r\n")

	// Write the original body, preserving MIME parts and attachments
	bodyStartIndex := bytes.Index(rawData, []byte("\r\n\r\n"))
	if bodyStartIndex == -1 {
		bodyStartIndex = bytes.Index(rawData, []byte("\n\n"))
		if bodyStartIndex == -1 {
			bodyBytes, err := io.ReadAll(msg.Body)
			if err != nil {
				s.filter.logger.Error("Failed to read message body", zap.Error(err))
				return err
			}
			modifiedEmail.Write(bodyBytes)
		} else {
			modifiedEmail.Write(rawData[bodyStartIndex+2:])
		}
	} else {
		modifiedEmail.Write(rawData[bodyStartIndex+4:])
	}

	if s.filter.postfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modifiedEmail.Bytes()); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", senderDomain),
		zap.Bool("is_phishing", isPhishing),
		zap.Float64("phishing", result.Confidence.Phishing),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.String("model", result.ModelUsed))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

func writeHeaders(buf *bytes.Buffer, header mail.Header) {
	for key, values := range header {
		for _, value := range values {
			fmt.Fprintf(buf, "%s: %s\r\n", key, value)
		}
	}
}
