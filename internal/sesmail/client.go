package sesmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/pkg/logger"
	"github.com/ignite/mail-dispatch/internal/sigv4"
)

const (
	apiAction  = "SendEmail"
	apiVersion = "2010-12-01"
	charset    = "UTF-8"
)

// Client sends one email per call through the SES classic HTTP API.
type Client struct {
	creds      sigv4.Credentials
	endpoint   string
	httpClient *http.Client
	parser     ResponseParser
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the regional SES endpoint. Used by tests to
// point the client at a local server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithParser overrides the response parser.
func WithParser(p ResponseParser) Option {
	return func(c *Client) { c.parser = p }
}

// WithClock overrides the signing timestamp source. Tests inject a
// fixed time to get reproducible signatures.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds an SES transport for the region embedded in creds.
func NewClient(creds sigv4.Credentials, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		endpoint:   fmt.Sprintf("https://email.%s.amazonaws.com/", creds.Region),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		parser:     XMLParser{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers a single message. Provider rejections (non-2xx with an
// error body) are reported through SendResult.Success=false and a nil
// error. A non-nil error means the request never completed at the
// transport level.
func (c *Client) Send(ctx context.Context, msg domain.EmailMessage) (*domain.SendResult, error) {
	body := []byte(c.formValues(msg).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := sigv4.SignRequest(c.creds, req, body, c.now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send to %s: %w", logger.RedactEmail(msg.Email), err)
	}
	defer resp.Body.Close()

	// Responses are tiny XML documents; cap the read anyway.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		messageID := c.parser.ParseMessageID(respBody)
		logger.Debug("message accepted", "email", msg.Email, "message_id", messageID)
		return &domain.SendResult{
			Success:   true,
			MessageID: messageID,
			SentAt:    c.now(),
		}, nil
	}

	errMsg := c.parser.ParseError(respBody)
	logger.Warn("message rejected", "email", msg.Email, "status", resp.StatusCode, "error", errMsg)
	return &domain.SendResult{Success: false, Error: errMsg}, nil
}

// formValues builds the SendEmail form parameters. Display names wrap
// the address in the usual "Name <addr>" form.
func (c *Client) formValues(msg domain.EmailMessage) url.Values {
	source := msg.FromEmail
	if msg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}

	v := url.Values{}
	v.Set("Action", apiAction)
	v.Set("Version", apiVersion)
	v.Set("Source", source)
	v.Set("Destination.ToAddresses.member.1", msg.Email)
	v.Set("Message.Subject.Data", msg.Subject)
	v.Set("Message.Subject.Charset", charset)
	v.Set("Message.Body.Html.Data", msg.HTMLContent)
	v.Set("Message.Body.Html.Charset", charset)
	if msg.TextContent != "" {
		v.Set("Message.Body.Text.Data", msg.TextContent)
		v.Set("Message.Body.Text.Charset", charset)
	}
	return v
}
