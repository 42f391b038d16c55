package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenbasket/greenbasket-backend/pkg/config"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

const (
	sendgridBaseURL = "https://api.sendgrid.com"
	sendPath        = "/v3/mail/send"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errLoggerRequired = errors.New("sendgrid logger is required")
)

// Client sends transactional mail through the SendGrid v3 API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	defaultFrom string
	logger      *logger.Logger
}

// Message is one outbound email. From falls back to the configured default
// sender when empty.
type Message struct {
	From     string
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// NewClient builds a SendGrid client from configuration.
func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     sendgridBaseURL,
		apiKey:      apiKey,
		defaultFrom: strings.TrimSpace(cfg.DefaultFrom),
		logger:      logg,
	}, nil
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridRequest struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

// Send delivers one message. SendGrid answers 202 on acceptance.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address required")
	}
	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = c.defaultFrom
	}
	if from == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sender address required")
	}

	content := make([]sendgridContent, 0, 2)
	if msg.TextBody != "" {
		content = append(content, sendgridContent{Type: "text/plain", Value: msg.TextBody})
	}
	if msg.HTMLBody != "" {
		content = append(content, sendgridContent{Type: "text/html", Value: msg.HTMLBody})
	}
	if len(content) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}

	body, err := json.Marshal(sendgridRequest{
		Personalizations: []sendgridPersonalization{{
			To: []sendgridAddress{{Email: msg.To, Name: msg.ToName}},
		}},
		From:    sendgridAddress{Email: from},
		Subject: msg.Subject,
		Content: content,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding mail request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "building mail request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.log(ctx, "request", "send", map[string]any{"to": msg.To, "subject": msg.Subject})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "send", map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending mail")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log(ctx, "error", "send", map[string]any{"status": resp.StatusCode})
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sendgrid responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	c.log(ctx, "response", "send", map[string]any{"status": resp.StatusCode})
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	merged := map[string]any{"component": "sendgrid", "phase": phase, "op": op}
	for k, v := range fields {
		merged[k] = v
	}
	logCtx := c.logger.WithFields(ctx, merged)
	c.logger.Info(logCtx, "sendgrid "+op)
}
