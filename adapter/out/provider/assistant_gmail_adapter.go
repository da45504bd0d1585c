// Package provider implements the Google API dispatch adapters.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"assistant_server/core/domain"
	"assistant_server/pkg/httputil"
	"assistant_server/pkg/logger"
)

// GmailAdapter implements out.MailDispatcherPort against the Gmail API.
type GmailAdapter struct {
	config *oauth2.Config
	cb     *gobreaker.CircuitBreaker
}

// GoogleConfig holds the OAuth client configuration shared by the Google
// adapters.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGmailAdapter creates a new Gmail adapter.
func NewGmailAdapter(cfg *GoogleConfig) *GmailAdapter {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			gmail.GmailSendScope,
		},
		Endpoint: google.Endpoint,
	}

	return &GmailAdapter{
		config: config,
		cb:     gobreaker.NewCircuitBreaker(newBreakerSettings("gmail-api")),
	}
}

// Send sends a new message as the token's user.
func (a *GmailAdapter) Send(ctx context.Context, token *oauth2.Token, params *domain.EmailParams) (*domain.DispatchResult, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	raw := buildRawMessage(params)
	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	var sent *gmail.Message
	cbErr := executeWithCircuitBreaker(a.cb, func() error {
		var apiErr error
		sent, apiErr = svc.Users.Messages.Send("me", gmailMsg).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, fmt.Errorf("failed to send message: %w", cbErr)
	}

	return &domain.DispatchResult{
		ExternalID: sent.Id,
		SentAt:     time.Now(),
	}, nil
}

// ListRecent returns the newest inbox messages, metadata only.
func (a *GmailAdapter) ListRecent(ctx context.Context, token *oauth2.Token, max int) ([]domain.MailSummary, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	if max <= 0 {
		max = 10
	}

	var listed *gmail.ListMessagesResponse
	cbErr := executeWithCircuitBreaker(a.cb, func() error {
		var apiErr error
		listed, apiErr = svc.Users.Messages.List("me").
			LabelIds("INBOX").
			MaxResults(int64(max)).
			Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, fmt.Errorf("failed to list messages: %w", cbErr)
	}

	summaries := make([]domain.MailSummary, 0, len(listed.Messages))
	for _, ref := range listed.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).Do()
		if err != nil {
			logger.Warn("skipping message %s: %v", ref.Id, err)
			continue
		}
		summaries = append(summaries, domain.MailSummary{
			From:    headerValue(msg, "From"),
			Subject: headerValue(msg, "Subject"),
			Snippet: msg.Snippet,
		})
	}

	return summaries, nil
}

func (a *GmailAdapter) getService(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.GoogleClient())

	return gmail.NewService(ctx, option.WithTokenSource(
		a.config.TokenSource(ctx, token),
	))
}

// buildRawMessage assembles the RFC 2822 payload. Resolved Drive files are
// shared as links rather than inlined bytes.
func buildRawMessage(params *domain.EmailParams) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(params.To, ", ")))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", params.Subject))
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(params.Body)

	if len(params.DriveAttachments) > 0 {
		buf.WriteString("\r\n\r\nArchivos adjuntos (Drive):\r\n")
		for _, fileID := range params.DriveAttachments {
			buf.WriteString(fmt.Sprintf("https://drive.google.com/file/d/%s/view\r\n", fileID))
		}
	}

	return buf.String()
}

func headerValue(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// newBreakerSettings is shared by the Google adapters: trip on sustained
// server-side failure, stay open for 30s before probing.
func newBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}
}

// executeWithCircuitBreaker counts only server-side errors against the
// breaker; client errors pass through without tripping it.
func executeWithCircuitBreaker(cb *gobreaker.CircuitBreaker, fn func() error) error {
	var clientErr error
	_, err := cb.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok {
				switch apiErr.Code {
				case 500, 502, 503, 429:
					return nil, err
				default:
					clientErr = err
					return nil, nil
				}
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	return clientErr
}
