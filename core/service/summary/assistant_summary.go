// Package summary composes a short daily digest from the user's inbox and
// calendar.
package summary

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/logger"
)

// DigestModel writes the digest text from the collected raw material.
type DigestModel interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const digestSystemPrompt = `Eres un asistente personal. Resume en español, en pocas líneas,
los correos recientes y los próximos eventos del usuario. Destaca lo urgente.`

type Service struct {
	mail       out.MailDispatcherPort
	events     out.EventDispatcherPort
	model      DigestModel
	mailCount  int
	eventCount int
}

func NewService(mail out.MailDispatcherPort, events out.EventDispatcherPort, model DigestModel, mailCount, eventCount int) *Service {
	if mailCount <= 0 {
		mailCount = 10
	}
	if eventCount <= 0 {
		eventCount = 10
	}
	return &Service{
		mail:       mail,
		events:     events,
		model:      model,
		mailCount:  mailCount,
		eventCount: eventCount,
	}
}

// DailyDigest fetches recent mail and upcoming events in parallel, then has
// the model compose the digest. Either read failing fails the digest.
func (s *Service) DailyDigest(ctx context.Context, userKey, accessToken string) (string, error) {
	token := &oauth2.Token{AccessToken: accessToken}

	type mailResult struct {
		items []domain.MailSummary
		err   error
	}
	type eventResult struct {
		items []domain.EventSummary
		err   error
	}

	mailCh := make(chan mailResult, 1)
	eventCh := make(chan eventResult, 1)

	go func() {
		items, err := s.mail.ListRecent(ctx, token, s.mailCount)
		mailCh <- mailResult{items: items, err: err}
	}()
	go func() {
		items, err := s.events.ListUpcoming(ctx, token, s.eventCount)
		eventCh <- eventResult{items: items, err: err}
	}()

	// Whichever read errors first fails the digest; the buffered channels
	// let the slower goroutine finish on its own.
	var mails []domain.MailSummary
	var events []domain.EventSummary
	for mailCh != nil || eventCh != nil {
		select {
		case r := <-mailCh:
			if r.err != nil {
				return "", fmt.Errorf("listing recent mail: %w", r.err)
			}
			mails = r.items
			mailCh = nil
		case r := <-eventCh:
			if r.err != nil {
				return "", fmt.Errorf("listing upcoming events: %w", r.err)
			}
			events = r.items
			eventCh = nil
		}
	}

	logger.Debug("digest material for %s: %d mails, %d events", userKey, len(mails), len(events))

	if len(mails) == 0 && len(events) == 0 {
		return "No tienes correos recientes ni eventos próximos.", nil
	}

	return s.model.CompleteWithSystem(ctx, digestSystemPrompt, digestMaterial(mails, events))
}

func digestMaterial(mails []domain.MailSummary, events []domain.EventSummary) string {
	var b strings.Builder

	b.WriteString("Correos recientes:\n")
	if len(mails) == 0 {
		b.WriteString("- (ninguno)\n")
	}
	for _, m := range mails {
		fmt.Fprintf(&b, "- De %s, asunto %q: %s\n", m.From, m.Subject, m.Snippet)
	}

	b.WriteString("\nPróximos eventos:\n")
	if len(events) == 0 {
		b.WriteString("- (ninguno)\n")
	}
	for _, e := range events {
		fmt.Fprintf(&b, "- %s el %s", e.Title, e.Start.Format("02/01 15:04"))
		if e.Location != "" {
			fmt.Fprintf(&b, " en %s", e.Location)
		}
		b.WriteString("\n")
	}

	return b.String()
}
