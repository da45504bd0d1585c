// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"golang.org/x/oauth2"

	"assistant_server/core/domain"
)

// MailDispatcherPort sends mail on the user's behalf.
type MailDispatcherPort interface {
	Send(ctx context.Context, token *oauth2.Token, params *domain.EmailParams) (*domain.DispatchResult, error)
	ListRecent(ctx context.Context, token *oauth2.Token, max int) ([]domain.MailSummary, error)
}

// EventDispatcherPort creates calendar events on the user's behalf.
type EventDispatcherPort interface {
	Create(ctx context.Context, token *oauth2.Token, params *domain.EventParams) (*domain.DispatchResult, error)
	ListUpcoming(ctx context.Context, token *oauth2.Token, max int) ([]domain.EventSummary, error)
}

// FileStorePort searches the user's cloud file storage.
type FileStorePort interface {
	// FindByName returns files whose name matches exactly.
	FindByName(ctx context.Context, token *oauth2.Token, name string) ([]domain.FileCandidate, error)
	// SearchByName returns up to max files whose name contains the given text.
	SearchByName(ctx context.Context, token *oauth2.Token, name string, max int) ([]domain.FileCandidate, error)
}

// ConversationStorePort persists the per-user message log.
// Append is ordered per user; History returns messages oldest first.
type ConversationStorePort interface {
	Append(ctx context.Context, userKey string, msg domain.Message) error
	History(ctx context.Context, userKey string) ([]domain.Message, error)
}
