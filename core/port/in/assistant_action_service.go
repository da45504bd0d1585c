// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"

	"assistant_server/core/domain"
)

// ActionService turns free-text requests into validated side effects.
type ActionService interface {
	Execute(ctx context.Context, req *domain.ActionRequest) *domain.ActionResult
	History(ctx context.Context, userKey string) ([]domain.Message, error)
}

// SummaryService composes a short digest of recent mail and upcoming events.
type SummaryService interface {
	DailyDigest(ctx context.Context, userKey, accessToken string) (string, error)
}
