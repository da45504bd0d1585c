// Package action implements the intent-to-action engine: routing free text
// to a side effect through the model, with validation and fallbacks.
package action

import (
	"strings"

	"assistant_server/core/domain"
)

var mailTokens = []string{"correo", "email", "enviar", "mandar"}

var calendarTokens = []string{"evento", "reunión", "reunion", "cita", "calendario"}

// Classify resolves which action a message targets. An explicit hint wins
// outright. Keyword routing is ordered: mail tokens are checked before
// scheduling tokens, so a message containing both resolves to mail.
// Pure function; unmatched text always yields IntentNone.
func Classify(text string, hint domain.Intent) domain.Intent {
	if hint == domain.IntentSendMessage || hint == domain.IntentCreateEvent {
		return hint
	}

	lower := strings.ToLower(text)

	for _, tok := range mailTokens {
		if strings.Contains(lower, tok) {
			return domain.IntentSendMessage
		}
	}

	for _, tok := range calendarTokens {
		if strings.Contains(lower, tok) {
			return domain.IntentCreateEvent
		}
	}
	if strings.Contains(lower, "crear") &&
		(strings.Contains(lower, "programar") || strings.Contains(lower, "agendar")) {
		return domain.IntentCreateEvent
	}

	return domain.IntentNone
}
