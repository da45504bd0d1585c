package action

import (
	"regexp"
	"strings"
	"time"
)

// Heuristically extracted values are returned in the same shape the model
// produces, so validation is shared between both paths.

const (
	fallbackRecipient = "usuario@example.com"
	fallbackEventName = "Nuevo evento"
	minBodyLength     = 10
	fallbackClosing   = "Te escribo para ponerme en contacto contigo. Saludos."
)

var (
	emailAddrRe     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	quotedSubjectRe = regexp.MustCompile(`(?i)asunto\s*:?\s*["'«]([^"'»]+)["'»]`)
	markedSubjectRe = regexp.MustCompile(`(?i)(?:asunto|subject)\s*:\s*([^\n,.]+)`)
	sayingRe        = regexp.MustCompile(`(?i)(?:diciendo|dici[eé]ndole|que diga)\s+(?:que\s+)?(.+)$`)
	eventTitleRe    = regexp.MustCompile(`(?i)(?:reuni[oó]n|evento|cita)\s+(?:de|con|sobre|para)\s+(.+?)(?:\s+(?:el|la|los|las)\s+\p{L}+|\s+a\s+las\s+|\s+mañana|\s+hoy|$)`)
)

// extractEmailManually recovers send-message parameters from free text with
// regexes when the model refuses to call a tool. Never fails: every field
// has a default, trading precision for availability.
func extractEmailManually(text string) map[string]any {
	recipient := fallbackRecipient
	if addr := emailAddrRe.FindString(text); addr != "" {
		recipient = addr
	}

	subject := defaultSubject
	if m := quotedSubjectRe.FindStringSubmatch(text); m != nil {
		subject = strings.TrimSpace(m[1])
	} else if m := markedSubjectRe.FindStringSubmatch(text); m != nil {
		subject = strings.TrimSpace(m[1])
	}

	body := ""
	if m := sayingRe.FindStringSubmatch(text); m != nil {
		body = strings.TrimSpace(m[1])
	} else {
		body = stripExtractedFragments(text, recipient, subject)
	}
	if len(body) < minBodyLength {
		body = fallbackClosing
	}

	return map[string]any{
		"to":      []any{recipient},
		"subject": subject,
		"body":    body,
	}
}

// extractEventManually recovers create-event parameters from free text.
// Times come from the day/time interpreter; missing pieces fall back to the
// next business hour with a one-hour duration.
func extractEventManually(text string, now time.Time) map[string]any {
	summary := fallbackEventName
	if m := eventTitleRe.FindStringSubmatch(text); m != nil {
		summary = strings.TrimSpace(m[1])
	}

	start, end := interpretDateTime(text, now)

	return map[string]any{
		"summary": summary,
		"start":   start.Format(time.RFC3339),
		"end":     end.Format(time.RFC3339),
	}
}

// stripExtractedFragments removes the recipient and subject pieces already
// consumed, leaving whatever remains as body material.
func stripExtractedFragments(text, recipient, subject string) string {
	out := strings.ReplaceAll(text, recipient, "")
	if subject != defaultSubject {
		out = strings.ReplaceAll(out, subject, "")
	}
	for _, marker := range []string{"envía un correo", "envia un correo", "enviar un correo",
		"manda un email", "mandar un email", "con asunto", "asunto:", "a ", "para "} {
		out = strings.ReplaceAll(strings.ToLower(out), marker, " ")
	}
	return strings.Join(strings.Fields(out), " ")
}
