package action

import (
	"regexp"
	"strings"
	"time"

	"assistant_server/core/domain"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

const (
	defaultSubject = "Sin asunto"
	defaultBody    = "Mensaje enviado desde tu asistente."
)

var addressRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validator turns raw model output into checked, typed parameters.
// Pure except for the injected clock.
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt fixes the clock, for deterministic date correction.
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// ValidateEmail checks and normalizes raw send-message parameters.
// Recipients are required; subject and body fall back to placeholders.
func (v *Validator) ValidateEmail(raw map[string]any) (*domain.EmailParams, error) {
	to := normalizeRecipients(raw["to"])
	if len(to) == 0 {
		return nil, apperr.MissingRecipient()
	}

	subject := strings.TrimSpace(asString(raw["subject"]))
	if subject == "" {
		subject = defaultSubject
	}
	body := strings.TrimSpace(asString(raw["body"]))
	if body == "" {
		body = defaultBody
	}

	return &domain.EmailParams{
		To:               to,
		Subject:          subject,
		Body:             body,
		DriveAttachments: asStringSlice(raw["drive_attachments"]),
	}, nil
}

// ValidateEvent checks raw create-event parameters against the original
// text. Implausible dates are re-derived from the text instead of trusted:
// the model sometimes anchors dates to its training cutoff rather than the
// actual current date.
func (v *Validator) ValidateEvent(text string, raw map[string]any) (*domain.EventParams, error) {
	summary := strings.TrimSpace(asString(raw["summary"]))
	if summary == "" {
		return nil, apperr.MissingTitle()
	}

	now := v.now()

	start, startOK := parseDateTime(asString(raw["start"]), now.Location())
	end, endOK := parseDateTime(asString(raw["end"]), now.Location())

	if !startOK || dateImplausible(start, now, text) {
		correctedStart, correctedEnd := interpretDateTime(text, now)
		if startOK {
			logger.Warn("implausible event date %s corrected to %s", start.Format(time.RFC3339), correctedStart.Format(time.RFC3339))
		}
		start, end = correctedStart, correctedEnd
	} else if !endOK {
		end = start.Add(time.Hour)
	}

	if !end.After(start) {
		return nil, apperr.InvalidDateRange("end is not after start")
	}

	return &domain.EventParams{
		Summary:  summary,
		Start:    start,
		End:      end,
		Location: strings.TrimSpace(asString(raw["location"])),
	}, nil
}

// dateImplausible reports whether a model-proposed date should be
// re-derived: a year before the current one, or a past date with no
// explicit same-day marker in the text.
func dateImplausible(start, now time.Time, text string) bool {
	if start.Year() < now.Year() {
		return true
	}
	if start.Before(now) && !hasSameDayMarker(text) {
		return true
	}
	return false
}

func parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeRecipients coerces the model's "to" value to a validated slice.
// A bare string becomes a one-element slice; invalid addresses are dropped.
func normalizeRecipients(value any) []string {
	var candidates []string
	switch v := value.(type) {
	case string:
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }) {
			candidates = append(candidates, strings.TrimSpace(part))
		}
	case []string:
		candidates = v
	case []any:
		for _, item := range v {
			candidates = append(candidates, strings.TrimSpace(asString(item)))
		}
	}

	var out []string
	for _, addr := range candidates {
		if addressRe.MatchString(addr) {
			out = append(out, addr)
		}
	}
	return out
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
