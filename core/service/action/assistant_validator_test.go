package action

import (
	"testing"
	"time"

	"assistant_server/pkg/apperr"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestValidateEmailCoercesBareString(t *testing.T) {
	v := NewValidator()

	params, err := v.ValidateEmail(map[string]any{
		"to":      "ana@x.com",
		"subject": "Hola",
		"body":    "llego tarde",
	})
	if err != nil {
		t.Fatalf("ValidateEmail returned error: %v", err)
	}
	if len(params.To) != 1 || params.To[0] != "ana@x.com" {
		t.Errorf("to = %v, want [ana@x.com]", params.To)
	}
}

func TestValidateEmailDropsInvalidAddresses(t *testing.T) {
	v := NewValidator()

	params, err := v.ValidateEmail(map[string]any{
		"to": []any{"not-an-address", "luis@empresa.es"},
	})
	if err != nil {
		t.Fatalf("ValidateEmail returned error: %v", err)
	}
	if len(params.To) != 1 || params.To[0] != "luis@empresa.es" {
		t.Errorf("to = %v, want [luis@empresa.es]", params.To)
	}
}

func TestValidateEmailMissingRecipient(t *testing.T) {
	v := NewValidator()

	for _, raw := range []map[string]any{
		{},
		{"to": ""},
		{"to": []any{}},
		{"to": "sin arroba"},
	} {
		if _, err := v.ValidateEmail(raw); !apperr.IsCode(err, apperr.CodeMissingRecipient) {
			t.Errorf("ValidateEmail(%v) error = %v, want %s", raw, err, apperr.CodeMissingRecipient)
		}
	}
}

func TestValidateEmailDefaultsBlankFields(t *testing.T) {
	v := NewValidator()

	params, err := v.ValidateEmail(map[string]any{"to": "ana@x.com"})
	if err != nil {
		t.Fatalf("ValidateEmail returned error: %v", err)
	}
	if params.Subject == "" {
		t.Error("blank subject was not defaulted")
	}
	if params.Body == "" {
		t.Error("blank body was not defaulted")
	}
}

func TestValidateEventMissingTitle(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	_, err := v.ValidateEvent("crea un evento mañana", map[string]any{"start": "2025-06-02T10:00:00"})
	if !apperr.IsCode(err, apperr.CodeMissingTitle) {
		t.Errorf("error = %v, want %s", err, apperr.CodeMissingTitle)
	}
}

func TestValidateEventCorrectsImplausibleDate(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	params, err := v.ValidateEvent("Crea una reunión mañana a las 10", map[string]any{
		"summary": "Reunión",
		"start":   "2023-01-10T10:00:00",
		"end":     "2023-01-10T11:00:00",
	})
	if err != nil {
		t.Fatalf("ValidateEvent returned error: %v", err)
	}
	if params.Start.Year() < 2025 {
		t.Errorf("start year = %d, want >= 2025", params.Start.Year())
	}
	if params.Start.Year() == 2023 {
		t.Error("erroneous model date was trusted verbatim")
	}
	if got := params.Start.Day(); got != 2 {
		t.Errorf("start day = %d, want 2 (mañana from 2025-06-01)", got)
	}
	if params.Start.Hour() != 10 {
		t.Errorf("start hour = %d, want 10", params.Start.Hour())
	}
	if !params.End.After(params.Start) {
		t.Error("end is not after start")
	}
}

func TestValidateEventKeepsPlausibleDate(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	params, err := v.ValidateEvent("Crea una reunión el 10 de junio", map[string]any{
		"summary": "Planificación",
		"start":   "2025-06-10T09:00:00",
	})
	if err != nil {
		t.Fatalf("ValidateEvent returned error: %v", err)
	}
	if params.Start.Day() != 10 || params.Start.Month() != time.June {
		t.Errorf("plausible date was overridden: %v", params.Start)
	}
	if got := params.End.Sub(params.Start); got != time.Hour {
		t.Errorf("missing end defaulted to %v, want 1h", got)
	}
}

func TestValidateEventRejectsInvertedRange(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	_, err := v.ValidateEvent("reunión", map[string]any{
		"summary": "Reunión",
		"start":   "2025-06-10T11:00:00",
		"end":     "2025-06-10T10:00:00",
	})
	if !apperr.IsCode(err, apperr.CodeInvalidDateRange) {
		t.Errorf("error = %v, want %s", err, apperr.CodeInvalidDateRange)
	}
}

func TestInterpretDateTimeAfternoon(t *testing.T) {
	start, end := interpretDateTime("reunión mañana a las 4 de la tarde durante 2 horas", fixedNow())
	if start.Hour() != 16 {
		t.Errorf("start hour = %d, want 16", start.Hour())
	}
	if start.Day() != 2 {
		t.Errorf("start day = %d, want 2", start.Day())
	}
	if got := end.Sub(start); got != 2*time.Hour {
		t.Errorf("duration = %v, want 2h", got)
	}
}

func TestInterpretDateTimeWeekday(t *testing.T) {
	// 2025-06-01 is a Sunday; next viernes is 2025-06-06.
	start, _ := interpretDateTime("cita el viernes a las 9", fixedNow())
	if start.Weekday() != time.Friday {
		t.Errorf("weekday = %s, want Friday", start.Weekday())
	}
	if start.Day() != 6 {
		t.Errorf("day = %d, want 6", start.Day())
	}
}

func TestInterpretDateTimeWeekdayWithMorningIdiom(t *testing.T) {
	// "de la mañana" qualifies the hour; it must not read as "tomorrow".
	start, _ := interpretDateTime("reunión el viernes a las 10 de la mañana", fixedNow())
	if start.Weekday() != time.Friday {
		t.Errorf("weekday = %s, want Friday", start.Weekday())
	}
	if start.Day() != 6 {
		t.Errorf("day = %d, want 6", start.Day())
	}
	if start.Hour() != 10 {
		t.Errorf("hour = %d, want 10", start.Hour())
	}
}

func TestInterpretDateTimeMorningIdiomAlone(t *testing.T) {
	start, _ := interpretDateTime("una llamada a las 10 de la mañana", fixedNow())
	if start.Hour() != 10 {
		t.Errorf("hour = %d, want 10", start.Hour())
	}
	// no day marker: next business day from Sunday 2025-06-01 is Monday.
	if start.Day() != 2 {
		t.Errorf("day = %d, want 2", start.Day())
	}
}

func TestInterpretDateTimeTomorrowStillRecognized(t *testing.T) {
	start, _ := interpretDateTime("agenda una revisión mañana a las 9", fixedNow())
	if start.Day() != 2 {
		t.Errorf("day = %d, want 2 (mañana from 2025-06-01)", start.Day())
	}
	if start.Hour() != 9 {
		t.Errorf("hour = %d, want 9", start.Hour())
	}
}
