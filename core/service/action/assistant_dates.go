package action

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spanish weekday names, accentless variants included.
var weekdayNames = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miércoles": time.Wednesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sábado":    time.Saturday,
	"sabado":    time.Saturday,
}

var (
	hourRe     = regexp.MustCompile(`a las (\d{1,2})(?::(\d{2}))?`)
	durationRe = regexp.MustCompile(`durante (\d{1,2}) horas?`)
)

// interpretDateTime derives an event window from Spanish free text relative
// to now. It understands "hoy", "mañana", weekday names, "a las N" with an
// optional afternoon/evening marker, and "durante N horas". When the text
// gives no usable time the window defaults to the next business hour, one
// hour long.
func interpretDateTime(text string, now time.Time) (start, end time.Time) {
	lower := strings.ToLower(text)
	// "de la mañana" is a time-of-day idiom ("in the morning"), not the
	// "tomorrow" token, so it is stripped before day detection.
	dayText := strings.ReplaceAll(lower, "de la mañana", " ")

	day := nextBusinessDay(now)
	explicitDay := false

	if strings.Contains(dayText, "hoy") {
		day = now
		explicitDay = true
	} else {
		for name, wd := range weekdayNames {
			if strings.Contains(dayText, name) {
				day = nextWeekday(now, wd)
				explicitDay = true
				break
			}
		}
		if !explicitDay && strings.Contains(dayText, "mañana") {
			day = now.AddDate(0, 0, 1)
			explicitDay = true
		}
	}

	hour := 0
	minute := 0
	haveHour := false
	if m := hourRe.FindStringSubmatch(lower); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h >= 0 && h <= 23 {
			hour = h
			haveHour = true
		}
		if len(m) > 2 && m[2] != "" {
			if mm, err := strconv.Atoi(m[2]); err == nil && mm >= 0 && mm <= 59 {
				minute = mm
			}
		}
	}
	if haveHour && hour < 12 &&
		(strings.Contains(lower, "de la tarde") || strings.Contains(lower, "de la noche")) {
		hour += 12
	}
	if !haveHour {
		if explicitDay {
			hour = 9
		} else {
			// no day and no time: next full hour
			next := now.Truncate(time.Hour).Add(time.Hour)
			day = next
			hour = next.Hour()
		}
	}

	start = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())

	// a same-day time already past rolls to tomorrow
	if explicitDay && strings.Contains(lower, "hoy") && start.Before(now) {
		start = start.AddDate(0, 0, 1)
	}

	duration := time.Hour
	if m := durationRe.FindStringSubmatch(lower); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h > 0 {
			duration = time.Duration(h) * time.Hour
		}
	}

	return start, start.Add(duration)
}

// nextWeekday returns the next occurrence of wd strictly after now's day.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

// nextBusinessDay returns now if it is a weekday, otherwise the next Monday.
func nextBusinessDay(now time.Time) time.Time {
	switch now.Weekday() {
	case time.Saturday:
		return now.AddDate(0, 0, 2)
	case time.Sunday:
		return now.AddDate(0, 0, 1)
	default:
		return now
	}
}

// hasSameDayMarker reports whether the text explicitly asks for today.
func hasSameDayMarker(text string) bool {
	return strings.Contains(strings.ToLower(text), "hoy")
}
