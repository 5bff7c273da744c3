package view

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// FormatDate renders t as "5 Mar 2024".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}

// RelativeTime describes t relative to now in days, weeks or months and falls
// back to the calendar date after a year.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	case days < 365:
		return fmt.Sprintf("%d months ago", days/30)
	default:
		return FormatDate(t)
	}
}

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// FormatPhone groups Nigerian numbers for display, leaving others as typed.
func FormatPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[:4] + " " + digits[4:7] + " " + digits[7:]
	case len(digits) == 13 && strings.HasPrefix(digits, "234"):
		return "+234 " + digits[3:6] + " " + digits[6:9] + " " + digits[9:]
	default:
		return phone
	}
}
