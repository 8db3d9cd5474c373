package punishment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([dhm])$`)

// Duration is a parsed sanction length. A zero value with Permanent set
// means "no expiry".
type Duration struct {
	Length    time.Duration
	Permanent bool
	Raw       string
}

// ParseDuration accepts "<n>d", "<n>h", "<n>m" with a positive whole n, or
// the tokens "permanent" and "perm".
func ParseDuration(s string) (Duration, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "permanent" || raw == "perm" {
		return Duration{Permanent: true, Raw: raw}, nil
	}

	m := durationPattern.FindStringSubmatch(raw)
	if m == nil {
		return Duration{}, &ValidationError{Kind: InvalidDuration, Input: s}
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return Duration{}, &ValidationError{Kind: InvalidDuration, Input: s}
	}

	var unit time.Duration
	switch m[2] {
	case "d":
		unit = 24 * time.Hour
	case "h":
		unit = time.Hour
	case "m":
		unit = time.Minute
	}
	if n > int64(maxDuration/unit) {
		return Duration{}, &ValidationError{Kind: InvalidDuration, Input: s}
	}
	return Duration{Length: time.Duration(n) * unit, Raw: raw}, nil
}

// about 290 years, the span of time.Duration
const maxDuration = time.Duration(1<<63 - 1)

// ExpiresAt returns the absolute deadline, or nil when permanent.
func (d Duration) ExpiresAt(now time.Time) *time.Time {
	if d.Permanent {
		return nil
	}
	t := now.Add(d.Length).UTC()
	return &t
}

// String renders the duration the way it is shown to users.
func (d Duration) String() string {
	if d.Permanent {
		return "Permanent"
	}
	return FormatSpan(d.Length)
}

// FormatSpan collapses d to its single largest unit: days, else hours, else
// minutes, else seconds. Non-positive spans render as "0s".
func FormatSpan(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

// FormatRemaining renders the time left until expires. A nil deadline is
// permanent.
func FormatRemaining(now time.Time, expires *time.Time) string {
	if expires == nil {
		return "Permanent"
	}
	return FormatSpan(expires.Sub(now))
}

// FormatElapsed renders the span between start and end. A nil end is
// permanent.
func FormatElapsed(start time.Time, end *time.Time) string {
	if end == nil {
		return "Permanent"
	}
	return FormatSpan(end.Sub(start))
}
