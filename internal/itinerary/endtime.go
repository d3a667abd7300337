package itinerary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tourify/guide-api/internal/domain"
)

// DefaultDurationHours is assumed when a duration is missing or unparseable.
const DefaultDurationHours = 1.0

// EndTime adds a free-text duration ("1.5 horas", "2 hours", "45 min") to an
// HH:MM start time. Fractional hours become whole minutes rounded down, and
// the hour wraps modulo 24. An unparseable start is returned unchanged.
func EndTime(start, duration string) string {
	h, m, ok := parseClock(start)
	if !ok {
		return start
	}
	total := h*60 + m + durationMinutes(duration)
	total = ((total % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// DurationHours reads the leading magnitude of a duration string in hours.
func DurationHours(duration string) float64 {
	v, ok := domain.ParseLeadingNumber(duration)
	if !ok || v < 0 {
		return DefaultDurationHours
	}
	if minuteUnit(duration) {
		return v / 60
	}
	return v
}

func durationMinutes(duration string) int {
	// epsilon absorbs binary float error such as 2.3*60 = 137.99999...
	return int(math.Floor(DurationHours(duration)*60 + 1e-9))
}

// minuteUnit reports whether the first number in s is followed by a minute unit.
func minuteUnit(s string) bool {
	loc := leadingNumberIndex(s)
	if loc < 0 {
		return false
	}
	rest := strings.TrimSpace(strings.ToLower(s[loc:]))
	return strings.HasPrefix(rest, "min") || rest == "m" || strings.HasPrefix(rest, "m ")
}

// leadingNumberIndex returns the index just past the first number in s.
func leadingNumberIndex(s string) int {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return -1
	}
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == ',') {
		i++
	}
	return i
}

func parseClock(s string) (int, int, bool) {
	hs, ms, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	if len(ms) > 2 {
		ms = ms[:2]
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
