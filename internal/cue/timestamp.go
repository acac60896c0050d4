package cue

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimestamp converts caption timestamp text to seconds. The number of
// ':'-separated segments selects the form: HH:MM:SS.mmm, MM:SS.mmm or
// SS.mmm. Only '.' is accepted as the fractional separator.
func ParseTimestamp(text string) (float64, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many segments", ErrMalformedTimestamp, value)
	}

	var hours, minutes int
	var err error
	secondsText := parts[len(parts)-1]
	switch len(parts) {
	case 3:
		if hours, err = parseWhole(parts[0]); err != nil {
			return 0, fmt.Errorf("%w: %q: hours", ErrMalformedTimestamp, value)
		}
		if minutes, err = parseWhole(parts[1]); err != nil {
			return 0, fmt.Errorf("%w: %q: minutes", ErrMalformedTimestamp, value)
		}
	case 2:
		if minutes, err = parseWhole(parts[0]); err != nil {
			return 0, fmt.Errorf("%w: %q: minutes", ErrMalformedTimestamp, value)
		}
	}

	seconds, err := parseSeconds(secondsText)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: seconds", ErrMalformedTimestamp, value)
	}
	return float64(hours*3600+minutes*60) + seconds, nil
}

func parseWhole(segment string) (int, error) {
	if segment == "" || !allDigits(segment) {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(segment)
}

func parseSeconds(segment string) (float64, error) {
	whole, frac, hasFrac := strings.Cut(segment, ".")
	if whole == "" || !allDigits(whole) {
		return 0, strconv.ErrSyntax
	}
	if hasFrac && (frac == "" || !allDigits(frac)) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(segment, 64)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm, rounding to the nearest
// millisecond. Negative and non-finite values render as zero.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}
