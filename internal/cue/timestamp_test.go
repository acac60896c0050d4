package cue

import (
	"errors"
	"math"
	"testing"
)

func TestParseTimestampForms(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{"hours", "01:02:03.456", 3723.456},
		{"minutes", "02:03.500", 123.5},
		{"seconds", "7.250", 7.25},
		{"seconds without fraction", "42", 42},
		{"zero", "00:00:00.000", 0},
		{"surrounding space", "  00:00:01.000 ", 1},
		{"long hours", "100:00:00.000", 360000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.input)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tc.input, err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseTimestampRejectsMalformed(t *testing.T) {
	inputs := []string{
		"",
		"aa:00:01.000",
		"00:bb:01.000",
		"00:00:cc",
		"00:00:01,000",
		"1:2:3:4",
		"00:00:01.",
		"-1:00.000",
		"00:00:.5",
	}
	for _, input := range inputs {
		if _, err := ParseTimestamp(input); !errors.Is(err, ErrMalformedTimestamp) {
			t.Fatalf("ParseTimestamp(%q) error = %v, want ErrMalformedTimestamp", input, err)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	inputs := []string{"00:00:00.000", "00:00:01.001", "01:59:59.999", "12:34:56.789", "00:10:00.500"}
	for _, input := range inputs {
		seconds, err := ParseTimestamp(input)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", input, err)
		}
		formatted := FormatTimestamp(seconds)
		again, err := ParseTimestamp(formatted)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) after format: %v", formatted, err)
		}
		if math.Abs(again-seconds) > 0.001 {
			t.Fatalf("round trip drifted: %q -> %v -> %q -> %v", input, seconds, formatted, again)
		}
		if formatted != input {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", seconds, formatted, input)
		}
	}
}

func TestFormatTimestampClampsInvalid(t *testing.T) {
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		if got := FormatTimestamp(v); got != "00:00:00.000" {
			t.Fatalf("FormatTimestamp(%v) = %q, want zero", v, got)
		}
	}
}
