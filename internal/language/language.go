package language

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ISO 639-2/B codes are not part of BCP 47, so x/text does not resolve them.
var bibliographic = map[string]string{
	"alb": "sq",
	"arm": "hy",
	"baq": "eu",
	"chi": "zh",
	"cze": "cs",
	"dut": "nl",
	"fre": "fr",
	"geo": "ka",
	"ger": "de",
	"gre": "el",
	"ice": "is",
	"mac": "mk",
	"may": "ms",
	"per": "fa",
	"rum": "ro",
	"slo": "sk",
	"wel": "cy",
}

// named lists the languages whose English names are accepted as labels.
var named = []language.Tag{
	language.Arabic,
	language.Chinese,
	language.Danish,
	language.Dutch,
	language.English,
	language.Finnish,
	language.French,
	language.German,
	language.Hindi,
	language.Italian,
	language.Japanese,
	language.Korean,
	language.Polish,
	language.Portuguese,
	language.Russian,
	language.Spanish,
	language.Swedish,
}

var (
	namesOnce sync.Once
	byName    map[string]string
)

func names() map[string]string {
	namesOnce.Do(func() {
		namer := display.English.Languages()
		byName = make(map[string]string, len(named))
		for _, tag := range named {
			base, _ := tag.Base()
			byName[strings.ToLower(namer.Name(tag))] = base.String()
		}
	})
	return byName
}

// Base returns the base language code of a track label, or "" when the
// label is not recognized.
func Base(label string) string {
	value := strings.ToLower(strings.TrimSpace(label))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	if code, ok := bibliographic[value]; ok {
		return code
	}
	if tag, err := language.Parse(value); err == nil {
		if base, conf := tag.Base(); conf == language.Exact && base.String() != "und" {
			return base.String()
		}
	}
	if code, ok := names()[value]; ok {
		return code
	}
	return ""
}

// Match reports whether two labels name the same base language. Labels
// that are not recognized only match themselves, case-insensitively.
func Match(a, b string) bool {
	baseA, baseB := Base(a), Base(b)
	if baseA != "" || baseB != "" {
		return baseA == baseB
	}
	a = strings.ToLower(strings.TrimSpace(a))
	return a != "" && a == strings.ToLower(strings.TrimSpace(b))
}

// DisplayName returns the English name of a label's language. Unrecognized
// labels come back upper-cased; empty ones as "Unknown".
func DisplayName(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "Unknown"
	}
	base := Base(trimmed)
	if base == "" {
		return strings.ToUpper(trimmed)
	}
	return display.English.Languages().Name(language.Make(base))
}
