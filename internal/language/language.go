package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks the indexing service to detect the spoken language.
const Auto = "auto"

// Word forms accepted in configuration in addition to tags.
var byWord = map[string]language.Tag{
	"english":    language.English,
	"spanish":    language.Spanish,
	"french":     language.French,
	"german":     language.German,
	"italian":    language.Italian,
	"portuguese": language.Portuguese,
	"japanese":   language.Japanese,
	"korean":     language.Korean,
	"chinese":    language.Chinese,
	"russian":    language.Russian,
	"arabic":     language.Arabic,
	"hindi":      language.Hindi,
	"dutch":      language.Dutch,
	"polish":     language.Polish,
	"swedish":    language.Swedish,
	"danish":     language.Danish,
	"norwegian":  language.Norwegian,
	"finnish":    language.Finnish,
}

func parse(value string) (language.Tag, bool) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", "-"))
	if value == "" {
		return language.Und, false
	}
	if tag, ok := byWord[strings.ToLower(value)]; ok {
		return tag, true
	}
	tag, err := language.Parse(value)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// ForIndexer returns the upload language parameter for a configured value.
// Empty, "auto", and unparseable values become Auto.
func ForIndexer(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), Auto) {
		return Auto
	}
	tag, ok := parse(value)
	if !ok {
		return Auto
	}
	return tag.String()
}

// ToISO2 returns the two-letter base language for value, or "" when value is
// not a recognized tag.
func ToISO2(value string) string {
	tag, ok := parse(value)
	if !ok {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// DisplayName returns the English name for value, e.g. "American English" for
// "en-US". Empty input yields "Unknown"; unrecognized input is uppercased.
func DisplayName(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	tag, ok := parse(value)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(value))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// NormalizeList deduplicates tags by base language, keeping first-seen order.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		code := ToISO2(value)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
