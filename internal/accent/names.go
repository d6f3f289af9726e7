package accent

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var displayNames = map[string]string{
	"us":             "American",
	"england":        "British (England)",
	"australia":      "Australian",
	"indian":         "Indian",
	"canada":         "Canadian",
	"bermuda":        "Bermudian",
	"scotland":       "Scottish",
	"african":        "South African",
	"ireland":        "Irish",
	"newzealand":     "New Zealand",
	"wales":          "Welsh",
	"malaysia":       "Malaysian",
	"philippines":    "Filipino",
	"singapore":      "Singaporean",
	"hongkong":       "Hong Kong",
	"southatlandtic": "South Atlantic",
}

var titleCaser = cases.Title(language.Und)

// DisplayName maps a model region code to a readable accent name. Codes
// outside the table are title-cased.
func DisplayName(code string) string {
	key := strings.ToLower(strings.TrimSpace(code))
	if name, ok := displayNames[key]; ok {
		return name
	}
	return titleCaser.String(key)
}

// Known reports whether code has a table entry.
func Known(code string) bool {
	_, ok := displayNames[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// SupportedNames lists the display names of every known accent, sorted.
func SupportedNames() []string {
	names := make([]string, 0, len(displayNames))
	for _, name := range displayNames {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
