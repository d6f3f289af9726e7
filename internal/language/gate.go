package language

import "strings"

// englishExact lists labels that are English by exact match after
// normalization.
var englishExact = map[string]struct{}{
	"en": {}, "eng": {}, "english": {},
	"american": {}, "british": {}, "australian": {},
	"en-us": {}, "en-gb": {}, "en-au": {}, "en-ca": {}, "en-nz": {}, "en-ie": {}, "en-in": {}, "en-za": {},
	"en_us": {}, "en_gb": {}, "en_au": {}, "en_ca": {}, "en_nz": {}, "en_ie": {}, "en_in": {}, "en_za": {},
	"en: english": {},
}

// englishIndicators are matched as substrings when no exact match exists.
// "en" alone makes the rule loose: "bengali", "french", and "non-english"
// all pass.
var englishIndicators = []string{"en", "english", "eng", "american", "british", "australian"}

// Normalize lowercases and trims a raw label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// IsEnglish reports whether label denotes English: an exact match against the
// known English codes and spellings, else a substring match against the
// indicator list.
func IsEnglish(label string) bool {
	normalized := Normalize(label)
	if _, ok := englishExact[normalized]; ok {
		return true
	}
	for _, indicator := range englishIndicators {
		if strings.Contains(normalized, indicator) {
			return true
		}
	}
	return false
}

// MatchKind explains which tier of IsEnglish accepted a label, for decision logs.
func MatchKind(label string) string {
	normalized := Normalize(label)
	if _, ok := englishExact[normalized]; ok {
		return "exact"
	}
	for _, indicator := range englishIndicators {
		if strings.Contains(normalized, indicator) {
			return "substring:" + indicator
		}
	}
	return "none"
}
