package language

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Sentinel labels produced by the fallback language strategies.
const (
	LabelUnknown    = "unknown"
	LabelNonEnglish = "non-english"
)

var codePattern = regexp.MustCompile(`^[a-z]{2,3}([-_][a-z0-9]{2,4})?$`)

var titleCaser = cases.Title(xlanguage.Und)

// Split separates a VoxLingua107 label such as "en: English" into its code and
// name. Labels without a colon return the normalized label as the code.
func Split(label string) (code, name string) {
	trimmed := strings.TrimSpace(label)
	if before, after, ok := strings.Cut(trimmed, ":"); ok {
		return Normalize(before), strings.TrimSpace(after)
	}
	return Normalize(trimmed), ""
}

// Code returns the ISO 639-1 base code for label when one can be resolved.
func Code(label string) string {
	code, _ := Split(label)
	if !codePattern.MatchString(code) {
		return ""
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return ""
	}
	return base.String()
}

// DisplayName returns a human-readable English name for label.
func DisplayName(label string) string {
	code, name := Split(label)
	switch {
	case code == "" && name == "":
		return "Unknown"
	case name != "":
		return titleCaser.String(name)
	case code == LabelUnknown:
		return "Unknown"
	case code == LabelNonEnglish:
		return "Non-English"
	}
	if codePattern.MatchString(code) {
		if tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-")); err == nil {
			if resolved := display.English.Tags().Name(tag); resolved != "" {
				return resolved
			}
		}
	}
	return titleCaser.String(code)
}
