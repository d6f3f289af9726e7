// Package language normalizes spoken-language labels and decides whether a
// label denotes English.
//
// Labels arrive in several shapes: VoxLingua107 strings such as "en: English",
// ISO 639 codes, regional tags like "en-gb", and the sentinel labels
// "unknown" and "non-english" produced by the fallback strategies. IsEnglish
// applies a deliberately permissive two-tier rule; DisplayName turns any label
// into a human-readable name.
package language
