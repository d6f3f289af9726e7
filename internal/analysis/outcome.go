package analysis

import (
	"time"
)

// Outcome is the result of analyzing one waveform. Accent fields are nil
// when the speaker is not speaking English.
type Outcome struct {
	IsEnglish        bool              `json:"is_english"`
	Language         string            `json:"language"`
	Accent           *string           `json:"accent"`
	LangConfidence   float64           `json:"lang_confidence"`
	AccentConfidence *float64          `json:"accent_confidence"`
	LanguageStrategy string            `json:"language_strategy"`
	AccentSource     string            `json:"accent_source,omitempty"`
	RawLanguage      string            `json:"raw_language"`
	LanguageDetail   map[string]string `json:"language_detail,omitempty"`
}

// AccentLabel returns the accent or "" when absent.
func (o Outcome) AccentLabel() string {
	if o.Accent == nil {
		return ""
	}
	return *o.Accent
}

// AccentScore returns the accent confidence or 0 when absent.
func (o Outcome) AccentScore() float64 {
	if o.AccentConfidence == nil {
		return 0
	}
	return *o.AccentConfidence
}

// Confidence bands.
const (
	BandHigh     = "high"
	BandModerate = "moderate"
	BandLow      = "low"
)

// Band buckets a confidence percentage.
func Band(confidence float64) string {
	switch {
	case confidence >= 80:
		return BandHigh
	case confidence >= 60:
		return BandModerate
	default:
		return BandLow
	}
}

// Verdicts summarizing an outcome for screening.
const (
	VerdictSpeaksEnglish       = "speaks English"
	VerdictLikelySpeaksEnglish = "likely speaks English"
	VerdictUncertain           = "uncertain"
	VerdictNotEnglish          = "not speaking English"
)

// Verdict grades an outcome by its language confidence.
func Verdict(o Outcome) string {
	if !o.IsEnglish {
		return VerdictNotEnglish
	}
	switch Band(o.LangConfidence) {
	case BandHigh:
		return VerdictSpeaksEnglish
	case BandModerate:
		return VerdictLikelySpeaksEnglish
	default:
		return VerdictUncertain
	}
}

// Report is what Pipeline.Run returns for presentation.
type Report struct {
	RequestID    string        `json:"request_id"`
	URL          string        `json:"url,omitempty"`
	Source       string        `json:"source,omitempty"`
	Mode         string        `json:"mode"`
	VideoBytes   int64         `json:"video_bytes"`
	AudioBytes   int64         `json:"audio_bytes"`
	Outcome      Outcome       `json:"outcome"`
	Duration     time.Duration `json:"duration_ns"`
	LanguageBand string        `json:"language_band"`
	AccentBand   string        `json:"accent_band,omitempty"`
	Verdict      string        `json:"verdict"`
}

func newReport(requestID, mode string, outcome Outcome, started time.Time) *Report {
	report := &Report{
		RequestID:    requestID,
		Mode:         mode,
		Outcome:      outcome,
		Duration:     time.Since(started),
		LanguageBand: Band(outcome.LangConfidence),
		Verdict:      Verdict(outcome),
	}
	if outcome.AccentConfidence != nil {
		report.AccentBand = Band(*outcome.AccentConfidence)
	}
	return report
}
