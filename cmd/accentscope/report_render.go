package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"accentscope/internal/analysis"
)

// renderReport writes the human-readable summary of one analysis.
func renderReport(out io.Writer, report *analysis.Report, colorize bool) {
	lines := renderSectionHeader("Analysis", colorize)
	if report.URL != "" {
		lines = append(lines, renderStatusLine("Source", statusInfo, report.URL, colorize))
	} else if report.Source != "" {
		lines = append(lines, renderStatusLine("Source", statusInfo, report.Source, colorize))
	}
	lines = append(lines, renderStatusLine("Verdict", verdictKind(report.Verdict), report.Verdict, colorize))

	outcome := report.Outcome
	lines = append(lines, renderStatusLine("Language", statusInfo,
		fmt.Sprintf("%s (%.1f%%, %s)", outcome.Language, outcome.LangConfidence, report.LanguageBand), colorize))
	if outcome.Accent != nil {
		lines = append(lines, renderStatusLine("Accent", statusInfo,
			fmt.Sprintf("%s (%.1f%%, %s)", outcome.AccentLabel(), outcome.AccentScore(), report.AccentBand), colorize))
	} else {
		lines = append(lines, renderStatusLine("Accent", statusInfo, "not classified", colorize))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
	fmt.Fprintln(out)

	rows := [][]string{
		{"Request", report.RequestID},
		{"Mode", report.Mode},
		{"Strategy", outcome.LanguageStrategy},
		{"Raw label", outcome.RawLanguage},
	}
	if outcome.AccentSource != "" {
		rows = append(rows, []string{"Accent source", outcome.AccentSource})
	}
	if report.VideoBytes > 0 {
		rows = append(rows, []string{"Video", humanize.Bytes(uint64(report.VideoBytes))})
	}
	if report.AudioBytes > 0 {
		rows = append(rows, []string{"Audio", humanize.Bytes(uint64(report.AudioBytes))})
	}
	rows = append(rows, []string{"Elapsed", report.Duration.Round(time.Millisecond).String()})

	keys := make([]string, 0, len(outcome.LanguageDetail))
	for key := range outcome.LanguageDetail {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		rows = append(rows, []string{key, outcome.LanguageDetail[key]})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}, nil))
}
