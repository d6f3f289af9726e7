package main

import (
	"strings"
	"testing"
)

func TestRenderTableKeepsFooterCase(t *testing.T) {
	out := renderTable(
		[]string{"Directory", "Files", "Size"},
		[][]string{{"hub", "3"}},
		[]columnAlignment{alignLeft, alignRight, alignRight},
		[]string{"Total", "3", "1.2 kB"},
	)
	requireContains(t, out, "Total")
	requireContains(t, out, "1.2 kB")
	if strings.Contains(out, "TOTAL") {
		t.Fatalf("footer was upper-cased:\n%s", out)
	}
	if renderTable(nil, nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
