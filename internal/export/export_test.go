package export

import (
	"strings"
	"testing"
	"time"
)

func TestBuildHTMLRendersMarkdown(t *testing.T) {
	report := "# Competitor Differentiation Report\n\n" +
		"## Strategy\n\n" +
		"| Feature | Held By |\n|---|---|\n| SSO | Acme |\n"
	doc, err := BuildHTML(report, Meta{
		StartupIdea:     "AI meal planner",
		GeneratedAt:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		CompetitorCount: 4,
	})
	if err != nil {
		t.Fatalf("BuildHTML: %v", err)
	}
	for _, want := range []string{
		"<h1>Competitor Differentiation Report</h1>",
		"<h2>Strategy</h2>",
		"<table>",
		"AI meal planner",
		"March 14, 2026",
		"4 competitors analyzed",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestBuildHTMLEscapesIdea(t *testing.T) {
	doc, err := BuildHTML("# Report", Meta{StartupIdea: "a <script>alert(1)</script> tool"})
	if err != nil {
		t.Fatalf("BuildHTML: %v", err)
	}
	if strings.Contains(doc, "<script>alert(1)</script>") {
		t.Error("startup idea was not escaped")
	}
	if !strings.Contains(doc, "&lt;script&gt;") {
		t.Error("expected escaped idea in document")
	}
}

func TestBuildHTMLOmitsEmptyMeta(t *testing.T) {
	doc, err := BuildHTML("body text", Meta{})
	if err != nil {
		t.Fatalf("BuildHTML: %v", err)
	}
	if strings.Contains(doc, "Startup idea:") {
		t.Error("blank idea should not render a meta row")
	}
	if strings.Contains(doc, "Generated:") {
		t.Error("zero time should not render a meta row")
	}
	if strings.Contains(doc, "report-badge'") && strings.Contains(doc, "competitors analyzed") {
		t.Error("zero competitor count should not render a badge")
	}
}
