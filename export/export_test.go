package export

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"inkforge/content"
)

func sampleContent() *content.Content {
	return &content.Content{
		Title:          "Why Tests Matter",
		Body:           "Testing keeps refactors honest.\n\n## Going Deeper\n\nIt also **documents** intent.",
		Tags:           []string{"testing", "go"},
		EngagementTips: []string{"Ask readers about their habits"},
		WordCount:      10,
		SourceAttempt:  1,
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"HTML":     FormatHTML,
		"json":     FormatJSON,
		" plain ":  FormatPlain,
		"txt":      FormatPlain,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestRenderMarkdown(t *testing.T) {
	got, err := Render(sampleContent(), FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "# Why Tests Matter\n\n") {
		t.Fatalf("title heading missing:\n%s", got)
	}
	if !strings.Contains(got, "Tags: testing, go") {
		t.Fatalf("tags line missing:\n%s", got)
	}
	if !strings.Contains(got, "- Ask readers about their habits") {
		t.Fatalf("tips missing:\n%s", got)
	}
}

func TestRenderHTML(t *testing.T) {
	got, err := Render(sampleContent(), FormatHTML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<h1>Why Tests Matter</h1>") {
		t.Fatalf("h1 missing:\n%s", got)
	}
	if !strings.Contains(got, "<h2>Going Deeper</h2>") {
		t.Fatalf("h2 missing:\n%s", got)
	}
	if !strings.Contains(got, "<strong>documents</strong>") {
		t.Fatalf("emphasis not converted:\n%s", got)
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	c := sampleContent()
	got, err := Render(c, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var back content.Content
	if err := json.Unmarshal([]byte(got), &back); err != nil {
		t.Fatal(err)
	}
	if back.Title != c.Title || back.WordCount != c.WordCount {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestRenderPlainStripsMarkup(t *testing.T) {
	got, err := Render(sampleContent(), FormatPlain)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "#") || strings.Contains(got, "**") {
		t.Fatalf("markup leaked into plain output:\n%s", got)
	}
	if !strings.HasPrefix(got, "Why Tests Matter\n\n") {
		t.Fatalf("title line missing:\n%s", got)
	}
}

func TestDigestTruncates(t *testing.T) {
	d := Digest(sampleContent(), 20)
	if len(d) > 20 {
		t.Fatalf("digest too long: %q", d)
	}
	if strings.Contains(d, "\n") {
		t.Fatalf("digest not single-line: %q", d)
	}
}

func TestDigestNeverSplitsRune(t *testing.T) {
	c := &content.Content{Title: "标题", Body: strings.Repeat("中文内容没有空格", 10)}
	for limit := 10; limit < 40; limit++ {
		d := Digest(c, limit)
		if len(d) > limit {
			t.Fatalf("limit %d: digest %d bytes", limit, len(d))
		}
		if !utf8.ValidString(d) {
			t.Fatalf("limit %d: digest is invalid utf-8: %q", limit, d)
		}
	}
}

func TestFormatExt(t *testing.T) {
	if FormatMarkdown.Ext() != "md" || FormatHTML.Ext() != "html" || FormatJSON.Ext() != "json" || FormatPlain.Ext() != "txt" {
		t.Fatalf("unexpected extensions")
	}
}
