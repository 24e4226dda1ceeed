// Package export renders completed content into the formats a caller can
// hand to a publishing surface: markdown, HTML, JSON, or plain text.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"

	"inkforge/content"
)

// Format aliases the content enum so callers can use either package's name.
type Format = content.Format

const (
	FormatMarkdown = content.FormatMarkdown
	FormatHTML     = content.FormatHTML
	FormatJSON     = content.FormatJSON
	FormatPlain    = content.FormatPlain
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatPlain, "text", "txt":
		return FormatPlain, nil
	}
	return "", fmt.Errorf("unknown format %q (want markdown, html, json, or plain)", s)
}

// Render encodes the content in the given format.
func Render(c *content.Content, f Format) (string, error) {
	switch f {
	case FormatMarkdown:
		return renderMarkdown(c), nil
	case FormatHTML:
		return renderHTML(c)
	case FormatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case FormatPlain:
		return renderPlain(c), nil
	}
	return "", fmt.Errorf("unknown format %q", f)
}

func renderMarkdown(c *content.Content) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	b.WriteString(c.Body)
	if !strings.HasSuffix(c.Body, "\n") {
		b.WriteString("\n")
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(c.Tags, ", "))
	}
	if len(c.EngagementTips) > 0 {
		b.WriteString("\nEngagement Tips:\n")
		for _, tip := range c.EngagementTips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
	}
	return b.String()
}

func renderHTML(c *content.Content) (string, error) {
	body, err := mdToHTML(renderMarkdown(c))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(c.Title))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	headingMarkRe = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	emphasisRe    = regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`)
)

func renderPlain(c *content.Content) string {
	body := headingMarkRe.ReplaceAllString(c.Body, "")
	body = emphasisRe.ReplaceAllString(body, "$1")
	var b strings.Builder
	b.WriteString(c.Title)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return b.String()
}

// Digest returns a compact single-line summary of the body, at most
// limit bytes, for listings and link previews. The cut never splits a rune.
func Digest(c *content.Content, limit int) string {
	joined := strings.Join(strings.Fields(renderPlain(c)), " ")
	if len(joined) <= limit {
		return joined
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(joined[cut]) {
		cut--
	}
	return joined[:cut]
}
