package content

import (
	"regexp"
	"strings"
)

// Parsed is the structured view of a raw model response.
type Parsed struct {
	Title          string
	Body           string
	Tags           []string
	EngagementTips []string
}

var (
	titleH1Re       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	titleExplicitRe = regexp.MustCompile(`(?im)^\*{0,2}Title:?\*{0,2}\s*(.+)$`)
	tagsLineRe      = regexp.MustCompile(`(?im)^(?:suggested\s+)?tags?:\s*(.+)$`)
	tipsLineRe      = regexp.MustCompile(`(?im)^(?:engagement\s+)?tips?:\s*(.+)$`)
)

// ParseRaw extracts the title, body, tag list, and engagement tips from a
// raw model response. Models are asked for a Markdown H1 title plus
// trailing "Tags:" and "Engagement Tips:" lines, but none of those are
// guaranteed, so every extraction has a fallback.
func ParseRaw(raw string) Parsed {
	text := strings.TrimSpace(raw)
	p := Parsed{}

	if m := titleH1Re.FindStringSubmatch(text); len(m) >= 2 {
		p.Title = strings.TrimSpace(m[1])
	} else if m := titleExplicitRe.FindStringSubmatch(text); len(m) >= 2 {
		p.Title = strings.TrimSpace(strings.Trim(m[1], "*"))
	}

	if m := tagsLineRe.FindStringSubmatch(text); len(m) >= 2 {
		for _, tag := range regexp.MustCompile(`[,;、]`).Split(m[1], -1) {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				p.Tags = append(p.Tags, tag)
			}
		}
	}

	if m := tipsLineRe.FindStringSubmatch(text); len(m) >= 2 {
		tip := strings.TrimSpace(m[1])
		if tip != "" {
			p.EngagementTips = append(p.EngagementTips, tip)
		}
	}

	p.Body = stripMetaLines(text)

	if p.Title == "" {
		first := firstLine(text)
		if len(first) > 0 && len(first) < 100 {
			p.Title = first
		} else {
			p.Title = "Generated Content"
		}
	}
	if p.Body == "" {
		p.Body = text
	}

	return p
}

// stripMetaLines removes the title heading and trailing tags/tips lines so
// the body holds only article content.
func stripMetaLines(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	titleDropped := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !titleDropped && titleH1Re.MatchString(trimmed) {
			titleDropped = true
			continue
		}
		if tagsLineRe.MatchString(trimmed) || tipsLineRe.MatchString(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(strings.TrimLeft(text, "# "))
}
