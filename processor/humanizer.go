package processor

import (
	"strings"

	"inkforge/content"
)

// Humanizer reduces the robotic texture of model output: contractions,
// casual transitions, an occasional first-person marker. Every rewrite is
// guarded so running the humanizer on its own output changes nothing.
type Humanizer struct {
	contractions []contraction
	transitions  []transition
	markers      []string
}

type contraction struct {
	full  string
	short string
}

type transition struct {
	formal  string
	casuals []string
}

// NewHumanizer builds the humanizer with its fixed substitution tables.
func NewHumanizer() *Humanizer {
	return &Humanizer{
		contractions: []contraction{
			{"do not", "don't"},
			{"does not", "doesn't"},
			{"did not", "didn't"},
			{"will not", "won't"},
			{"would not", "wouldn't"},
			{"could not", "couldn't"},
			{"should not", "shouldn't"},
			{"cannot", "can't"},
			{"is not", "isn't"},
			{"are not", "aren't"},
			{"have not", "haven't"},
			{"has not", "hasn't"},
			{"it is", "it's"},
			{"that is", "that's"},
			{"there is", "there's"},
			{"you are", "you're"},
			{"we are", "we're"},
			{"they are", "they're"},
			{"you will", "you'll"},
			{"we will", "we'll"},
		},
		transitions: []transition{
			{"In conclusion", []string{"To wrap up", "In summary", "All things considered"}},
			{"Furthermore", []string{"Also", "Plus", "What's more"}},
			{"However", []string{"But", "That said", "On the flip side"}},
			{"Therefore", []string{"So", "That's why", "As a result"}},
			{"Additionally", []string{"Also", "On top of that", "And"}},
		},
		markers: []string{
			"In my experience,",
			"I've noticed that",
			"From what I've seen,",
			"I've found that",
		},
	}
}

func (h *Humanizer) Name() Name { return NameHumanizer }

func (h *Humanizer) Apply(text string, req content.Request) (Result, error) {
	// Contractions only make sense in English output.
	if req.Language == "en" {
		text = h.applyContractions(text)
	}
	text = h.replaceTransitions(text)
	text = h.addExperienceMarker(text)
	return Result{Text: text}, nil
}

func (h *Humanizer) applyContractions(text string) string {
	for _, c := range h.contractions {
		text = replaceWord(text, c.full, c.short)
		text = replaceWord(text, capitalize(c.full), capitalize(c.short))
	}
	return text
}

func (h *Humanizer) replaceTransitions(text string) string {
	for _, t := range h.transitions {
		idx := strings.Index(text, t.formal)
		if idx < 0 {
			continue
		}
		casual := t.casuals[pick(text[idx:min(idx+40, len(text))], len(t.casuals))]
		text = strings.Replace(text, t.formal, casual, 1)
	}
	return text
}

// addExperienceMarker prefixes one mid-article paragraph with a
// first-person marker, once. Paragraphs that already carry a marker or a
// heading are left alone.
func (h *Humanizer) addExperienceMarker(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	for _, p := range paragraphs {
		if hasAnyPrefix(p, h.markers) {
			return text
		}
	}
	for i := 1; i < len(paragraphs); i++ {
		p := paragraphs[i]
		if len(p) < 120 || strings.HasPrefix(p, "#") {
			continue
		}
		marker := h.markers[pick(p, len(h.markers))]
		paragraphs[i] = marker + " " + lowerFirst(p)
		break
	}
	return strings.Join(paragraphs, "\n\n")
}

// replaceWord substitutes whole-word occurrences of full with short.
func replaceWord(text, full, short string) string {
	var sb strings.Builder
	for {
		idx := strings.Index(text, full)
		if idx < 0 {
			sb.WriteString(text)
			return sb.String()
		}
		before := idx == 0 || isBoundary(text[idx-1])
		afterIdx := idx + len(full)
		after := afterIdx >= len(text) || isBoundary(text[afterIdx])
		sb.WriteString(text[:idx])
		if before && after {
			sb.WriteString(short)
		} else {
			sb.WriteString(full)
		}
		text = text[afterIdx:]
	}
}

func isBoundary(b byte) bool {
	return !(b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '\'')
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
