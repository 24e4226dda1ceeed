// Package quality scores generated text against the request that produced
// it. Scoring is pure: no I/O, no randomness, identical inputs always
// yield identical scores.
package quality

import (
	"regexp"
	"strings"

	"inkforge/content"
)

// Weights controls how sub-scores combine into the overall score. Zero
// weights are replaced by DefaultWeights.
type Weights struct {
	Length    float64
	Keywords  float64
	Structure float64
	Read      float64
}

// DefaultWeights weighs every sub-score equally.
func DefaultWeights() Weights {
	return Weights{Length: 1, Keywords: 1, Structure: 1, Read: 1}
}

func (w Weights) orDefault() Weights {
	if w.Length == 0 && w.Keywords == 0 && w.Structure == 0 && w.Read == 0 {
		return DefaultWeights()
	}
	return w
}

var headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)

// Score computes the quality of text for a request using the given
// weights.
func Score(req content.Request, text string, w Weights) content.QualityScore {
	w = w.orDefault()

	s := content.QualityScore{
		LengthConformance: lengthConformance(req.Length, content.WordCount(text)),
		KeywordCoverage:   keywordCoverage(req.Keywords, text),
		StructurePresence: structurePresence(req.Platform, text),
		Readability:       readability(text),
	}

	total := w.Length + w.Keywords + w.Structure + w.Read
	s.Overall = (s.LengthConformance*w.Length +
		s.KeywordCoverage*w.Keywords +
		s.StructurePresence*w.Structure +
		s.Readability*w.Read) / total

	return s
}

// lengthConformance decays smoothly as the word count drifts from the
// target: 1 at the target, ~0.5 at half or double the target. Near-target
// lengths are barely penalized.
func lengthConformance(target, actual int) float64 {
	if target <= 0 {
		return 1
	}
	if actual <= 0 {
		return 0
	}
	dev := (float64(actual) - float64(target)) / float64(target)
	return 1 / (1 + 4*dev*dev)
}

// keywordCoverage is the case-insensitive fraction of requested keywords
// present in the text; full score when no keywords were requested.
func keywordCoverage(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 1
	}
	lower := strings.ToLower(text)
	found := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// structurePresence checks paragraph breaks, and section headers for
// long-form platforms.
func structurePresence(platform content.Platform, text string) float64 {
	score := 0.0
	if strings.Count(text, "\n\n") >= 2 {
		score += 0.5
	} else if strings.Contains(text, "\n\n") {
		score += 0.25
	}

	if headingRe.MatchString(text) {
		score += 0.5
	} else if !platform.LongForm() {
		// Short-form platforms do not need headers.
		score += 0.5
	}
	return score
}

// readability approximates ease of reading by average sentence length:
// full score inside the 8..24 word band, linear falloff outside it.
func readability(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return 0
	}
	totalWords := 0
	for _, s := range sentences {
		totalWords += content.WordCount(s)
	}
	avg := float64(totalWords) / float64(len(sentences))

	switch {
	case avg >= 8 && avg <= 24:
		return 1
	case avg < 8:
		return avg / 8
	case avg <= 48:
		return 1 - (avg-24)/24
	default:
		return 0
	}
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？' {
			if s := strings.TrimSpace(cur.String()); content.WordCount(s) > 0 {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); content.WordCount(s) > 2 {
		out = append(out, s)
	}
	return out
}
