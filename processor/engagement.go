package processor

import (
	"strings"

	"inkforge/content"
)

// EngagementOptimizer inserts goal-appropriate hooks, questions, and a
// closing call-to-action. Insertions are guarded against duplication so
// re-running the optimizer leaves its own output unchanged.
type EngagementOptimizer struct {
	questions map[content.Goal][]string
	closers   map[content.Goal][]string
	tips      map[content.Goal][]string
}

// NewEngagementOptimizer builds the optimizer with its fixed phrase
// tables.
func NewEngagementOptimizer() *EngagementOptimizer {
	return &EngagementOptimizer{
		questions: map[content.Goal][]string{
			content.GoalEngagement: {
				"What do you think about this?",
				"Have you experienced something similar?",
				"How do you handle this situation?",
			},
			content.GoalComments: {
				"What's your experience with this?",
				"What would you do differently?",
				"Which approach works best for you?",
			},
			content.GoalAwareness: {
				"Did you know that?",
				"Had you considered this before?",
			},
		},
		closers: map[content.Goal][]string{
			content.GoalEngagement: {
				"Share your thoughts in the comments below!",
				"Let me know what you think!",
				"I'd love to hear your perspective!",
			},
			content.GoalShares: {
				"Found this helpful? Share it with someone who needs to see this!",
				"If this resonates with you, pass it along!",
			},
			content.GoalComments: {
				"Drop a comment and let's discuss!",
				"Am I missing something here? Tell me in the comments.",
			},
			content.GoalFollowers: {
				"Follow for more insights like this!",
				"Want more content like this? Hit follow!",
			},
			content.GoalConversion: {
				"Don't wait on this — the sooner you start, the sooner you'll see results.",
				"Ready to take the next step? Start today.",
			},
			content.GoalAwareness: {
				"Here's something most people don't realize — now you do.",
				"Pass this on to someone who still believes the myth.",
			},
		},
		tips: map[content.Goal][]string{
			content.GoalEngagement: {
				"Respond to comments quickly to boost engagement",
				"Ask follow-up questions in comments to keep conversations going",
			},
			content.GoalShares: {
				"Create visually appealing quote cards from key insights",
			},
			content.GoalComments: {
				"Share a personal story related to this topic",
				"Ask for specific examples from your audience",
			},
			content.GoalFollowers: {
				"Keep a consistent posting cadence so new followers stick",
			},
			content.GoalConversion: {
				"Lead with the benefit, not the feature",
			},
			content.GoalAwareness: {
				"Link a credible source for every surprising claim",
			},
		},
	}
}

func (e *EngagementOptimizer) Name() Name { return NameEngagement }

func (e *EngagementOptimizer) Apply(text string, req content.Request) (Result, error) {
	res := Result{Text: text}

	res.Text = e.addQuestions(res.Text, req.Goal)
	res.Text = e.addCloser(res.Text, req.Goal)
	res.Text = e.emphasizeKeyPoints(res.Text)
	res.Tips = append(res.Tips, e.tips[req.Goal]...)

	return res, nil
}

// addQuestions appends a reader question to every third paragraph, when
// the goal calls for dialogue.
func (e *EngagementOptimizer) addQuestions(text string, goal content.Goal) string {
	pool := e.questions[goal]
	if len(pool) == 0 {
		return text
	}
	paragraphs := strings.Split(text, "\n\n")
	for i := 2; i < len(paragraphs); i += 3 {
		p := paragraphs[i]
		if strings.HasPrefix(p, "#") || endsWithQuestion(p) {
			continue
		}
		q := pool[pick(p, len(pool))]
		if strings.Contains(text, q) {
			continue
		}
		paragraphs[i] = p + "\n\n" + q
	}
	return strings.Join(paragraphs, "\n\n")
}

// addCloser appends one goal-specific call-to-action unless the text
// already ends with one.
func (e *EngagementOptimizer) addCloser(text string, goal content.Goal) string {
	pool := e.closers[goal]
	if len(pool) == 0 {
		return text
	}
	for _, c := range pool {
		if strings.Contains(text, c) {
			return text
		}
	}
	closer := pool[pick(text, len(pool))]
	return strings.TrimRight(text, "\n") + "\n\n" + closer
}

var keyPhrases = []string{"important", "crucial", "essential", "remember", "key takeaway"}

// emphasizeKeyPoints bolds the first sentence carrying a key phrase.
func (e *EngagementOptimizer) emphasizeKeyPoints(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range keyPhrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		start := strings.LastIndexAny(text[:idx], ".!?\n") + 1
		endOff := strings.IndexAny(text[idx:], ".!?\n")
		if endOff < 0 {
			return text
		}
		end := idx + endOff + 1
		sentence := strings.TrimSpace(text[start:end])
		if sentence == "" || strings.HasPrefix(sentence, "**") || strings.Contains(sentence, "**") {
			return text
		}
		return text[:start] + strings.Replace(text[start:end], sentence, "**"+sentence+"**", 1) + text[end:]
	}
	return text
}

func endsWithQuestion(p string) bool {
	t := strings.TrimRight(p, " \n")
	return strings.HasSuffix(t, "?") || strings.HasSuffix(t, "？")
}
