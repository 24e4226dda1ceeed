package processor

import (
	"fmt"
	"strings"

	"inkforge/content"
)

// PlatformOptimizer reformats text to the conventions of the target
// platform. It must run last in the chain: earlier passes may change
// paragraph structure that this one splits, numbers, or reframes.
type PlatformOptimizer struct{}

// NewPlatformOptimizer builds the optimizer.
func NewPlatformOptimizer() *PlatformOptimizer {
	return &PlatformOptimizer{}
}

func (p *PlatformOptimizer) Name() Name { return NamePlatform }

func (p *PlatformOptimizer) Apply(text string, req content.Request) (Result, error) {
	switch req.Platform {
	case content.PlatformTwitter:
		return p.twitter(text), nil
	case content.PlatformMedium:
		return p.medium(text), nil
	case content.PlatformLinkedIn:
		return p.linkedin(text), nil
	case content.PlatformSubstack:
		return p.substack(text), nil
	case content.PlatformZhihu:
		return p.zhihu(text), nil
	case content.PlatformXiaohongshu:
		return p.xiaohongshu(text), nil
	default:
		return Result{
			Text:  text,
			Notes: []string{fmt.Sprintf("no specific optimization rules for %s", req.Platform)},
		}, nil
	}
}

const tweetLimit = 250

// twitter splits the text into a numbered thread and appends hashtags.
func (p *PlatformOptimizer) twitter(text string) Result {
	if strings.HasPrefix(text, "🧵") {
		return Result{Text: text, Notes: []string{"already in thread format"}}
	}

	var tweets []string
	var cur strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(stripHeading(para))
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(para) > tweetLimit {
			tweets = append(tweets, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(para)
		cur.WriteString(" ")
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		tweets = append(tweets, s)
	}

	for i := range tweets {
		if i == 0 {
			tweets[i] = "🧵 " + tweets[i]
		} else {
			tweets[i] = fmt.Sprintf("%d/ %s", i+1, tweets[i])
		}
	}

	out := strings.Join(tweets, "\n\n")
	out += "\n\n#ContentCreation #WritingCommunity"
	return Result{
		Text:  out,
		Notes: []string{"converted to Twitter thread format", "added hashtags"},
	}
}

// medium ensures section headings and one pull quote.
func (p *PlatformOptimizer) medium(text string) Result {
	notes := []string{"optimized heading structure for Medium"}
	paragraphs := strings.Split(text, "\n\n")
	for i := 1; i < len(paragraphs); i++ {
		para := paragraphs[i]
		if len(para) <= 300 || strings.HasPrefix(para, "#") {
			continue
		}
		first, rest, ok := strings.Cut(para, ". ")
		if ok && len(first) < 80 {
			paragraphs[i] = "## " + first + "\n\n" + rest
		}
	}
	text = strings.Join(paragraphs, "\n\n")
	text, added := addPullQuote(text)
	if added {
		notes = append(notes, "added pull quote")
	}
	return Result{Text: text, Notes: notes}
}

// linkedin appends a networking call-to-action and a statistics framing
// note.
func (p *PlatformOptimizer) linkedin(text string) Result {
	cta := "💼 What's your experience with this? Let's connect and share insights!"
	if !strings.Contains(text, cta) {
		text = strings.TrimRight(text, "\n") + "\n\n" + cta
	}
	return Result{
		Text:  text,
		Notes: []string{"added professional networking prompt", "consider tagging relevant industry voices"},
	}
}

// substack frames the article as a newsletter issue.
func (p *PlatformOptimizer) substack(text string) Result {
	greeting := "Hello subscribers! 👋"
	closer := "📧 If you found this valuable, share it with others who might benefit — and subscribe for more."
	if !strings.HasPrefix(text, greeting) {
		text = greeting + "\n\n" + text
	}
	if !strings.Contains(text, closer) {
		text = strings.TrimRight(text, "\n") + "\n\n" + closer
	}
	return Result{Text: text, Notes: []string{"added newsletter greeting and subscription call-to-action"}}
}

// zhihu reframes the piece as a question-and-answer.
func (p *PlatformOptimizer) zhihu(text string) Result {
	if strings.HasPrefix(text, "问题：") {
		return Result{Text: text, Notes: []string{"already in Q&A format"}}
	}
	lead := firstSentence(text)
	text = "问题：" + lead + "？\n\n我的回答：\n\n" + text
	return Result{Text: text, Notes: []string{"converted to Zhihu Q&A format"}}
}

var visualBreaks = []string{"✨", "🌟", "💫", "🔥", "💖", "🎯"}

// xiaohongshu adds emoji visual breaks between paragraphs.
func (p *PlatformOptimizer) xiaohongshu(text string) Result {
	paragraphs := strings.Split(text, "\n\n")
	for i := 1; i < len(paragraphs); i += 2 {
		para := paragraphs[i]
		if strings.HasPrefix(para, "#") || startsWithEmoji(para) {
			continue
		}
		paragraphs[i] = visualBreaks[i%len(visualBreaks)] + " " + para
	}
	return Result{
		Text:  strings.Join(paragraphs, "\n\n"),
		Notes: []string{"added visual breaks for Xiaohongshu"},
	}
}

func addPullQuote(text string) (string, bool) {
	for _, kw := range []string{"important", "key", "crucial", "remember"} {
		idx := strings.Index(strings.ToLower(text), kw)
		if idx < 0 {
			continue
		}
		start := strings.LastIndexAny(text[:idx], ".!?\n") + 1
		endOff := strings.IndexAny(text[idx:], ".!?")
		if endOff < 0 {
			continue
		}
		end := idx + endOff + 1
		sentence := strings.TrimSpace(text[start:end])
		if len(sentence) < 50 || len(sentence) > 160 || strings.Contains(text, "> "+sentence) {
			continue
		}
		return text[:end] + "\n\n> " + sentence + "\n" + text[end:], true
	}
	return text, false
}

func stripHeading(para string) string {
	return strings.TrimLeft(para, "# ")
}

func firstSentence(text string) string {
	text = strings.TrimSpace(stripHeading(strings.SplitN(text, "\n", 2)[0]))
	if i := strings.IndexAny(text, ".!?。"); i > 0 {
		return text[:i]
	}
	if runes := []rune(text); len(runes) > 50 {
		return string(runes[:50])
	}
	return text
}

func startsWithEmoji(s string) bool {
	for _, b := range visualBreaks {
		if strings.HasPrefix(s, b) {
			return true
		}
	}
	return false
}
