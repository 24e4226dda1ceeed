package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mock is a scripted Client for tests and offline runs. Each Complete call
// consumes the next queued step; when the queue is empty it falls back to a
// canned article so the CLI can run without credentials.
type Mock struct {
	mu    sync.Mutex
	steps []mockStep
	calls []MockCall
}

type mockStep struct {
	text string
	err  error
}

// MockCall records the arguments of one Complete invocation.
type MockCall struct {
	Prompt string
	Opts   Options
}

// NewMock returns an empty mock; queue behavior with Respond/Fail.
func NewMock() *Mock {
	return &Mock{}
}

// Respond queues a successful response with the given text.
func (m *Mock) Respond(text string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{text: text})
	return m
}

// Fail queues an error.
func (m *Mock) Fail(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{err: err})
	return m
}

// Calls returns a copy of the recorded invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) Complete(ctx context.Context, prompt string, opts Options) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransientError{Err: err}
	}

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, Opts: opts})
	var step mockStep
	scripted := len(m.steps) > 0
	if scripted {
		step = m.steps[0]
		m.steps = m.steps[1:]
	}
	m.mu.Unlock()

	if scripted {
		if step.err != nil {
			return nil, step.err
		}
		return &Response{
			Text:             step.text,
			Model:            "mock",
			PromptTokens:     len(strings.Fields(prompt)),
			CompletionTokens: len(strings.Fields(step.text)),
			TotalTokens:      len(strings.Fields(prompt)) + len(strings.Fields(step.text)),
			Latency:          time.Millisecond,
		}, nil
	}

	text := cannedArticle(prompt)
	return &Response{
		Text:             text,
		Model:            "mock",
		PromptTokens:     len(strings.Fields(prompt)),
		CompletionTokens: len(strings.Fields(text)),
		TotalTokens:      len(strings.Fields(prompt)) + len(strings.Fields(text)),
		Latency:          time.Millisecond,
	}, nil
}

// cannedArticle builds a structurally complete article so scoring and the
// processor chain have something realistic to chew on offline.
func cannedArticle(prompt string) string {
	topic := "the topic at hand"
	if i := strings.Index(prompt, `"`); i >= 0 {
		if j := strings.Index(prompt[i+1:], `"`); j > 0 {
			topic = prompt[i+1 : i+1+j]
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: A Practical Guide\n\n", topic)
	fmt.Fprintf(&sb, "Understanding %s matters more than ever. This guide walks through the essentials, why they matter, and how to apply them.\n\n", topic)
	sb.WriteString("## Why It Matters\n\n")
	fmt.Fprintf(&sb, "There are many reasons to care about %s. It affects how you work, how you plan, and how you measure results. Most people underestimate it until they run into a problem it would have prevented.\n\n", topic)
	sb.WriteString("## Getting Started\n\n")
	sb.WriteString("Start with the fundamentals. Build a small habit, measure the outcome, and iterate. The important thing is consistency rather than intensity.\n\n")
	sb.WriteString("## Conclusion\n\n")
	fmt.Fprintf(&sb, "%s rewards anyone willing to invest a little attention. What has your experience been?\n\n", topic)
	sb.WriteString("Tags: guide, basics, practice\n")
	sb.WriteString("Engagement Tips: Ask readers to share their own experiences\n")
	return sb.String()
}
