package content

import "time"

// QualityScore is a pure function of (request, raw text); see quality.Score.
// All values are in [0, 1].
type QualityScore struct {
	Overall           float64 `json:"overall"`
	LengthConformance float64 `json:"length_conformance"`
	KeywordCoverage   float64 `json:"keyword_coverage"`
	StructurePresence float64 `json:"structure_presence"`
	Readability       float64 `json:"readability"`
}

// Usage reports token counts for one model call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Attempt records one prompt/response/score cycle within a session.
// Attempts are append-only; the orchestrator never deletes or edits one
// after it has been recorded.
type Attempt struct {
	Index        int           `json:"index"`
	PromptText   string        `json:"prompt_text"`
	TemplateName string        `json:"template_name"`
	Temperature  float64       `json:"temperature"`
	RawText      string        `json:"raw_text"`
	Model        string        `json:"model,omitempty"`
	Usage        Usage         `json:"usage"`
	Latency      time.Duration `json:"latency_ns"`
	Score        QualityScore  `json:"score"`
	Accepted     bool          `json:"accepted"`
	Reason       string        `json:"reason,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
}

// Content is the final, processed output of a session. It is built from
// exactly one attempt's raw text and is immutable once produced.
type Content struct {
	Title             string        `json:"title"`
	Body              string        `json:"body"`
	Tags              []string      `json:"tags,omitempty"`
	EngagementTips    []string      `json:"engagement_tips,omitempty"`
	PlatformNotes     []string      `json:"platform_notes,omitempty"`
	AppliedProcessors []string      `json:"applied_processors"`
	WordCount         int           `json:"word_count"`
	ReadTime          time.Duration `json:"read_time_ns"`
	BelowThreshold    bool          `json:"below_threshold,omitempty"`
	SourceAttempt     int           `json:"source_attempt"`
}

// Status is the terminal state of a session.
type Status string

const (
	StatusRunning          Status = "running"
	StatusSucceeded        Status = "succeeded"
	StatusExhaustedRetries Status = "exhausted_retries"
	StatusAborted          Status = "aborted"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusExhaustedRetries || s == StatusAborted
}

// Session owns the ordered attempts for one Request and, when it closes,
// the final Content and terminal status.
type Session struct {
	ID                string     `json:"id"`
	Request           Request    `json:"request"`
	Attempts          []Attempt  `json:"attempts"`
	TransientFailures int        `json:"transient_failures"`
	Content           *Content   `json:"content,omitempty"`
	Status            Status     `json:"status"`
	AbortReason       string     `json:"abort_reason,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

// AcceptedAttempt returns the single accepted attempt, or nil if the
// session aborted before any attempt was accepted.
func (s *Session) AcceptedAttempt() *Attempt {
	for i := range s.Attempts {
		if s.Attempts[i].Accepted {
			return &s.Attempts[i]
		}
	}
	return nil
}

// BestAttempt returns the highest-scoring attempt seen so far, or nil when
// no attempt reached scoring.
func (s *Session) BestAttempt() *Attempt {
	var best *Attempt
	for i := range s.Attempts {
		if best == nil || s.Attempts[i].Score.Overall > best.Score.Overall {
			best = &s.Attempts[i]
		}
	}
	return best
}

// ReadTimeFor estimates reading time at 200 words per minute, never less
// than one minute.
func ReadTimeFor(wordCount int) time.Duration {
	minutes := (wordCount + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				count++
			}
			inWord = true
		}
	}
	return count
}
