package generator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/zap"

	"inkforge/config"
	"inkforge/content"
	"inkforge/llm"
	"inkforge/prompt"
	"inkforge/store"
)

// goodText scores well against testRequest: right length, both keywords,
// paragraph breaks, readable sentences.
const goodText = `Alpha tools shape how modern teams plan their work each week now.

Beta releases teach us what real users actually need from the product.

Keep shipping small changes, measure the results, and adjust the plan. Teams that iterate quickly tend to learn faster than their slower competitors.`

// lowText scores poorly on every axis except short-form structure.
const lowText = "bad."

// midText lands between the two.
const midText = "Alpha helps.\n\nBeta helps too."

func testRequest() content.Request {
	return content.Request{
		Topic:    "shipping software",
		Country:  content.CountryUS,
		Language: "en",
		Industry: content.IndustryTechnology,
		Platform: content.PlatformTwitter,
		Tone:     content.ToneCasual,
		Goal:     content.GoalEngagement,
		Keywords: []string{"alpha", "beta"},
		Length:   50,
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Pipeline.BackoffBase = 10 * time.Millisecond
	cfg.Pipeline.BackoffCap = 200 * time.Millisecond
	return cfg
}

type recorderSpy struct {
	mu       sync.Mutex
	begins   int
	finals   int
	records  []content.Attempt
	final    content.Status
	beginErr error
}

func (r *recorderSpy) Begin(sess *content.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begins++
	return r.beginErr
}

func (r *recorderSpy) Record(sessionID string, att content.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, att)
	return nil
}

func (r *recorderSpy) Finalize(sess *content.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals++
	r.final = sess.Status
	return nil
}

func newTestGenerator(t *testing.T, client llm.Client, cfg config.Config, rec store.Recorder) (*Generator, *[]time.Duration) {
	t.Helper()
	g, err := New(Params{Client: client, Recorder: rec, Logger: zap.NewNop(), Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	delays := &[]time.Duration{}
	g.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return g, delays
}

func TestGenerateAcceptsOnRetry(t *testing.T) {
	mock := llm.NewMock().Respond(lowText).Respond(goodText)
	rec := &recorderSpy{}
	g, _ := newTestGenerator(t, mock, testConfig(), rec)

	sess, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}

	if sess.Status != content.StatusSucceeded {
		t.Fatalf("status = %s, want %s", sess.Status, content.StatusSucceeded)
	}
	if len(sess.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(sess.Attempts))
	}
	if sess.Attempts[0].Accepted || sess.Attempts[0].Reason == "" {
		t.Fatalf("first attempt should be rejected with a reason: %+v", sess.Attempts[0])
	}
	if !sess.Attempts[1].Accepted {
		t.Fatalf("second attempt should be accepted: %+v", sess.Attempts[1])
	}
	if sess.Content == nil || sess.Content.SourceAttempt != 2 || sess.Content.BelowThreshold {
		t.Fatalf("content should come from attempt 2 above threshold: %+v", sess.Content)
	}
	if sess.FinishedAt == nil {
		t.Fatalf("finished timestamp not set")
	}

	if rec.begins != 1 || rec.finals != 1 || len(rec.records) != 2 {
		t.Fatalf("recorder calls: begins=%d finals=%d records=%d", rec.begins, rec.finals, len(rec.records))
	}
	if rec.final != content.StatusSucceeded {
		t.Fatalf("finalized status = %s", rec.final)
	}
}

func TestRetryVariesPromptAndTemperature(t *testing.T) {
	mock := llm.NewMock().Respond(lowText).Respond(goodText)
	g, _ := newTestGenerator(t, mock, testConfig(), &recorderSpy{})

	if _, err := g.Generate(context.Background(), testRequest()); err != nil {
		t.Fatal(err)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Prompt == calls[1].Prompt {
		t.Fatalf("retry reused the identical prompt")
	}
	if calls[1].Opts.Temperature <= calls[0].Opts.Temperature {
		t.Fatalf("retry temperature %v not above %v", calls[1].Opts.Temperature, calls[0].Opts.Temperature)
	}
}

func TestRetryTemperatureCapped(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Temperature = 0.95
	mock := llm.NewMock().Respond(lowText).Respond(goodText)
	g, _ := newTestGenerator(t, mock, cfg, &recorderSpy{})

	if _, err := g.Generate(context.Background(), testRequest()); err != nil {
		t.Fatal(err)
	}
	calls := mock.Calls()
	if got := calls[1].Opts.Temperature; got != 1.0 {
		t.Fatalf("retry temperature = %v, want capped at 1.0", got)
	}
}

func TestTransientFailuresRetriedWithBackoff(t *testing.T) {
	netErr := &llm.TransientError{Err: errors.New("rate limited")}
	mock := llm.NewMock().Fail(netErr).Fail(netErr).Respond(goodText)
	rec := &recorderSpy{}
	g, delays := newTestGenerator(t, mock, testConfig(), rec)

	sess, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}

	if sess.TransientFailures != 2 {
		t.Fatalf("transient failures = %d, want 2", sess.TransientFailures)
	}
	if len(sess.Attempts) != 1 || !sess.Attempts[0].Accepted {
		t.Fatalf("expected a single accepted attempt, got %+v", sess.Attempts)
	}
	if len(*delays) != 2 {
		t.Fatalf("backoff delays = %v, want 2 entries", *delays)
	}
	if (*delays)[1] <= (*delays)[0] {
		t.Fatalf("backoff delays not increasing: %v", *delays)
	}
}

func TestBackoffNeverDecreasesAtCap(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.BackoffCap = 40 * time.Millisecond
	g, _ := newTestGenerator(t, llm.NewMock(), cfg, &recorderSpy{})

	jitter := rand.New(rand.NewSource(1))
	var prev time.Duration
	for failures := 1; failures <= 12; failures++ {
		d := g.backoff(failures, jitter)
		if d > cfg.Pipeline.BackoffCap {
			t.Fatalf("failure %d: delay %v above cap %v", failures, d, cfg.Pipeline.BackoffCap)
		}
		if d < prev {
			t.Fatalf("failure %d: delay %v below previous %v", failures, d, prev)
		}
		prev = d
	}
	if prev != cfg.Pipeline.BackoffCap {
		t.Fatalf("capped delay = %v, want exactly %v", prev, cfg.Pipeline.BackoffCap)
	}
}

func TestTransientLimitAborts(t *testing.T) {
	netErr := &llm.TransientError{Err: errors.New("connection reset")}
	mock := llm.NewMock().Fail(netErr).Fail(netErr).Fail(netErr)
	rec := &recorderSpy{}
	g, _ := newTestGenerator(t, mock, testConfig(), rec)

	sess, err := g.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatalf("expected abort error")
	}
	if sess.Status != content.StatusAborted || sess.AbortReason == "" {
		t.Fatalf("session not aborted: %+v", sess)
	}
	if sess.TransientFailures != 3 {
		t.Fatalf("transient failures = %d, want 3", sess.TransientFailures)
	}
	if sess.Content != nil || len(sess.Attempts) != 0 {
		t.Fatalf("aborted session carries partial results: %+v", sess)
	}
	if rec.finals != 1 || rec.final != content.StatusAborted {
		t.Fatalf("abort not finalized: finals=%d status=%s", rec.finals, rec.final)
	}
}

func TestExhaustedRetriesKeepsBestAttempt(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.AcceptanceThreshold = 0.999
	mock := llm.NewMock().Respond(lowText).Respond(midText).Respond(goodText)
	g, _ := newTestGenerator(t, mock, cfg, &recorderSpy{})

	sess, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("exhausted retries must not be an error: %v", err)
	}

	if sess.Status != content.StatusExhaustedRetries {
		t.Fatalf("status = %s, want %s", sess.Status, content.StatusExhaustedRetries)
	}
	if len(sess.Attempts) != cfg.Pipeline.MaxRetries {
		t.Fatalf("attempts = %d, want %d", len(sess.Attempts), cfg.Pipeline.MaxRetries)
	}
	for _, att := range sess.Attempts {
		if att.Accepted {
			t.Fatalf("no attempt may be accepted below threshold: %+v", att)
		}
	}

	best := 1
	for _, att := range sess.Attempts {
		if att.Score.Overall > sess.Attempts[best-1].Score.Overall {
			best = att.Index
		}
	}
	if sess.Content == nil || !sess.Content.BelowThreshold {
		t.Fatalf("best-effort content missing or unflagged: %+v", sess.Content)
	}
	if sess.Content.SourceAttempt != best {
		t.Fatalf("content from attempt %d, best was %d", sess.Content.SourceAttempt, best)
	}
}

func TestFatalErrorAbortsImmediately(t *testing.T) {
	mock := llm.NewMock().Fail(&llm.FatalError{Err: errors.New("invalid api key")})
	g, delays := newTestGenerator(t, mock, testConfig(), &recorderSpy{})

	sess, err := g.Generate(context.Background(), testRequest())
	if err == nil || !llm.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if sess.Status != content.StatusAborted {
		t.Fatalf("status = %s, want aborted", sess.Status)
	}
	if sess.TransientFailures != 0 || len(*delays) != 0 {
		t.Fatalf("fatal error must not be retried: failures=%d delays=%v", sess.TransientFailures, *delays)
	}
}

func TestCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, _ := newTestGenerator(t, llm.NewMock(), testConfig(), &recorderSpy{})
	sess, err := g.Generate(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sess.Status != content.StatusAborted {
		t.Fatalf("status = %s, want aborted", sess.Status)
	}
}

func TestMissingTemplateAborts(t *testing.T) {
	g, err := New(Params{
		Client:  llm.NewMock(),
		Builder: prompt.NewBuilderFromFS(fstest.MapFS{}),
		Logger:  zap.NewNop(),
		Config:  testConfig(),
	})
	if err != nil {
		t.Fatal(err)
	}

	sess, err := g.Generate(context.Background(), testRequest())
	if !errors.Is(err, prompt.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if sess.Status != content.StatusAborted {
		t.Fatalf("status = %s, want aborted", sess.Status)
	}
}

func TestBeginFailureStopsBeforeGeneration(t *testing.T) {
	mock := llm.NewMock()
	rec := &recorderSpy{beginErr: errors.New("disk full")}
	g, _ := newTestGenerator(t, mock, testConfig(), rec)

	if _, err := g.Generate(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected error when session log cannot be opened")
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("model called despite recorder failure")
	}
}

func TestBatchRunsIndependentSessions(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.AcceptanceThreshold = 0.1
	g, _ := newTestGenerator(t, llm.NewMock(), cfg, &recorderSpy{})

	reqs := []content.Request{testRequest(), testRequest(), testRequest()}
	reqs[0].Topic, reqs[1].Topic, reqs[2].Topic = "first", "second", "third"

	sessions, err := g.Batch(context.Background(), reqs, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 {
		t.Fatalf("sessions = %d, want 3", len(sessions))
	}
	ids := map[string]bool{}
	for i, sess := range sessions {
		if sess == nil || sess.Content == nil {
			t.Fatalf("session %d incomplete: %+v", i, sess)
		}
		if sess.Request.Topic != reqs[i].Topic {
			t.Fatalf("session %d out of order: topic %q", i, sess.Request.Topic)
		}
		if ids[sess.ID] {
			t.Fatalf("duplicate session id %s", sess.ID)
		}
		ids[sess.ID] = true
	}
}

func TestBatchCollectsAbortsWithoutStoppingOthers(t *testing.T) {
	// The queue yields one fatal error; whichever session consumes it
	// aborts while the rest complete from the canned fallback.
	mock := llm.NewMock().Fail(&llm.FatalError{Err: errors.New("bad request")})
	cfg := testConfig()
	cfg.Pipeline.AcceptanceThreshold = 0.1
	g, _ := newTestGenerator(t, mock, cfg, &recorderSpy{})

	sessions, err := g.Batch(context.Background(), []content.Request{testRequest(), testRequest()}, 1)
	if err == nil {
		t.Fatalf("expected the aborted session's error to surface")
	}
	completed := 0
	for _, sess := range sessions {
		if sess != nil && sess.Status == content.StatusSucceeded {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed session alongside the abort, got %d", completed)
	}
}
