// Package generator drives the content generation pipeline: build a
// prompt, call the model, score the result, retry or accept, run the
// processor chain, and record everything through the session store.
package generator

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inkforge/config"
	"inkforge/content"
	"inkforge/llm"
	"inkforge/processor"
	"inkforge/prompt"
	"inkforge/quality"
	"inkforge/store"
)

// maxRetryTemperature caps the per-retry temperature ramp.
const maxRetryTemperature = 1.0

// Params wires the generator's collaborators. Client is required; the
// rest default to sensible implementations.
type Params struct {
	Client   llm.Client
	Builder  *prompt.Builder
	Chain    *processor.Chain
	Recorder store.Recorder
	Logger   *zap.Logger
	Config   config.Config
}

// Generator runs one session at a time per call; concurrent calls are
// safe because sessions share no mutable state beyond the recorder.
type Generator struct {
	client   llm.Client
	builder  *prompt.Builder
	chain    *processor.Chain
	recorder store.Recorder
	logger   *zap.Logger
	cfg      config.Config
	weights  quality.Weights

	// sleep is swapped out in tests to observe backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New builds a Generator from Params.
func New(p Params) (*Generator, error) {
	if p.Client == nil {
		return nil, errors.New("llm client is required")
	}
	if p.Builder == nil {
		p.Builder = prompt.NewBuilder()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Chain == nil {
		p.Chain = processor.DefaultChain(p.Logger, enabledProcessors(p.Config.Pipeline.EnabledProcessors))
	}
	if p.Recorder == nil {
		p.Recorder = store.Nop{}
	}

	pl := p.Config.Pipeline
	weights := quality.Weights{
		Length:    pl.ScoreWeightLength,
		Keywords:  pl.ScoreWeightKeywords,
		Structure: pl.ScoreWeightStructure,
		Read:      pl.ScoreWeightRead,
	}
	if weights.Length+weights.Keywords+weights.Structure+weights.Read == 0 {
		weights = quality.DefaultWeights()
	}

	return &Generator{
		client:   p.Client,
		builder:  p.Builder,
		chain:    p.Chain,
		recorder: p.Recorder,
		logger:   p.Logger,
		cfg:      p.Config,
		weights:  weights,
		sleep:    sleepCtx,
		now:      time.Now,
	}, nil
}

func enabledProcessors(names []string) []processor.Name {
	if names == nil {
		return nil
	}
	out := make([]processor.Name, 0, len(names))
	for _, n := range names {
		out = append(out, processor.Name(n))
	}
	return out
}

// Generate runs the full pipeline for one request. The returned session
// is always fully populated: it carries either a Content (possibly
// flagged below-threshold) or an Aborted status, in which case the
// terminal error is also returned.
func (g *Generator) Generate(ctx context.Context, req content.Request) (*content.Session, error) {
	sess := &content.Session{
		ID:        store.NewSessionID(g.now()),
		Request:   req,
		Status:    content.StatusRunning,
		StartedAt: g.now(),
	}
	logger := g.logger.With(zap.String("session", sess.ID))
	logger.Info("generation started",
		zap.String("topic", req.Topic),
		zap.String("platform", string(req.Platform)))

	if err := g.recorder.Begin(sess); err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	// Building.
	basePrompt, err := g.builder.Build(req)
	if err != nil {
		return sess, g.abort(sess, logger, err)
	}

	maxAttempts := g.cfg.Pipeline.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	threshold := g.cfg.Pipeline.AcceptanceThreshold
	jitter := rand.New(rand.NewSource(int64(seedFor(sess.ID))))

	for attemptIdx := 1; attemptIdx <= maxAttempts; attemptIdx++ {
		p := basePrompt
		temperature := g.cfg.AI.Temperature
		if attemptIdx > 1 {
			// Retries must not repeat the previous attempt: vary both the
			// prompt and the temperature.
			p = g.builder.Variant(basePrompt, attemptIdx-1)
			temperature = min(temperature+float64(attemptIdx-1)*g.cfg.Pipeline.TemperatureStep, maxRetryTemperature)
		}

		resp, err := g.complete(ctx, sess, logger, p.Text, temperature, jitter)
		if err != nil {
			return sess, g.abort(sess, logger, err)
		}

		// Scoring.
		score := quality.Score(req, resp.Text, g.weights)
		att := content.Attempt{
			Index:        attemptIdx,
			PromptText:   p.Text,
			TemplateName: p.TemplateName,
			Temperature:  temperature,
			RawText:      resp.Text,
			Model:        resp.Model,
			Usage: content.Usage{
				PromptTokens:     resp.PromptTokens,
				CompletionTokens: resp.CompletionTokens,
				TotalTokens:      resp.TotalTokens,
			},
			Latency:   resp.Latency,
			Score:     score,
			StartedAt: g.now(),
		}

		accepted := score.Overall >= threshold
		if accepted {
			att.Accepted = true
		} else if attemptIdx < maxAttempts {
			att.Reason = fmt.Sprintf("score %.2f below threshold %.2f", score.Overall, threshold)
		} else {
			att.Reason = fmt.Sprintf("score %.2f below threshold %.2f, retries exhausted", score.Overall, threshold)
		}
		sess.Attempts = append(sess.Attempts, att)
		g.record(sess.ID, att, logger)

		logger.Info("attempt scored",
			zap.Int("attempt", attemptIdx),
			zap.Float64("score", score.Overall),
			zap.Bool("accepted", accepted))

		if accepted {
			g.finish(sess, logger, &sess.Attempts[len(sess.Attempts)-1], content.StatusSucceeded)
			return sess, nil
		}
	}

	// Retries exhausted: the best-scoring attempt still yields content,
	// flagged below-threshold, and the caller decides what to do with it.
	best := sess.BestAttempt()
	logger.Warn("retries exhausted, using best attempt",
		zap.Int("attempt", best.Index),
		zap.Float64("score", best.Score.Overall))
	g.finish(sess, logger, best, content.StatusExhaustedRetries)
	return sess, nil
}

// Batch generates independent sessions concurrently. Sessions do not
// share state, so one failing or aborting never affects the others; the
// result slice is ordered like the requests.
func (g *Generator) Batch(ctx context.Context, reqs []content.Request, concurrency int) ([]*content.Session, error) {
	if concurrency < 1 {
		concurrency = 4
	}
	sessions := make([]*content.Session, len(reqs))
	errs := make([]error, len(reqs))

	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			sessions[i], errs[i] = g.Generate(ctx, req)
			return nil
		})
	}
	_ = eg.Wait()
	return sessions, errors.Join(errs...)
}

// complete performs the Generating transition: it calls the model,
// retrying transient failures with capped exponential backoff until the
// transient-failure limit is reached. Cancellation is checked before
// every call; an in-flight call is never force-killed.
func (g *Generator) complete(ctx context.Context, sess *content.Session, logger *zap.Logger, promptText string, temperature float64, jitter *rand.Rand) (*llm.Response, error) {
	opts := llm.Options{
		Model:       g.cfg.AI.Model,
		MaxTokens:   g.cfg.AI.MaxTokens,
		Temperature: temperature,
		TopP:        g.cfg.AI.TopP,
	}
	limit := g.cfg.Pipeline.TransientFailLimit

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}

		resp, err := g.client.Complete(ctx, promptText, opts)
		if err == nil {
			return resp, nil
		}
		if llm.IsFatal(err) || !llm.IsTransient(err) {
			return nil, err
		}

		sess.TransientFailures++
		logger.Warn("transient ai failure",
			zap.Int("count", sess.TransientFailures),
			zap.Int("limit", limit),
			zap.Error(err))
		if sess.TransientFailures >= limit {
			return nil, fmt.Errorf("transient failure limit reached after %d failures: %w", sess.TransientFailures, err)
		}

		delay := g.backoff(sess.TransientFailures, jitter)
		logger.Debug("backing off", zap.Duration("delay", delay))
		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
	}
}

// backoff doubles the base delay per failure up to the cap, plus jitter
// bounded below the doubling step so successive delays keep increasing.
// Once the cap is reached every later delay is exactly the cap, so the
// sequence never decreases.
func (g *Generator) backoff(failures int, jitter *rand.Rand) time.Duration {
	limit := g.cfg.Pipeline.BackoffCap
	delay := g.cfg.Pipeline.BackoffBase << (failures - 1)
	if delay >= limit || delay <= 0 {
		return limit
	}
	delay += time.Duration(jitter.Int63n(int64(delay/4) + 1))
	if delay > limit {
		delay = limit
	}
	return delay
}

// finish runs the Processing transition and closes the session.
func (g *Generator) finish(sess *content.Session, logger *zap.Logger, att *content.Attempt, status content.Status) {
	parsed := content.ParseRaw(att.RawText)
	out := g.chain.Run(parsed.Body, sess.Request)

	c := &content.Content{
		Title:             parsed.Title,
		Body:              out.Text,
		Tags:              parsed.Tags,
		EngagementTips:    append(parsed.EngagementTips, out.Tips...),
		PlatformNotes:     out.Notes,
		AppliedProcessors: out.Applied,
		WordCount:         content.WordCount(out.Text),
		BelowThreshold:    status == content.StatusExhaustedRetries,
		SourceAttempt:     att.Index,
	}
	c.ReadTime = content.ReadTimeFor(c.WordCount)

	now := g.now()
	sess.Content = c
	sess.Status = status
	sess.FinishedAt = &now
	g.finalize(sess, logger)

	logger.Info("generation completed",
		zap.String("status", string(status)),
		zap.Int("words", c.WordCount),
		zap.Strings("processors", c.AppliedProcessors))
}

// abort closes the session with the terminal error attached and returns
// that error.
func (g *Generator) abort(sess *content.Session, logger *zap.Logger, cause error) error {
	now := g.now()
	sess.Status = content.StatusAborted
	sess.AbortReason = cause.Error()
	sess.FinishedAt = &now
	g.finalize(sess, logger)

	logger.Error("generation aborted", zap.Error(cause))
	return cause
}

// record and finalize tolerate storage failures: losing a log record must
// not lose the generation itself.
func (g *Generator) record(sessionID string, att content.Attempt, logger *zap.Logger) {
	if err := g.recorder.Record(sessionID, att); err != nil {
		logger.Warn("failed to record attempt", zap.Int("attempt", att.Index), zap.Error(err))
	}
}

func (g *Generator) finalize(sess *content.Session, logger *zap.Logger) {
	if err := g.recorder.Finalize(sess); err != nil {
		logger.Warn("failed to finalize session log", zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func seedFor(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}
