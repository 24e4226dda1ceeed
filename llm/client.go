// Package llm abstracts the model endpoint behind a small client
// interface so the pipeline can run against the real API or a mock.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options carries the per-call generation parameters.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Response is the raw model output plus call metadata.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Latency          time.Duration
}

// Client sends a prompt to the model endpoint. Implementations must
// classify failures as *TransientError or *FatalError so the orchestrator
// can decide whether to retry.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (*Response, error)
}

// TransientError marks a failure that may clear on retry: network errors,
// timeouts, rate limits, server-side errors.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient llm error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure that retrying cannot fix: bad credentials,
// malformed requests, unusable responses.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal llm error: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err is a non-retryable client failure.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
