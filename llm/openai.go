package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// OpenAI implements Client using the official openai-go SDK (chat
// completions). Any OpenAI-compatible endpoint works via BaseURL, which is
// how OpenRouter and similar gateways are reached.
type OpenAI struct {
	client  openai.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// OpenAISettings configures the OpenAI-compatible client.
type OpenAISettings struct {
	APIKey  string
	BaseURL string
	// Timeout bounds each Complete call. Zero means no per-call deadline
	// beyond the caller's context.
	Timeout time.Duration
	// RequestsPerMinute throttles calls client-side; zero disables the
	// limiter.
	RequestsPerMinute int
}

// NewOpenAI builds the client. The API key is required.
func NewOpenAI(settings OpenAISettings) (*OpenAI, error) {
	if settings.APIKey == "" {
		return nil, errors.New("api key missing; set ai.api_key or INKFORGE_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}

	var limiter *rate.Limiter
	if settings.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(settings.RequestsPerMinute)), 1)
	}

	return &OpenAI{
		client:  openai.NewClient(opts...),
		timeout: settings.Timeout,
		limiter: limiter,
	}, nil
}

func (o *OpenAI) Complete(ctx context.Context, prompt string, opts Options) (*Response, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, &TransientError{Err: err}
		}
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &FatalError{Err: errors.New("empty choices in completion response")}
	}

	return &Response{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		Latency:          latency,
	}, nil
}

// classify maps SDK failures onto the retryability taxonomy. Timeouts and
// rate limits are transient; auth and request errors are fatal.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransientError{Err: err}
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 408, apierr.StatusCode == 429, apierr.StatusCode >= 500:
			return &TransientError{Err: err}
		default:
			return &FatalError{Err: err}
		}
	}

	// Anything else is a connection-level failure.
	return &TransientError{Err: err}
}
