// Package analysis turns an uploaded resume into the model's free-form
// feedback and pulls the related job titles out of it.
package analysis

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"github.com/growly/resume-bot/internal/llm"
	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/prompts"
)

// Analyzer sends documents to the model with a fixed instructional prompt,
// retrying transient failures.
type Analyzer struct {
	client llm.Client
	policy llm.RetryPolicy
	prompt string
	logger *log.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRetryPolicy overrides the default 3-attempt backoff.
func WithRetryPolicy(p llm.RetryPolicy) Option {
	return func(a *Analyzer) { a.policy = p }
}

// WithPrompt overrides the embedded analysis prompt.
func WithPrompt(prompt string) Option {
	return func(a *Analyzer) { a.prompt = prompt }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer around client.
func NewAnalyzer(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client: client,
		policy: llm.DefaultRetryPolicy(),
		prompt: prompts.ResumeAnalysis(),
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the identifier of the model doing the analysis.
func (a *Analyzer) Model() string {
	return a.client.Model()
}

// Analyze returns the model's text for doc. Empty or whitespace-only text is a
// successful result; callers decide how to treat it. Exhausted or fatal
// failures are returned as *llm.UpstreamError.
func (a *Analyzer) Analyze(ctx context.Context, doc llm.Document) (string, error) {
	return llm.Retry(ctx, a.policy,
		func(ctx context.Context) (string, error) {
			return a.client.GenerateFromDocument(ctx, a.prompt, doc)
		},
		func(attempt int, err error, wait time.Duration) {
			a.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", wait).
				Str("model", a.client.Model()).
				Err(err).
				Msg("upstream analysis call failed, retrying")
		},
	)
}
