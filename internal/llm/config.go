// Package llm wraps the generative model used to analyze documents, including
// the retry policy around the upstream call.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultCallTimeout bounds one upstream attempt. Three attempts and their
// backoff fit inside the default analysis timeout.
const DefaultCallTimeout = 50 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Model       string
	Temperature float32
	// CallTimeout bounds a single upstream attempt; zero means no per-call limit.
	CallTimeout time.Duration
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderGemini,
		Model:       DefaultModel,
		Temperature: 0.4,
		CallTimeout: DefaultCallTimeout,
	}
}

// WithModel returns a copy of c using model, or c's model when model is empty.
func (c *Config) WithModel(model string) *Config {
	next := *c
	if model != "" {
		next.Model = model
	}
	return &next
}

// WithBudget returns a copy of c whose CallTimeout leaves room for every
// attempt of policy within total. It never raises the configured CallTimeout.
func (c *Config) WithBudget(total time.Duration, policy RetryPolicy) *Config {
	next := *c
	if total <= 0 {
		return &next
	}
	perAttempt := policy.AttemptTimeout(total)
	if next.CallTimeout <= 0 || perAttempt < next.CallTimeout {
		next.CallTimeout = perAttempt
	}
	return &next
}
