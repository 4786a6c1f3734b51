package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Document is a binary payload with an explicitly declared media type.
type Document struct {
	Data     []byte
	MIMEType string
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateFromDocument sends prompt and doc in a single request and returns
	// the model's text. Failures are classified as *RetryableError or *FatalError.
	GenerateFromDocument(ctx context.Context, prompt string, doc Document) (string, error)
	// Model returns the provider model identifier
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateFromDocument implements Client.
func (c *GeminiClient) GenerateFromDocument(ctx context.Context, prompt string, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", &FatalError{Cause: fmt.Errorf("document is empty")}
	}
	if doc.MIMEType == "" {
		return "", &FatalError{Cause: fmt.Errorf("document media type is required")}
	}

	if c.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(c.config.Temperature)

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data},
	)
	if err != nil {
		return "", ClassifyError(fmt.Errorf("failed to generate content: %w", err))
	}

	return extractTextFromResponse(resp), nil
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.config.Model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse concatenates the text parts of the first candidate.
// A response without candidates or text yields "", which callers treat as an
// empty analysis rather than a transport failure.
func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
