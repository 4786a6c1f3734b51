// Package fetch downloads files over HTTP with size and time limits.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeBot/1.0)"

// DefaultMaxBytes caps a download when Options.MaxBytes is unset.
const DefaultMaxBytes int64 = 20 << 20

// Result holds the body and metadata of a download.
type Result struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during a download. URL has its path removed
// since file URLs embed the bot token.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	MaxBytes  int64
	Client    *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// URL downloads the body at urlStr. Bodies larger than MaxBytes are rejected
// without being read in full.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	// Validate URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     "(invalid)",
			Message: "invalid URL",
			Cause:   err,
		}
	}
	safeURL := parsedURL.Scheme + "://" + parsedURL.Host

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	// Create request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     safeURL,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	// Execute request
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     safeURL,
			Message: "HTTP request failed",
			Cause:   unwrapURLError(err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	result := &Result{
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	// Check for non-success status
	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:     safeURL,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	if resp.ContentLength > maxBytes {
		return result, &Error{
			URL:     safeURL,
			Message: fmt.Sprintf("body of %d bytes exceeds limit of %d", resp.ContentLength, maxBytes),
		}
	}

	// Read one byte past the limit to detect oversize bodies without a length header
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return result, &Error{
			URL:     safeURL,
			Message: "failed to read response body",
			Cause:   err,
		}
	}
	if int64(len(body)) > maxBytes {
		return result, &Error{
			URL:     safeURL,
			Message: fmt.Sprintf("body exceeds limit of %d bytes", maxBytes),
		}
	}

	result.Body = body
	return result, nil
}

// unwrapURLError drops the *url.Error wrapper, whose message repeats the full URL.
func unwrapURLError(err error) error {
	if uerr, ok := err.(*url.Error); ok {
		return uerr.Err
	}
	return err
}
