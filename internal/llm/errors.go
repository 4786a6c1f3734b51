package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryableError marks a failure worth another attempt (network, timeout,
// rate limit, provider-side 5xx).
type RetryableError struct {
	Cause error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Cause)
}

func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// FatalError marks a failure that will not succeed on retry, such as a
// malformed request or rejected credentials.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Cause)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// UpstreamError is returned once the retry loop gives up, either because all
// attempts failed or because a fatal error ended it early.
type UpstreamError struct {
	Attempts int
	Cause    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream analysis failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err should trigger another attempt.
// Unclassified errors are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return false
	}
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}
	_, isFatal := ClassifyError(err).(*FatalError)
	return !isFatal
}

// ClassifyError wraps a raw provider error as *RetryableError or *FatalError.
// Errors that are already classified are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var retryable *RetryableError
	var fatal *FatalError
	if errors.As(err, &retryable) || errors.As(err, &fatal) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return &FatalError{Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Cause: err}
	}

	if code, ok := httpCode(err); ok {
		if fatalHTTPStatus(code) {
			return &FatalError{Cause: err}
		}
		return &RetryableError{Cause: err}
	}

	if st, ok := status.FromError(err); ok {
		if fatalGRPCCode(st.Code()) {
			return &FatalError{Cause: err}
		}
		return &RetryableError{Cause: err}
	}

	return &RetryableError{Cause: err}
}

func httpCode(err error) (int, bool) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code, true
	}
	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		if code := aerr.HTTPCode(); code > 0 {
			return code, true
		}
	}
	return 0, false
}

func fatalHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}

func fatalGRPCCode(code codes.Code) bool {
	switch code {
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated,
		codes.NotFound, codes.FailedPrecondition, codes.Unimplemented, codes.OutOfRange:
		return true
	default:
		return false
	}
}
