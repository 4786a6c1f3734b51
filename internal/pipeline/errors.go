package pipeline

import "fmt"

// FailureReason says why a pipeline ended in StateFailed.
type FailureReason string

const (
	ReasonUpstream    FailureReason = "upstream"
	ReasonEmptyResult FailureReason = "empty-result"
	ReasonRender      FailureReason = "render"
)

// MarkupParseError is returned by a Sender when the chat client rejects the
// markup of a chunk. It triggers the plain-text resend.
type MarkupParseError struct {
	Cause error
}

func (e *MarkupParseError) Error() string {
	return fmt.Sprintf("markup parse error: %v", e.Cause)
}

func (e *MarkupParseError) Unwrap() error {
	return e.Cause
}

// DeliveryError is the terminal failure of a pipeline run. Cause is the
// underlying error unchanged, reachable with errors.As.
type DeliveryError struct {
	State  State
	Reason FailureReason
	Cause  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("pipeline failed (%s) after %s: %v", e.Reason, e.State, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}
