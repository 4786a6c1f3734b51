package document

import "fmt"

// UnsupportedTypeError is returned for uploads that are neither PDF nor a
// supported image format.
type UnsupportedTypeError struct {
	MIMEType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported document type %q", e.MIMEType)
}

// TooLargeError is returned when an upload exceeds the configured size limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("document is %d bytes, limit is %d", e.Size, e.Limit)
}

// ConversionError wraps a failure turning an image into a PDF.
type ConversionError struct {
	MIMEType string
	Cause    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s to pdf: %v", e.MIMEType, e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}
