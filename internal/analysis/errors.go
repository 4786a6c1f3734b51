package analysis

import "fmt"

// EmptyResultError means the provider answered successfully but with no usable text.
type EmptyResultError struct {
	Model string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("empty analysis from model %s", e.Model)
}
