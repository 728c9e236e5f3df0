package service

import (
	"errors"
	"fmt"
)

// ErrLLMUnavailable marks failures reaching the chat backend. Handlers
// map it to a gateway error with errors.Is.
var ErrLLMUnavailable = errors.New("llm backend unavailable")

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// LLMFailure tags err as a chat backend failure, keeping the underlying
// message for logs.
func LLMFailure(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", msg, ErrLLMUnavailable, err)
}
