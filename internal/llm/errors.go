package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit is returned for HTTP 429 responses.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the output failed JSON parsing or schema
// validation.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrUnavailable wraps transport failures and 5xx responses.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err == nil {
		return "model provider unavailable"
	}
	return fmt.Sprintf("model provider unavailable: %v", e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrTruncated means generation stopped at MaxTokens before the structured
// output was complete.
type ErrTruncated struct {
	Content json.RawMessage
}

func (e *ErrTruncated) Error() string {
	return "model response truncated at max tokens"
}

// checkOutput validates structured output. A truncated response that fails
// validation is reported as ErrTruncated since retrying with the same
// budget will not help.
func checkOutput(req Request, content json.RawMessage, stop string) error {
	if req.Schema == nil {
		return nil
	}
	if err := validateResponse(req.Schema, content); err != nil {
		if stop == "max_tokens" {
			return &ErrTruncated{Content: content}
		}
		return err
	}
	return nil
}
