package llm

import "errors"

var (
	// ErrModelUnavailable indicates the model server is unreachable.
	ErrModelUnavailable = errors.New("model server unavailable")

	// ErrTimeout indicates the request exceeded the task timeout. Callers may retry.
	ErrTimeout = errors.New("model request timed out")

	// ErrEmptyReply indicates the server answered without any content.
	ErrEmptyReply = errors.New("model returned an empty reply")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("model retry attempts exhausted")
)
