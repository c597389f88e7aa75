package notify

import (
	"errors"
	"fmt"
)

// ErrSendFailed matches every *SendError.
var ErrSendFailed = errors.New("notification endpoint rejected the request")

// SendError is returned when the endpoint answers with a non-2xx status or
// success=false. Message is the endpoint's own text, unmodified.
type SendError struct {
	StatusCode int
	Message    string
}

func (e *SendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("notification endpoint returned status %d", e.StatusCode)
}

// Is makes errors.Is(err, ErrSendFailed) work for any SendError.
func (e *SendError) Is(target error) bool {
	return target == ErrSendFailed
}
